// Copyright 2024 The Defmap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resolve_test

import (
	"context"
	"testing"

	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/internal/itemtree/fixture"
	"rust-analyzer.dev/defmap/macroexpand"
	"rust-analyzer.dev/defmap/resolve"
)

func buildArchive(t *testing.T, archive string) *defmap.CrateDefMap {
	t.Helper()
	loaded, err := fixture.Load([]byte(archive))
	qt.Assert(t, qt.IsNil(err))
	c := loaded.Crate(crate.ID(1), nil, true)
	d, err := resolve.Build(context.Background(), c, nil, loaded.FS, loaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNotNil(d))
	return d
}

// Basic re-export: lib { mod a; pub use a::X; } a { pub struct X; }
func TestBasicReExport(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: a, file: a.rs}
  - use: {path: [a, X], vis: {kind: pub}}
-- src/a.rs.yaml --
items:
  - struct: {name: X, vis: {kind: pub}}
`)
	x, ok := d.Root.VisibleItem("X")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(x.Types))
	qt.Assert(t, qt.Equals(x.Types.Path.String(), "crate::a::X"))
	qt.Assert(t, qt.Equals(x.Types.Visibility.Kind, defmap.VisPublic))
}

// Glob then named: lib { mod m; use m::*; use m::T; } m { pub struct T; pub struct U; }
func TestGlobThenNamed(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: m, file: m.rs}
  - use: {path: [m], glob: true}
  - use: {path: [m, T]}
-- src/m.rs.yaml --
items:
  - struct: {name: T, vis: {kind: pub}}
  - struct: {name: U, vis: {kind: pub}}
`)
	tItem, ok := d.Root.VisibleItem("T")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(tItem.Types))
	qt.Assert(t, qt.Equals(tItem.Types.Path.String(), "crate::m::T"))

	uItem, ok := d.Root.VisibleItem("U")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(uItem.Types))
	qt.Assert(t, qt.Equals(uItem.Types.Path.String(), "crate::m::U"))
}

// Chained glob: lib { mod a; mod b; use a::*; } a { pub use b::*; } b { pub struct Z; }
func TestChainedGlob(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: a, file: a.rs}
  - mod: {name: b, file: b.rs}
  - use: {path: [a], glob: true}
-- src/a.rs.yaml --
items:
  - use: {path: [b], glob: true, vis: {kind: pub}}
-- src/b.rs.yaml --
items:
  - struct: {name: Z, vis: {kind: pub}}
`)
	z, ok := d.Root.VisibleItem("Z")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(z.Types))
	qt.Assert(t, qt.Equals(z.Types.Path.String(), "crate::b::Z"))
}

func TestChainedGlobAbsentWithoutReExport(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: a, file: a.rs}
  - mod: {name: b, file: b.rs}
  - use: {path: [a], glob: true}
-- src/a.rs.yaml --
items: []
-- src/b.rs.yaml --
items:
  - struct: {name: Z, vis: {kind: pub}}
`)
	_, ok := d.Root.VisibleItem("Z")
	qt.Assert(t, qt.IsFalse(ok))
}

// Macro-defined item: lib { m!(); } where m! expands to `pub struct Q;`.
func TestMacroDefinedItem(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - macro_rules:
      name: m
      expansion:
        items:
          - struct: {name: Q, vis: {kind: pub}}
  - macro_call: {path: [m]}
`)
	q, ok := d.Root.VisibleItem("Q")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(q.Types))
}

// Missing include: lib { include!("nope.rs"); }. Build still succeeds;
// the probed path is recorded rather than raised.
func TestMissingInclude(t *testing.T) {
	d := buildArchive(t, `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - include: {path: nope.rs}
`)
	qt.Assert(t, qt.DeepEquals(d.MissedFiles, []string{"src/nope.rs"}))
}

// no_std root: crate root opts into no_std, depends on both "std" and
// "core". Expect externPrelude to lack std, keep core, and the implicit
// `extern crate core` injected.
func TestNoStdRoot(t *testing.T) {
	stdLoaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: std
-- src/lib.rs.yaml --
items: []
`))
	qt.Assert(t, qt.IsNil(err))
	stdCrate := stdLoaded.Crate(crate.ID(2), nil, true)
	stdMap, err := resolve.Build(context.Background(), stdCrate, nil, stdLoaded.FS, stdLoaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNil(err))

	coreLoaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: core
-- src/lib.rs.yaml --
items: []
`))
	qt.Assert(t, qt.IsNil(err))
	coreCrate := coreLoaded.Crate(crate.ID(3), nil, true)
	coreMap, err := resolve.Build(context.Background(), coreCrate, nil, coreLoaded.FS, coreLoaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNil(err))

	rootLoaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: c
no_std: true
dependencies:
  - as: std
    crate: std
  - as: core
    crate: core
-- src/lib.rs.yaml --
items: []
`))
	qt.Assert(t, qt.IsNil(err))
	rootCrate := rootLoaded.Crate(crate.ID(1), []crate.Dependency{
		{ExternName: "std", Crate: stdCrate},
		{ExternName: "core", Crate: coreCrate},
	}, true)

	deps := map[crate.ID]*defmap.CrateDefMap{2: stdMap, 3: coreMap}
	d, err := resolve.Build(context.Background(), rootCrate, deps, rootLoaded.FS, rootLoaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNil(err))

	_, hasStd := d.ExternPrelude["std"]
	qt.Assert(t, qt.IsFalse(hasStd))
	_, hasCore := d.ExternPrelude["core"]
	qt.Assert(t, qt.IsTrue(hasCore))
	// The default 2015 edition gives the implicit `extern crate core` a
	// name slot in the crate root.
	coreItem, hasCoreBinding := d.Root.VisibleItem("core")
	qt.Assert(t, qt.IsTrue(hasCoreBinding))
	qt.Assert(t, qt.Equals(coreItem.Types.Path.String(), coreMap.Root.Path.String()))
}

func TestAbsentForUnindexableCrate(t *testing.T) {
	loaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items: []
`))
	qt.Assert(t, qt.IsNil(err))
	c := loaded.Crate(crate.ID(1), nil, false)
	d, err := resolve.Build(context.Background(), c, nil, loaded.FS, loaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsNil(d))
}

func TestCancellationDiscardsPartialState(t *testing.T) {
	loaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: a, file: a.rs}
  - use: {path: [a, X], vis: {kind: pub}}
-- src/a.rs.yaml --
items:
  - struct: {name: X, vis: {kind: pub}}
`))
	qt.Assert(t, qt.IsNil(err))
	c := loaded.Crate(crate.ID(1), nil, true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := resolve.Build(ctx, c, nil, loaded.FS, loaded.FS, macroexpand.Declarative{}, resolve.BuildConfig{})
	qt.Assert(t, qt.IsNotNil(err))
	qt.Assert(t, qt.IsNil(d))
}

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

package defmap_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
)

func TestAddVisibleItemMerges(t *testing.T) {
	mod := defmap.NewModData(nil, defmap.CrateRoot(1), "lib.rs", "")
	mod.AddVisibleItem("x", defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{
		Path: mp("x"), Visibility: defmap.Restricted(mp("sub")),
	}))
	mod.AddVisibleItem("x", defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{
		Path: mp("x"), Visibility: defmap.Public(),
	}))

	p, ok := mod.VisibleItem("x")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(p.Types.Visibility.Kind, defmap.VisPublic))
}

func TestAddChildModuleShadowsPrevious(t *testing.T) {
	parent := defmap.NewModData(nil, defmap.CrateRoot(1), "lib.rs", "")
	first := defmap.NewModData(parent, mp("m"), "", "m")
	second := defmap.NewModData(parent, mp("m"), "", "m")

	parent.AddChildModule("m", first)
	qt.Assert(t, qt.IsFalse(first.IsShadowedByOtherFile))

	parent.AddChildModule("m", second)
	qt.Assert(t, qt.IsTrue(first.IsShadowedByOtherFile))
	qt.Assert(t, qt.IsFalse(second.IsShadowedByOtherFile))

	child, ok := parent.ChildModule("m")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(child, second))
}

func TestUnnamedTraitImportKeepsMorePermissive(t *testing.T) {
	mod := defmap.NewModData(nil, defmap.CrateRoot(1), "lib.rs", "")
	tpath := defmap.ModPath{Crate: crate.ID(1), Segments: []string{"T"}}

	mod.AddUnnamedTraitImport(tpath, defmap.Restricted(mp("a")))
	mod.AddUnnamedTraitImport(tpath, defmap.Public())

	imports := mod.UnnamedTraitImports()
	qt.Assert(t, qt.Equals(len(imports), 1))
	qt.Assert(t, qt.Equals(imports[0].Visibility.Kind, defmap.VisPublic))
}

func TestUnnamedTraitImportsStructuralDiff(t *testing.T) {
	mod := defmap.NewModData(nil, defmap.CrateRoot(1), "lib.rs", "")
	aPath := defmap.ModPath{Crate: crate.ID(1), Segments: []string{"A"}}
	bPath := defmap.ModPath{Crate: crate.ID(1), Segments: []string{"B"}}

	mod.AddUnnamedTraitImport(bPath, defmap.Public())
	mod.AddUnnamedTraitImport(aPath, defmap.Public())

	want := []defmap.UnnamedTraitImport{
		{Path: aPath, Visibility: defmap.Public()},
		{Path: bPath, Visibility: defmap.Public()},
	}
	if diff := cmp.Diff(want, mod.UnnamedTraitImports()); diff != "" {
		t.Fatalf("unnamed trait imports (sorted by path) differ:\n%s", diff)
	}
}

func TestVisibleNamesSorted(t *testing.T) {
	mod := defmap.NewModData(nil, defmap.CrateRoot(1), "lib.rs", "")
	mod.SetVisibleItem("z", defmap.PerNs{})
	mod.SetVisibleItem("a", defmap.PerNs{})
	mod.SetVisibleItem("m", defmap.PerNs{})
	qt.Assert(t, qt.DeepEquals(mod.VisibleNames(), []string{"a", "m", "z"}))
}

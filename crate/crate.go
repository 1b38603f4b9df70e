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

// Package crate defines the identity and manifest types the resolver's
// input side is built from: a Crate is an opaque id plus a parsed item tree,
// in the spirit of cuelang.org/go/cue/build.Instance, but scoped to exactly
// what the resolver core is handed.
package crate

import (
	"fmt"

	"golang.org/x/mod/semver"

	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
)

// ID is an opaque stable integer identifying a crate. Equality of two IDs
// defines crate identity.
type ID int32

// Zero is the invalid/absent crate id. A Crate whose ID method returns Zero
// cannot be resolved at all, and the builder yields a nil map for it.
const Zero ID = 0

func (id ID) String() string { return fmt.Sprintf("crate#%d", id) }

// RootAttrs captures the subset of crate-root attributes the resolver
// cares about: whether the crate opts out of the implicit standard-library
// or core-library dependency.
type RootAttrs int

const (
	AttrsNone RootAttrs = iota
	AttrsNoStd
	AttrsNoCore
)

// Dependency is one entry in a crate's ordered list of direct dependencies.
// Order matters for prelude selection: when more than one dependency
// declares a prelude, the last one wins.
type Dependency struct {
	// ExternName is the normalized name other code in this crate uses to
	// reach the dependency, i.e. the key it occupies in externPrelude.
	ExternName string
	Crate      Crate
}

// Crate is the input contract the resolver is handed: an opaque id, a
// parsed item tree for its root module, and enough metadata to seed the
// extern prelude and implicit extern crate.
//
// Parsing, macro tokenization, and IDE plumbing are all external
// collaborators; a Crate implementation is expected to have
// done that work already and simply report the result.
type Crate interface {
	// ID returns Zero if this crate has no identity and cannot be
	// resolved at all.
	ID() ID

	// RootModule reports the parsed item tree for the crate root, or
	// ok=false if none is available.
	RootModule() (tree *itemtree.Tree, ok bool)

	// RootFile is the file id of the crate-root source file.
	RootFile() fileset.FileID

	// RootDir is the directory that owns the crate-root file, used to
	// resolve top-level `mod name;` declarations and `include!` paths.
	RootDir() string

	Attrs() RootAttrs

	// Edition governs whether an implicit `extern crate` occupies a slot
	// in the crate root's visibleItems. It is compared as
	// a semver-shaped string ("2015", "2018", "2021", "2024" all parse
	// as valid single-component semver), the same way cue/load/module.go
	// uses golang.org/x/mod/semver to compare CUE language versions.
	Edition() string

	// Dependencies lists direct dependencies in declaration order.
	Dependencies() []Dependency

	// Indexable reports whether this crate should be built at all --
	// it calls out test/bench non-workspace crates as one case
	// where the answer is no, in which case Build returns a nil map.
	Indexable() bool
}

// EditionAtLeast reports whether edition e is at least as new as want,
// treating both as bare semver-ish version strings ("2018" becomes "v2018"
// for the comparison, matching the normalization cue/load/module.go applies
// before calling semver.Compare).
func EditionAtLeast(e, want string) bool {
	return semver.Compare(normalizeEdition(e), normalizeEdition(want)) >= 0
}

func normalizeEdition(e string) string {
	if len(e) == 0 || e[0] != 'v' {
		return "v" + e
	}
	return e
}

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

// Package resolve implements the fixed-point def-collector: the piece that
// turns the imports and macro calls a ModCollector deposited into a
// finished CrateDefMap by alternating import resolution and macro
// expansion until neither makes progress.
package resolve

import (
	"rust-analyzer.dev/defmap/collect"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
	"rust-analyzer.dev/defmap/macroexpand"
)

// TreeProvider maps a file id already resolved by a fileset.FileSystem to
// its parsed item tree. Turning source bytes into a Tree is parsing, which
// stays on the host side of the boundary; this is the narrow capability the
// def-collector needs instead, to follow an `include!` or file-backed `mod
// name;` target once fileset.FileSystem has told it which file that is.
type TreeProvider interface {
	ItemTree(id fileset.FileID) (tree *itemtree.Tree, ok bool)
}

// BuildConfig carries the def-collector's tunable limits. Edition and
// no_std/no_core live on crate.Crate itself rather than being duplicated
// here -- the crate is the single source of truth for its own attributes.
type BuildConfig struct {
	// MaxMacroDepth bounds macro-call expansion (and, for simplicity and
	// to guard against a file including itself, include!/mod-declaration
	// expansion too). Zero means DefaultMaxMacroDepth.
	MaxMacroDepth int
	// MaxGlobDepth bounds glob-propagation replay through globImports.
	// Zero means DefaultMaxGlobDepth.
	MaxGlobDepth int
}

const (
	DefaultMaxMacroDepth = 64
	DefaultMaxGlobDepth  = 100
)

func (c BuildConfig) withDefaults() BuildConfig {
	if c.MaxMacroDepth <= 0 {
		c.MaxMacroDepth = DefaultMaxMacroDepth
	}
	if c.MaxGlobDepth <= 0 {
		c.MaxGlobDepth = DefaultMaxGlobDepth
	}
	return c
}

// importKind distinguishes the two install disciplines the NAMED/GLOB merge
// table cares about. It has nothing to do with collect.CallKind.
type importKind int

const (
	importNamed importKind = iota
	importGlob
)

type globEdge struct {
	mod *defmap.ModData
	vis defmap.Visibility
}

type globKey struct {
	mod  *defmap.ModData
	name string
}

// DefCollector runs the fixed-point algorithm over one crate's collected
// imports and macro calls. Construct one with newDefCollector and drive it
// with Build (build.go) -- there is no reason for a caller outside this package
// to hold one directly.
type DefCollector struct {
	defMap   *defmap.CrateDefMap
	fs       fileset.FileSystem
	trees    TreeProvider
	expander macroexpand.Expander
	cfg      BuildConfig

	imports      []*collect.Import
	pendingCalls []*collect.MacroCallInfo

	globImports    map[*defmap.ModData][]globEdge
	fromGlobImport [3]map[globKey]struct{}

	// pendingErr carries the first hard error raised from inside the
	// onAddItem callback, whose own signature (fixed by collect.OnAddItem)
	// has no room for an error return. The caller that triggered the
	// callback (expandInclude/runExpansion) checks and surfaces it.
	pendingErr error
}

func newDefCollector(defMap *defmap.CrateDefMap, fs fileset.FileSystem, trees TreeProvider, expander macroexpand.Expander, cfg BuildConfig) *DefCollector {
	return &DefCollector{
		defMap:   defMap,
		fs:       fs,
		trees:    trees,
		expander: expander,
		cfg:      cfg.withDefaults(),
		globImports: map[*defmap.ModData][]globEdge{},
		fromGlobImport: [3]map[globKey]struct{}{
			{}, {}, {},
		},
	}
}

// originFor returns the ModData an Import or MacroCallInfo is anchored to,
// preferring the tracked OriginMod (always set by ModCollector) and falling
// back to a path lookup for anything constructed without one.
func (d *DefCollector) originFor(containingMod defmap.ModPath, originMod *defmap.ModData) *defmap.ModData {
	if originMod != nil {
		return originMod
	}
	mod, _ := d.defMap.ModuleAt(containingMod)
	return mod
}

func (d *DefCollector) isFromGlob(mod *defmap.ModData, name string, ns defmap.Namespace) bool {
	_, ok := d.fromGlobImport[int(ns)][globKey{mod: mod, name: name}]
	return ok
}

func (d *DefCollector) markFromGlob(mod *defmap.ModData, name string, ns defmap.Namespace) {
	d.fromGlobImport[int(ns)][globKey{mod: mod, name: name}] = struct{}{}
}

func (d *DefCollector) unmarkFromGlob(mod *defmap.ModData, name string, ns defmap.Namespace) {
	delete(d.fromGlobImport[int(ns)], globKey{mod: mod, name: name})
}

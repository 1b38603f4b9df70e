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

package defmap

import (
	"sort"

	"github.com/mpvl/unique"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/errpos"
	"rust-analyzer.dev/defmap/fileset"
)

// FileInfo records what the builder knows about one source file that
// contributed to the map: the ModData it produced, a modification stamp,
// and a content hash, mirroring what an incremental host needs to decide
// whether a rebuild can be skipped. Computing the stamp/hash is the host's
// job; the builder only threads them through.
type FileInfo struct {
	ModificationStamp int64
	Mod               *ModData
	ContentHash       string
}

// CrateDefMap is the top-level output of the resolver. It owns
// the root ModData and borrows its dependencies' def-maps; it never mutates
// them.
type CrateDefMap struct {
	Crate crate.ID
	Root  *ModData

	// DirectDependenciesDefMaps is keyed by the extern name this crate
	// uses to reach the dependency.
	DirectDependenciesDefMaps map[string]*CrateDefMap
	// AllDependenciesDefMaps is keyed by crate id and includes transitive
	// dependencies, needed when a path resolution hop lands in some
	// other crate's module and must keep walking from there.
	AllDependenciesDefMaps map[crate.ID]*CrateDefMap

	// ExternPrelude maps a dependency's extern name to its root ModData,
	// after no_std/no_core pruning and any extern-crate rebinding.
	ExternPrelude map[string]*ModData

	// Prelude is the module whose items are implicitly in scope
	// everywhere in the crate, or nil if none applies.
	Prelude *ModData

	FileInfos map[fileset.FileID]FileInfo

	// MissedFiles holds paths that were probed (a `mod name;` target or
	// an `include!` target) and did not exist. Sorted and deduplicated.
	MissedFiles []string
}

// NewCrateDefMap constructs an empty map with its root module already
// present.
func NewCrateDefMap(id crate.ID, rootFile fileset.FileID) *CrateDefMap {
	root := NewModData(nil, CrateRoot(id), rootFile, "")
	return &CrateDefMap{
		Crate:                     id,
		Root:                      root,
		DirectDependenciesDefMaps: map[string]*CrateDefMap{},
		AllDependenciesDefMaps:    map[crate.ID]*CrateDefMap{},
		ExternPrelude:             map[string]*ModData{},
		FileInfos:                 map[fileset.FileID]FileInfo{},
	}
}

// SetFileInfo records what the builder knows about the file that produced
// mod: its own identity, plus whatever modification stamp and content hash
// the host's fileset.FileSystem.Stat reported for it. Called once per file
// actually threaded through the builder -- the crate root, each file-backed
// mod declaration, each resolved include! target, and each macro
// expansion's virtual file.
func (d *CrateDefMap) SetFileInfo(id fileset.FileID, mod *ModData, modificationStamp int64, contentHash string) {
	d.FileInfos[id] = FileInfo{ModificationStamp: modificationStamp, Mod: mod, ContentHash: contentHash}
}

// AddMissedFile records a probed-but-absent path. Call FinalizeMissedFiles
// once the build is otherwise complete to get a sorted, deduplicated list.
func (d *CrateDefMap) AddMissedFile(path string) {
	d.MissedFiles = append(d.MissedFiles, path)
}

// FinalizeMissedFiles sorts and deduplicates MissedFiles in place, using
// mpvl/unique the way the rest of this corpus dedupes small string slices
// before presenting them to a caller.
func (d *CrateDefMap) FinalizeMissedFiles() {
	if len(d.MissedFiles) == 0 {
		return
	}
	sort.Strings(d.MissedFiles)
	unique.Strings(&d.MissedFiles)
}

// ModuleAt casts a VisItem target that claims IsModOrEnum into the ModData
// it names, walking into a dependency's map via AllDependenciesDefMaps when
// the target is in another crate. A caller that gets ok=false back should
// treat it as a hard invariant violation: casting a claimed mod-or-enum
// VisItem to ModData and finding nothing means the def-map is corrupt.
func (d *CrateDefMap) ModuleAt(path ModPath) (*ModData, bool) {
	defMap := d
	if path.Crate != d.Crate {
		dep, ok := d.AllDependenciesDefMaps[path.Crate]
		if !ok {
			return nil, false
		}
		defMap = dep
	}
	mod := defMap.Root
	for _, seg := range path.Segments {
		child, ok := mod.ChildModule(seg)
		if !ok {
			return nil, false
		}
		mod = child
	}
	return mod, true
}

// Reachable reports whether mod is reachable from d.Root via childModules,
// used by the glob-import reverse-edge invariant.
func (d *CrateDefMap) Reachable(mod *ModData) bool {
	var walk func(*ModData) bool
	walk = func(m *ModData) bool {
		if m == mod {
			return true
		}
		for _, name := range m.ChildModuleNames() {
			child, _ := m.ChildModule(name)
			if walk(child) {
				return true
			}
		}
		return false
	}
	return walk(d.Root)
}

// CheckInvariants validates the universal invariants that are cheap to
// check eagerly: every child module has a matching mod-or-enum types
// binding in its parent's visibleItems. It is intended for tests and for
// the builder's own post-build assertion; a failure here is a hard
// invariant-violation error, not a soft resolution failure.
func (d *CrateDefMap) CheckInvariants() error {
	var walk func(*ModData) error
	walk = func(m *ModData) error {
		for _, name := range m.ChildModuleNames() {
			child, _ := m.ChildModule(name)
			pn, ok := m.VisibleItem(name)
			if !ok || pn.Types == nil || !pn.Types.IsModOrEnum {
				pos := fileset.Pos{File: child.FileID}
				return errpos.Newf(pos, "corrupt def-map: child module %q of %s has no matching mod-or-enum types binding", name, m.Path)
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Root)
}

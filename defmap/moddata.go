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

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
)

// MacroDefInfo records enough about a macro_rules! definition for the
// legacy (textual-order) macro scope: its defining module, and the tree it
// expands calls to (see itemtree.MacroRulesDef.Expansion for why that lives
// here rather than behind a separate macro-body lookup).
type MacroDefInfo struct {
	Name      string
	DefSite   ModPath
	Expansion *itemtree.Tree
}

// UnnamedTraitImport is one `use T as _;` entry: the trait's path and the
// visibility the import was declared with.
type UnnamedTraitImport struct {
	Path       ModPath
	Visibility Visibility
}

// ModData is the mutable per-module record the resolver builds. Children own
// their parent only as a back-pointer -- never the reverse -- so a
// ModData tree is plain pointers in both directions; Go's garbage collector handles
// the resulting reference cycle (parent <-> child) without the
// arena/stable-index indirection the source's notes reach for in
// non-garbage-collected languages (see DESIGN.md).
type ModData struct {
	Parent *ModData // nil at the crate root
	Crate  crate.ID
	Path   ModPath

	FileID fileset.FileID
	// FileRelativePath is empty iff this module *is* a file (a file-backed
	// `mod m;` or the crate root); otherwise it names this module's
	// position within the file that contains it inline.
	FileRelativePath string

	OwnedDirectoryID string

	IsEnum                bool
	IsDeeplyEnabledByCfg  bool
	IsShadowedByOtherFile bool

	visibleItems        map[string]PerNs
	childModules        map[string]*ModData
	legacyMacros        map[string]MacroDefInfo
	unnamedTraitImports map[unnamedTraitKey]UnnamedTraitImport
}

type unnamedTraitKey struct {
	crate crate.ID
	path  string
}

// NewModData constructs an empty module record.
func NewModData(parent *ModData, path ModPath, fileID fileset.FileID, fileRelativePath string) *ModData {
	return &ModData{
		Parent:               parent,
		Crate:                path.Crate,
		Path:                 path,
		FileID:               fileID,
		FileRelativePath:     fileRelativePath,
		IsDeeplyEnabledByCfg: true,
		visibleItems:         map[string]PerNs{},
		childModules:         map[string]*ModData{},
		legacyMacros:         map[string]MacroDefInfo{},
		unnamedTraitImports:  map[unnamedTraitKey]UnnamedTraitImport{},
	}
}

// VisibleItem looks up the PerNs bound to name, if any.
func (m *ModData) VisibleItem(name string) (PerNs, bool) {
	p, ok := m.visibleItems[name]
	return p, ok
}

// SetVisibleItem installs (overwriting) the PerNs bound to name, with no
// merging at all. The resolver's pushResolutionFromImport (resolve package)
// calls it once it has applied its own NAMED/GLOB merge decision; other
// callers that want a merge use AddVisibleItem, as ModCollector does.
func (m *ModData) SetVisibleItem(name string, p PerNs) {
	m.visibleItems[name] = p
}

// AddVisibleItem merges p into whatever is already bound to name using
// PerNs.Update, the same componentwise "more permissive wins" rule the
// resolver applies everywhere else.
func (m *ModData) AddVisibleItem(name string, p PerNs) {
	if existing, ok := m.visibleItems[name]; ok {
		m.visibleItems[name] = existing.Update(p)
	} else {
		m.visibleItems[name] = p
	}
}

// VisibleNames returns the names bound in visibleItems, sorted, so that
// snapshotting a module for a glob import is deterministic regardless of Go
// map iteration order: rebuilding a def-map from the same sources must
// produce a structurally equal result.
func (m *ModData) VisibleNames() []string {
	names := make([]string, 0, len(m.visibleItems))
	for n := range m.visibleItems {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ChildModule looks up a direct child module by name.
func (m *ModData) ChildModule(name string) (*ModData, bool) {
	c, ok := m.childModules[name]
	return c, ok
}

// AddChildModule records a direct child module. The caller (ModCollector)
// is responsible for also installing the corresponding VisItem in
// visibleItems[name].types -- every child module must have a matching
// types binding in its parent. If name already names a different child
// (a `mod foo {}` declared more than once under different cfg branches),
// the superseded one is marked shadowed rather than discarded outright --
// it stays reachable for inspection, just not through childModules.
func (m *ModData) AddChildModule(name string, child *ModData) {
	if old, ok := m.childModules[name]; ok && old != child {
		old.IsShadowedByOtherFile = true
	}
	m.childModules[name] = child
}

// ChildModuleNames returns child module names, sorted.
func (m *ModData) ChildModuleNames() []string {
	names := make([]string, 0, len(m.childModules))
	for n := range m.childModules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LegacyMacro looks up a macro_rules! definition visible in this module's
// textual-order scope.
func (m *ModData) LegacyMacro(name string) (MacroDefInfo, bool) {
	d, ok := m.legacyMacros[name]
	return d, ok
}

// AddLegacyMacro records a macro_rules! definition.
func (m *ModData) AddLegacyMacro(name string, def MacroDefInfo) {
	m.legacyMacros[name] = def
}

// AddUnnamedTraitImport records a `use T as _;`. If T is already recorded,
// the more permissive of the two visibilities is kept.
func (m *ModData) AddUnnamedTraitImport(path ModPath, vis Visibility) {
	key := unnamedTraitKey{crate: path.Crate, path: path.String()}
	if existing, ok := m.unnamedTraitImports[key]; ok {
		if vis.IsStrictlyMorePermissive(existing.Visibility) {
			existing.Visibility = vis
			m.unnamedTraitImports[key] = existing
		}
		return
	}
	m.unnamedTraitImports[key] = UnnamedTraitImport{Path: path, Visibility: vis}
}

// UnnamedTraitImports returns all recorded `use T as _;` entries.
func (m *ModData) UnnamedTraitImports() []UnnamedTraitImport {
	out := make([]UnnamedTraitImport, 0, len(m.unnamedTraitImports))
	for _, v := range m.unnamedTraitImports {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path.String() < out[j].Path.String() })
	return out
}

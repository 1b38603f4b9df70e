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

// Package collect defines the shared workspace the mod-collector deposits
// into and the def-collector drains: for each use, an entry appended to
// Imports; for each macro invocation and mod declaration, an entry appended
// to MacroCalls.
package collect

import (
	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
)

// ImportStatus is the three-way resolution state of an Import.
type ImportStatus int

const (
	Unresolved ImportStatus = iota
	Indeterminate
	Resolved
)

func (s ImportStatus) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Indeterminate:
		return "indeterminate"
	case Resolved:
		return "resolved"
	default:
		return "invalid"
	}
}

// Import is one `use` or `extern crate` item, tracked from the moment the
// mod-collector sees it until the def-collector resolves it.
type Import struct {
	ContainingMod defmap.ModPath
	UsePath       []string
	NameInScope   string
	Visibility    defmap.Visibility
	IsGlob        bool
	IsExternCrate bool
	IsPrelude     bool

	// OriginMod is the ModData this import was collected against. It is
	// ordinarily the same module ContainingMod names, but the two can
	// diverge once a later cfg branch replaces that module's ModData --
	// OriginMod keeps pointing at the instance this import actually
	// belongs to, so a build can discard it if that instance turns out to
	// be shadowed.
	OriginMod *defmap.ModData

	Status ImportStatus
	// Bound is the PerNs resolved so far -- empty while Unresolved, a
	// partial triple while Indeterminate, complete once Resolved. It is
	// what a re-run of the resolution loop compares against its previous
	// pass to decide whether anything changed, together with Status.
	Bound defmap.PerNs

	Pos fileset.Pos

	// existedBeforeResolution records the first key of the import sort:
	// whether NameInScope already existed in ContainingMod's visibleItems
	// at collection time.
	existedBeforeResolution bool
}

// MarkExistedBeforeResolution records the import-sort bit described above.
// Called once, by the driver, after the initial item declarations have all
// been collected and before imports are sorted.
func (imp *Import) MarkExistedBeforeResolution(mod *defmap.ModData) {
	if imp.NameInScope == "" {
		return
	}
	_, imp.existedBeforeResolution = mod.VisibleItem(imp.NameInScope)
}

// ExistedBeforeResolution reports the bit MarkExistedBeforeResolution
// recorded -- the first key of the import presort.
func (imp *Import) ExistedBeforeResolution() bool {
	return imp.existedBeforeResolution
}

// CallKind distinguishes the handful of things that end up in
// Context.MacroCalls. Both macro invocations and mod declarations share the
// same queue: KindModDecl is resolved the same way KindInclude is (a
// file-system lookup relative to the containing file's directory) but
// produces a genuine child module rather than splicing items into the
// current one.
type CallKind int

const (
	KindMacroPath CallKind = iota
	KindInclude
	KindModDecl
)

// MacroCallInfo is one macro invocation, `include!` call, or file-backed
// `mod name;` declaration, tracked from collection until the def-collector
// consumes it.
type MacroCallInfo struct {
	Kind CallKind

	ContainingMod defmap.ModPath
	Path          []string
	Body          string
	BodyHash      string
	Depth         int

	// OriginMod is the ModData this call was collected against; see
	// Import.OriginMod for why it is tracked separately from
	// ContainingMod.
	OriginMod *defmap.ModData

	// MacroDef is populated when the call is already legacy-scoped (a
	// macro_rules! call resolved via textual scope at collection time). It
	// is left nil for a path-resolved call, which the def-collector
	// resolves itself.
	MacroDef *defmap.MacroDefInfo

	DollarCrateMap map[string]crate.ID

	// IncludePath is the argument to include!(...) for KindInclude, or
	// the file name implied by `mod name;` for KindModDecl.
	IncludePath string
	// ModName is the module's name, for KindModDecl only.
	ModName string
	// SourceDir is the directory of the file that contains this call,
	// used to resolve IncludePath.
	SourceDir string

	Pos fileset.Pos
}

// Context is the shared workspace between the two collectors: the
// mod-collector appends to it before resolution begins (and, recursively,
// from the def-collector's onAddItem callback during macro expansion); the
// def-collector owns it for draining from the moment resolution starts.
type Context struct {
	Imports    []*Import
	MacroCalls []*MacroCallInfo
}

// AddImport appends an import to the context. ModCollector calls this for
// every `use` and `extern crate` item it sees.
func (c *Context) AddImport(imp *Import) {
	c.Imports = append(c.Imports, imp)
}

// AddMacroCall appends a macro call (or include!) to the context.
// ModCollector calls this for every macro invocation and file-backed `mod`
// declaration it sees (a `mod name;` is modeled as a synthetic include-like
// call that resolves a file rather than expanding a macro body -- see
// ModCollector.collectItem).
func (c *Context) AddMacroCall(call *MacroCallInfo) {
	c.MacroCalls = append(c.MacroCalls, call)
}

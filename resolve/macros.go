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

package resolve

import (
	"context"
	"path"

	"rust-analyzer.dev/defmap/collect"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
	"rust-analyzer.dev/defmap/macroexpand"
)

// expandMacrosPass attempts every currently-pending call exactly once.
// Calls that cannot be resolved this time around stay pending for the next
// outer iteration, after import resolution has had another chance to make
// progress. It reports whether anything was consumed, which is what
// decides whether the outer loop re-enters import resolution at all.
func (d *DefCollector) expandMacrosPass(ctx context.Context) (bool, error) {
	attempted := d.pendingCalls
	remaining := make([]*collect.MacroCallInfo, 0, len(attempted))
	consumedAny := false
	for _, call := range attempted {
		if err := checkCancel(ctx); err != nil {
			return false, err
		}
		consumed, err := d.tryExpand(call)
		if err != nil {
			return false, err
		}
		if consumed {
			consumedAny = true
			continue
		}
		remaining = append(remaining, call)
	}
	// Calls absorbed from expansions during this pass were appended after
	// the attempted ones; they stay pending for the next pass.
	d.pendingCalls = append(remaining, d.pendingCalls[len(attempted):]...)
	return consumedAny, nil
}

func (d *DefCollector) tryExpand(call *collect.MacroCallInfo) (bool, error) {
	if call.Depth >= d.cfg.MaxMacroDepth {
		return true, nil
	}
	switch call.Kind {
	case collect.KindInclude, collect.KindModDecl:
		return d.expandInclude(call)
	default:
		return d.expandMacroCall(call)
	}
}

// expandInclude resolves an include!/mod-declaration target relative to
// the containing file's directory. include! splices the target's items
// into the calling module; a file-backed mod declaration splices them into
// the child module ModCollector already created for it (call.OriginMod).
// Either way, success or failure, the call is consumed: a missing target
// never becomes resolvable by retrying.
func (d *DefCollector) expandInclude(call *collect.MacroCallInfo) (bool, error) {
	missedPath := path.Join(call.SourceDir, call.IncludePath)

	id, ok, err := d.fs.Resolve(call.SourceDir, call.IncludePath)
	if err != nil {
		return false, err
	}
	if !ok {
		d.defMap.AddMissedFile(missedPath)
		return true, nil
	}
	tree, ok := d.trees.ItemTree(id)
	if !ok {
		d.defMap.AddMissedFile(missedPath)
		return true, nil
	}

	target := d.originFor(call.ContainingMod, call.OriginMod)
	if target == nil {
		return true, nil
	}
	if call.Kind == collect.KindModDecl {
		target.FileID = id
	}
	stamp, hash, _ := d.fs.Stat(id)
	d.defMap.SetFileInfo(id, target, stamp, hash)

	sub := collect.Context{}
	collector := collect.NewModCollector(d.defMap, &sub, target, d.fs.Dir(id), call.Depth+1, d.onAddItem)
	collector.CollectTree(tree)
	d.absorb(&sub)
	if d.pendingErr != nil {
		return false, d.pendingErr
	}
	return true, nil
}

// expandMacroCall handles the two bang-style cases: a macro already known
// from legacy (textual) scope at collection time, and a macro whose
// definition must be found via ordinary path resolution first.
func (d *DefCollector) expandMacroCall(call *collect.MacroCallInfo) (bool, error) {
	if call.MacroDef != nil {
		d.runExpansion(call, *call.MacroDef)
		if d.pendingErr != nil {
			return false, d.pendingErr
		}
		return true, nil
	}

	origin := d.originFor(call.ContainingMod, call.OriginMod)
	if origin == nil {
		return true, nil
	}
	res := d.resolvePath(origin, call.Path, false)
	if res.Err != nil {
		return false, res.Err
	}
	if res.PerNs.Macros == nil {
		return false, nil
	}

	defPath := res.PerNs.Macros.Path
	defMod, ok := d.defMap.ModuleAt(defPath.Parent())
	if !ok {
		return true, nil
	}
	def, ok := defMod.LegacyMacro(defPath.Name())
	if !ok {
		// Resolved to a macro binding with no known expansion behind it
		// (e.g. a builtin, or one defined by a host this module never
		// sees the rules for): nothing more can happen, so consume it.
		return true, nil
	}
	d.runExpansion(call, def)
	if d.pendingErr != nil {
		return false, d.pendingErr
	}
	return true, nil
}

// runExpansion hands an expanded tree to a fresh ModCollector rooted at the
// call site, one macro depth deeper, wiring its onAddItem callback so
// newly-declared items immediately participate in glob propagation.
func (d *DefCollector) runExpansion(call *collect.MacroCallInfo, def defmap.MacroDefInfo) {
	mdef := macroexpand.Def{Name: def.Name, DefiningCrate: def.DefSite.Crate, Expansion: def.Expansion}
	mcall := macroexpand.Call{Path: call.Path, Body: call.Body}
	tree, _, ok := d.expander.Expand(mdef, mcall)
	if !ok {
		return
	}
	tree = d.expander.SubstituteDollarCrate(tree, def.DefSite.Crate)

	origin := d.originFor(call.ContainingMod, call.OriginMod)
	if origin == nil {
		return
	}
	// Every expansion gets its own virtual file identity rather than
	// inheriting the macro definition's File: two calls to the same macro,
	// from different call sites, must not be reported at identical
	// positions.
	expanded := &itemtree.Tree{Items: tree.Items, File: fileset.NewVirtualFileID()}
	// A virtual file has no host bookkeeping to Stat; it is still recorded
	// in FileInfos, with a zero stamp/hash, so it is reachable by id the
	// same way every other file the builder touched is.
	d.defMap.SetFileInfo(expanded.File, origin, 0, "")
	sub := collect.Context{}
	collector := collect.NewModCollector(d.defMap, &sub, origin, call.SourceDir, call.Depth+1, d.onAddItem)
	collector.CollectTree(expanded)
	d.absorb(&sub)
}

// onAddItem replays a macro-introduced declaration through the same
// glob-aware merge an ordinary named import would get, so a module that
// already globs the expansion's target module picks up the new name right
// away rather than waiting for some future pass to notice it.
func (d *DefCollector) onAddItem(mod *defmap.ModData, name string, ns defmap.Namespace, item defmap.VisItem) {
	if err := d.update(mod, map[string]defmap.PerNs{name: defmap.FromNamespace(ns, item)}, item.Visibility, importNamed); err != nil && d.pendingErr == nil {
		d.pendingErr = err
	}
}

// absorb merges a nested ModCollector pass's freshly-collected imports and
// macro calls into this collector's own pending worklists.
func (d *DefCollector) absorb(sub *collect.Context) {
	for _, imp := range sub.Imports {
		imp.MarkExistedBeforeResolution(d.originFor(imp.ContainingMod, imp.OriginMod))
		d.imports = append(d.imports, imp)
	}
	d.pendingCalls = append(d.pendingCalls, sub.MacroCalls...)
}

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
	"sort"

	"rust-analyzer.dev/defmap/collect"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/errpos"
	"rust-analyzer.dev/defmap/fileset"
)

// presortImports orders imports by the three descending keys that reduce
// the number of fixed-point passes on real crates: an import whose name
// already exists goes first (it will either fail fast or strengthen an
// existing binding), non-glob before glob, and deeper modules before
// shallower ones. It is an optimization, not required for correctness;
// the sort is stable, so ties keep their collection order.
func presortImports(imports []*collect.Import) {
	sort.SliceStable(imports, func(i, j int) bool {
		a, b := imports[i], imports[j]
		if a.ExistedBeforeResolution() != b.ExistedBeforeResolution() {
			return a.ExistedBeforeResolution()
		}
		if a.IsGlob != b.IsGlob {
			return !a.IsGlob
		}
		return a.ContainingMod.Depth() > b.ContainingMod.Depth()
	})
}

// resolveImportsUntilStable repeatedly sweeps the pending imports until a
// full sweep changes none of their statuses.
func (d *DefCollector) resolveImportsUntilStable(ctx context.Context) error {
	for {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		changed := false
		for _, imp := range d.imports {
			if imp.Status == collect.Resolved {
				continue
			}
			didChange, err := d.resolveOne(imp)
			if err != nil {
				return err
			}
			if didChange {
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
}

// resolveOne resolves a single import and, if its status or bound changed,
// records the new (possibly still partial) binding. It reports whether
// anything changed, driving the sweep's stability check.
func (d *DefCollector) resolveOne(imp *collect.Import) (bool, error) {
	res, err := d.resolveImportTarget(imp)
	if err != nil {
		return false, err
	}
	if res.Err != nil {
		return false, res.Err
	}

	status := classify(res)
	if status == imp.Status && perNsEqual(res.PerNs, imp.Bound) {
		return false, nil
	}
	imp.Status = status
	imp.Bound = res.PerNs
	if status == collect.Unresolved {
		return true, nil
	}
	if err := d.recordImportBinding(imp); err != nil {
		return false, err
	}
	return true, nil
}

// classify turns a pathResult into the three-way status a sweep tracks.
// visitedOtherCrate is always definitive, regardless of how much of the
// binding populated, because a sealed dependency map can never grow the
// rest. Otherwise, a result that reached fixed point is as resolved as it
// will ever be (Resolved if it found something, Unresolved if it found
// nothing); short of fixed point, a non-empty finding is Indeterminate --
// it may still be joined by more namespaces once the target module settles.
func classify(res pathResult) collect.ImportStatus {
	switch {
	case res.VisitedOtherCrate:
		return collect.Resolved
	case res.PerNs.IsEmpty():
		return collect.Unresolved
	case res.ReachedFixedPoint:
		return collect.Resolved
	default:
		return collect.Indeterminate
	}
}

// resolveImportTarget is resolveOne's path-resolution step, split out
// because extern-crate imports bypass the path resolver entirely (they
// look the crate name up directly in externPrelude) and glob/extern-crate
// imports treat their target as a single atomic module lookup rather than
// a name that might independently occupy more than one namespace.
func (d *DefCollector) resolveImportTarget(imp *collect.Import) (pathResult, error) {
	if imp.IsExternCrate {
		target, ok := d.defMap.ExternPrelude[imp.UsePath[0]]
		if !ok {
			return pathResult{ReachedFixedPoint: false}, nil
		}
		item := defmap.VisItem{Path: target.Path, Visibility: imp.Visibility, IsModOrEnum: true}
		return pathResult{PerNs: defmap.FromNamespace(defmap.NsTypes, item), ReachedFixedPoint: true, VisitedOtherCrate: true}, nil
	}

	origin := d.originFor(imp.ContainingMod, imp.OriginMod)
	if origin == nil {
		return pathResult{ReachedFixedPoint: true}, nil
	}

	if imp.IsGlob {
		res := d.resolvePath(origin, imp.UsePath, false)
		if res.Err != nil || res.PerNs.IsEmpty() {
			return res, nil
		}
		if res.PerNs.Types == nil || !res.PerNs.Types.IsModOrEnum {
			// Resolved, but not to a module: a soft glob-of-non-module
			// failure: treat the same as an empty, final result.
			return pathResult{ReachedFixedPoint: true}, nil
		}
		return res, nil
	}

	return d.resolvePath(origin, imp.UsePath, true), nil
}

// recordImportBinding applies the side effects of a (possibly partial)
// resolved import: installing the name in containingMod for a plain `use`,
// snapshotting a glob target's items, or widening externPrelude for an
// `extern crate`.
func (d *DefCollector) recordImportBinding(imp *collect.Import) error {
	containing := d.originFor(imp.ContainingMod, imp.OriginMod)
	if containing == nil {
		return nil
	}

	if imp.IsExternCrate {
		return d.recordExternCrate(imp, containing)
	}
	if imp.IsGlob {
		return d.recordGlobImport(imp, containing)
	}
	return d.recordNamedImport(imp, containing)
}

func (d *DefCollector) recordExternCrate(imp *collect.Import, containing *defmap.ModData) error {
	if imp.Bound.Types == nil {
		return nil
	}
	target, ok := d.defMap.ModuleAt(imp.Bound.Types.Path)
	if !ok {
		return errpos.Newf(imp.Pos, "corrupt def-map: extern crate %q resolved to a path that does not cast to a module", imp.UsePath[0])
	}
	if containing.Path.IsCrateRoot() && imp.NameInScope != "" && imp.NameInScope != "_" {
		d.defMap.ExternPrelude[imp.NameInScope] = target
	}
	return d.recordNamedImport(imp, containing)
}

// recordNamedImport installs a plain `use`'s binding, or -- for `use T as
// _;` -- records the unnamed trait import instead of occupying a name slot.
func (d *DefCollector) recordNamedImport(imp *collect.Import, containing *defmap.ModData) error {
	if imp.NameInScope == "" {
		if imp.Bound.Types == nil {
			return nil
		}
		vis := imp.Visibility
		if !imp.Bound.Types.Visibility.IsVisibleFrom(imp.ContainingMod) {
			vis = defmap.Invisible()
		}
		containing.AddUnnamedTraitImport(imp.Bound.Types.Path, vis)
		return nil
	}

	merged := imp.Bound.MapItems(func(item defmap.VisItem) defmap.VisItem {
		vis := imp.Visibility
		if !item.Visibility.IsVisibleFrom(imp.ContainingMod) {
			vis = defmap.Invisible()
		}
		return item.WithVisibility(vis)
	})
	return d.update(containing, map[string]defmap.PerNs{imp.NameInScope: merged}, imp.Visibility, importNamed)
}

// recordGlobImport installs a snapshot of the glob's target module, or
// (for a `#[prelude_import]` glob) sets the crate's prelude outright.
func (d *DefCollector) recordGlobImport(imp *collect.Import, containing *defmap.ModData) error {
	if imp.Bound.Types == nil {
		return nil
	}
	target, ok := d.defMap.ModuleAt(imp.Bound.Types.Path)
	if !ok {
		// A glob import whose target does not resolve as a module is a
		// soft failure, skipped silently (nothing is logged) rather than
		// treated as an invariant violation, since
		// the path resolver itself already vouched for isModOrEnum --
		// this only fires for a path crossing into a dependency whose
		// def-map genuinely lacks the claimed module.
		return nil
	}
	if imp.IsPrelude {
		d.defMap.Prelude = target
		return nil
	}

	snapshot := map[string]defmap.PerNs{}
	for _, name := range target.VisibleNames() {
		v, _ := target.VisibleItem(name)
		v = v.FilterVisibility(func(vis defmap.Visibility) bool { return vis.IsVisibleFrom(imp.ContainingMod) })
		if !v.IsEmpty() {
			snapshot[name] = v
		}
	}
	if err := d.update(containing, snapshot, imp.Visibility, importGlob); err != nil {
		return err
	}
	if target.Crate == d.defMap.Crate {
		d.globImports[target] = append(d.globImports[target], globEdge{mod: containing, vis: imp.Visibility})
	}
	return nil
}

// update installs resolutions into mod.visibleItems and, if anything
// actually changed, replays them through every module that globs mod, up
// to the configured depth.
func (d *DefCollector) update(mod *defmap.ModData, resolutions map[string]defmap.PerNs, vis defmap.Visibility, kind importKind) error {
	return d.updateDepth(mod, resolutions, vis, kind, 0)
}

func (d *DefCollector) updateDepth(mod *defmap.ModData, resolutions map[string]defmap.PerNs, vis defmap.Visibility, kind importKind, depth int) error {
	if depth > d.cfg.MaxGlobDepth {
		return errpos.Newf(fileset.Pos{File: mod.FileID}, "glob-import propagation exceeded depth limit of %d at %s", d.cfg.MaxGlobDepth, mod.Path)
	}
	names := make([]string, 0, len(resolutions))
	for name := range resolutions {
		names = append(names, name)
	}
	sort.Strings(names)

	changed := false
	for _, name := range names {
		perNs := resolutions[name]
		perNs.ForEach(func(ns defmap.Namespace, item defmap.VisItem) {
			if d.pushResolutionFromImport(mod, name, ns, item, kind) {
				changed = true
			}
		})
	}
	if !changed {
		return nil
	}
	for _, edge := range d.globImports[mod] {
		if err := d.updateDepth(edge.mod, resolutions, edge.vis, importGlob, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// pushResolutionFromImport applies the NAMED/GLOB merge table to a single
// namespace of a single name, reporting whether it actually changed
// anything (so update knows whether to replay through globImports).
func (d *DefCollector) pushResolutionFromImport(mod *defmap.ModData, name string, ns defmap.Namespace, item defmap.VisItem, kind importKind) bool {
	existingPerNs, _ := mod.VisibleItem(name)
	existing := existingPerNs.Get(ns)
	existingFromGlob := d.isFromGlob(mod, name, ns)

	install := false
	switch {
	case existing == nil:
		install = true
	case kind == importNamed && existingFromGlob:
		install = true // named shadows glob, unconditionally
	case kind == importGlob && !existingFromGlob:
		install = false // existing NAMED beats an incoming glob
	default:
		install = item.Visibility.IsStrictlyMorePermissive(existing.Visibility)
	}
	if !install {
		return false
	}
	if existing != nil && visItemEqual(*existing, item) {
		return false
	}

	p := existingPerNs.With(ns, &item)
	mod.SetVisibleItem(name, p)
	if kind == importGlob {
		d.markFromGlob(mod, name, ns)
	} else {
		d.unmarkFromGlob(mod, name, ns)
	}
	return true
}

func perNsEqual(a, b defmap.PerNs) bool {
	return visItemPtrEqual(a.Types, b.Types) && visItemPtrEqual(a.Values, b.Values) && visItemPtrEqual(a.Macros, b.Macros)
}

func visItemPtrEqual(a, b *defmap.VisItem) bool {
	if a == nil || b == nil {
		return a == b
	}
	return visItemEqual(*a, *b)
}

func visItemEqual(a, b defmap.VisItem) bool {
	return a.Path.Equal(b.Path) && a.IsModOrEnum == b.IsModOrEnum && visEqual(a.Visibility, b.Visibility)
}

func visEqual(a, b defmap.Visibility) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != defmap.VisRestricted {
		return true
	}
	return a.InMod.Equal(b.InMod)
}

func checkCancel(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

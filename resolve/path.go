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
	"rust-analyzer.dev/defmap/collect"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/errpos"
	"rust-analyzer.dev/defmap/fileset"
)

// pathResult is what path resolution reports back: the binding it found
// (possibly only partially populated), whether that finding is final (no
// further growth of the modules it passed through could change it), and
// whether the walk ever crossed into another crate's (sealed, read-only)
// def-map.
type pathResult struct {
	PerNs             defmap.PerNs
	ReachedFixedPoint bool
	VisitedOtherCrate bool
	Err               error
}

// resolvePath resolves path relative to originMod. withInvisibleItems
// controls whether bindings whose installed visibility is Invisible (an
// import of a private item, kept only for completion) are considered --
// true for ordinary `use` resolution (so a private re-export still produces
// an edge to chase further), false for macro-call path resolution (a
// cfg-disabled or otherwise invisible macro is never expanded).
func (d *DefCollector) resolvePath(originMod *defmap.ModData, path []string, withInvisibleItems bool) pathResult {
	if len(path) == 0 || originMod == nil {
		return pathResult{ReachedFixedPoint: true}
	}

	segs := path
	cur := originMod
	usedPrefix := false

	switch segs[0] {
	case "crate":
		root, ok := d.defMap.ModuleAt(defmap.CrateRoot(originMod.Path.Crate))
		if !ok {
			return pathResult{Err: errpos.Newf(fileset.Pos{}, "corrupt def-map: no root module for crate of %s", originMod.Path)}
		}
		cur = root
		segs = segs[1:]
		usedPrefix = true
	case "self":
		segs = segs[1:]
		usedPrefix = true
	case "super":
		for len(segs) > 0 && segs[0] == "super" {
			if cur.Parent == nil {
				// super above the crate root: a definitive dead end.
				return pathResult{ReachedFixedPoint: true}
			}
			cur = cur.Parent
			segs = segs[1:]
		}
		usedPrefix = true
	}

	if len(segs) == 0 {
		item := defmap.VisItem{Path: cur.Path, Visibility: defmap.Public(), IsModOrEnum: true}
		return pathResult{PerNs: defmap.FromNamespace(defmap.NsTypes, item), ReachedFixedPoint: true}
	}

	var perNs defmap.PerNs
	var fixed bool
	if usedPrefix {
		perNs, fixed = d.lookupInModule(cur, segs[0], withInvisibleItems)
	} else {
		perNs, fixed = d.lookupFirstSegment(cur, segs[0], withInvisibleItems)
	}
	if perNs.IsEmpty() {
		return pathResult{ReachedFixedPoint: fixed}
	}
	segs = segs[1:]

	visitedOtherCrate := false
	for len(segs) > 0 {
		typesItem := perNs.Types
		if typesItem == nil || !typesItem.IsModOrEnum {
			// A non-module segment can never host a further segment; no
			// amount of upstream growth changes that.
			return pathResult{ReachedFixedPoint: true, VisitedOtherCrate: visitedOtherCrate}
		}
		nextMod, ok := d.defMap.ModuleAt(typesItem.Path)
		if !ok {
			return pathResult{Err: errpos.Newf(fileset.Pos{}, "corrupt def-map: %s claims isModOrEnum but casts to nothing", typesItem.Path)}
		}
		if typesItem.Path.Crate != originMod.Path.Crate {
			visitedOtherCrate = true
		}

		name := segs[0]
		next, ok := nextMod.VisibleItem(name)
		if ok && !withInvisibleItems {
			next = next.FilterVisibility(isVisible)
		}
		if !ok || next.IsEmpty() {
			fixedHere := visitedOtherCrate || !d.hasPendingGrowth(nextMod)
			return pathResult{ReachedFixedPoint: fixedHere, VisitedOtherCrate: visitedOtherCrate}
		}
		perNs = next
		segs = segs[1:]
	}
	return pathResult{PerNs: perNs, ReachedFixedPoint: true, VisitedOtherCrate: visitedOtherCrate}
}

func isVisible(v defmap.Visibility) bool {
	return v.Kind != defmap.VisInvisible && v.Kind != defmap.VisCfgDisabled
}

// lookupFirstSegment resolves an unqualified leading path segment: the
// module's own visibleItems, then the crate's externPrelude, then its
// prelude.
func (d *DefCollector) lookupFirstSegment(mod *defmap.ModData, name string, withInvisibleItems bool) (defmap.PerNs, bool) {
	if v, ok := mod.VisibleItem(name); ok {
		if !withInvisibleItems {
			v = v.FilterVisibility(isVisible)
		}
		if !v.IsEmpty() {
			return v, true
		}
	}
	if target, ok := d.defMap.ExternPrelude[name]; ok {
		item := defmap.VisItem{Path: target.Path, Visibility: defmap.Public(), IsModOrEnum: true}
		return defmap.FromNamespace(defmap.NsTypes, item), true
	}
	if d.defMap.Prelude != nil {
		if v, ok := d.defMap.Prelude.VisibleItem(name); ok {
			if !withInvisibleItems {
				v = v.FilterVisibility(isVisible)
			}
			if !v.IsEmpty() {
				return v, true
			}
		}
	}
	return defmap.PerNs{}, !d.hasPendingGrowth(mod)
}

// lookupInModule resolves a segment known to be module-relative (following
// a crate/self/super prefix): only that module's own visibleItems apply,
// not externPrelude or prelude.
func (d *DefCollector) lookupInModule(mod *defmap.ModData, name string, withInvisibleItems bool) (defmap.PerNs, bool) {
	v, ok := mod.VisibleItem(name)
	if ok && !withInvisibleItems {
		v = v.FilterVisibility(isVisible)
	}
	if !ok || v.IsEmpty() {
		return defmap.PerNs{}, !d.hasPendingGrowth(mod)
	}
	return v, true
}

// hasPendingGrowth reports whether mod's visibleItems could still change: a
// module in another crate is sealed (that def-map is already finished), a
// module in this crate can still grow as long as some import or macro call
// anchored there has not yet been settled.
func (d *DefCollector) hasPendingGrowth(mod *defmap.ModData) bool {
	if mod.Crate != d.defMap.Crate {
		return false
	}
	for _, imp := range d.imports {
		if imp.Status == collect.Resolved {
			continue
		}
		if imp.ContainingMod.Equal(mod.Path) {
			return true
		}
	}
	for _, call := range d.pendingCalls {
		if call.ContainingMod.Equal(mod.Path) {
			return true
		}
	}
	return false
}

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

	"rust-analyzer.dev/defmap/collect"
	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/macroexpand"
)

// Build runs the whole pipeline for one crate: seed the extern prelude and
// implicit extern crate, walk the root module (and, recursively, every
// module it declares inline) into a CrateDefMap, then alternate import
// resolution and macro expansion until neither makes progress.
//
// deps must already hold a fully-built CrateDefMap for every transitive
// dependency c can reach; Build never builds a dependency itself.
//
// Build returns a nil map, with no error, for a crate that has no id, no
// parsed root module, or is not meant to be indexed at all -- these are
// absent-by-design outcomes, not failures. A non-nil error means the build
// was cancelled or hit a corrupt-input invariant violation; either way the
// partially built map is discarded rather than returned.
func Build(ctx context.Context, c crate.Crate, deps map[crate.ID]*defmap.CrateDefMap, fs fileset.FileSystem, trees TreeProvider, expander macroexpand.Expander, cfg BuildConfig) (*defmap.CrateDefMap, error) {
	if c.ID() == crate.Zero || !c.Indexable() {
		return nil, nil
	}
	rootTree, ok := c.RootModule()
	if !ok {
		return nil, nil
	}

	defMap := defmap.NewCrateDefMap(c.ID(), c.RootFile())
	wireDependencyMaps(defMap, c, deps)
	seedExternPrelude(defMap, c, deps)

	rootCtx := &collect.Context{}
	collect.NewModCollector(defMap, rootCtx, defMap.Root, c.RootDir(), 0, nil).CollectTree(rootTree)
	stamp, hash, _ := fs.Stat(c.RootFile())
	defMap.SetFileInfo(c.RootFile(), defMap.Root, stamp, hash)

	injectImplicitExternCrate(defMap, c)
	selectPrelude(defMap, c)

	dc := newDefCollector(defMap, fs, trees, expander, cfg)
	dc.imports = presortedLiveImports(rootCtx.Imports)
	dc.pendingCalls = liveMacroCalls(rootCtx.MacroCalls)

	if err := dc.run(ctx); err != nil {
		return nil, err
	}

	defMap.FinalizeMissedFiles()
	if err := defMap.CheckInvariants(); err != nil {
		return nil, err
	}
	return defMap, nil
}

func (d *DefCollector) run(ctx context.Context) error {
	for {
		if err := checkCancel(ctx); err != nil {
			return err
		}
		if err := d.resolveImportsUntilStable(ctx); err != nil {
			return err
		}
		consumed, err := d.expandMacrosPass(ctx)
		if err != nil {
			return err
		}
		if !consumed {
			return nil
		}
	}
}

func wireDependencyMaps(defMap *defmap.CrateDefMap, c crate.Crate, deps map[crate.ID]*defmap.CrateDefMap) {
	for id, m := range deps {
		defMap.AllDependenciesDefMaps[id] = m
	}
	for _, dep := range c.Dependencies() {
		depMap, ok := deps[dep.Crate.ID()]
		if !ok {
			continue
		}
		defMap.DirectDependenciesDefMaps[dep.ExternName] = depMap
	}
}

// seedExternPrelude installs name -> rootModData for each direct
// dependency, pruning the standard/core library by their conventional
// extern names when the crate root opts out via no_std/no_core.
func seedExternPrelude(defMap *defmap.CrateDefMap, c crate.Crate, deps map[crate.ID]*defmap.CrateDefMap) {
	attrs := c.Attrs()
	for _, dep := range c.Dependencies() {
		if attrs == crate.AttrsNoCore && (dep.ExternName == "std" || dep.ExternName == "core") {
			continue
		}
		if attrs == crate.AttrsNoStd && dep.ExternName == "std" {
			continue
		}
		depMap, ok := deps[dep.Crate.ID()]
		if !ok {
			continue
		}
		defMap.ExternPrelude[dep.ExternName] = depMap.Root
	}
}

// injectImplicitExternCrate adds the one implicit `extern crate` a crate
// root gets for free: std normally, core under no_std, nothing under
// no_core. The binding only occupies a visibleItems slot pre-2018 editions
// -- from 2018 on its nameInScope is "_", meaning it stays reachable only
// through externPrelude.
func injectImplicitExternCrate(defMap *defmap.CrateDefMap, c crate.Crate) {
	var name string
	switch c.Attrs() {
	case crate.AttrsNoCore:
		return
	case crate.AttrsNoStd:
		name = "core"
	default:
		name = "std"
	}
	target, ok := defMap.ExternPrelude[name]
	if !ok {
		return
	}
	if crate.EditionAtLeast(c.Edition(), "2018") {
		return
	}
	item := defmap.VisItem{Path: target.Path, Visibility: defmap.Public(), IsModOrEnum: true}
	defMap.Root.AddVisibleItem(name, defmap.FromNamespace(defmap.NsTypes, item))
}

// selectPrelude scans direct dependencies in declaration order, setting
// defMap.Prelude to each one's conventionally-named "prelude" child module
// in turn -- so when more than one dependency exposes one, the last
// dependency in declaration order wins.
func selectPrelude(defMap *defmap.CrateDefMap, c crate.Crate) {
	for _, dep := range c.Dependencies() {
		depMap, ok := defMap.DirectDependenciesDefMaps[dep.ExternName]
		if !ok {
			continue
		}
		if prelude, ok := depMap.Root.ChildModule("prelude"); ok {
			defMap.Prelude = prelude
		}
	}
}

// presortedLiveImports drops imports anchored in a module shadowed by a
// later cfg-enabled redeclaration (see defmap.ModData.AddChildModule) and
// orders what remains by the three descending keys that cut down the
// number of fixed-point passes.
func presortedLiveImports(imports []*collect.Import) []*collect.Import {
	live := make([]*collect.Import, 0, len(imports))
	for _, imp := range imports {
		if imp.OriginMod != nil && imp.OriginMod.IsShadowedByOtherFile {
			continue
		}
		live = append(live, imp)
	}
	presortImports(live)
	return live
}

func liveMacroCalls(calls []*collect.MacroCallInfo) []*collect.MacroCallInfo {
	live := make([]*collect.MacroCallInfo, 0, len(calls))
	for _, call := range calls {
		if call.OriginMod != nil && call.OriginMod.IsShadowedByOtherFile {
			continue
		}
		live = append(live, call)
	}
	return live
}

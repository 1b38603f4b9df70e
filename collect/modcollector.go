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

package collect

import (
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
)

// OnAddItem is invoked once for every named item declaration ModCollector
// processes, including those coming from macro expansion. The def-collector
// passes a callback that runs the new binding through the normal
// NAMED-import merge path, so that macro-introduced items participate in
// further import resolution immediately. For the very first pass, before
// any resolution has started, the callback may be nil -- there's nothing
// to replay yet.
type OnAddItem func(mod *defmap.ModData, name string, ns defmap.Namespace, item defmap.VisItem)

// ModCollector walks an itemtree.Tree and feeds declared items into ModData
// and imports/macro calls into a Context, independent of whatever produced
// the Tree.
type ModCollector struct {
	defMap     *defmap.CrateDefMap
	ctx        *Context
	mod        *defmap.ModData
	dir        string
	macroDepth int
	onAddItem  OnAddItem
}

// NewModCollector constructs a collector rooted at mod. dir is the
// directory that owns the file mod's items come from, used to resolve
// file-backed `mod name;` declarations relative to it.
func NewModCollector(defMap *defmap.CrateDefMap, ctx *Context, mod *defmap.ModData, dir string, macroDepth int, onAddItem OnAddItem) *ModCollector {
	return &ModCollector{defMap: defMap, ctx: ctx, mod: mod, dir: dir, macroDepth: macroDepth, onAddItem: onAddItem}
}

// CollectTree walks every item in tree into c.mod.
func (c *ModCollector) CollectTree(tree *itemtree.Tree) {
	for _, item := range tree.Items {
		c.collectItem(item, tree.File)
	}
}

func (c *ModCollector) collectItem(item itemtree.Item, file fileset.FileID) {
	switch it := item.(type) {
	case *itemtree.Struct:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsTypes, it.IsEnumLike)
	case *itemtree.Enum:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsTypes, true)
	case *itemtree.Trait:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsTypes, false)
	case *itemtree.TypeAlias:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsTypes, false)
	case *itemtree.Fn:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsValues, false)
	case *itemtree.Const:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsValues, false)
	case *itemtree.Static:
		c.declare(it.Name, it.Attrs, it.Vis, defmap.NsValues, false)
	case *itemtree.MacroRulesDef:
		c.collectMacroRulesDef(it)
	case *itemtree.Mod:
		c.collectMod(it, file)
	case *itemtree.Use:
		c.collectUse(it, file)
	case *itemtree.ExternCrate:
		c.collectExternCrate(it, file)
	case *itemtree.MacroCall:
		c.collectMacroCall(it, file)
	}
}

func (c *ModCollector) visibility(attrs itemtree.Attrs, raw itemtree.RawVisibility) defmap.Visibility {
	if !attrs.CfgEnabled {
		return defmap.CfgDisabled()
	}
	switch raw.Kind {
	case itemtree.KindPub:
		return defmap.Public()
	case itemtree.KindPubCrate:
		return defmap.Restricted(defmap.CrateRoot(c.mod.Path.Crate))
	case itemtree.KindPubSuper:
		return defmap.Restricted(c.mod.Path.Parent())
	case itemtree.KindPubIn:
		return defmap.Restricted(defmap.ModPath{Crate: c.mod.Path.Crate, Segments: raw.Path})
	default: // KindPrivate
		return defmap.Private(c.mod.Path)
	}
}

// declare installs a newly-seen name. Before resolution starts (onAddItem
// nil) it writes straight into ModData, the only case where there is no
// glob-propagation graph yet to keep in sync. Once a def-collector is
// driving expansion, onAddItem *is* the installation path -- it runs the
// same glob-aware merge an ordinary import would, so a macro-introduced
// item reaches every module that already globs this one.
func (c *ModCollector) declare(name string, attrs itemtree.Attrs, raw itemtree.RawVisibility, ns defmap.Namespace, isModOrEnum bool) {
	vis := c.visibility(attrs, raw)
	item := defmap.VisItem{Path: c.mod.Path.Child(name), Visibility: vis, IsModOrEnum: isModOrEnum}
	if c.onAddItem == nil {
		c.mod.AddVisibleItem(name, defmap.FromNamespace(ns, item))
		return
	}
	c.onAddItem(c.mod, name, ns, item)
}

func (c *ModCollector) collectMacroRulesDef(it *itemtree.MacroRulesDef) {
	if !it.Attrs.CfgEnabled {
		return
	}
	def := defmap.MacroDefInfo{Name: it.Name, DefSite: c.mod.Path, Expansion: it.Expansion}
	c.mod.AddLegacyMacro(it.Name, def)
	// A macro_rules! definition also occupies the macros namespace of its
	// defining module, so ordinary path resolution
	// can find it via `crate::m!()` as well as via its legacy scope.
	c.declare(it.Name, it.Attrs, itemtree.RawVisibility{Kind: itemtree.KindPrivate}, defmap.NsMacros, false)
}

func (c *ModCollector) collectMod(it *itemtree.Mod, file fileset.FileID) {
	vis := c.visibility(it.Attrs, it.Vis)
	childPath := c.mod.Path.Child(it.Name)
	var childFile fileset.FileID
	var fileRelPath string
	if it.Inline != nil {
		childFile = file
		fileRelPath = childPath.String()
	}
	child := defmap.NewModData(c.mod, childPath, childFile, fileRelPath)
	child.IsDeeplyEnabledByCfg = c.mod.IsDeeplyEnabledByCfg && it.Attrs.CfgEnabled
	c.mod.AddChildModule(it.Name, child)

	visItem := defmap.VisItem{Path: childPath, Visibility: vis, IsModOrEnum: true}
	if c.onAddItem == nil {
		c.mod.AddVisibleItem(it.Name, defmap.FromNamespace(defmap.NsTypes, visItem))
	} else {
		c.onAddItem(c.mod, it.Name, defmap.NsTypes, visItem)
	}

	if !it.Attrs.CfgEnabled {
		return
	}

	if it.Inline != nil {
		sub := NewModCollector(c.defMap, c.ctx, child, c.dir, c.macroDepth, c.onAddItem)
		sub.CollectTree(it.Inline)
		return
	}
	if it.FileRelativePath != "" {
		c.ctx.AddMacroCall(&MacroCallInfo{
			Kind:          KindModDecl,
			ContainingMod: childPath,
			OriginMod:     child,
			ModName:       it.Name,
			IncludePath:   it.FileRelativePath,
			SourceDir:     c.dir,
			Depth:         c.macroDepth,
			Pos:           fileset.Pos{File: file},
		})
	}
}

func (c *ModCollector) collectUse(it *itemtree.Use, file fileset.FileID) {
	vis := c.visibility(it.Attrs, it.Vis)
	imp := &Import{
		ContainingMod: c.mod.Path,
		OriginMod:     c.mod,
		UsePath:       it.Path,
		Visibility:    vis,
		IsGlob:        it.IsGlob,
		IsPrelude:     it.IsPreludeImport,
		Pos:           fileset.Pos{File: file},
	}
	switch {
	case it.IsUnnamedTraitImport:
		// `use T as _;` -- handled specially by the resolver via
		// UsePath/ContainingMod; it never occupies NameInScope.
	case it.Alias != "":
		imp.NameInScope = it.Alias
	case !it.IsGlob && len(it.Path) > 0:
		imp.NameInScope = it.Path[len(it.Path)-1]
	}
	imp.MarkExistedBeforeResolution(c.mod)
	c.ctx.AddImport(imp)
}

func (c *ModCollector) collectExternCrate(it *itemtree.ExternCrate, file fileset.FileID) {
	vis := c.visibility(it.Attrs, it.Vis)
	nameInScope := it.Alias
	if nameInScope == "" {
		nameInScope = it.Path
	}
	imp := &Import{
		ContainingMod: c.mod.Path,
		OriginMod:     c.mod,
		UsePath:       []string{it.Path},
		NameInScope:   nameInScope,
		Visibility:    vis,
		IsExternCrate: true,
		Pos:           fileset.Pos{File: file},
	}
	imp.MarkExistedBeforeResolution(c.mod)
	c.ctx.AddImport(imp)
}

func (c *ModCollector) collectMacroCall(it *itemtree.MacroCall, file fileset.FileID) {
	if !it.Attrs.CfgEnabled {
		// A cfg-disabled macro call never joins the pending queue at all.
		return
	}
	if it.IsInclude {
		c.ctx.AddMacroCall(&MacroCallInfo{
			Kind:          KindInclude,
			ContainingMod: c.mod.Path,
			OriginMod:     c.mod,
			IncludePath:   it.IncludePath,
			SourceDir:     c.dir,
			Depth:         c.macroDepth,
			Pos:           fileset.Pos{File: file},
		})
		return
	}
	var macroDef *defmap.MacroDefInfo
	if len(it.Path) == 1 {
		if def, ok := c.lookupLegacyMacro(it.Path[0]); ok {
			d := def
			macroDef = &d
		}
	}
	c.ctx.AddMacroCall(&MacroCallInfo{
		Kind:          KindMacroPath,
		ContainingMod: c.mod.Path,
		OriginMod:     c.mod,
		Path:          it.Path,
		Body:          it.Body,
		BodyHash:      it.BodyHash,
		Depth:         c.macroDepth,
		MacroDef:      macroDef,
		Pos:           fileset.Pos{File: file},
	})
}

// lookupLegacyMacro walks the self/ancestor chain looking for a
// macro_rules! definition visible in textual-order scope. Because
// ModCollector mutates ModData.legacyMacros as it walks a module's items in
// source order, a lookup performed while processing a later item in the
// same module only ever sees earlier definitions, which is exactly the
// textual-order contract.
func (c *ModCollector) lookupLegacyMacro(name string) (defmap.MacroDefInfo, bool) {
	for m := c.mod; m != nil; m = m.Parent {
		if def, ok := m.LegacyMacro(name); ok {
			return def, true
		}
	}
	return defmap.MacroDefInfo{}, false
}

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
	"testing"

	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
)

func newTestCollector() (*ModCollector, *defmap.ModData, *Context) {
	defMap := defmap.NewCrateDefMap(crate.ID(1), fileset.NoFile)
	ctx := &Context{}
	return NewModCollector(defMap, ctx, defMap.Root, "src", 0, nil), defMap.Root, ctx
}

func TestDeclareWithNilOnAddItemWritesDirectly(t *testing.T) {
	c, mod, _ := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Struct{Name: "X", Vis: itemtree.RawVisibility{Kind: itemtree.KindPub}, Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	perNs, ok := mod.VisibleItem("X")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(perNs.Types))
	qt.Assert(t, qt.Equals(perNs.Types.Visibility.Kind, defmap.VisPublic))
}

func TestDeclareRoutesThroughOnAddItemWhenPresent(t *testing.T) {
	var gotName string
	var gotNs defmap.Namespace
	defMap := defmap.NewCrateDefMap(crate.ID(1), fileset.NoFile)
	ctx := &Context{}
	onAdd := func(mod *defmap.ModData, name string, ns defmap.Namespace, item defmap.VisItem) {
		gotName, gotNs = name, ns
		mod.SetVisibleItem(name, defmap.FromNamespace(ns, item))
	}
	c := NewModCollector(defMap, ctx, defMap.Root, "src", 0, onAdd)
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Const{Name: "N", Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(gotName, "N"))
	qt.Assert(t, qt.Equals(gotNs, defmap.NsValues))
}

func TestCollectUseAliasSetsNameInScope(t *testing.T) {
	c, mod, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Use{Path: []string{"a", "X"}, Alias: "Y", Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(len(ctx.Imports), 1))
	qt.Assert(t, qt.Equals(ctx.Imports[0].NameInScope, "Y"))
	qt.Assert(t, qt.Equals(ctx.Imports[0].ContainingMod.String(), mod.Path.String()))
}

func TestCollectUseLastSegmentWhenNoAlias(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Use{Path: []string{"a", "X"}, Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(ctx.Imports[0].NameInScope, "X"))
}

func TestCollectUseGlobHasNoNameInScope(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Use{Path: []string{"a"}, IsGlob: true, Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(ctx.Imports[0].NameInScope, ""))
	qt.Assert(t, qt.IsTrue(ctx.Imports[0].IsGlob))
}

func TestCollectUseUnnamedTraitImportHasNoNameInScope(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Use{Path: []string{"a", "Trait"}, Alias: "_", IsUnnamedTraitImport: true, Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(ctx.Imports[0].NameInScope, ""))
}

func TestCollectMacroCallCfgDisabledNeverQueued(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.MacroCall{Path: []string{"m"}, Attrs: itemtree.Attrs{CfgEnabled: false}},
	}})
	qt.Assert(t, qt.Equals(len(ctx.MacroCalls), 0))
}

func TestCollectMacroCallResolvesLegacyScopeInTextualOrder(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.MacroCall{Path: []string{"m"}, Attrs: itemtree.Attrs{CfgEnabled: true}},
		&itemtree.MacroRulesDef{Name: "m", Attrs: itemtree.Attrs{CfgEnabled: true}},
		&itemtree.MacroCall{Path: []string{"m"}, Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(len(ctx.MacroCalls), 2))
	qt.Assert(t, qt.IsNil(ctx.MacroCalls[0].MacroDef), qt.Commentf("macro_rules! defined after the first call must not be visible to it"))
	qt.Assert(t, qt.IsNotNil(ctx.MacroCalls[1].MacroDef), qt.Commentf("macro_rules! defined before the second call must resolve via legacy scope"))
}

func TestCollectModFileBackedQueuesModDecl(t *testing.T) {
	c, _, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Mod{Name: "a", FileRelativePath: "a.rs", Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	qt.Assert(t, qt.Equals(len(ctx.MacroCalls), 1))
	qt.Assert(t, qt.Equals(ctx.MacroCalls[0].Kind, KindModDecl))
	qt.Assert(t, qt.Equals(ctx.MacroCalls[0].IncludePath, "a.rs"))
}

func TestCollectModCfgDisabledStillInstallsButSkipsDescent(t *testing.T) {
	c, mod, ctx := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Mod{Name: "a", FileRelativePath: "a.rs", Attrs: itemtree.Attrs{CfgEnabled: false}},
	}})
	_, ok := mod.VisibleItem("a")
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(ctx.MacroCalls), 0))
}

func TestVisibilityPrivateIsRestrictedToOwnModule(t *testing.T) {
	c, mod, _ := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Struct{Name: "X", Attrs: itemtree.Attrs{CfgEnabled: true}},
	}})
	perNs, _ := mod.VisibleItem("X")
	qt.Assert(t, qt.Equals(perNs.Types.Visibility.Kind, defmap.VisRestricted))
	qt.Assert(t, qt.Equals(perNs.Types.Visibility.InMod.String(), mod.Path.String()))
}

func TestVisibilityCfgDisabledOverridesRawKind(t *testing.T) {
	c, mod, _ := newTestCollector()
	c.CollectTree(&itemtree.Tree{Items: []itemtree.Item{
		&itemtree.Struct{Name: "X", Vis: itemtree.RawVisibility{Kind: itemtree.KindPub}, Attrs: itemtree.Attrs{CfgEnabled: false}},
	}})
	perNs, _ := mod.VisibleItem("X")
	qt.Assert(t, qt.Equals(perNs.Types.Visibility.Kind, defmap.VisCfgDisabled))
}

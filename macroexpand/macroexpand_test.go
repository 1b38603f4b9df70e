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

package macroexpand_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/itemtree"
	"rust-analyzer.dev/defmap/macroexpand"
)

func TestDeclarativeExpandSucceedsWithFixedExpansion(t *testing.T) {
	expansion := &itemtree.Tree{Items: []itemtree.Item{&itemtree.Struct{Name: "Q"}}}
	def := macroexpand.Def{Name: "m", Expansion: expansion}

	tree, meta, ok := macroexpand.Declarative{}.Expand(def, macroexpand.Call{Path: []string{"m"}})
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.IsNotNil(meta))
	qt.Assert(t, qt.Equals(tree, expansion))
}

func TestDeclarativeExpandFailsWithoutExpansion(t *testing.T) {
	def := macroexpand.Def{Name: "m"}
	tree, meta, ok := macroexpand.Declarative{}.Expand(def, macroexpand.Call{Path: []string{"m"}})
	qt.Assert(t, qt.IsFalse(ok))
	qt.Assert(t, qt.IsNil(tree))
	qt.Assert(t, qt.IsNil(meta))
}

func TestDeclarativeSubstituteDollarCrateIsNoOp(t *testing.T) {
	tree := &itemtree.Tree{Items: []itemtree.Item{&itemtree.Struct{Name: "Q"}}}
	out := macroexpand.Declarative{}.SubstituteDollarCrate(tree, 1)
	qt.Assert(t, qt.Equals(out, tree))
}

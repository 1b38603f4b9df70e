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

package fixture_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/internal/itemtree/fixture"
	"rust-analyzer.dev/defmap/itemtree"
)

const basicArchive = `
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - mod: {name: a, file: a.rs}
  - use: {path: [a, X], vis: {kind: pub}}
-- src/a.rs.yaml --
items:
  - struct: {name: X, vis: {kind: pub}}
`

func TestLoadBuildsTreesByPath(t *testing.T) {
	loaded, err := fixture.Load([]byte(basicArchive))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(string(loaded.RootFile), "src/lib.rs"))
	qt.Assert(t, qt.Equals(loaded.RootDir, "src"))

	root, ok := loaded.FS.ItemTree(loaded.RootFile)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(len(root.Items), 2))

	mod, ok := root.Items[0].(*itemtree.Mod)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(mod.Name, "a"))
	qt.Assert(t, qt.Equals(mod.FileRelativePath, "a.rs"))

	id, ok, err := loaded.FS.Resolve("src", "a.rs")
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(string(id), "src/a.rs"))

	aTree, ok := loaded.FS.ItemTree(id)
	qt.Assert(t, qt.IsTrue(ok))
	s, ok := aTree.Items[0].(*itemtree.Struct)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Assert(t, qt.Equals(s.Name, "X"))
	qt.Assert(t, qt.Equals(s.Vis.Kind, itemtree.KindPub))
}

func TestLoadMissingCrateYamlFails(t *testing.T) {
	_, err := fixture.Load([]byte("-- src/lib.rs.yaml --\nitems: []\n"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestLoadMissingRootFails(t *testing.T) {
	_, err := fixture.Load([]byte("-- Crate.yaml --\nname: c\n"))
	qt.Assert(t, qt.IsNotNil(err))
}

func TestCfgEnabledDefaultsToTrue(t *testing.T) {
	loaded, err := fixture.Load([]byte(`
-- Crate.yaml --
name: c
-- src/lib.rs.yaml --
items:
  - struct: {name: X}
`))
	qt.Assert(t, qt.IsNil(err))
	tree, _ := loaded.FS.ItemTree(loaded.RootFile)
	s := tree.Items[0].(*itemtree.Struct)
	qt.Assert(t, qt.IsTrue(s.CfgEnabled))
}

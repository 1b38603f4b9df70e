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

package defmap_test

import (
	"testing"

	"github.com/go-quicktest/qt"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
)

func mp(segs ...string) defmap.ModPath {
	return defmap.ModPath{Crate: 1, Segments: segs}
}

func TestVisibilityWideningOrder(t *testing.T) {
	outer := defmap.Restricted(mp("a"))
	inner := defmap.Restricted(mp("a", "b"))

	qt.Assert(t, qt.IsTrue(defmap.Public().IsStrictlyMorePermissive(outer)))
	qt.Assert(t, qt.IsTrue(outer.IsStrictlyMorePermissive(inner)))
	qt.Assert(t, qt.IsTrue(inner.IsStrictlyMorePermissive(defmap.Invisible())))
	qt.Assert(t, qt.IsTrue(defmap.Invisible().IsStrictlyMorePermissive(defmap.CfgDisabled())))

	qt.Assert(t, qt.IsFalse(inner.IsStrictlyMorePermissive(outer)))
	qt.Assert(t, qt.IsFalse(outer.IsStrictlyMorePermissive(outer)))
}

func TestRestrictedDifferentCratesUnordered(t *testing.T) {
	a := defmap.Restricted(defmap.ModPath{Crate: 1, Segments: []string{"x"}})
	b := defmap.Restricted(defmap.ModPath{Crate: 2, Segments: []string{"x"}})
	qt.Assert(t, qt.IsFalse(a.IsStrictlyMorePermissive(b)))
	qt.Assert(t, qt.IsFalse(b.IsStrictlyMorePermissive(a)))
}

func TestIsVisibleFrom(t *testing.T) {
	vis := defmap.Restricted(mp("a"))
	qt.Assert(t, qt.IsTrue(vis.IsVisibleFrom(mp("a", "b"))))
	qt.Assert(t, qt.IsTrue(vis.IsVisibleFrom(mp("a"))))
	qt.Assert(t, qt.IsFalse(vis.IsVisibleFrom(mp("c"))))
	qt.Assert(t, qt.IsFalse(defmap.Invisible().IsVisibleFrom(mp("a"))))
	qt.Assert(t, qt.IsTrue(defmap.Public().IsVisibleFrom(mp("anything"))))
}

func TestModPathOperations(t *testing.T) {
	root := defmap.CrateRoot(crate.ID(1))
	qt.Assert(t, qt.IsTrue(root.IsCrateRoot()))
	qt.Assert(t, qt.Equals(root.String(), "crate"))

	child := root.Child("a").Child("b")
	qt.Assert(t, qt.Equals(child.String(), "crate::a::b"))
	qt.Assert(t, qt.Equals(child.Name(), "b"))
	qt.Assert(t, qt.Equals(child.Parent().String(), "crate::a"))
	qt.Assert(t, qt.IsTrue(root.IsSubPathOf(child)))
	qt.Assert(t, qt.IsFalse(child.IsSubPathOf(root)))
	qt.Assert(t, qt.Equals(child.Depth(), 2))
}

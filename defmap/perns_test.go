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

	"rust-analyzer.dev/defmap/defmap"
)

func TestPerNsOr(t *testing.T) {
	a := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("a")})
	b := defmap.FromNamespace(defmap.NsValues, defmap.VisItem{Path: mp("b")})
	merged := a.Or(b)
	qt.Assert(t, qt.Equals(merged.Types.Path.String(), mp("a").String()))
	qt.Assert(t, qt.Equals(merged.Values.Path.String(), mp("b").String()))
	qt.Assert(t, qt.IsNil(merged.Macros))
}

func TestPerNsOrSelfDominates(t *testing.T) {
	a := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("a")})
	b := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("b")})
	merged := a.Or(b)
	qt.Assert(t, qt.Equals(merged.Types.Path.String(), mp("a").String()))
}

func TestPerNsUpdateMorePermissiveWins(t *testing.T) {
	lo := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("a"), Visibility: defmap.Restricted(mp("a", "b"))})
	hi := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("a"), Visibility: defmap.Public()})

	merged := lo.Update(hi)
	qt.Assert(t, qt.Equals(merged.Types.Visibility.Kind, defmap.VisPublic))

	merged = hi.Update(lo)
	qt.Assert(t, qt.Equals(merged.Types.Visibility.Kind, defmap.VisPublic))
}

func TestPerNsFilterVisibility(t *testing.T) {
	p := defmap.FromNamespace(defmap.NsTypes, defmap.VisItem{Path: mp("a"), Visibility: defmap.Invisible()}).
		Or(defmap.FromNamespace(defmap.NsValues, defmap.VisItem{Path: mp("a"), Visibility: defmap.Public()}))

	filtered := p.FilterVisibility(func(v defmap.Visibility) bool { return v.Kind != defmap.VisInvisible })
	qt.Assert(t, qt.IsNil(filtered.Types))
	qt.Assert(t, qt.IsNotNil(filtered.Values))
}

func TestPerNsIsEmpty(t *testing.T) {
	var p defmap.PerNs
	qt.Assert(t, qt.IsTrue(p.IsEmpty()))
	p = defmap.FromNamespace(defmap.NsMacros, defmap.VisItem{})
	qt.Assert(t, qt.IsFalse(p.IsEmpty()))
}

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

package defmap

// VisItem is the binding of a name to an item: the path it points at, the
// visibility of that binding at the point it was installed, and whether the
// target can host child items the way a module or enum can.
type VisItem struct {
	Path        ModPath
	Visibility  Visibility
	IsModOrEnum bool
}

// WithVisibility returns a copy of v with its visibility replaced.
func (v VisItem) WithVisibility(vis Visibility) VisItem {
	v.Visibility = vis
	return v
}

// Namespace selects one of the three namespaces a name can independently
// occupy.
type Namespace int

const (
	NsTypes Namespace = iota
	NsValues
	NsMacros
)

var allNamespaces = [...]Namespace{NsTypes, NsValues, NsMacros}

// PerNs is a triple of optional bindings, one per namespace.
// The zero value is empty.
type PerNs struct {
	Types  *VisItem
	Values *VisItem
	Macros *VisItem
}

// FromNamespace builds a PerNs with a single namespace populated.
func FromNamespace(ns Namespace, item VisItem) PerNs {
	var p PerNs
	p.set(ns, &item)
	return p
}

// IsEmpty reports whether all three namespaces are unpopulated.
func (p PerNs) IsEmpty() bool {
	return p.Types == nil && p.Values == nil && p.Macros == nil
}

// Get returns the binding in namespace ns, or nil.
func (p PerNs) Get(ns Namespace) *VisItem {
	switch ns {
	case NsTypes:
		return p.Types
	case NsValues:
		return p.Values
	case NsMacros:
		return p.Macros
	default:
		return nil
	}
}

func (p *PerNs) set(ns Namespace, item *VisItem) {
	switch ns {
	case NsTypes:
		p.Types = item
	case NsValues:
		p.Values = item
	case NsMacros:
		p.Macros = item
	}
}

// With returns a copy of p with namespace ns replaced by item (which may be
// nil to clear it).
func (p PerNs) With(ns Namespace, item *VisItem) PerNs {
	p.set(ns, item)
	return p
}

// Or performs a componentwise fallback: p's populated namespaces win;
// other fills in whatever p left empty.
func (p PerNs) Or(other PerNs) PerNs {
	var out PerNs
	for _, ns := range allNamespaces {
		if v := p.Get(ns); v != nil {
			out.set(ns, v)
		} else {
			out.set(ns, other.Get(ns))
		}
	}
	return out
}

// Update performs a componentwise merge: where both sides populate a
// namespace, the more permissive visibility wins.
func (p PerNs) Update(other PerNs) PerNs {
	out := p
	for _, ns := range allNamespaces {
		a, b := p.Get(ns), other.Get(ns)
		switch {
		case a == nil:
			out.set(ns, b)
		case b == nil:
			out.set(ns, a)
		case b.Visibility.IsStrictlyMorePermissive(a.Visibility):
			out.set(ns, b)
		default:
			out.set(ns, a)
		}
	}
	return out
}

// FilterVisibility keeps only the namespaces whose binding satisfies pred.
func (p PerNs) FilterVisibility(pred func(Visibility) bool) PerNs {
	var out PerNs
	for _, ns := range allNamespaces {
		if v := p.Get(ns); v != nil && pred(v.Visibility) {
			out.set(ns, v)
		}
	}
	return out
}

// WithVisibility replaces the visibility of every populated namespace.
func (p PerNs) WithVisibility(v Visibility) PerNs {
	return p.MapItems(func(item VisItem) VisItem { return item.WithVisibility(v) })
}

// MapItems applies f to every populated namespace.
func (p PerNs) MapItems(f func(VisItem) VisItem) PerNs {
	var out PerNs
	for _, ns := range allNamespaces {
		if v := p.Get(ns); v != nil {
			mapped := f(*v)
			out.set(ns, &mapped)
		}
	}
	return out
}

// ForEach calls f for every populated namespace.
func (p PerNs) ForEach(f func(Namespace, VisItem)) {
	for _, ns := range allNamespaces {
		if v := p.Get(ns); v != nil {
			f(ns, *v)
		}
	}
}

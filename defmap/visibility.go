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

// VisibilityKind discriminates the four Visibility variants.
type VisibilityKind int

const (
	// VisCfgDisabled marks an attribute-disabled item. Least permissive.
	VisCfgDisabled VisibilityKind = iota
	// VisInvisible marks an import pointing at a private item: kept for
	// completion purposes, but not in scope.
	VisInvisible
	// VisRestricted is "visible iff the viewing module's path has InMod's
	// path as a prefix, in the same crate". Plain `private` is
	// represented as Restricted(enclosing module).
	VisRestricted
	// VisPublic is visible everywhere. Most permissive.
	VisPublic
)

// Visibility is a tagged union; see VisibilityKind for the variants.
type Visibility struct {
	Kind  VisibilityKind
	InMod ModPath // meaningful only when Kind == VisRestricted
}

// Public returns the always-visible variant.
func Public() Visibility { return Visibility{Kind: VisPublic} }

// Invisible returns the completion-only, not-in-scope variant.
func Invisible() Visibility { return Visibility{Kind: VisInvisible} }

// CfgDisabled returns the attribute-disabled variant.
func CfgDisabled() Visibility { return Visibility{Kind: VisCfgDisabled} }

// Restricted returns a Visibility visible only within inMod and its
// descendants. Plain `private` is Restricted(enclosing module).
func Restricted(inMod ModPath) Visibility {
	return Visibility{Kind: VisRestricted, InMod: inMod}
}

// Private is an alias for Restricted, documenting the common case where
// inMod is the item's own enclosing module.
func Private(enclosing ModPath) Visibility { return Restricted(enclosing) }

// IsVisibleFrom reports whether an item with this visibility can be seen
// from origin.
func (v Visibility) IsVisibleFrom(origin ModPath) bool {
	switch v.Kind {
	case VisPublic:
		return true
	case VisRestricted:
		return v.InMod.IsSubPathOf(origin)
	default: // VisInvisible, VisCfgDisabled
		return false
	}
}

// rank buckets CfgDisabled < Invisible < Restricted < Public. Restricted
// values additionally order among themselves by ancestry -- see
// IsStrictlyMorePermissive.
func (k VisibilityKind) rank() int {
	switch k {
	case VisCfgDisabled:
		return 0
	case VisInvisible:
		return 1
	case VisRestricted:
		return 2
	case VisPublic:
		return 3
	default:
		return -1
	}
}

// IsStrictlyMorePermissive implements the widening order:
//
//	CfgDisabled < Invisible < Restricted(inner) < Restricted(outer) < Public
//
// For two Restricted visibilities in the same crate, the one whose InMod is
// the shallower (closer-to-root) module is the more permissive one: a
// `pub(in crate::foo)` item is visible to everything under foo, and the
// nearer foo is to the crate root the larger that audience is. A
// `pub(in crate::foo::bar)` item is visible to a strict subset of that, so
// it is strictly less permissive. Two Restricted visibilities in different
// crates, or pointing at the same module, are not strictly ordered.
func (v Visibility) IsStrictlyMorePermissive(other Visibility) bool {
	if v.Kind == VisRestricted && other.Kind == VisRestricted {
		if v.InMod.Crate != other.InMod.Crate {
			return false
		}
		return v.InMod.IsSubPathOf(other.InMod) && !v.InMod.Equal(other.InMod)
	}
	return v.Kind.rank() > other.Kind.rank()
}

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

// Package macroexpand defines the macro-expander capability the resolver
// is handed plus a small reference implementation used by the
// CLI and tests. Hygienic expansion, token-level matching, and the real
// macro_rules! matcher algorithm are all out of scope -- this
// package only needs to model the capability's shape: given a macro
// definition and a call site, produce an expanded item tree (or report that
// expansion failed), and substitute `$crate` with the defining crate's
// name.
package macroexpand

import (
	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/itemtree"
)

// Def is the macro definition data the resolver passes to Expander.Expand.
// It is opaque beyond Name: a host's real macro_rules! matcher would carry
// its token-tree rules here, but this module never needs to look inside
// them itself.
type Def struct {
	Name string
	// DefiningCrate is used to resolve `$crate` in the expansion.
	DefiningCrate crate.ID
	// Expansion, in the reference implementation, is the fixed tree the
	// macro always expands to. A host backed by a real matcher would
	// instead hold unparsed rules here and ignore this field.
	Expansion *itemtree.Tree
}

// Call is the call-site data the resolver passes to Expander.Expand.
type Call struct {
	Path []string
	Body string
}

// Metadata is whatever bookkeeping the expander wants to hand back
// alongside a successful expansion. The resolver does not interpret it; it
// exists so a real host can thread through hygiene info without this
// package needing to know its shape.
type Metadata struct {
	HygieneInfo string
}

// Expander is the macro-expansion capability the resolver is handed.
type Expander interface {
	// Expand attempts to expand call against def. ok is false if
	// expansion failed, in which case the resolver consumes the call
	// without expanding it; a failed expansion is not retried on a later
	// pass.
	Expand(def Def, call Call) (tree *itemtree.Tree, meta *Metadata, ok bool)

	// SubstituteDollarCrate rewrites occurrences of `$crate` inside tree
	// (as recorded by the caller's dollarCrateMap) to refer to
	// definingCrate. The reference implementation has nothing to rewrite,
	// since its items never carry a literal "$crate" path segment, but
	// the hook exists for a host whose tokens do.
	SubstituteDollarCrate(tree *itemtree.Tree, definingCrate crate.ID) *itemtree.Tree
}

// Declarative is a minimal reference Expander: every call to a macro whose
// Def.Expansion is non-nil succeeds and yields that fixed tree. This is
// intentionally not a real macro_rules! matcher -- it exists so that
// end-to-end tests can exercise a macro call driving further resolution
// without this module owning hygiene or pattern matching.
type Declarative struct{}

// Expand implements Expander.
func (Declarative) Expand(def Def, _ Call) (*itemtree.Tree, *Metadata, bool) {
	if def.Expansion == nil {
		return nil, nil, false
	}
	return def.Expansion, &Metadata{}, true
}

// SubstituteDollarCrate implements Expander; it is a no-op for Declarative.
func (Declarative) SubstituteDollarCrate(tree *itemtree.Tree, _ crate.ID) *itemtree.Tree {
	return tree
}

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

// Package itemtree defines the item-tree contract the resolver core is fed.
//
// Source parsing is treated as an external collaborator: item parsing is in
// scope only for the contract it exposes to the resolver, not for its
// syntax-tree traversal logic. This package is that contract, expressed as
// data rather than as a live parser: a Tree is what a real parser (a
// production Rust front end, or any other) is assumed to have already
// produced for one source file. collect.ModCollector walks a Tree and turns
// it into ModData, Imports and MacroCallInfo.
package itemtree

import "rust-analyzer.dev/defmap/fileset"

// RawVisibility is the visibility as written at the syntax level, before
// the resolver turns it into a defmap.Visibility relative to some module.
// It mirrors the small set of forms Rust's surface syntax actually has.
type RawVisibility struct {
	// Kind selects among the variants below.
	Kind RawVisibilityKind
	// Path is populated for KindPubIn ("pub(in path)"); the other kinds
	// carry no path.
	Path []string
}

type RawVisibilityKind int

const (
	// KindPrivate is the default: visible only within the defining module
	// and its descendants.
	KindPrivate RawVisibilityKind = iota
	// KindPub is "pub".
	KindPub
	// KindPubCrate is "pub(crate)".
	KindPubCrate
	// KindPubSuper is "pub(super)".
	KindPubSuper
	// KindPubIn is "pub(in path)".
	KindPubIn
)

// Attrs is embedded in every item and carries the subset of attribute
// evaluation the resolver needs: whether #[cfg(...)] kept this item alive.
// Evaluating the attribute predicate itself is the host's job;
// by the time a Tree reaches this package, cfg has already been decided.
type Attrs struct {
	CfgEnabled bool
}

// Item is the sum type of everything a Tree can hold at the top level of a
// module. It is a closed set on purpose -- unlike ast.Decl in
// cuelang.org/go/cue/ast, nothing outside this package implements it.
type Item interface {
	itemNode()
}

// Struct, Enum, Trait, Fn, Const, Static and TypeAlias are named items that
// occupy the types or values namespace (structs/enums/traits/type aliases
// in types; fns/consts/statics in values), but carry no further structure
// the resolver needs: the resolver only cares that they exist, their name,
// their visibility, and -- for Struct/Enum -- whether they can host child
// items the way a module can.
type Struct struct {
	Attrs
	Name string
	Vis  RawVisibility
	// IsEnumLike marks a struct-like item (struct, or a union) as being
	// allowed to appear wherever ModData.isEnum-gated logic needs to know
	// "is this a mod-or-enum target". Plain structs are not mod-or-enum;
	// only Enum is. Kept on Struct only for symmetry in tests.
	IsEnumLike bool
}

func (*Struct) itemNode() {}

type Enum struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*Enum) itemNode() {}

type Trait struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*Trait) itemNode() {}

type Fn struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*Fn) itemNode() {}

type Const struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*Const) itemNode() {}

type Static struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*Static) itemNode() {}

type TypeAlias struct {
	Attrs
	Name string
	Vis  RawVisibility
}

func (*TypeAlias) itemNode() {}

// Mod is a module declaration. It is either inline ("mod m { ... }", Inline
// non-nil) or a file reference ("mod m;", FileRelativePath naming the file
// relative to the owning directory, resolved by the host's FileSystem
// capability).
type Mod struct {
	Attrs
	Name             string
	Vis              RawVisibility
	Inline           *Tree
	FileRelativePath string
}

func (*Mod) itemNode() {}

// Use is a `use` item. A glob import has IsGlob set and NameInScope empty.
// `use T as _;` (an unnamed trait import) has IsUnnamedTraitImport set;
// NameInScope is meaningless in that case.
type Use struct {
	Attrs
	Path                 []string
	Alias                string // "" if no `as` clause (NameInScope = last segment)
	IsGlob               bool
	IsUnnamedTraitImport bool
	// IsPreludeImport marks a glob carrying the (unstable) #[prelude_import]
	// attribute: its target becomes the crate's implicit prelude rather than
	// an ordinary glob merge.
	IsPreludeImport bool
	Vis             RawVisibility
}

func (*Use) itemNode() {}

// ExternCrate is an `extern crate path [as alias];` item.
type ExternCrate struct {
	Attrs
	Path  string
	Alias string // "" if no `as` clause
	Vis   RawVisibility
}

func (*ExternCrate) itemNode() {}

// MacroRulesDef is a `macro_rules! name { ... }` legacy-scoped macro
// definition. Its body is opaque to the resolver; only its name and scope
// matter for populating ModData.legacyMacros.
type MacroRulesDef struct {
	Attrs
	Name string
	// Expansion is the tree every call to this macro expands to. Real
	// macro_rules! matching -- token trees, repetition, fragment
	// specifiers -- is tokenization/hygienic-expansion machinery left out
	// of scope here; this field is the stand-in boundary a real host's
	// matcher would sit behind.
	Expansion *Tree
}

func (*MacroRulesDef) itemNode() {}

// MacroCall is either a bang-style macro invocation ("path!(body);") or an
// `include!(path)` call, distinguished by IsInclude. The resolver treats
// `include!` specially rather than resolving it as an ordinary macro path.
type MacroCall struct {
	Attrs
	Path        []string
	Body        string
	BodyHash    string
	IsInclude   bool
	IncludePath string // argument to include!(), only set when IsInclude
}

func (*MacroCall) itemNode() {}

// Tree is a parsed module body: a flat sequence of items in source order.
// A crate root and every inline or file-backed `mod` carries exactly one
// Tree.
type Tree struct {
	Items []Item
	// File is the file this tree's items were parsed from. For an inline
	// `mod m { ... }`, File is the same as the enclosing tree's File; for
	// a file-backed module or an `include!` target, it is the included
	// file's own id.
	File fileset.FileID
}

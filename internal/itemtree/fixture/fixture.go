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

// Package fixture turns a small, hand-written YAML notation for item trees
// into the real itemtree.Tree/crate.Crate/fileset.FileSystem values the
// resolver core is fed. Writing out a real Rust front end is out of scope
// for this module -- parsing stays a host concern, per itemtree's own doc
// comment -- so this package plays the host for the CLI and for tests:
// every fixture file describes its items directly as data rather than as
// Rust syntax. A directory on disk and a txtar archive (for in-memory test
// fixtures, in the style of cuelang.org/go's own script tests) both load
// through the same path.
package fixture

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rogpeppe/go-internal/txtar"
	"gopkg.in/yaml.v3"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/fileset"
	"rust-analyzer.dev/defmap/itemtree"
)

// FS is the in-memory fileset.FileSystem a Loaded fixture builds: every item
// tree the archive or directory described is addressable by the source path
// it claimed, nothing more. It doubles as the TreeProvider the resolver
// needs to follow a resolved FileID back to its parsed Tree.
//
// raw keeps each file's source bytes around purely for Stat: a fixture has
// no real mtime of its own (an archive has none at all, and a directory's
// would vary from one checkout to the next), so Stat reports a zero
// modification stamp and derives the content hash straight from these
// bytes, the same sha256-of-contents role fs_cache.go plays for its own
// on-disk overlay cache.
type FS struct {
	trees map[fileset.FileID]*itemtree.Tree
	raw   map[fileset.FileID][]byte
}

// Resolve implements fileset.FileSystem.
func (f *FS) Resolve(dir, relPath string) (fileset.FileID, bool, error) {
	id := fileset.FileID(path.Join(dir, relPath))
	_, ok := f.trees[id]
	return id, ok, nil
}

// Dir implements fileset.FileSystem.
func (f *FS) Dir(id fileset.FileID) string {
	return path.Dir(string(id))
}

// Stat implements fileset.FileSystem.
func (f *FS) Stat(id fileset.FileID) (modificationStamp int64, contentHash string, ok bool) {
	data, ok := f.raw[id]
	if !ok {
		return 0, "", false
	}
	return 0, fmt.Sprintf("%x", sha256.Sum256(data)), true
}

// ItemTree implements resolve.TreeProvider (structurally; this package never
// imports resolve, to keep the dependency one-directional).
func (f *FS) ItemTree(id fileset.FileID) (*itemtree.Tree, bool) {
	t, ok := f.trees[id]
	return t, ok
}

// Loaded is everything one crate's worth of fixture files produced.
type Loaded struct {
	Manifest *crate.Manifest
	FS       *FS
	RootFile fileset.FileID
	RootDir  string
}

// Crate adapts Loaded into a crate.Crate, given the identity and dependency
// list a caller assembles separately -- a single fixture only ever
// describes one crate's own files, never its dependency graph.
func (l *Loaded) Crate(id crate.ID, deps []crate.Dependency, indexable bool) crate.Crate {
	return &fixtureCrate{
		id:        id,
		manifest:  l.Manifest,
		fs:        l.FS,
		rootFile:  l.RootFile,
		rootDir:   l.RootDir,
		deps:      deps,
		indexable: indexable,
	}
}

type fixtureCrate struct {
	id        crate.ID
	manifest  *crate.Manifest
	fs        *FS
	rootFile  fileset.FileID
	rootDir   string
	deps      []crate.Dependency
	indexable bool
}

func (c *fixtureCrate) ID() crate.ID { return c.id }

func (c *fixtureCrate) RootModule() (*itemtree.Tree, bool) {
	return c.fs.ItemTree(c.rootFile)
}

func (c *fixtureCrate) RootFile() fileset.FileID { return c.rootFile }
func (c *fixtureCrate) RootDir() string          { return c.rootDir }
func (c *fixtureCrate) Attrs() crate.RootAttrs   { return c.manifest.Attrs() }
func (c *fixtureCrate) Edition() string          { return c.manifest.Edition }
func (c *fixtureCrate) Dependencies() []crate.Dependency { return c.deps }
func (c *fixtureCrate) Indexable() bool          { return c.indexable }

// Load builds a Loaded fixture from a txtar archive: one "Crate.yaml"
// manifest plus one ".yaml" file per source file it describes, each named
// after the Rust path it stands in for with ".yaml" appended (so
// "src/lib.rs.yaml" describes the tree for "src/lib.rs").
func Load(archive []byte) (*Loaded, error) {
	ar := txtar.Parse(archive)
	files := make(map[string][]byte, len(ar.Files))
	for _, f := range ar.Files {
		files[f.Name] = f.Data
	}
	return build(files)
}

// LoadDir builds a Loaded fixture by walking dir on disk, with the same
// Crate.yaml + "*.yaml" shape Load expects from an archive. This is what the
// CLI drives a fixture directory through.
func LoadDir(dir string) (*Loaded, error) {
	files := map[string][]byte{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return build(files)
}

func build(files map[string][]byte) (*Loaded, error) {
	var manifest *crate.Manifest
	treeFiles := map[fileset.FileID]*rawTree{}
	raw := map[fileset.FileID][]byte{}
	for name, data := range files {
		if name == "Crate.yaml" {
			m, err := crate.ParseManifest(data)
			if err != nil {
				return nil, fmt.Errorf("fixture: %w", err)
			}
			manifest = m
			continue
		}
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}
		var rt rawTree
		if err := yaml.Unmarshal(data, &rt); err != nil {
			return nil, fmt.Errorf("fixture: parsing %s: %w", name, err)
		}
		srcPath := strings.TrimSuffix(name, ".yaml")
		id := fileset.FileID(srcPath)
		treeFiles[id] = &rt
		raw[id] = data
	}
	if manifest == nil {
		return nil, fmt.Errorf("fixture: no Crate.yaml in archive")
	}

	fsys := &FS{trees: map[fileset.FileID]*itemtree.Tree{}, raw: raw}
	for id, rt := range treeFiles {
		fsys.trees[id] = toTree(rt, id)
	}

	rootFile := fileset.FileID(manifest.Root)
	if _, ok := fsys.trees[rootFile]; !ok {
		return nil, fmt.Errorf("fixture: root file %q not present", rootFile)
	}

	return &Loaded{
		Manifest: manifest,
		FS:       fsys,
		RootFile: rootFile,
		RootDir:  path.Dir(string(rootFile)),
	}, nil
}

// The raw* types below are the YAML shape of one itemtree.Item. Exactly one
// field of rawItem is set per entry; toItem dispatches on which.

type rawTree struct {
	Items []rawItem `yaml:"items"`
}

type rawVis struct {
	Kind string   `yaml:"kind"`
	Path []string `yaml:"path"`
}

type rawNamed struct {
	Name       string `yaml:"name"`
	Vis        rawVis `yaml:"vis"`
	CfgEnabled *bool  `yaml:"cfg_enabled"`
	IsEnumLike bool   `yaml:"is_enum_like"`
}

type rawMod struct {
	Name       string   `yaml:"name"`
	Vis        rawVis   `yaml:"vis"`
	CfgEnabled *bool    `yaml:"cfg_enabled"`
	Inline     *rawTree `yaml:"inline"`
	File       string   `yaml:"file"`
}

type rawUse struct {
	Path               []string `yaml:"path"`
	Alias              string   `yaml:"alias"`
	Glob               bool     `yaml:"glob"`
	UnnamedTraitImport bool     `yaml:"unnamed_trait_import"`
	PreludeImport      bool     `yaml:"prelude_import"`
	Vis                rawVis   `yaml:"vis"`
	CfgEnabled         *bool    `yaml:"cfg_enabled"`
}

type rawExternCrate struct {
	Path       string `yaml:"path"`
	Alias      string `yaml:"alias"`
	Vis        rawVis `yaml:"vis"`
	CfgEnabled *bool  `yaml:"cfg_enabled"`
}

type rawMacroRules struct {
	Name       string   `yaml:"name"`
	CfgEnabled *bool    `yaml:"cfg_enabled"`
	Expansion  *rawTree `yaml:"expansion"`
}

type rawMacroCall struct {
	Path       []string `yaml:"path"`
	Body       string   `yaml:"body"`
	BodyHash   string   `yaml:"body_hash"`
	CfgEnabled *bool    `yaml:"cfg_enabled"`
}

type rawInclude struct {
	Path       string `yaml:"path"`
	CfgEnabled *bool  `yaml:"cfg_enabled"`
}

type rawItem struct {
	Struct      *rawNamed       `yaml:"struct"`
	Enum        *rawNamed       `yaml:"enum"`
	Trait       *rawNamed       `yaml:"trait"`
	Fn          *rawNamed       `yaml:"fn"`
	Const       *rawNamed       `yaml:"const"`
	Static      *rawNamed       `yaml:"static"`
	TypeAlias   *rawNamed       `yaml:"type_alias"`
	Mod         *rawMod         `yaml:"mod"`
	Use         *rawUse         `yaml:"use"`
	ExternCrate *rawExternCrate `yaml:"extern_crate"`
	MacroRules  *rawMacroRules  `yaml:"macro_rules"`
	MacroCall   *rawMacroCall   `yaml:"macro_call"`
	Include     *rawInclude     `yaml:"include"`
}

func toTree(rt *rawTree, file fileset.FileID) *itemtree.Tree {
	items := make([]itemtree.Item, 0, len(rt.Items))
	for _, it := range rt.Items {
		if item := toItem(it, file); item != nil {
			items = append(items, item)
		}
	}
	return &itemtree.Tree{Items: items, File: file}
}

func toItem(it rawItem, file fileset.FileID) itemtree.Item {
	switch {
	case it.Struct != nil:
		n := it.Struct
		return &itemtree.Struct{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis), IsEnumLike: n.IsEnumLike}
	case it.Enum != nil:
		n := it.Enum
		return &itemtree.Enum{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.Trait != nil:
		n := it.Trait
		return &itemtree.Trait{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.Fn != nil:
		n := it.Fn
		return &itemtree.Fn{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.Const != nil:
		n := it.Const
		return &itemtree.Const{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.Static != nil:
		n := it.Static
		return &itemtree.Static{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.TypeAlias != nil:
		n := it.TypeAlias
		return &itemtree.TypeAlias{Attrs: attrs(n.CfgEnabled), Name: n.Name, Vis: vis(n.Vis)}
	case it.Mod != nil:
		m := it.Mod
		mod := &itemtree.Mod{Attrs: attrs(m.CfgEnabled), Name: m.Name, Vis: vis(m.Vis)}
		if m.Inline != nil {
			mod.Inline = toTree(m.Inline, file)
		} else {
			mod.FileRelativePath = m.File
		}
		return mod
	case it.Use != nil:
		u := it.Use
		return &itemtree.Use{
			Attrs:                attrs(u.CfgEnabled),
			Path:                 u.Path,
			Alias:                u.Alias,
			IsGlob:               u.Glob,
			IsUnnamedTraitImport: u.UnnamedTraitImport,
			IsPreludeImport:      u.PreludeImport,
			Vis:                  vis(u.Vis),
		}
	case it.ExternCrate != nil:
		e := it.ExternCrate
		return &itemtree.ExternCrate{Attrs: attrs(e.CfgEnabled), Path: e.Path, Alias: e.Alias, Vis: vis(e.Vis)}
	case it.MacroRules != nil:
		mr := it.MacroRules
		var expansion *itemtree.Tree
		if mr.Expansion != nil {
			expansion = toTree(mr.Expansion, file)
		}
		return &itemtree.MacroRulesDef{Attrs: attrs(mr.CfgEnabled), Name: mr.Name, Expansion: expansion}
	case it.MacroCall != nil:
		mc := it.MacroCall
		return &itemtree.MacroCall{Attrs: attrs(mc.CfgEnabled), Path: mc.Path, Body: mc.Body, BodyHash: mc.BodyHash}
	case it.Include != nil:
		inc := it.Include
		return &itemtree.MacroCall{Attrs: attrs(inc.CfgEnabled), IsInclude: true, IncludePath: inc.Path}
	default:
		return nil
	}
}

func attrs(cfgEnabled *bool) itemtree.Attrs {
	return itemtree.Attrs{CfgEnabled: cfgEnabled == nil || *cfgEnabled}
}

func vis(r rawVis) itemtree.RawVisibility {
	switch r.Kind {
	case "pub":
		return itemtree.RawVisibility{Kind: itemtree.KindPub}
	case "pub(crate)":
		return itemtree.RawVisibility{Kind: itemtree.KindPubCrate}
	case "pub(super)":
		return itemtree.RawVisibility{Kind: itemtree.KindPubSuper}
	case "pub(in)":
		return itemtree.RawVisibility{Kind: itemtree.KindPubIn, Path: r.Path}
	default:
		return itemtree.RawVisibility{Kind: itemtree.KindPrivate}
	}
}

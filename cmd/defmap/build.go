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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"rust-analyzer.dev/defmap/crate"
	"rust-analyzer.dev/defmap/defmap"
	"rust-analyzer.dev/defmap/internal/itemtree/fixture"
	"rust-analyzer.dev/defmap/macroexpand"
	"rust-analyzer.dev/defmap/resolve"
)

func newRootCmd() *cobra.Command {
	var (
		depFlags    []string
		maxMacroDep int
		maxGlobDep  int
	)

	cmd := &cobra.Command{
		Use:   "defmap <crate-dir>",
		Short: "Build and print a crate's name-resolution map from a directory of fixture files",
		Long: `defmap loads a crate's Crate.yaml manifest plus its item-tree fixture
files from a directory and runs the fixed-point import/macro resolver over
it, printing the resulting CrateDefMap.

Dependencies (--dep name=dir) are themselves loaded and built the same way,
one level deep -- a dependency's own --dep flags are not consulted, since a
fixture crate used as a dependency is expected to need no further crates of
its own beyond what its manifest's extern prelude already assumes resolved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := parseDepFlags(depFlags)
			if err != nil {
				return err
			}
			defMap, err := buildCrate(cmd.Context(), args[0], deps, resolve.BuildConfig{
				MaxMacroDepth: maxMacroDep,
				MaxGlobDepth:  maxGlobDep,
			})
			if err != nil {
				return err
			}
			cmd.Println(describe(defMap))
			return nil
		},
	}

	addBuildFlags(cmd.Flags(), &depFlags, &maxMacroDep, &maxGlobDep)
	return cmd
}

// addBuildFlags registers defmap's flags against f directly, in the style
// of cmd/cue's addGlobalFlags/addOrphanFlags helpers, which take a
// *pflag.FlagSet rather than reaching back into the *cobra.Command.
func addBuildFlags(f *pflag.FlagSet, depFlags *[]string, maxMacroDep, maxGlobDep *int) {
	f.StringArrayVar(depFlags, "dep", nil, "dependency as externName=dir, repeatable")
	f.IntVar(maxMacroDep, "max-macro-depth", resolve.DefaultMaxMacroDepth, "macro/include expansion depth limit")
	f.IntVar(maxGlobDep, "max-glob-depth", resolve.DefaultMaxGlobDepth, "glob-import propagation depth limit")
}

// depFlag is one parsed --dep externName=dir flag. Kept as an ordered slice
// rather than a map: dependency declaration order drives prelude selection
// (a later dependency's prelude module overwrites an earlier one's, per
// selectPrelude), so the CLI must preserve the order the flags were given
// in rather than Go's randomized map iteration order.
type depFlag struct {
	name string
	dir  string
}

func parseDepFlags(flags []string) ([]depFlag, error) {
	deps := make([]depFlag, 0, len(flags))
	for _, f := range flags {
		name, dir, ok := strings.Cut(f, "=")
		if !ok || name == "" || dir == "" {
			return nil, fmt.Errorf("--dep must be externName=dir, got %q", f)
		}
		deps = append(deps, depFlag{name: name, dir: dir})
	}
	return deps, nil
}

// buildCrate loads dir and every named dependency directory, assigning each
// a stable crate.ID by declaration order (1 for the root crate itself, 2 for
// its first dep, and so on), then runs the resolver over the root.
func buildCrate(ctx context.Context, dir string, depFlags []depFlag, cfg resolve.BuildConfig) (*defmap.CrateDefMap, error) {
	rootID := crate.ID(1)
	nextID := crate.ID(2)

	depDefMaps := map[crate.ID]*defmap.CrateDefMap{}
	var rootDeps []crate.Dependency
	for _, flag := range depFlags {
		id := nextID
		nextID++

		loaded, err := fixture.LoadDir(flag.dir)
		if err != nil {
			return nil, fmt.Errorf("loading dependency %q: %w", flag.name, err)
		}
		depCrate := loaded.Crate(id, nil, true)
		depMap, err := resolve.Build(ctx, depCrate, nil, loaded.FS, loaded.FS, macroexpand.Declarative{}, cfg)
		if err != nil {
			return nil, fmt.Errorf("building dependency %q: %w", flag.name, err)
		}
		depDefMaps[id] = depMap
		rootDeps = append(rootDeps, crate.Dependency{ExternName: flag.name, Crate: depCrate})
	}

	loaded, err := fixture.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", dir, err)
	}
	rootCrate := loaded.Crate(rootID, rootDeps, true)
	return resolve.Build(ctx, rootCrate, depDefMaps, loaded.FS, loaded.FS, macroexpand.Declarative{}, cfg)
}

// describe renders a CrateDefMap the way a debugging tool over this library
// would: the crate id, every module's visible names with their namespaces,
// and anything soft-failed (missed includes).
func describe(d *defmap.CrateDefMap) string {
	if d == nil {
		return "<nil def-map: crate not indexable>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "crate %s\n", d.Crate)
	var walk func(mod *defmap.ModData, indent string)
	walk = func(mod *defmap.ModData, indent string) {
		fmt.Fprintf(&b, "%smod %s\n", indent, mod.Path)
		for _, name := range mod.VisibleNames() {
			perNs, _ := mod.VisibleItem(name)
			fmt.Fprintf(&b, "%s  %s -> %s\n", indent, name, pretty.Sprint(perNs))
		}
		for _, name := range mod.ChildModuleNames() {
			child, _ := mod.ChildModule(name)
			walk(child, indent+"  ")
		}
	}
	walk(d.Root, "")
	if len(d.MissedFiles) > 0 {
		fmt.Fprintf(&b, "missed files: %v\n", d.MissedFiles)
	}
	return b.String()
}

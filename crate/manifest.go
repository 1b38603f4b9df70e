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

package crate

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk description of a crate, the analog of a
// Cargo.toml (or, in this corpus's own terms, a cue.mod/module.cue): enough
// to construct a Crate without re-deriving its metadata from source. The
// CLI and the test fixtures load one of these per crate directory.
type Manifest struct {
	Name    string               `yaml:"name"`
	Edition string               `yaml:"edition"`
	NoStd   bool                 `yaml:"no_std"`
	NoCore  bool                 `yaml:"no_core"`
	// Root names the crate-root source file, relative to the manifest's own
	// directory. Defaults to "src/lib.rs", the conventional Cargo layout.
	Root string               `yaml:"root"`
	Deps []ManifestDependency `yaml:"dependencies"`
}

// ManifestDependency names a dependency by the extern name other code in
// the crate uses to reach it, and the crate name it resolves to among the
// dependency def-maps the caller already built.
type ManifestDependency struct {
	ExternName string `yaml:"as"`
	Crate      string `yaml:"crate"`
}

// ParseManifest decodes a Crate.yaml document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing crate manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("crate manifest has no name")
	}
	if m.Edition == "" {
		m.Edition = "2015"
	}
	if m.Root == "" {
		m.Root = "src/lib.rs"
	}
	return &m, nil
}

// Attrs derives the RootAttrs this manifest implies, preferring NoCore over
// NoStd when both are set since no_core is the stronger of the two: it
// prunes both the standard library and core, where no_std prunes only std.
func (m *Manifest) Attrs() RootAttrs {
	switch {
	case m.NoCore:
		return AttrsNoCore
	case m.NoStd:
		return AttrsNoStd
	default:
		return AttrsNone
	}
}

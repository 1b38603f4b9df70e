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

import (
	"strings"

	"rust-analyzer.dev/defmap/crate"
)

// ModPath is an immutable path to a module within a specific crate. The
// empty segment list denotes that crate's root.
type ModPath struct {
	Crate    crate.ID
	Segments []string
}

// CrateRoot returns the root-module path of c.
func CrateRoot(c crate.ID) ModPath {
	return ModPath{Crate: c}
}

// IsCrateRoot reports whether p names the crate root.
func (p ModPath) IsCrateRoot() bool { return len(p.Segments) == 0 }

// Name returns the last segment, or "" at the crate root.
func (p ModPath) Name() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the path with its last segment removed. Calling Parent on
// the crate root returns the crate root again.
func (p ModPath) Parent() ModPath {
	if len(p.Segments) == 0 {
		return p
	}
	return ModPath{Crate: p.Crate, Segments: p.Segments[:len(p.Segments)-1]}
}

// Child returns the path of a submodule named name within p.
func (p ModPath) Child(name string) ModPath {
	segs := make([]string, len(p.Segments)+1)
	copy(segs, p.Segments)
	segs[len(p.Segments)] = name
	return ModPath{Crate: p.Crate, Segments: segs}
}

// Equal reports whether p and other name the same module.
func (p ModPath) Equal(other ModPath) bool {
	if p.Crate != other.Crate || len(p.Segments) != len(other.Segments) {
		return false
	}
	for i, s := range p.Segments {
		if other.Segments[i] != s {
			return false
		}
	}
	return true
}

// IsSubPathOf reports whether p and other are in the same crate and p's
// segments are a prefix of other's -- i.e. p is other, or an ancestor
// module of other.
func (p ModPath) IsSubPathOf(other ModPath) bool {
	if p.Crate != other.Crate || len(p.Segments) > len(other.Segments) {
		return false
	}
	for i, s := range p.Segments {
		if other.Segments[i] != s {
			return false
		}
	}
	return true
}

// Depth is the number of segments, used by the import sort to resolve
// deeper modules first.
func (p ModPath) Depth() int { return len(p.Segments) }

// String renders p the way rust-analyzer debug-prints a ModPath: "crate" for
// the root, "crate::a::b" otherwise.
func (p ModPath) String() string {
	if len(p.Segments) == 0 {
		return "crate"
	}
	return "crate::" + strings.Join(p.Segments, "::")
}

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

// Package fileset defines the position and file-system primitives that the
// resolver uses to talk about source locations without owning any parsing.
//
// A Pos never carries line/column information the way cue/token.Position
// does: the host is the thing that can turn a (FileID, Offset) back into
// something human-readable, and the resolver core only needs enough to
// label an error or a missed-include entry.
package fileset

import (
	"fmt"

	"github.com/google/uuid"
)

// FileID identifies a source file as the host knows it. It is opaque to the
// resolver: two FileIDs are the same file iff they compare equal.
type FileID string

// NoFile is the zero FileID, used for positions that do not refer to any
// real file (for example, a synthesized crate-root placeholder).
const NoFile FileID = ""

// NewVirtualFileID mints a FileID for content that has no file of its own in
// the host's file system, such as the expansion of a macro call. The host
// owns the identity of real files; the resolver mints one of these itself
// for every macro expansion it runs (see resolve.runExpansion).
func NewVirtualFileID() FileID {
	return FileID("virtual:" + uuid.NewString())
}

// Pos is a position within a file, expressed as a byte offset. It is
// intentionally thin: callers that need a line/column pair ask the host to
// translate it, the way errors rendered by cue/errors defer to cue/token.
type Pos struct {
	File   FileID
	Offset int
}

// IsValid reports whether pos refers to an actual file.
func (pos Pos) IsValid() bool { return pos.File != NoFile }

func (pos Pos) String() string {
	if !pos.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%s:#%d", pos.File, pos.Offset)
}

// FileSystem is the file-system capability injected by the host. It never
// hands back file contents -- turning a file into an item tree is parsing,
// which stays on the host side of the boundary. It resolves a
// possibly-relative path to a file identity (probing `mod decl;` and
// `include!` targets), reports a file's owning directory, and reports a
// file's rebuild bookkeeping.
type FileSystem interface {
	// Resolve looks up relPath relative to dir (the owning directory of
	// some other file) and returns the FileID of the result. It returns
	// ok=false, without an error, when nothing exists at that path --
	// a missing target is a soft failure recorded on
	// CrateDefMap.MissedFiles, not an error.
	Resolve(dir string, relPath string) (id FileID, ok bool, err error)

	// Dir returns the directory that owns id, used to resolve further
	// relative `include!`/`mod` targets from within that file.
	Dir(id FileID) string

	// Stat returns incremental-rebuild bookkeeping for id -- a modification
	// stamp and a content hash, both opaque to the resolver -- so the
	// builder can thread them straight into CrateDefMap.FileInfos without
	// itself knowing how either is computed. ok is false when id has no
	// such bookkeeping, as for a virtual file minted by NewVirtualFileID.
	Stat(id FileID) (modificationStamp int64, contentHash string, ok bool)
}

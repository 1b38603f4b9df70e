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

// Package errpos defines the error types shared across the resolver,
// in the manner of cuelang.org/go/cue/errors: a small Error interface
// carrying a position, and a List that collects several of them.
//
// Most resolution failures are *not* errors: an import that never
// resolves, or an `include!` that never finds its target, is data recorded
// on the returned CrateDefMap. This package exists for the other class of
// failure -- invariant violations and cancellation -- which do abort the
// build and are caller-visible.
package errpos

import (
	"context"
	"fmt"
	"sort"

	"rust-analyzer.dev/defmap/fileset"
)

// Error is the common error type produced by this module.
type Error interface {
	error
	Position() fileset.Pos
}

type posError struct {
	pos fileset.Pos
	msg string
	err error
}

// Newf creates a new Error with a position and a formatted message.
func Newf(pos fileset.Pos, format string, args ...interface{}) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...)}
}

// Wrapf wraps an existing error with a position and additional context,
// the way cue/errors.Augment wraps an underlying error without discarding it.
func Wrapf(err error, pos fileset.Pos, format string, args ...interface{}) Error {
	return &posError{pos: pos, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *posError) Position() fileset.Pos { return e.pos }

func (e *posError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *posError) Unwrap() error { return e.err }

// List is a list of Errors, itself an error. The zero value is an empty
// list ready to use.
type List []Error

// Add appends err to the list, wrapping it as an Error if it isn't one
// already.
func (l *List) Add(err error) {
	if err == nil {
		return
	}
	if e, ok := err.(Error); ok {
		*l = append(*l, e)
		return
	}
	*l = append(*l, &posError{err: err})
}

// Addf is a convenience wrapper around Add(Newf(...)).
func (l *List) Addf(pos fileset.Pos, format string, args ...interface{}) {
	l.Add(Newf(pos, format, args...))
}

func (l List) Len() int      { return len(l) }
func (l List) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l List) Less(i, j int) bool {
	pi, pj := l[i].Position(), l[j].Position()
	if pi.File != pj.File {
		return pi.File < pj.File
	}
	if pi.Offset != pj.Offset {
		return pi.Offset < pj.Offset
	}
	return l[i].Error() < l[j].Error()
}

// Sort orders the list by position.
func (l List) Sort() { sort.Sort(l) }

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Err returns an error equivalent to l, or nil if l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Canceled reports whether err (as returned from Build) represents a
// cancellation rather than an invariant violation. A build is entered
// under a context; a build that observes ctx.Err() != nil at one of its
// suspension points unwinds without leaving partial state visible, and
// Build surfaces that as this sentinel.
func Canceled(err error) bool {
	return err != nil && (err == context.Canceled || err == context.DeadlineExceeded)
}

// Copyright 2018 The CUE Authors
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

// Package errors defines the diagnostic taxonomy shared by the resolver and
// elaborator (spec.md §7): Syntax, Type, TypeArity, Ambiguous, Fatal,
// Cancelled, and Warning errors, each carrying a source position and an optional
// declaration path.
package errors

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"alloylang.org/alloy/token"
)

// Kind categorizes a diagnostic per spec.md §7.
type Kind int

const (
	// Syntax covers malformed input and unresolvable or ambiguous names.
	// Recovered across top-level declarations.
	Syntax Kind = iota
	// Type covers elaboration producing no compatible candidate, or an
	// unsatisfied top-down constraint. The enclosing declaration is
	// dropped.
	Type
	// TypeArity covers an arity exceeding MAXARITY. Fatal for the
	// enclosing expression.
	TypeArity
	// Ambiguous covers multiple surviving candidates after tie-breaking.
	Ambiguous
	// Fatal covers an internal invariant violation. Fails the whole
	// analysis.
	Fatal
	// Cancelled covers a computation abandoned because its context.Context
	// was cancelled or timed out (spec.md §5: Type.Closure is the only
	// operation long enough to check for this cooperatively).
	Cancelled
	// Warning covers non-fatal advisories. Collected separately and never
	// aborts.
	Warning
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Type:
		return "type error"
	case TypeArity:
		return "arity error"
	case Ambiguous:
		return "ambiguous"
	case Fatal:
		return "internal error"
	case Cancelled:
		return "cancelled"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Message implements the error interface as well as Msg, to allow deferring
// formatting until a diagnostic is actually printed.
type Message struct {
	format string
	args   []interface{}
}

// NewMessagef creates a Message for human consumption.
func NewMessagef(format string, args ...interface{}) Message {
	return Message{format: format, args: args}
}

func (m *Message) Msg() (string, []interface{}) { return m.format, m.args }
func (m *Message) Error() string                { return fmt.Sprintf(m.format, m.args...) }

// Candidate describes one surviving elaboration reported alongside an
// Ambiguous error.
type Candidate struct {
	Description string
	Pos         token.Pos
}

// Error is the common diagnostic interface.
type Error interface {
	error
	Kind() Kind
	Position() token.Pos
	InputPositions() []token.Pos
	Path() []string
	Msg() (format string, args []interface{})
	Candidates() []Candidate
}

type posError struct {
	kind Kind
	pos  token.Pos
	path []string
	cand []Candidate
	Message
}

func (e *posError) Kind() Kind                  { return e.kind }
func (e *posError) Position() token.Pos         { return e.pos }
func (e *posError) InputPositions() []token.Pos { return nil }
func (e *posError) Path() []string              { return e.path }
func (e *posError) Candidates() []Candidate     { return e.cand }

// Newf creates an Error of the given kind at the given position.
func Newf(kind Kind, p token.Pos, format string, args ...interface{}) Error {
	return &posError{kind: kind, pos: p, Message: NewMessagef(format, args...)}
}

// NewfPath is like Newf but also records the declaration path the error
// occurred in (e.g. the sig/field/function name chain).
func NewfPath(kind Kind, p token.Pos, path []string, format string, args ...interface{}) Error {
	return &posError{kind: kind, pos: p, path: path, Message: NewMessagef(format, args...)}
}

// NewAmbiguous creates an Ambiguous error listing the surviving candidates.
func NewAmbiguous(p token.Pos, path []string, candidates []Candidate) Error {
	return &posError{
		kind:    Ambiguous,
		pos:     p,
		path:    path,
		cand:    candidates,
		Message: NewMessagef("ambiguous expression: %d candidates remain", len(candidates)),
	}
}

// List accumulates diagnostics for a single compilation. Warning-kind
// entries never make List.Err() non-nil; they are reported separately via
// Warnings.
type List struct {
	errs     []Error
	warnings []Error
}

// Add appends a diagnostic, routing Warning-kind entries to Warnings.
func (l *List) Add(err Error) {
	if err == nil {
		return
	}
	if err.Kind() == Warning {
		l.warnings = append(l.warnings, err)
		return
	}
	l.errs = append(l.errs, err)
}

// Addf is a convenience wrapper around Add(Newf(...)).
func (l *List) Addf(kind Kind, p token.Pos, format string, args ...interface{}) {
	l.Add(Newf(kind, p, format, args...))
}

// AddfPath is a convenience wrapper around Add(NewfPath(...)).
func (l *List) AddfPath(kind Kind, path []string, p token.Pos, format string, args ...interface{}) {
	l.Add(NewfPath(kind, p, path, format, args...))
}

// Errs returns the non-warning diagnostics in their current order: the
// order they were added in, unless Sort or RemoveMultiples has been called.
func (l *List) Errs() []Error { return l.errs }

// Warnings returns the collected warnings.
func (l *List) Warnings() []Error { return l.warnings }

// Err returns a combined error for the non-warning diagnostics, or nil if
// there are none.
func (l *List) Err() error {
	if len(l.errs) == 0 {
		return nil
	}
	return list(l.errs)
}

// Sort orders diagnostics by position, then path, then message.
func (l *List) Sort() {
	sortErrors(l.errs)
	sortErrors(l.warnings)
}

func sortErrors(a []Error) {
	slices.SortFunc(a, func(x, y Error) int {
		if c := x.Position().Compare(y.Position()); c != 0 {
			return c
		}
		if c := slices.Compare(x.Path(), y.Path()); c != 0 {
			return c
		}
		return cmp.Compare(x.Error(), y.Error())
	})
}

// RemoveMultiples sorts and removes duplicate diagnostics at the same
// position with the same path.
func (l *List) RemoveMultiples() {
	l.Sort()
	l.errs = slices.CompactFunc(l.errs, approximateEqual)
}

func approximateEqual(a, b Error) bool {
	return a.Position().Compare(b.Position()) == 0 &&
		slices.Compare(a.Path(), b.Path()) == 0 &&
		a.Error() == b.Error()
}

// list is a list of Errors implementing the error interface.
type list []Error

func (p list) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", p[0].Error(), len(p)-1)
}

// A Config defines parameters for printing.
type Config struct {
	// Cwd, if set, causes filenames to be printed relative to it.
	Cwd string
}

// Print writes every diagnostic in l to w, one per line.
func Print(w io.Writer, l *List, cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	for _, e := range l.Errs() {
		PrintOne(w, e, cfg)
	}
}

// Details returns the formatted diagnostics as a string.
func Details(l *List, cfg *Config) string {
	var b strings.Builder
	Print(&b, l, cfg)
	return b.String()
}

// PrintOne writes a single diagnostic to w. Print itself only ever walks
// List.Errs(); a caller that wants to render List.Warnings() in the same
// format (cmd/alloycheck does, for its own warnings section) calls this
// directly.
func PrintOne(w io.Writer, e Error, cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	if path := strings.Join(e.Path(), "."); path != "" {
		fmt.Fprintf(w, "%s: ", path)
	}
	fmt.Fprintf(w, "%s: %s\n", e.Kind(), e.Error())
	if pos := e.Position(); pos.IsValid() {
		fmt.Fprintf(w, "    %s\n", relativePosition(pos.Position(), cfg.Cwd))
	}
	for _, c := range e.Candidates() {
		fmt.Fprintf(w, "    - %s (%s)\n", c.Description, relativePosition(c.Pos.Position(), cfg.Cwd))
	}
}

// relativePosition renders pos the way Position.String does, except that
// when cwd is set and the filename is an absolute path beneath it, the
// filename is printed relative to cwd rather than in full.
func relativePosition(pos token.Position, cwd string) string {
	if cwd == "" || pos.Filename == "" {
		return pos.String()
	}
	if rel, err := filepath.Rel(cwd, pos.Filename); err == nil && !strings.HasPrefix(rel, "..") {
		pos.Filename = rel
	}
	return pos.String()
}

// Package diag classifies generator failures.
package diag

import (
	"errors"
	"fmt"
	"go/token"
	"strings"

	"go.uber.org/multierr"
)

// Kind is the class of a generator failure.
type Kind int

const (
	// IoError: the source tree or an output path could not be read or written.
	IoError Kind = iota + 1
	// ParseError: a Go file does not parse.
	ParseError
	// AnnotationError: a //nano: directive is malformed or misplaced,
	// or a middleware reference cannot be resolved.
	AnnotationError
	// ResolutionGap: a type name could not be resolved. Never fatal.
	ResolutionGap
	// DuplicateKey: two endpoints share a fully-qualified name.
	DuplicateKey
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "io error"
	case ParseError:
		return "parse error"
	case AnnotationError:
		return "annotation error"
	case ResolutionGap:
		return "resolution gap"
	case DuplicateKey:
		return "duplicate key"
	}
	return fmt.Sprintf("diag.Kind(%d)", int(k))
}

// Fatal reports whether failures of this kind abort a run.
func (k Kind) Fatal() bool { return k != ResolutionGap }

// Error is a classified failure tied to a source unit and, when known, a
// declaration within it.
type Error struct {
	Kind Kind
	Unit string // file or directory the failure is attributed to
	Decl string // function or type name, if any
	Pos  token.Position
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	switch {
	case e.Pos.IsValid():
		b.WriteString(e.Pos.String())
	case e.Unit != "":
		b.WriteString(e.Unit)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Decl != "" {
		b.WriteString(" in ")
		b.WriteString(e.Decl)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error for unit.
func New(kind Kind, unit string, err error) *Error {
	return &Error{Kind: kind, Unit: unit, Err: err}
}

// Errorf returns a classified error at pos.
func Errorf(kind Kind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Unit: pos.Filename, Pos: pos, Err: fmt.Errorf(format, args...)}
}

// WithDecl returns a copy of e naming the declaration it belongs to.
func (e *Error) WithDecl(decl string) *Error {
	c := *e
	c.Decl = decl
	return &c
}

// Is reports whether err, or any error combined into it, is a diag.Error
// of the given kind.
func Is(err error, kind Kind) bool {
	for _, e := range multierr.Errors(err) {
		var d *Error
		if errors.As(e, &d) && d.Kind == kind {
			return true
		}
	}
	return false
}

// All returns every diag.Error combined into err.
func All(err error) []*Error {
	var out []*Error
	for _, e := range multierr.Errors(err) {
		var d *Error
		if errors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}

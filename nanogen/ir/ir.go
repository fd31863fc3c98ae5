// Package ir defines the declaration model shared by the extractor and the
// code generators.
//
// Values in this package are produced once by extraction and read by every
// generator afterwards. Generators that need an adjusted value copy it.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/broady/nano/internal/imports"
)

// Method is an HTTP method accepted by an endpoint directive.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// ParseMethod maps a directive verb such as "get" to its Method.
func ParseMethod(verb string) (Method, bool) {
	switch m := Method(strings.ToUpper(verb)); m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions, MethodTrace:
		return m, true
	}
	return "", false
}

// Lower returns the method in lower case, as used in OpenAPI path items.
func (m Method) Lower() string { return strings.ToLower(string(m)) }

// HTTPConst returns the net/http constant name for the method, e.g. "MethodGet".
func (m Method) HTTPConst() string {
	s := string(m)
	return "Method" + s[:1] + strings.ToLower(s[1:])
}

// DefaultGroup is the group tag of endpoints that do not name one.
const DefaultGroup = "Default"

// Endpoint is everything extracted about one annotated handler function.
type Endpoint struct {
	FQName  string // <import path>.<Func>
	Package string // import path of the declaring package
	Func    string

	Method      Method
	Path        string // raw, ":id" or "{id}" style
	PathGroup   string
	Public      bool
	DisplayName string
	Description string
	Group       string

	Layers []MiddlewareRef
	Params []ParameterDecl

	// Imports is the import table of the declaring file.
	Imports imports.Index

	File string
	Line int
}

// Position formats the declaration site as file:line.
func (e Endpoint) Position() string {
	return fmt.Sprintf("%s:%d", e.File, e.Line)
}

// StateParam returns the first State parameter, if any.
func (e Endpoint) StateParam() (ParameterDecl, bool) {
	for _, p := range e.Params {
		if p.Kind == KindState {
			return p, true
		}
	}
	return ParameterDecl{}, false
}

// ParamKind says how a handler parameter is bound at request time.
type ParamKind int

const (
	KindOther ParamKind = iota
	KindState
	KindPath
	KindQuery
	KindJSON
	KindForm
	KindHeader
)

var kindNames = [...]string{"Other", "State", "Path", "Query", "JSON", "Form", "Header"}

func (k ParamKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// KindOf maps a wrapper type name to its ParamKind.
func KindOf(wrapper string) ParamKind {
	switch wrapper {
	case "State":
		return KindState
	case "Path":
		return KindPath
	case "Query":
		return KindQuery
	case "JSON", "Json":
		return KindJSON
	case "Form":
		return KindForm
	case "Header":
		return KindHeader
	}
	return KindOther
}

// ParameterDecl is one handler parameter as written in source.
type ParameterDecl struct {
	Name  string
	Type  string // full type expression, e.g. "nano.Path[int64]"
	Kind  ParamKind
	Inner string // type argument of the wrapper, e.g. "int64"
}

// MiddlewareRef is a layer reference as written in a directive: a function
// and an optional state type the middleware is bound to instead of the
// endpoint's own state.
type MiddlewareRef struct {
	Func     string
	State    string
	Override bool // a "#" marker was written, even if State is empty
}

// ParseMiddlewareRef splits "pkg.Fn#{pkg.Type}" into its parts. A "#" must
// be followed by a non-empty braced type and nothing else. On error the
// returned ref still carries what was parsed, with Override set.
func ParseMiddlewareRef(s string) (MiddlewareRef, error) {
	s = strings.TrimSpace(s)
	fn, rest, ok := strings.Cut(s, "#")
	if !ok {
		return MiddlewareRef{Func: s}, nil
	}
	ref := MiddlewareRef{Func: strings.TrimSpace(fn), Override: true}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "{") {
		return ref, fmt.Errorf("state override in %q must be written #{Type}", s)
	}
	body, tail, ok := strings.Cut(rest[1:], "}")
	if !ok {
		return ref, fmt.Errorf("unterminated state override in %q", s)
	}
	if tail = strings.TrimSpace(tail); tail != "" {
		return ref, fmt.Errorf("unexpected %q after state override in %q", tail, s)
	}
	ref.State = strings.TrimSpace(body)
	if ref.State == "" {
		return ref, fmt.Errorf("empty state override in %q", s)
	}
	return ref, nil
}

func (m MiddlewareRef) String() string {
	if !m.Override && m.State == "" {
		return m.Func
	}
	return m.Func + "#{" + m.State + "}"
}

// TypeRef is a resolved named type.
type TypeRef struct {
	Package string
	Name    string
	Pointer bool
}

// IsZero reports whether the ref names no type.
func (t TypeRef) IsZero() bool { return t.Name == "" }

// FQName returns "<package>.<Name>".
func (t TypeRef) FQName() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

func (t TypeRef) String() string {
	if t.Pointer {
		return "*" + t.FQName()
	}
	return t.FQName()
}

// ResolvedLayer is a MiddlewareRef after import resolution.
type ResolvedLayer struct {
	Package string
	Func    string
	State   TypeRef // zero when the middleware takes no state
}

func (l ResolvedLayer) String() string {
	s := l.Package + "." + l.Func
	if !l.State.IsZero() {
		s += "#{" + l.State.String() + "}"
	}
	return s
}

// GroupingKey partitions endpoints into route groups: endpoints with equal
// keys share one router construction function.
type GroupingKey struct {
	State  TypeRef // zero for the stateless group
	Layers []ResolvedLayer
}

// Stateless reports whether the key has no state binding.
func (k GroupingKey) Stateless() bool { return k.State.IsZero() }

// Equal reports structural equality.
func (k GroupingKey) Equal(o GroupingKey) bool {
	if k.State != o.State || len(k.Layers) != len(o.Layers) {
		return false
	}
	for i := range k.Layers {
		if k.Layers[i] != o.Layers[i] {
			return false
		}
	}
	return true
}

// String is a stable rendering used for map lookups and ordering.
func (k GroupingKey) String() string {
	var b strings.Builder
	if k.Stateless() {
		b.WriteString("-")
	} else {
		b.WriteString(k.State.String())
	}
	for _, l := range k.Layers {
		b.WriteString(" | ")
		b.WriteString(l.String())
	}
	return b.String()
}

// Field is one struct field of a TypeDef.
type Field struct {
	Name     string
	Type     string
	Doc      string
	Tag      string // raw struct tag without backquotes
	Embedded bool
}

// TypeDef is a struct type discovered in the source tree.
type TypeDef struct {
	FQName  string
	Package string
	Name    string
	Doc     string
	Fields  []Field
	Imports imports.Index
}

// SortedKeys returns endpoint names in order.
func SortedKeys(endpoints map[string]Endpoint) []string {
	keys := make([]string, 0, len(endpoints))
	for k := range endpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sorted returns endpoints ordered by FQName.
func Sorted(endpoints map[string]Endpoint) []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for _, k := range SortedKeys(endpoints) {
		out = append(out, endpoints[k])
	}
	return out
}

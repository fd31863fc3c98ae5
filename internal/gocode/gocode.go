// Package gocode holds helpers shared by the Go source emitters.
package gocode

import (
	"fmt"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"

	importindex "github.com/broady/nano/internal/imports"
)

// Header starts every generated Go file.
const Header = "// Code generated by nano. DO NOT EDIT.\n\n"

// Format gofmts src. Imports are neither added nor removed, so emitters must
// only import what they use.
func Format(filename string, src []byte) ([]byte, error) {
	out, err := imports.Process(filename, src, &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w\n%s", filename, err, src)
	}
	return out, nil
}

// Import is one entry of an import block.
type Import struct {
	Alias string
	Path  string
}

// Spec renders the import spec line, omitting an alias equal to the guessed
// package name.
func (i Import) Spec() string {
	if i.Alias == importindex.DefaultName(i.Path) {
		return strconv.Quote(i.Path)
	}
	return i.Alias + " " + strconv.Quote(i.Path)
}

// Imports assigns deterministic, unique aliases to import paths.
//
// Paths must all be added before any alias is read; aliases are assigned in
// path order so the result does not depend on insertion order.
type Imports struct {
	self     string
	reserved map[string]string // alias -> path
	pending  map[string]bool
	aliases  map[string]string // path -> alias
}

// NewImports returns an allocator for a file in package self. Handlers in
// self are referenced without qualifier. fixed pins aliases for well-known
// imports such as net/http.
func NewImports(self string, fixed ...Import) *Imports {
	im := &Imports{
		self:     self,
		reserved: make(map[string]string),
		pending:  make(map[string]bool),
		aliases:  make(map[string]string),
	}
	for _, f := range fixed {
		im.reserved[f.Alias] = f.Path
		im.aliases[f.Path] = f.Alias
	}
	return im
}

// Reserve blocks alias from being assigned to any path.
func (im *Imports) Reserve(names ...string) {
	for _, n := range names {
		if _, ok := im.reserved[n]; !ok {
			im.reserved[n] = ""
		}
	}
}

// Add registers path.
func (im *Imports) Add(path string) {
	if path == im.self {
		return
	}
	if _, ok := im.aliases[path]; ok {
		return
	}
	im.pending[path] = true
}

func (im *Imports) assign() {
	if len(im.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(im.pending))
	for p := range im.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		base := Sanitize(importindex.DefaultName(p))
		alias := base
		for n := 2; ; n++ {
			if _, taken := im.reserved[alias]; !taken && !token.IsKeyword(alias) {
				break
			}
			alias = base + strconv.Itoa(n)
		}
		im.reserved[alias] = p
		im.aliases[p] = alias
	}
	im.pending = make(map[string]bool)
}

// Alias returns the alias of path, or "" for the file's own package.
func (im *Imports) Alias(path string) string {
	if path == im.self {
		return ""
	}
	im.assign()
	return im.aliases[path]
}

// Qualify returns name qualified by the alias of path.
func (im *Imports) Qualify(path, name string) string {
	if a := im.Alias(path); a != "" {
		return a + "." + name
	}
	return name
}

// Aliases returns every assigned alias, sorted.
func (im *Imports) Aliases() []string {
	im.assign()
	out := make([]string, 0, len(im.aliases))
	for _, a := range im.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// List returns the imports among used, standard library first, each part
// sorted by path.
func (im *Imports) List(used map[string]bool) []Import {
	im.assign()
	var out []Import
	for p, a := range im.aliases {
		if used[p] {
			out = append(out, Import{Alias: a, Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if si, sj := out[i].Std(), out[j].Std(); si != sj {
			return si
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Std reports whether the import looks like a standard library package.
func (i Import) Std() bool { return !strings.Contains(i.Path, ".") }

// Block renders an import declaration for a list returned by List, with
// the standard library in its own group.
func Block(list []Import) string {
	if len(list) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("import (\n")
	for n, i := range list {
		if n > 0 && list[n-1].Std() && !i.Std() {
			b.WriteString("\n")
		}
		b.WriteString("\t" + i.Spec() + "\n")
	}
	b.WriteString(")\n")
	return b.String()
}

// Sanitize turns s into a valid Go identifier.
func Sanitize(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// LowerFirst lower-cases the first rune of s.
func LowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// UpperFirst upper-cases the first rune of s.
func UpperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// Names hands out unique identifiers, appending a counter on collision.
type Names struct {
	used map[string]bool
}

// NewNames returns a Names with reserved already taken.
func NewNames(reserved ...string) *Names {
	n := &Names{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// Take returns want, or want suffixed with a number if it is taken or a
// keyword.
func (n *Names) Take(want string) string {
	name := want
	for i := 2; n.used[name] || token.IsKeyword(name); i++ {
		name = want + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}

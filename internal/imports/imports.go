// Package imports builds the per-file table mapping local package names to
// import paths.
package imports

import (
	"go/ast"
	"sort"
	"strconv"
	"strings"
)

// Dot is the key under which dot imports are recorded.
const Dot = "."

// Index maps a local package name to its import path for one file.
type Index map[string]string

// Build returns the index for every import declaration in f, including
// grouped and renamed imports. Blank imports are skipped. When two imports
// bind the same name, the later one wins.
func Build(f *ast.File) Index {
	idx := make(Index, len(f.Imports))
	for _, spec := range f.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := DefaultName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" {
			continue
		}
		idx[name] = path
	}
	return idx
}

// Resolve returns the import path bound to name.
func (idx Index) Resolve(name string) (string, bool) {
	if name == Dot {
		return "", false
	}
	p, ok := idx[name]
	return p, ok
}

// Clone returns a copy that shares nothing with idx.
func (idx Index) Clone() Index {
	c := make(Index, len(idx))
	for k, v := range idx {
		c[k] = v
	}
	return c
}

// Names returns the bound names in order.
func (idx Index) Names() []string {
	names := make([]string, 0, len(idx))
	for k := range idx {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultName guesses the package name of an unrenamed import from its path,
// the way goimports does: the last path element, skipping a major version
// suffix, with gopkg.in versions, "go-" prefixes and "-go" suffixes removed.
func DefaultName(path string) string {
	elem := path
	if i := strings.LastIndex(elem, "/"); i >= 0 {
		elem = elem[i+1:]
		if isMajorVersion(elem) {
			prev := path[:i]
			if j := strings.LastIndex(prev, "/"); j >= 0 {
				prev = prev[j+1:]
			}
			elem = prev
		}
	}
	if strings.HasPrefix(path, "gopkg.in/") {
		if i := strings.Index(elem, ".v"); i > 0 {
			elem = elem[:i]
		}
	}
	elem = strings.TrimPrefix(elem, "go-")
	elem = strings.TrimSuffix(elem, "-go")
	if i := strings.IndexAny(elem, "-."); i >= 0 {
		elem = elem[:i]
	}
	return elem
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	n, err := strconv.Atoi(s[1:])
	return err == nil && n >= 2
}

// Package discover enumerates the Go source files of a module tree and
// derives the import path of each file's package.
//
// Test files and directories the go tool ignores (testdata, vendor, and names
// starting with "." or "_") are skipped.
package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/broady/nano/nanogen/diag"
)

// File is one source file found by Walk.
type File struct {
	Path       string // slash-separated, relative to the root
	Dir        string // slash-separated directory relative to the root, "." for the root
	ImportPath string // import path of the file's package
}

// Options controls Walk.
type Options struct {
	// Root is the directory to walk.
	Root string

	// Module overrides the module path. When empty, it is read from
	// Root/go.mod.
	Module string

	// Exclude holds path.Match patterns. A pattern matches against the
	// relative slash path and against the base name of every file and
	// directory.
	Exclude []string
}

// Result contains the discovered files and module info.
type Result struct {
	Root       string
	ModulePath string
	Files      []File // sorted by Path
}

// Walk lists the Go source files under opts.Root. Any unreadable entry
// aborts the walk.
func Walk(ctx context.Context, opts Options) (*Result, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, diag.New(diag.IoError, opts.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, diag.New(diag.IoError, opts.Root, err)
	}
	if !info.IsDir() {
		return nil, diag.New(diag.IoError, opts.Root, errors.New("not a directory"))
	}
	for _, pat := range opts.Exclude {
		if _, err := path.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pat, err)
		}
	}

	module := opts.Module
	if module == "" {
		module, err = ModulePath(root)
		if err != nil {
			return nil, err
		}
	}

	res := &Result{Root: root, ModulePath: module}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return diag.New(diag.IoError, p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return diag.New(diag.IoError, p, err)
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()
		if d.IsDir() {
			if rel != "." && (skipDir(name) || excluded(opts.Exclude, rel, name)) {
				return filepath.SkipDir
			}
			// A nested go.mod starts another module.
			if rel != "." {
				if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || excluded(opts.Exclude, rel, name) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		dir := path.Dir(rel)
		res.Files = append(res.Files, File{
			Path:       rel,
			Dir:        dir,
			ImportPath: ImportPath(module, dir),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Path < res.Files[j].Path })
	return res, nil
}

// ModulePath reads the module path from dir/go.mod.
func ModulePath(dir string) (string, error) {
	gomod := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", diag.New(diag.IoError, gomod, fmt.Errorf("read module path: %w", err))
	}
	mod := modfile.ModulePath(data)
	if mod == "" {
		return "", diag.New(diag.ParseError, gomod, errors.New("no module directive"))
	}
	return mod, nil
}

// ImportPath joins a module path and a slash-separated relative directory.
func ImportPath(module, dir string) string {
	if dir == "." || dir == "" {
		return module
	}
	return module + "/" + dir
}

func skipDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func excluded(patterns []string, rel, name string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	return false
}

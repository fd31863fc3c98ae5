// Package typeindex finds struct type definitions in a source tree by their
// fully-qualified name.
//
// Nothing is parsed until the first lookup. The first lookup parses every
// file once and records where each top-level struct is declared; a
// definition is then materialized the first time it is asked for and cached.
package typeindex

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/broady/nano/internal/discover"
	"github.com/broady/nano/internal/imports"
	"github.com/broady/nano/nanogen/ir"
)

var log = logging.Logger("nano/typeindex")

// Index is safe for concurrent use.
type Index struct {
	root  string
	files []discover.File

	once  sync.Once
	decls map[string]decl

	mu    sync.Mutex
	cache map[string]ir.TypeDef
}

type decl struct {
	pkg     string
	spec    *ast.TypeSpec
	st      *ast.StructType
	doc     *ast.CommentGroup
	imports imports.Index
}

// New returns an index over files, which are relative to root.
func New(root string, files []discover.File) *Index {
	return &Index{root: root, files: files, cache: make(map[string]ir.TypeDef)}
}

// Lookup returns the struct definition named fq, e.g.
// "example.com/app/model.Pet".
func (x *Index) Lookup(fq string) (ir.TypeDef, bool) {
	x.once.Do(x.scan)

	x.mu.Lock()
	defer x.mu.Unlock()
	if td, ok := x.cache[fq]; ok {
		return td, true
	}
	d, ok := x.decls[fq]
	if !ok {
		return ir.TypeDef{}, false
	}
	td := materialize(fq, d)
	x.cache[fq] = td
	return td, true
}

// Materialized returns the number of definitions built so far.
func (x *Index) Materialized() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.cache)
}

func (x *Index) scan() {
	x.decls = make(map[string]decl)
	fset := token.NewFileSet()
	for _, f := range x.files {
		file, err := parser.ParseFile(fset, filepath.Join(x.root, filepath.FromSlash(f.Path)), nil,
			parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			log.Warnw("skipping unparsable file", "file", f.Path, "error", err)
			continue
		}
		idx := imports.Build(file)
		for _, d := range file.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, s := range gd.Specs {
				ts := s.(*ast.TypeSpec)
				st, ok := ts.Type.(*ast.StructType)
				if !ok || ts.TypeParams != nil {
					continue
				}
				doc := ts.Doc
				if doc == nil && len(gd.Specs) == 1 {
					doc = gd.Doc
				}
				x.decls[f.ImportPath+"."+ts.Name.Name] = decl{
					pkg: f.ImportPath, spec: ts, st: st, doc: doc, imports: idx,
				}
			}
		}
	}
	log.Debugw("indexed struct types", "files", len(x.files), "types", len(x.decls))
}

func materialize(fq string, d decl) ir.TypeDef {
	td := ir.TypeDef{
		FQName:  fq,
		Package: d.pkg,
		Name:    d.spec.Name.Name,
		Doc:     firstLine(d.doc),
		Imports: d.imports,
	}
	for _, f := range d.st.Fields.List {
		typ := types.ExprString(f.Type)
		var tag string
		if f.Tag != nil {
			tag, _ = strconv.Unquote(f.Tag.Value)
		}
		doc := firstLine(f.Doc)
		if doc == "" {
			doc = firstLine(f.Comment)
		}
		if len(f.Names) == 0 {
			td.Fields = append(td.Fields, ir.Field{Name: embeddedName(f.Type), Type: typ, Doc: doc, Tag: tag, Embedded: true})
			continue
		}
		for _, n := range f.Names {
			td.Fields = append(td.Fields, ir.Field{Name: n.Name, Type: typ, Doc: doc, Tag: tag})
		}
	}
	return td
}

func embeddedName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.StarExpr:
		return embeddedName(e.X)
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.Ident:
		return e.Name
	case *ast.IndexExpr:
		return embeddedName(e.X)
	case *ast.IndexListExpr:
		return embeddedName(e.X)
	}
	return types.ExprString(e)
}

func firstLine(cg *ast.CommentGroup) string {
	if cg == nil {
		return ""
	}
	for _, l := range strings.Split(cg.Text(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

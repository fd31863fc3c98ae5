// Package extract turns annotated handler functions into endpoint
// declarations.
//
// Files are parsed in parallel. Each worker owns its file's syntax tree and
// import table and hands back finished endpoints; the merge into a single
// map, and duplicate detection, happen after every worker has returned.
package extract

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/broady/nano/internal/directive"
	"github.com/broady/nano/internal/discover"
	"github.com/broady/nano/internal/imports"
	"github.com/broady/nano/nanogen/diag"
	"github.com/broady/nano/nanogen/ir"
)

var log = logging.Logger("nano/extract")

// Options configures Extract.
type Options struct {
	Root    string
	Module  string   // module path override; read from go.mod when empty
	Exclude []string // path.Match patterns skipped by the walker
	Workers int      // parallel parsers; defaults to GOMAXPROCS
}

// Result is the merged output of an extraction pass.
type Result struct {
	Root      string
	Module    string
	Files     []discover.File
	Endpoints map[string]ir.Endpoint // keyed by FQName
}

// Sorted returns the endpoints ordered by fully-qualified name.
func (r *Result) Sorted() []ir.Endpoint { return ir.Sorted(r.Endpoints) }

// Extract walks opts.Root and extracts every annotated endpoint. Any fatal
// diagnostic aborts the pass; every diagnostic found is reported, combined
// with multierr.
func Extract(ctx context.Context, opts Options) (*Result, error) {
	walked, err := discover.Walk(ctx, discover.Options{
		Root:    opts.Root,
		Module:  opts.Module,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type unit struct {
		endpoints []ir.Endpoint
		err       error
	}
	units := make([]unit, len(walked.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range walked.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			eps, err := File(walked.Root, f)
			units[i] = unit{endpoints: eps, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Root:      walked.Root,
		Module:    walked.ModulePath,
		Files:     walked.Files,
		Endpoints: make(map[string]ir.Endpoint),
	}
	var errs error
	for _, u := range units {
		errs = multierr.Append(errs, u.err)
		for _, ep := range u.endpoints {
			if prev, ok := res.Endpoints[ep.FQName]; ok {
				errs = multierr.Append(errs, &diag.Error{
					Kind: diag.DuplicateKey,
					Unit: ep.File,
					Decl: ep.Func,
					Pos:  token.Position{Filename: ep.File, Line: ep.Line},
					Err:  fmt.Errorf("%s already declared at %s", ep.FQName, prev.Position()),
				})
				continue
			}
			res.Endpoints[ep.FQName] = ep
		}
	}
	if errs != nil {
		return nil, errs
	}

	log.Infow("extracted endpoints", "module", res.Module, "files", len(res.Files), "endpoints", len(res.Endpoints))
	return res, nil
}

// File extracts the endpoints declared in one source file.
func File(root string, f discover.File) ([]ir.Endpoint, error) {
	src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
	if err != nil {
		return nil, diag.New(diag.IoError, f.Path, err)
	}
	return Source(f, src)
}

// Source extracts the endpoints declared in src, which is the content of f.
func Source(f discover.File, src []byte) ([]ir.Endpoint, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, f.Path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, diag.New(diag.ParseError, f.Path, err)
	}

	dirs, err := directive.Scan(fset, file)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, nil
	}

	idx := imports.Build(file)
	eps := make([]ir.Endpoint, 0, len(dirs))
	var errs error
	for _, d := range dirs {
		if d.Ignored > 0 {
			log.Debugw("ignoring extra markers", "func", d.Func.Name.Name, "pos", d.Pos.String(), "count", d.Ignored)
		}
		ep, err := endpoint(f, idx, d)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		eps = append(eps, ep)
	}
	if errs != nil {
		return nil, errs
	}
	log.Debugw("parsed unit", "file", f.Path, "endpoints", len(eps))
	return eps, nil
}

func endpoint(f discover.File, idx imports.Index, d directive.Directive) (ir.Endpoint, error) {
	name := d.Func.Name.Name
	ep := ir.Endpoint{
		FQName:    f.ImportPath + "." + name,
		Package:   f.ImportPath,
		Func:      name,
		Method:    d.Method,
		Path:      d.Args.Path,
		PathGroup: d.Args.PathGroup,
		Public:    d.Args.Open,
		Group:     d.Args.Group,
		Params:    params(d.Func.Type.Params),
		Imports:   idx.Clone(),
		File:      f.Path,
		Line:      d.Pos.Line,
	}
	if ep.Group == "" {
		ep.Group = ir.DefaultGroup
	}
	var errs error
	for _, l := range d.Args.Layers {
		ref, err := ir.ParseMiddlewareRef(l)
		if err != nil {
			errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, d.Pos, "layers: %v", err).WithDecl(name))
			continue
		}
		ep.Layers = append(ep.Layers, ref)
	}
	if errs != nil {
		return ir.Endpoint{}, errs
	}
	ep.DisplayName, ep.Description = names(name, d.Args.API, directive.DocLines(d.Func.Doc))
	return ep, nil
}

// names picks the display name and description. The description is every
// doc line after the first, joined without separators. The name is the
// explicit api value, else the first doc line, else the function name.
func names(fn, api string, lines []string) (string, string) {
	var desc string
	if len(lines) > 1 {
		desc = strings.Join(lines[1:], "")
	}
	switch {
	case api != "":
		return api, desc
	case len(lines) > 0:
		return lines[0], desc
	}
	return fn, desc
}

func params(fl *ast.FieldList) []ir.ParameterDecl {
	if fl == nil {
		return nil
	}
	var out []ir.ParameterDecl
	for i, field := range fl.List {
		typ := types.ExprString(field.Type)
		kind, inner := classify(field.Type)
		if len(field.Names) == 0 {
			out = append(out, ir.ParameterDecl{Name: fmt.Sprintf("arg%d", i), Type: typ, Kind: kind, Inner: inner})
			continue
		}
		for _, n := range field.Names {
			out = append(out, ir.ParameterDecl{Name: n.Name, Type: typ, Kind: kind, Inner: inner})
		}
	}
	return out
}

// classify recognizes generic wrapper instantiations such as nano.Path[int]
// or JSON[model.Pet] by the wrapper's name.
func classify(expr ast.Expr) (ir.ParamKind, string) {
	var x ast.Expr
	var args []ast.Expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		x, args = e.X, []ast.Expr{e.Index}
	case *ast.IndexListExpr:
		x, args = e.X, e.Indices
	default:
		return ir.KindOther, ""
	}
	var name string
	switch x := x.(type) {
	case *ast.Ident:
		name = x.Name
	case *ast.SelectorExpr:
		name = x.Sel.Name
	}
	kind := ir.KindOf(name)
	if kind == ir.KindOther || len(args) != 1 {
		return ir.KindOther, ""
	}
	return kind, types.ExprString(args[0])
}

// Package directive parses nano endpoint directives from Go source files.
//
// Directives are line comments in the doc comment of a top-level function:
//
//	//nano:get path="/store/pet/:id" group="Store" api="Get pet by id"
//	//nano:post path="/store/pet" layers=["auth.Token", "auth.Audit#{config.RestConfig}"] open=true
//
// The verb names the HTTP method. Only the first directive of a doc comment
// is used; later ones are ignored.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"go.uber.org/multierr"

	"github.com/broady/nano/nanogen/diag"
	"github.com/broady/nano/nanogen/ir"
)

// Prefix starts every nano directive.
const Prefix = "//nano:"

// Directive is a parsed endpoint directive attached to a function.
type Directive struct {
	Method  ir.Method
	Args    Args
	Func    *ast.FuncDecl
	Pos     token.Position
	Ignored int // further directives on the same function
}

// Scan finds every directive in f and matches it to the function it
// documents. A directive that is malformed, uses an unknown verb, is not
// directly above a function, or documents a method is an annotation error;
// all such errors in the file are returned together.
func Scan(fset *token.FileSet, f *ast.File) ([]Directive, error) {
	type pending struct {
		d       Directive
		verb    string
		invalid bool
		ignored int
	}
	byGroup := make(map[*ast.CommentGroup]*pending)
	var errs error

	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if !strings.HasPrefix(c.Text, Prefix) {
				continue
			}
			pos := fset.Position(c.Pos())
			verb, rest := strings.TrimPrefix(c.Text, Prefix), ""
			if i := strings.IndexAny(verb, " \t"); i >= 0 {
				verb, rest = verb[:i], verb[i+1:]
			}
			method, ok := ir.ParseMethod(verb)
			if !ok || verb != method.Lower() {
				errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, pos, "unknown directive %s%s", Prefix, verb))
				continue
			}
			if p, ok := byGroup[cg]; ok {
				p.ignored++
				continue
			}
			p := &pending{d: Directive{Method: method, Pos: pos}, verb: verb}
			args, err := ParseArgs(rest)
			if err != nil {
				errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, pos, "%s%s: %w", Prefix, verb, err))
				p.invalid = true
			}
			p.d.Args = args
			byGroup[cg] = p
		}
	}

	var out []Directive
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil {
			continue
		}
		p, ok := byGroup[fn.Doc]
		if !ok {
			continue
		}
		delete(byGroup, fn.Doc)
		if fn.Recv != nil {
			errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, p.d.Pos,
				"%s%s directive on method %s; endpoints must be top-level functions", Prefix, p.verb, fn.Name.Name).WithDecl(fn.Name.Name))
			continue
		}
		if p.invalid {
			continue
		}
		if !p.d.Args.Has(KeyPath) {
			errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, p.d.Pos,
				"missing required key %q", KeyPath).WithDecl(fn.Name.Name))
			continue
		}
		p.d.Func = fn
		p.d.Ignored = p.ignored
		out = append(out, p.d)
	}

	for _, cg := range f.Comments {
		p, ok := byGroup[cg]
		if !ok {
			continue
		}
		errs = multierr.Append(errs, diag.Errorf(diag.AnnotationError, p.d.Pos,
			"directive must be followed by a function declaration"))
	}
	return out, errs
}

// DocLines returns the non-blank lines of a doc comment with directives
// removed.
func DocLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(cg.Text(), "\n") {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func (d Directive) String() string {
	return fmt.Sprintf("%s%s %s", Prefix, d.Method.Lower(), d.Args.Path)
}

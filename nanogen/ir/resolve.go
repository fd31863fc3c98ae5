package ir

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/mod/module"

	"github.com/broady/nano/internal/imports"
)

// ResolveType resolves a type expression written in package pkg, whose file
// imports are idx, to a named type. A qualified name resolves through the
// import table; an unqualified name that is not predeclared belongs to pkg.
// A name may also be spelled with its full import path, as in
// "example.com/app/config.RestConfig". One level of pointer is allowed.
// Anything else cannot be resolved.
func ResolveType(expr, pkg string, idx imports.Index) (TypeRef, error) {
	if strings.Contains(expr, "/") {
		ptr := strings.HasPrefix(expr, "*")
		path, name, err := SplitQualified(strings.TrimPrefix(expr, "*"))
		if err != nil {
			return TypeRef{}, fmt.Errorf("type %q: %w", expr, err)
		}
		return TypeRef{Package: path, Name: name, Pointer: ptr}, nil
	}
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return TypeRef{}, fmt.Errorf("type %q: %w", expr, err)
	}
	var ref TypeRef
	if star, ok := e.(*ast.StarExpr); ok {
		ref.Pointer = true
		e = star.X
	}
	switch e := e.(type) {
	case *ast.Ident:
		if types.Universe.Lookup(e.Name) != nil {
			return TypeRef{}, fmt.Errorf("type %q is predeclared", expr)
		}
		ref.Package, ref.Name = pkg, e.Name
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return TypeRef{}, fmt.Errorf("type %q: unsupported qualifier", expr)
		}
		path, ok := idx.Resolve(x.Name)
		if !ok {
			return TypeRef{}, fmt.Errorf("type %q: package %s is not imported", expr, x.Name)
		}
		ref.Package, ref.Name = path, e.Sel.Name
	default:
		return TypeRef{}, fmt.Errorf("type %q is not a named type", expr)
	}
	return ref, nil
}

// SplitQualified splits "importpath.Name" into a checked import path and
// identifier.
func SplitQualified(s string) (string, string, error) {
	dot := strings.LastIndex(s, ".")
	if dot < strings.LastIndex(s, "/") {
		return "", "", fmt.Errorf("%q: expected importpath.Name", s)
	}
	path, name := s[:dot], s[dot+1:]
	if err := module.CheckImportPath(path); err != nil {
		return "", "", err
	}
	if !token.IsIdentifier(name) {
		return "", "", fmt.Errorf("%q: %q is not an identifier", s, name)
	}
	return path, name, nil
}

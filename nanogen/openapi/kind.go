package openapi

import (
	"go/ast"
	"go/parser"
	"go/types"
)

// Kind maps a Go type expression to an OpenAPI primitive type. Pointers are
// followed. Types that are not predeclared numbers, strings, booleans,
// slices or arrays are "object".
func Kind(typ string) string {
	e, err := parser.ParseExpr(typ)
	if err != nil {
		return "object"
	}
	for {
		star, ok := e.(*ast.StarExpr)
		if !ok {
			break
		}
		e = star.X
	}
	switch t := e.(type) {
	case *ast.ArrayType:
		return "array"
	case *ast.Ident:
		basic, ok := types.Universe.Lookup(t.Name).(*types.TypeName)
		if !ok {
			return "object"
		}
		b, ok := basic.Type().(*types.Basic)
		if !ok {
			return "object"
		}
		switch info := b.Info(); {
		case info&types.IsInteger != 0:
			return "integer"
		case info&types.IsFloat != 0:
			return "number"
		case info&types.IsBoolean != 0:
			return "boolean"
		case info&types.IsString != 0:
			return "string"
		}
	}
	return "object"
}

// isBasic reports whether typ names a predeclared basic type.
func isBasic(typ string) bool {
	obj, ok := types.Universe.Lookup(typ).(*types.TypeName)
	if !ok {
		return false
	}
	_, ok = obj.Type().(*types.Basic)
	return ok
}

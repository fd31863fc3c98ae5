// Package openapi builds an OpenAPI 3 document from endpoint declarations.
//
// Path parameters are expanded from Path[T] arguments and JSON bodies become
// component schemas. Query, Form and Header arguments are not described.
// A type that cannot be resolved is left out of the document; it never fails
// generation.
package openapi

import (
	"go/ast"
	"go/parser"
	"go/types"
	"reflect"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"

	"github.com/broady/nano/nanogen/ir"
)

var log = logging.Logger("nano/openapi")

// TypeLookup finds struct definitions by fully-qualified name.
type TypeLookup interface {
	Lookup(fq string) (ir.TypeDef, bool)
}

// Options holds the document-level fields.
type Options struct {
	Info    Info
	Servers []Server
	Tags    []Tag

	// SecurityName, when set, names a security scheme that every endpoint
	// not marked open requires.
	SecurityName string
	// Security defines that scheme. Defaults to HTTP bearer.
	Security *SecurityScheme
}

// Gap is a parameter left out because its type could not be resolved.
type Gap struct {
	Endpoint string
	Param    string
	Reason   string
}

type builder struct {
	types TypeLookup
	doc   *Document
	gaps  []Gap
}

// Generate builds the document. Endpoints are visited in name order.
func Generate(endpoints map[string]ir.Endpoint, index TypeLookup, opts Options) (*Document, []Gap) {
	b := &builder{
		types: index,
		doc: &Document{
			OpenAPI: Version,
			Info:    opts.Info,
			Servers: opts.Servers,
			Paths:   make(map[string]*PathItem),
			Components: Components{
				Schemas: make(map[string]Schema),
			},
		},
	}
	if b.doc.Info.Version == "" {
		b.doc.Info.Version = "v1"
	}

	if opts.SecurityName != "" {
		scheme := SecurityScheme{Type: "http", Scheme: "bearer"}
		if opts.Security != nil {
			scheme = *opts.Security
		}
		b.doc.Components.SecuritySchemes = map[string]SecurityScheme{opts.SecurityName: scheme}
	}

	tags := make(map[string]Tag)
	for _, t := range opts.Tags {
		tags[t.Name] = t
	}

	for _, ep := range ir.Sorted(endpoints) {
		path, op := b.operation(ep)
		if !ep.Public && opts.SecurityName != "" {
			op.Security = []map[string][]string{{opts.SecurityName: {}}}
		}
		if _, ok := tags[ep.Group]; !ok {
			tags[ep.Group] = Tag{Name: ep.Group}
		}

		item, ok := b.doc.Paths[path]
		if !ok {
			item = &PathItem{}
			b.doc.Paths[path] = item
		}
		slot := item.slot(ep.Method.Lower())
		if *slot != nil {
			log.Warnw("duplicate operation, keeping the first", "path", path, "method", ep.Method, "endpoint", ep.FQName)
			continue
		}
		*slot = op
	}

	b.doc.Tags = lo.Values(tags)
	sort.Slice(b.doc.Tags, func(i, j int) bool { return b.doc.Tags[i].Name < b.doc.Tags[j].Name })
	return b.doc, b.gaps
}

func (b *builder) operation(ep ir.Endpoint) (string, *Operation) {
	path, tokens := ir.NormalizePath(ep.Path)
	op := &Operation{
		Tags:        []string{ep.Group},
		Summary:     ep.DisplayName,
		Description: ep.Description,
		OperationID: SchemaName(ep.FQName),
		Responses:   map[string]Response{"200": {Description: "OK"}},
	}
	for _, p := range ep.Params {
		switch p.Kind {
		case ir.KindPath:
			op.Parameters = append(op.Parameters, b.pathParams(ep, p, tokens)...)
		case ir.KindJSON:
			if body := b.jsonBody(ep, p); body != nil {
				op.RequestBody = body
			}
		}
	}
	// Every template token must be declared; fill the rest in as strings.
	declared := make(map[string]bool)
	for _, p := range op.Parameters {
		if p.In == "path" {
			declared[p.Name] = true
		}
	}
	for _, tok := range tokens {
		if !declared[tok] {
			declared[tok] = true
			op.Parameters = append(op.Parameters, Parameter{Name: tok, In: "path", Required: true, Schema: Schema{Type: "string"}})
		}
	}
	return path, op
}

func (b *builder) gap(ep ir.Endpoint, p ir.ParameterDecl, reason string) {
	log.Debugw("parameter left out of document", "endpoint", ep.FQName, "param", p.Name, "reason", reason)
	b.gaps = append(b.gaps, Gap{Endpoint: ep.FQName, Param: p.Name, Reason: reason})
}

func (b *builder) pathParams(ep ir.Endpoint, p ir.ParameterDecl, tokens []string) []Parameter {
	inner := strings.TrimPrefix(p.Inner, "*")
	if isBasic(inner) {
		name := p.Name
		if len(tokens) == 1 {
			name = tokens[0]
		}
		return []Parameter{{Name: name, In: "path", Required: true, Schema: Schema{Type: Kind(inner)}}}
	}

	td, ok := b.lookup(ep, p)
	if !ok {
		return nil
	}
	var params []Parameter
	for _, f := range td.Fields {
		if f.Embedded || !ast.IsExported(f.Name) {
			continue
		}
		name, skip := tagName(f, "path")
		if skip {
			continue
		}
		// Path binding matches names case-insensitively; use the template's spelling.
		for _, tok := range tokens {
			if strings.EqualFold(tok, name) {
				name = tok
				break
			}
		}
		params = append(params, Parameter{
			Name:        name,
			In:          "path",
			Description: f.Doc,
			Required:    true,
			Schema:      b.fieldSchema(td, f.Type),
		})
	}
	return params
}

func (b *builder) jsonBody(ep ir.Endpoint, p ir.ParameterDecl) *RequestBody {
	if isBasic(strings.TrimPrefix(p.Inner, "*")) {
		return nil
	}
	td, ok := b.lookup(ep, p)
	if !ok {
		return nil
	}
	name := b.component(td)
	return &RequestBody{
		Required: true,
		Content: map[string]MediaType{
			"application/json": {Schema: Schema{Ref: "#/components/schemas/" + name}},
		},
	}
}

func (b *builder) lookup(ep ir.Endpoint, p ir.ParameterDecl) (ir.TypeDef, bool) {
	ref, err := ir.ResolveType(p.Inner, ep.Package, ep.Imports)
	if err != nil {
		b.gap(ep, p, err.Error())
		return ir.TypeDef{}, false
	}
	if b.types == nil {
		b.gap(ep, p, "no type index")
		return ir.TypeDef{}, false
	}
	td, ok := b.types.Lookup(ref.FQName())
	if !ok {
		b.gap(ep, p, ref.FQName()+" not found")
		return ir.TypeDef{}, false
	}
	return td, true
}

// component adds td to the schema table once and returns its name. Fields
// naming other indexed structs become references to their own components.
func (b *builder) component(td ir.TypeDef) string {
	name := SchemaName(td.FQName)
	if _, ok := b.doc.Components.Schemas[name]; ok {
		return name
	}
	// Reserve the name first so self-referencing types terminate.
	b.doc.Components.Schemas[name] = Schema{Type: "object"}

	s := Schema{Type: "object", Description: td.Doc, Properties: make(map[string]Schema)}
	for _, f := range td.Fields {
		if !ast.IsExported(f.Name) {
			continue
		}
		prop, skip := tagName(f, "json")
		if skip || (f.Embedded && !hasTag(f, "json")) {
			continue
		}
		ps := b.fieldSchema(td, f.Type)
		ps.Description = f.Doc
		s.Properties[prop] = ps
		if strings.Contains(reflect.StructTag(f.Tag).Get("validate"), "required") {
			s.Required = append(s.Required, prop)
		}
	}
	if len(s.Properties) == 0 {
		s.Properties = nil
	}
	b.doc.Components.Schemas[name] = s
	return name
}

func (b *builder) fieldSchema(owner ir.TypeDef, typ string) Schema {
	e, err := parser.ParseExpr(typ)
	if err != nil {
		return Schema{Type: "object"}
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
		items := b.fieldSchema(owner, types.ExprString(t.Elt))
		return Schema{Type: "array", Items: &items}
	case *ast.Ident, *ast.SelectorExpr:
		if k := Kind(typ); k != "object" {
			return Schema{Type: k}
		}
		ref, err := ir.ResolveType(types.ExprString(t), owner.Package, owner.Imports)
		if err != nil || b.types == nil {
			return Schema{Type: "object"}
		}
		if td, ok := b.types.Lookup(ref.FQName()); ok {
			return Schema{Ref: "#/components/schemas/" + b.component(td)}
		}
	}
	return Schema{Type: "object"}
}

// SchemaName turns a fully-qualified Go name into a component name.
func SchemaName(fq string) string {
	return strings.ReplaceAll(fq, "/", ".")
}

// tagName returns the name a field takes under the given struct tag key and
// whether the tag excludes it.
func tagName(f ir.Field, key string) (string, bool) {
	v := reflect.StructTag(f.Tag).Get(key)
	name, _, _ := strings.Cut(v, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		return f.Name, false
	}
	return name, false
}

func hasTag(f ir.Field, key string) bool {
	_, ok := reflect.StructTag(f.Tag).Lookup(key)
	return ok
}

package openapi

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/broady/nano/internal/imports"
	"github.com/broady/nano/nanogen/ir"
)

const (
	storePkg = "example.com/petstore/api/store"
	modelPkg = "example.com/petstore/model"
)

type typeMap map[string]ir.TypeDef

func (m typeMap) Lookup(fq string) (ir.TypeDef, bool) {
	td, ok := m[fq]
	return td, ok
}

func petTypes() typeMap {
	idx := imports.Index{"time": "time"}
	return typeMap{
		modelPkg + ".PetPath": {
			FQName: modelPkg + ".PetPath", Package: modelPkg, Name: "PetPath",
			Fields: []ir.Field{
				{Name: "Page", Type: "int", Doc: "Page number", Tag: `path:"page"`},
				{Name: "Count", Type: "uint32"},
				{Name: "ID", Type: "*string", Tag: `path:"id"`},
				{Name: "Skip", Type: "string", Tag: `path:"-"`},
				{Name: "hidden", Type: "string"},
			},
		},
		modelPkg + ".Pet": {
			FQName: modelPkg + ".Pet", Package: modelPkg, Name: "Pet", Doc: "Pet is an animal.",
			Imports: idx,
			Fields: []ir.Field{
				{Name: "ID", Type: "int64", Tag: `json:"id"`},
				{Name: "Name", Type: "string", Tag: `json:"name" validate:"required"`, Doc: "Pet name"},
				{Name: "Weight", Type: "float64"},
				{Name: "Tags", Type: "[]string", Tag: `json:"tags,omitempty"`},
				{Name: "Owner", Type: "*Owner", Tag: `json:"owner"`},
				{Name: "Born", Type: "time.Time", Tag: `json:"born"`},
				{Name: "Vaccinated", Type: "bool", Tag: `json:"-"`},
				{Name: "Meta", Type: "Meta", Embedded: true},
			},
		},
		modelPkg + ".Owner": {
			FQName: modelPkg + ".Owner", Package: modelPkg, Name: "Owner",
			Fields: []ir.Field{
				{Name: "Pets", Type: "[]Pet", Tag: `json:"pets"`},
			},
		},
	}
}

func ep(fn string, m ir.Method, path string, params ...ir.ParameterDecl) ir.Endpoint {
	return ir.Endpoint{
		FQName:      storePkg + "." + fn,
		Package:     storePkg,
		Func:        fn,
		Method:      m,
		Path:        path,
		Group:       "Store",
		DisplayName: fn + " summary",
		Params:      params,
		Imports:     imports.Index{"model": modelPkg, "nano": "github.com/broady/nano"},
	}
}

func epMap(eps ...ir.Endpoint) map[string]ir.Endpoint {
	m := make(map[string]ir.Endpoint)
	for _, e := range eps {
		m[e.FQName] = e
	}
	return m
}

func TestPetStoreScenario(t *testing.T) {
	name := ep("GetStoreName", ir.MethodGet, "/store/name")
	name.DisplayName = "Get the default pet store name"
	tel := ep("GetStoreTel", ir.MethodGet, "/store/tel",
		ir.ParameterDecl{Name: "cfg", Kind: ir.KindState, Inner: "config.RestConfig"})

	doc, gaps := Generate(epMap(name, tel), petTypes(), Options{Info: Info{Title: "Pet"}})
	assert.Empty(t, gaps)
	assert.Len(t, doc.Paths, 2)
	assert.Empty(t, doc.Components.Schemas)

	op := doc.Paths["/store/name"].Get
	require.NotNil(t, op)
	assert.Equal(t, "Get the default pet store name", op.Summary)
	assert.Equal(t, "example.com.petstore.api.store.GetStoreName", op.OperationID)
	assert.Equal(t, []string{"Store"}, op.Tags)
	assert.Equal(t, "OK", op.Responses["200"].Description)
	assert.Equal(t, []Tag{{Name: "Store"}}, doc.Tags)
	assert.Equal(t, Version, doc.OpenAPI)
	assert.Equal(t, "v1", doc.Info.Version)
}

func TestPrimitivePathParam(t *testing.T) {
	e := ep("GetPet", ir.MethodGet, "/store/pet/:id",
		ir.ParameterDecl{Name: "petID", Kind: ir.KindPath, Inner: "int64"})
	doc, _ := Generate(epMap(e), petTypes(), Options{})

	item, ok := doc.Paths["/store/pet/{id}"]
	require.True(t, ok, "path is normalized")
	want := []Parameter{{Name: "id", In: "path", Required: true, Schema: Schema{Type: "integer"}}}
	assert.Equal(t, want, item.Get.Parameters)
}

func TestPrimitivePathParamNamedAfterArgument(t *testing.T) {
	e := ep("Pair", ir.MethodGet, "/pair/:a/:b",
		ir.ParameterDecl{Name: "a", Kind: ir.KindPath, Inner: "string"})
	doc, _ := Generate(epMap(e), petTypes(), Options{})
	assert.Equal(t, "a", doc.Paths["/pair/{a}/{b}"].Get.Parameters[0].Name)
}

func TestStructPathParams(t *testing.T) {
	e := ep("List", ir.MethodGet, "/store/pet/list/:page/:count/:id",
		ir.ParameterDecl{Name: "p", Kind: ir.KindPath, Inner: "model.PetPath"})
	doc, gaps := Generate(epMap(e), petTypes(), Options{})
	assert.Empty(t, gaps)

	want := []Parameter{
		{Name: "page", In: "path", Description: "Page number", Required: true, Schema: Schema{Type: "integer"}},
		{Name: "count", In: "path", Required: true, Schema: Schema{Type: "integer"}},
		{Name: "id", In: "path", Required: true, Schema: Schema{Type: "string"}},
	}
	if diff := cmp.Diff(want, doc.Paths["/store/pet/list/{page}/{count}/{id}"].Get.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, doc.Components.Schemas, "path structs are not components")
}

func TestUndeclaredPathTokens(t *testing.T) {
	bare := ep("GetPet", ir.MethodGet, "/pet/:id")
	pair := ep("Pair", ir.MethodGet, "/pair/:a/:b",
		ir.ParameterDecl{Name: "a", Kind: ir.KindPath, Inner: "string"})
	doc, _ := Generate(epMap(bare, pair), petTypes(), Options{})

	want := []Parameter{{Name: "id", In: "path", Required: true, Schema: Schema{Type: "string"}}}
	assert.Equal(t, want, doc.Paths["/pet/{id}"].Get.Parameters)

	want = []Parameter{
		{Name: "a", In: "path", Required: true, Schema: Schema{Type: "string"}},
		{Name: "b", In: "path", Required: true, Schema: Schema{Type: "string"}},
	}
	assert.Equal(t, want, doc.Paths["/pair/{a}/{b}"].Get.Parameters)
}

func TestStructPathParamSliceField(t *testing.T) {
	types := typeMap{
		modelPkg + ".Batch": {
			FQName: modelPkg + ".Batch", Package: modelPkg, Name: "Batch",
			Fields: []ir.Field{
				{Name: "IDs", Type: "[]int64", Tag: `path:"ids"`},
			},
		},
	}
	e := ep("Batch", ir.MethodGet, "/batch/:ids",
		ir.ParameterDecl{Name: "p", Kind: ir.KindPath, Inner: "model.Batch"})
	doc, gaps := Generate(epMap(e), types, Options{})
	assert.Empty(t, gaps)

	want := []Parameter{{
		Name: "ids", In: "path", Required: true,
		Schema: Schema{Type: "array", Items: &Schema{Type: "integer"}},
	}}
	if diff := cmp.Diff(want, doc.Paths["/batch/{ids}"].Get.Parameters); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONBody(t *testing.T) {
	add := ep("AddPet", ir.MethodPost, "/store/pet",
		ir.ParameterDecl{Name: "body", Kind: ir.KindJSON, Inner: "*model.Pet"})
	update := ep("UpdatePet", ir.MethodPut, "/store/pet",
		ir.ParameterDecl{Name: "body", Kind: ir.KindJSON, Inner: "model.Pet"})
	doc, gaps := Generate(epMap(add, update), petTypes(), Options{})
	assert.Empty(t, gaps)

	item := doc.Paths["/store/pet"]
	require.NotNil(t, item.Post)
	require.NotNil(t, item.Put, "operations on one path share a path item")

	ref := "#/components/schemas/example.com.petstore.model.Pet"
	assert.Equal(t, ref, item.Post.RequestBody.Content["application/json"].Schema.Ref)
	assert.Equal(t, ref, item.Put.RequestBody.Content["application/json"].Schema.Ref)

	require.Len(t, doc.Components.Schemas, 2)
	pet := doc.Components.Schemas["example.com.petstore.model.Pet"]
	assert.Equal(t, "object", pet.Type)
	assert.Equal(t, "Pet is an animal.", pet.Description)
	assert.Equal(t, []string{"name"}, pet.Required)

	want := map[string]Schema{
		"id":     {Type: "integer"},
		"name":   {Type: "string", Description: "Pet name"},
		"Weight": {Type: "number"},
		"tags":   {Type: "array", Items: &Schema{Type: "string"}},
		"owner":  {Ref: "#/components/schemas/example.com.petstore.model.Owner"},
		"born":   {Type: "object"},
	}
	if diff := cmp.Diff(want, pet.Properties); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	owner := doc.Components.Schemas["example.com.petstore.model.Owner"]
	assert.Equal(t, Schema{Type: "array", Items: &Schema{Ref: "#/components/schemas/example.com.petstore.model.Pet"}}, owner.Properties["pets"])
}

func TestUnresolvedTypesAreOmitted(t *testing.T) {
	e := ep("Broken", ir.MethodPost, "/broken/:id",
		ir.ParameterDecl{Name: "p", Kind: ir.KindPath, Inner: "model.Missing"},
		ir.ParameterDecl{Name: "q", Kind: ir.KindPath, Inner: "other.Thing"},
		ir.ParameterDecl{Name: "body", Kind: ir.KindJSON, Inner: "[]model.Pet"},
		ir.ParameterDecl{Name: "s", Kind: ir.KindJSON, Inner: "string"},
		ir.ParameterDecl{Name: "f", Kind: ir.KindForm, Inner: "model.Pet"},
		ir.ParameterDecl{Name: "h", Kind: ir.KindHeader, Inner: "model.Pet"},
		ir.ParameterDecl{Name: "qq", Kind: ir.KindQuery, Inner: "model.Pet"},
	)
	doc, gaps := Generate(epMap(e), petTypes(), Options{})

	op := doc.Paths["/broken/{id}"].Post
	require.NotNil(t, op, "the endpoint is still documented")
	assert.Equal(t, []Parameter{{Name: "id", In: "path", Required: true, Schema: Schema{Type: "string"}}}, op.Parameters)
	assert.Nil(t, op.RequestBody)
	assert.Empty(t, doc.Components.Schemas)

	var params []string
	for _, g := range gaps {
		params = append(params, g.Param)
	}
	assert.Equal(t, []string{"p", "q", "body"}, params)
}

func TestSecurityAndTags(t *testing.T) {
	open := ep("Open", ir.MethodGet, "/open")
	open.Public = true
	open.Group = "Public"
	closed := ep("Closed", ir.MethodGet, "/closed")

	doc, _ := Generate(epMap(open, closed), nil, Options{
		SecurityName: "bearer",
		Tags:         []Tag{{Name: "Store", Description: "Pet store"}, {Name: "Admin"}},
	})
	assert.Nil(t, doc.Paths["/open"].Get.Security)
	assert.Equal(t, []map[string][]string{{"bearer": {}}}, doc.Paths["/closed"].Get.Security)
	assert.Equal(t, SecurityScheme{Type: "http", Scheme: "bearer"}, doc.Components.SecuritySchemes["bearer"])
	assert.Equal(t, []Tag{{Name: "Admin"}, {Name: "Public"}, {Name: "Store", Description: "Pet store"}}, doc.Tags)
}

func TestKind(t *testing.T) {
	tests := map[string]string{
		"int": "integer", "uint8": "integer", "byte": "integer", "int64": "integer",
		"float32": "number", "float64": "number",
		"bool":   "boolean",
		"string": "string", "*string": "string",
		"[]int": "array", "[4]byte": "array",
		"map[string]int": "object", "time.Time": "object", "Pet": "object", "error": "object",
		"Page[int]": "object",
	}
	for in, want := range tests {
		assert.Equal(t, want, Kind(in), in)
	}
}

func TestMarshal(t *testing.T) {
	e := ep("AddPet", ir.MethodPost, "/store/pet/:id",
		ir.ParameterDecl{Name: "id", Kind: ir.KindPath, Inner: "int"},
		ir.ParameterDecl{Name: "body", Kind: ir.KindJSON, Inner: "model.Pet"})
	doc, _ := Generate(epMap(e), petTypes(), Options{Info: Info{Title: "Pet", Version: "v2"}, Servers: []Server{{URL: "https://example.com", Description: "prod"}}})

	js, err := Marshal(doc, MarshalOptions{Format: FormatJSON})
	require.NoError(t, err)
	var back Document
	require.NoError(t, json.Unmarshal(js, &back))
	assert.Equal(t, doc.Paths["/store/pet/{id}"].Post.RequestBody, back.Paths["/store/pet/{id}"].Post.RequestBody)
	assert.Contains(t, string(js), `"$ref": "#/components/schemas/example.com.petstore.model.Pet"`)

	ym, err := Marshal(doc, MarshalOptions{Format: FormatYAML})
	require.NoError(t, err)
	var node map[string]any
	require.NoError(t, yaml.Unmarshal(ym, &node))
	assert.Equal(t, "3.0.3", node["openapi"])
	assert.Contains(t, string(ym), "#/components/schemas/example.com.petstore.model.Pet")

	src, err := Marshal(doc, MarshalOptions{Format: FormatGo, Package: "api"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by nano. DO NOT EDIT.\n\npackage api\n"))
	assert.Contains(t, string(src), "const DocJSON = ")

	_, err = Marshal(doc, MarshalOptions{Format: "xml"})
	assert.Error(t, err)

	again, err := Marshal(doc, MarshalOptions{Format: FormatJSON})
	require.NoError(t, err)
	assert.Equal(t, js, again)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("docs/openapi.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("openapi.YML"))
	assert.Equal(t, FormatGo, FormatFor("doc.go"))
	assert.Equal(t, FormatJSON, FormatFor("openapi.json"))
	assert.Equal(t, FormatJSON, FormatFor("openapi"))
}

package typeindex

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/nano/internal/discover"
	"github.com/broady/nano/nanogen/ir"
)

const petSrc = `package model

import "time"

// Pet is an animal for sale.
type Pet struct {
	// ID is the pet's identifier.
	ID   int64  ` + "`json:\"id\" path:\"id\"`" + `
	Name string // display name
	Tags []string ` + "`json:\"tags,omitempty\"`" + `
	Born time.Time
	a, b int
	*Meta
}

type (
	Meta struct {
		Owner string
	}
	Kind string
)

type Page[T any] struct{ Items []T }
`

func newIndex(t *testing.T) *Index {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "model"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "model", "pet.go"), []byte(petSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.go"), []byte("package broken\ntype ("), 0o644))
	return New(root, []discover.File{
		{Path: "broken.go", Dir: ".", ImportPath: "example.com/m"},
		{Path: "model/pet.go", Dir: "model", ImportPath: "example.com/m/model"},
	})
}

func TestLookup(t *testing.T) {
	x := newIndex(t)
	assert.Equal(t, 0, x.Materialized())

	td, ok := x.Lookup("example.com/m/model.Pet")
	require.True(t, ok)

	want := ir.TypeDef{
		FQName:  "example.com/m/model.Pet",
		Package: "example.com/m/model",
		Name:    "Pet",
		Doc:     "Pet is an animal for sale.",
		Fields: []ir.Field{
			{Name: "ID", Type: "int64", Doc: "ID is the pet's identifier.", Tag: `json:"id" path:"id"`},
			{Name: "Name", Type: "string", Doc: "display name"},
			{Name: "Tags", Type: "[]string", Tag: `json:"tags,omitempty"`},
			{Name: "Born", Type: "time.Time"},
			{Name: "a", Type: "int"},
			{Name: "b", Type: "int"},
			{Name: "Meta", Type: "*Meta", Embedded: true},
		},
	}
	if diff := cmp.Diff(want, td, cmpopts.IgnoreFields(ir.TypeDef{}, "Imports")); diff != "" {
		t.Errorf("Pet mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "time", td.Imports["time"])

	meta, ok := x.Lookup("example.com/m/model.Meta")
	require.True(t, ok)
	assert.Len(t, meta.Fields, 1)

	_, ok = x.Lookup("example.com/m/model.Kind")
	assert.False(t, ok, "non-struct types are not indexed")
	_, ok = x.Lookup("example.com/m/model.Page")
	assert.False(t, ok, "generic types are not indexed")
	_, ok = x.Lookup("example.com/m/model.Missing")
	assert.False(t, ok)

	assert.Equal(t, 2, x.Materialized())
}

func TestLookupConcurrent(t *testing.T) {
	x := newIndex(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := x.Lookup("example.com/m/model.Pet")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, x.Materialized())
}

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/nano/internal/imports"
)

func TestResolveType(t *testing.T) {
	idx := imports.Index{
		"config": "example.com/app/config",
		"m":      "example.com/app/model",
		".":      "example.com/app/dsl",
	}
	tests := []struct {
		expr    string
		want    TypeRef
		wantErr string
	}{
		{expr: "config.RestConfig", want: TypeRef{Package: "example.com/app/config", Name: "RestConfig"}},
		{expr: "*m.Pet", want: TypeRef{Package: "example.com/app/model", Name: "Pet", Pointer: true}},
		{expr: "Local", want: TypeRef{Package: "example.com/app/api", Name: "Local"}},
		{expr: "string", wantErr: "predeclared"},
		{expr: "other.T", wantErr: "package other is not imported"},
		{expr: "[]m.Pet", wantErr: "not a named type"},
		{expr: "m.Page[int]", wantErr: "not a named type"},
		{expr: "a.b.C", wantErr: "unsupported qualifier"},
		{expr: "]", wantErr: "type \"]\""},
		{expr: "*example.com/app/config.RestConfig", want: TypeRef{Package: "example.com/app/config", Name: "RestConfig", Pointer: true}},
		{expr: "example.com/app/config", wantErr: "expected importpath.Name"},
		{expr: "example.com/app/con fig.T", wantErr: "invalid char"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ResolveType(tt.expr, "example.com/app/api", idx)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

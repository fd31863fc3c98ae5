package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		wantNames []string
	}{
		{"/store/pet/:id", "/store/pet/{id}", []string{"id"}},
		{"/store/pet/list/:page/:count", "/store/pet/list/{page}/{count}", []string{"page", "count"}},
		{"/store/pet/{id}", "/store/pet/{id}", []string{"id"}},
		{"/files/{name:[a-z]+}", "/files/{name:[a-z]+}", []string{"name"}},
		{"/store/name", "/store/name", nil},
		{":id/x", "{id}/x", []string{"id"}},
		{"/{id:[0-9]+}/a:b", "/{id:[0-9]+}/a:b", []string{"id"}},
	}
	for _, tt := range tests {
		got, names := NormalizePath(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantNames, names, tt.in)
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/a", JoinPath("", "/a"))
	assert.Equal(t, "/v1/a", JoinPath("/v1/", "/a"))
	assert.Equal(t, "/v1/a", JoinPath("/v1", "a"))
}

package openapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/broady/nano/internal/gocode"
)

// Format is an output encoding for a Document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatGo emits a Go file declaring the JSON document as a constant.
	FormatGo Format = "go"
)

// FormatFor picks the encoding from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".go":
		return FormatGo
	}
	return FormatJSON
}

// MarshalOptions configures Marshal.
type MarshalOptions struct {
	Format Format
	// Package is the package name for FormatGo. Defaults to "docs".
	Package string
}

// Marshal encodes doc.
func Marshal(doc *Document, opts MarshalOptions) ([]byte, error) {
	switch opts.Format {
	case FormatJSON, "":
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode openapi json: %w", err)
		}
		return append(out, '\n'), nil

	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode openapi yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case FormatGo:
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode openapi json: %w", err)
		}
		pkg := opts.Package
		if pkg == "" {
			pkg = "docs"
		}
		src := fmt.Sprintf("%spackage %s\n\n// DocJSON is the OpenAPI document of the annotated endpoints.\nconst DocJSON = %s\n",
			gocode.Header, pkg, strconv.Quote(string(raw)))
		return gocode.Format("doc.go", []byte(src))
	}
	return nil, fmt.Errorf("unknown openapi format %q", opts.Format)
}

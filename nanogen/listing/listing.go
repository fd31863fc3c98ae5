// Package listing renders a Go function that enumerates every annotated
// endpoint.
package listing

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/broady/nano/internal/gocode"
	"github.com/broady/nano/nanogen/ir"
)

const nanoPath = "github.com/broady/nano"

// Options configures Generate.
type Options struct {
	// Package defaults to "routes".
	Package string
	// Filename is used in formatting errors. Defaults to "apiinfo.go".
	Filename string
}

type row struct {
	Method   string
	Path     string
	BasePath string
	Handler  string
	Summary  string
	Public   bool
	Group    string
}

// rows returns the listing rows in name order with every value rendered as
// a Go literal.
func rows(endpoints map[string]ir.Endpoint) []row {
	var out []row
	for _, ep := range ir.Sorted(endpoints) {
		path, _ := ir.NormalizePath(ep.Path)
		out = append(out, row{
			Method:   strconv.Quote(string(ep.Method)),
			Path:     strconv.Quote(path),
			BasePath: strconv.Quote(ep.PathGroup),
			Handler:  strconv.Quote(ep.FQName),
			Summary:  strconv.Quote(ep.DisplayName),
			Public:   ep.Public,
			Group:    strconv.Quote(ep.Group),
		})
	}
	return out
}

// Generate emits the listing as a formatted Go file.
func Generate(endpoints map[string]ir.Endpoint, opts Options) ([]byte, error) {
	if opts.Package == "" {
		opts.Package = "routes"
	}
	if opts.Filename == "" {
		opts.Filename = "apiinfo.go"
	}
	data := struct {
		Header  string
		Package string
		Imports string
		Rows    []row
	}{
		Header:  gocode.Header,
		Package: opts.Package,
		Imports: gocode.Block([]gocode.Import{{Alias: "nano", Path: nanoPath}}),
		Rows:    rows(endpoints),
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render listing: %w", err)
	}
	return gocode.Format(opts.Filename, buf.Bytes())
}

var fileTemplate = template.Must(template.New("listing").Parse(`{{.Header}}package {{.Package}}

{{.Imports}}
// APIInfo lists every annotated endpoint.
func APIInfo() []nano.APIInfo {
	return []nano.APIInfo{
{{- range .Rows}}
		{
			Method:   {{.Method}},
			Path:     {{.Path}},
			BasePath: {{.BasePath}},
			Handler:  {{.Handler}},
			Summary:  {{.Summary}},
			Public:   {{.Public}},
			Group:    {{.Group}},
		},
{{- end}}
	}
}
`))

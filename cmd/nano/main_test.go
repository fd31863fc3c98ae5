package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/broady/nano/cmd/nano/internal/check"
	"github.com/broady/nano/cmd/nano/internal/gen"
	"github.com/broady/nano/nanogen"
	"github.com/broady/nano/nanogen/diag"
	"github.com/broady/nano/nanogen/sink"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := newParser(cli, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, ctx
}

func TestTOMLConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "nano.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
log-level = "info"
workers = 99

[gen]
routes = "internal/routes/routes_gen.go"
routes_package = "api"
workers = 4
exclude = ["mocks", "*_gen.go"]
server = ["https://api.example.com production"]
`), 0o644))

	cli, ctx := parse(t, "--config", config, "gen", "--root", dir, "--doc", "docs/openapi.yaml")
	assert.Equal(t, "gen", ctx.Command())
	assert.Equal(t, "info", cli.LogLevel)
	assert.Equal(t, "internal/routes/routes_gen.go", cli.Gen.Routes)
	assert.Equal(t, "api", cli.Gen.RoutesPackage)
	assert.Equal(t, 4, cli.Gen.Workers, "command table wins over the top level")
	assert.Equal(t, []string{"mocks", "*_gen.go"}, cli.Gen.Exclude)
	assert.Equal(t, []string{"https://api.example.com production"}, cli.Gen.Server)
	assert.Equal(t, "docs/openapi.yaml", cli.Gen.Doc, "flags win over the config file")
	assert.Equal(t, "API", cli.Gen.Title)
}

func TestTOMLConfigInvalid(t *testing.T) {
	_, err := TOML(strings.NewReader("routes = "))
	assert.ErrorContains(t, err, "parse config")
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	cli, ctx := parse(t, "check", "--root", dir)
	assert.Equal(t, "check", ctx.Command())
	assert.Equal(t, "error", cli.LogLevel)
	assert.Equal(t, "routes/routes_gen.go", cli.Check.Routes)
	assert.Equal(t, "openapi.json", cli.Check.Doc)
	assert.Equal(t, "v1", cli.Check.VersionInfo)
}

func TestGeneratorFromFlags(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/empty\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))

	opts := gen.Options{
		Root:     root,
		Routes:   "routes/routes_gen.go",
		Doc:      "openapi.json",
		Title:    "Empty",
		Server:   []string{"https://a.example.com  primary  ", "http://localhost:8080"},
		Security: "bearer",
	}
	res, err := opts.Generator().Sink(sink.NewMemory()).Generate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Empty", res.Doc.Info.Title)
	require.Len(t, res.Doc.Servers, 2)
	assert.Equal(t, "https://a.example.com", res.Doc.Servers[0].URL)
	assert.Equal(t, "primary", res.Doc.Servers[0].Description)
	assert.Equal(t, "", res.Doc.Servers[1].Description)
	assert.Contains(t, res.Doc.Components.SecuritySchemes, "bearer")
}

func TestReport(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	err := gen.Report(&buf, diag.New(diag.IoError, "go.mod", os.ErrNotExist))
	assert.EqualError(t, err, "1 problem")
	assert.Equal(t, "✘ go.mod: io error: file does not exist\n", buf.String())

	buf.Reset()
	err = gen.Report(&buf, multierr.Combine(
		diag.New(diag.ParseError, "a.go", errors.New("unexpected EOF")),
		context.Canceled,
	))
	assert.EqualError(t, err, "2 problems")
	assert.Equal(t, "✘ a.go: parse error: unexpected EOF\n✘ context canceled\n", buf.String())

	buf.Reset()
	err = gen.Report(&buf, context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	check.Summary(&buf, nanogen.Stats{Files: 3, Endpoints: 2, Groups: 2})
	assert.Equal(t, "✓ 3 files, 2 endpoints\n✓ 2 route groups, 0 schemas\n✓ all types resolved\n", buf.String())

	buf.Reset()
	check.Summary(&buf, nanogen.Stats{Gaps: 2})
	assert.Contains(t, buf.String(), "! 2 unresolved types")
}

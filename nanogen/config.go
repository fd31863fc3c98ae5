package nanogen

import (
	"path"
	"strings"

	"github.com/broady/nano/nanogen/openapi"
	"github.com/broady/nano/nanogen/sink"
)

// Config holds the settings of one generation run.
type Config struct {
	// Module overrides the module path read from go.mod.
	Module string

	// Exclude holds path.Match patterns skipped while walking the tree.
	Exclude []string

	// Workers is the number of files parsed in parallel.
	// Default: GOMAXPROCS.
	Workers int

	// RoutesPath is where the route table is written, relative to the root.
	// Default: "routes/routes_gen.go".
	RoutesPath string

	// RoutesPackage is the package name of the route table.
	// Default: the base name of its directory.
	RoutesPackage string

	// DocPath is where the OpenAPI document is written. The extension picks
	// the encoding: .json, .yaml/.yml, or .go.
	// Default: "openapi.json".
	DocPath string

	// DocPackage is the package name used when DocPath ends in .go.
	// Default: the base name of its directory.
	DocPackage string

	// ListingPath is where the endpoint listing is written.
	// Default: "apiinfo_gen.go" next to the route table.
	ListingPath string

	// ListingPackage is the package name of the listing.
	// Default: the base name of its directory.
	ListingPackage string

	Info         openapi.Info
	Servers      []openapi.Server
	Tags         []openapi.Tag
	SecurityName string
	Security     *openapi.SecurityScheme
}

func applyDefaults(cfg Config) Config {
	if cfg.RoutesPath == "" {
		cfg.RoutesPath = "routes/routes_gen.go"
	}
	if cfg.RoutesPackage == "" {
		cfg.RoutesPackage = packageFor(cfg.RoutesPath)
	}
	if cfg.DocPath == "" {
		cfg.DocPath = "openapi.json"
	}
	if cfg.DocPackage == "" {
		cfg.DocPackage = packageFor(cfg.DocPath)
	}
	if cfg.ListingPath == "" {
		cfg.ListingPath = path.Join(path.Dir(cfg.RoutesPath), "apiinfo_gen.go")
	}
	if cfg.ListingPackage == "" {
		cfg.ListingPackage = packageFor(cfg.ListingPath)
	}
	if cfg.Info.Title == "" {
		cfg.Info.Title = "API"
	}
	return cfg
}

// packageFor guesses the package name of a file from its directory.
func packageFor(file string) string {
	dir := path.Base(path.Dir(file))
	if dir == "." || dir == "/" {
		return "main"
	}
	name := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, strings.ToLower(dir))
	return name
}

// Generator provides a fluent API for a generation run.
// Create with FromDir and configure with method chaining.
//
// Example:
//
//	nanogen.FromDir(".").
//	    Routes("internal/routes/routes_gen.go", "routes").
//	    Doc("docs/openapi.yaml").
//	    Generate(ctx)
type Generator struct {
	root string
	cfg  Config
	sink sink.Sink
}

// FromDir creates a Generator for the module rooted at root.
func FromDir(root string) *Generator {
	return &Generator{root: root}
}

// WithConfig replaces the whole configuration.
func (g *Generator) WithConfig(cfg Config) *Generator {
	g.cfg = cfg
	return g
}

// Module overrides the module path.
func (g *Generator) Module(path string) *Generator {
	g.cfg.Module = path
	return g
}

// Exclude adds path.Match patterns to skip.
func (g *Generator) Exclude(patterns ...string) *Generator {
	g.cfg.Exclude = append(g.cfg.Exclude, patterns...)
	return g
}

// Workers sets the parse parallelism.
func (g *Generator) Workers(n int) *Generator {
	g.cfg.Workers = n
	return g
}

// Routes sets the route table output. An empty pkg is derived from the path.
func (g *Generator) Routes(path, pkg string) *Generator {
	g.cfg.RoutesPath, g.cfg.RoutesPackage = path, pkg
	return g
}

// Doc sets the OpenAPI document output.
func (g *Generator) Doc(path string) *Generator {
	g.cfg.DocPath = path
	return g
}

// Listing sets the endpoint listing output. An empty pkg is derived from
// the path.
func (g *Generator) Listing(path, pkg string) *Generator {
	g.cfg.ListingPath, g.cfg.ListingPackage = path, pkg
	return g
}

// Info sets the document info block.
func (g *Generator) Info(info openapi.Info) *Generator {
	g.cfg.Info = info
	return g
}

// Server adds a server to the document.
func (g *Generator) Server(url, description string) *Generator {
	g.cfg.Servers = append(g.cfg.Servers, openapi.Server{URL: url, Description: description})
	return g
}

// Tag describes a tag in the document.
func (g *Generator) Tag(name, description string) *Generator {
	g.cfg.Tags = append(g.cfg.Tags, openapi.Tag{Name: name, Description: description})
	return g
}

// Security requires the named scheme on every endpoint not marked open.
// A nil scheme defaults to HTTP bearer.
func (g *Generator) Security(name string, scheme *openapi.SecurityScheme) *Generator {
	g.cfg.SecurityName, g.cfg.Security = name, scheme
	return g
}

// Sink sets where artifacts are written. Defaults to the root directory.
func (g *Generator) Sink(s sink.Sink) *Generator {
	g.sink = s
	return g
}

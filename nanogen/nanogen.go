// Package nanogen generates a chi route table, an OpenAPI document and an
// endpoint listing from //nano: annotated handlers.
//
// A run extracts every endpoint, renders all three artifacts in memory and
// only then writes them. A fatal diagnostic anywhere means nothing is
// written.
package nanogen

import (
	"context"
	"fmt"
	"path"
	"sort"

	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"

	"github.com/broady/nano/internal/discover"
	"github.com/broady/nano/internal/extract"
	"github.com/broady/nano/nanogen/ir"
	"github.com/broady/nano/nanogen/listing"
	"github.com/broady/nano/nanogen/openapi"
	"github.com/broady/nano/nanogen/route"
	"github.com/broady/nano/nanogen/sink"
	"github.com/broady/nano/nanogen/typeindex"
)

var log = logging.Logger("nanogen")

// Stats summarizes a run.
type Stats struct {
	Files     int // source files parsed
	Endpoints int
	Groups    int // route groups
	Schemas   int // component schemas in the document
	Gaps      int // unresolved types, from routing and the document
}

// Result holds everything a run produced.
type Result struct {
	Module    string
	Endpoints map[string]ir.Endpoint
	Routes    *route.Table
	Doc       *openapi.Document
	DocGaps   []openapi.Gap

	// Files maps each output path to its content.
	Files map[string][]byte

	Stats Stats
}

// Paths returns the output paths in order.
func (r *Result) Paths() []string {
	paths := lo.Keys(r.Files)
	sort.Strings(paths)
	return paths
}

// Generate runs extraction and every pass, then writes the artifacts.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	res, err := g.build(ctx)
	if err != nil {
		return nil, err
	}
	out := g.sink
	if out == nil {
		out = sink.NewDir(g.root)
	}
	for _, p := range res.Paths() {
		if err := out.WriteFile(ctx, p, res.Files[p]); err != nil {
			return nil, err
		}
	}
	log.Infow("generated",
		"endpoints", res.Stats.Endpoints,
		"groups", res.Stats.Groups,
		"schemas", res.Stats.Schemas,
		"gaps", res.Stats.Gaps)
	return res, nil
}

// Check runs extraction and every pass without writing anything.
func (g *Generator) Check(ctx context.Context) (Stats, error) {
	res, err := g.build(ctx)
	if err != nil {
		return Stats{}, err
	}
	return res.Stats, nil
}

func (g *Generator) build(ctx context.Context) (*Result, error) {
	cfg := applyDefaults(g.cfg)

	ex, err := extract.Extract(ctx, extract.Options{
		Root:    g.root,
		Module:  cfg.Module,
		Exclude: cfg.Exclude,
		Workers: cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	res := &Result{
		Module:    ex.Module,
		Endpoints: ex.Endpoints,
		Files:     make(map[string][]byte, 3),
	}

	routes, table, err := route.Generate(ex.Endpoints, route.Options{
		Package:    cfg.RoutesPackage,
		ImportPath: discover.ImportPath(ex.Module, path.Dir(cfg.RoutesPath)),
		Filename:   cfg.RoutesPath,
	})
	if err != nil {
		return nil, err
	}
	res.Routes = table
	res.Files[cfg.RoutesPath] = routes
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	index := typeindex.New(ex.Root, ex.Files)
	res.Doc, res.DocGaps = openapi.Generate(ex.Endpoints, index, openapi.Options{
		Info:         cfg.Info,
		Servers:      cfg.Servers,
		Tags:         cfg.Tags,
		SecurityName: cfg.SecurityName,
		Security:     cfg.Security,
	})
	doc, err := openapi.Marshal(res.Doc, openapi.MarshalOptions{
		Format:  openapi.FormatFor(cfg.DocPath),
		Package: cfg.DocPackage,
	})
	if err != nil {
		return nil, err
	}
	if err := res.put(cfg.DocPath, doc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := listing.Generate(ex.Endpoints, listing.Options{
		Package:  cfg.ListingPackage,
		Filename: cfg.ListingPath,
	})
	if err != nil {
		return nil, err
	}
	if err := res.put(cfg.ListingPath, list); err != nil {
		return nil, err
	}

	res.Stats = Stats{
		Files:     len(ex.Files),
		Endpoints: len(ex.Endpoints),
		Groups:    len(table.Groups),
		Schemas:   len(res.Doc.Components.Schemas),
		Gaps:      len(table.Gaps) + len(res.DocGaps),
	}
	log.Debugw("types materialized", "count", index.Materialized())
	return res, nil
}

func (r *Result) put(p string, content []byte) error {
	if _, ok := r.Files[p]; ok {
		return fmt.Errorf("output path %s is used by more than one artifact", p)
	}
	r.Files[p] = content
	return nil
}

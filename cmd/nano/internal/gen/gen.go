package gen

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/multierr"

	"github.com/broady/nano/nanogen"
	"github.com/broady/nano/nanogen/diag"
	"github.com/broady/nano/nanogen/openapi"
)

// Options are the flags shared by gen and check.
type Options struct {
	Root           string   `help:"Module root to scan." default:"." type:"existingdir"`
	Module         string   `help:"Module path (default: read from go.mod)."`
	Exclude        []string `help:"Glob patterns of files or directories to skip." short:"x"`
	Workers        int      `help:"Files parsed in parallel (default: GOMAXPROCS)."`
	Routes         string   `help:"Route table output, relative to the root." default:"routes/routes_gen.go"`
	RoutesPackage  string   `help:"Package name of the route table (default: its directory)."`
	Doc            string   `help:"OpenAPI output; .json, .yaml or .go." default:"openapi.json"`
	DocPackage     string   `help:"Package name when the document is emitted as Go."`
	Listing        string   `help:"Endpoint listing output (default: next to the route table)."`
	ListingPackage string   `help:"Package name of the listing (default: its directory)."`
	Title          string   `help:"Document title." default:"API"`
	Description    string   `help:"Document description."`
	VersionInfo    string   `help:"Document version." name:"version-info" default:"v1"`
	Server         []string `help:"Server as 'URL [description]'. Repeatable." sep:"none"`
	Security       string   `help:"Name of a bearer security scheme required by endpoints not marked open."`
}

// Generator builds the configured generator.
func (o *Options) Generator() *nanogen.Generator {
	cfg := nanogen.Config{
		Module:         o.Module,
		Exclude:        o.Exclude,
		Workers:        o.Workers,
		RoutesPath:     o.Routes,
		RoutesPackage:  o.RoutesPackage,
		DocPath:        o.Doc,
		DocPackage:     o.DocPackage,
		ListingPath:    o.Listing,
		ListingPackage: o.ListingPackage,
		Info: openapi.Info{
			Title:       o.Title,
			Description: o.Description,
			Version:     o.VersionInfo,
		},
		SecurityName: o.Security,
	}
	for _, s := range o.Server {
		url, desc, _ := strings.Cut(strings.TrimSpace(s), " ")
		cfg.Servers = append(cfg.Servers, openapi.Server{URL: url, Description: strings.TrimSpace(desc)})
	}
	return nanogen.FromDir(o.Root).WithConfig(cfg)
}

type Cmd struct {
	Options
}

func (c *Cmd) Run() error {
	res, err := c.Generator().Generate(context.Background())
	if err != nil {
		return Report(os.Stderr, err)
	}
	for _, p := range res.Paths() {
		fmt.Printf("%s %s\n", color.GreenString("✓"), p)
	}
	return nil
}

// Report prints every error combined into err and returns a summary error
// for the exit status. A lone error that is not a diagnostic is returned
// as is.
func Report(w io.Writer, err error) error {
	if len(diag.All(err)) == 0 {
		return err
	}
	all := multierr.Errors(err)
	for _, e := range all {
		fmt.Fprintf(w, "%s %s\n", color.RedString("✘"), e)
	}
	if len(all) == 1 {
		return fmt.Errorf("1 problem")
	}
	return fmt.Errorf("%d problems", len(all))
}

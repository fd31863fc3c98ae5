package check

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/broady/nano/cmd/nano/internal/gen"
	"github.com/broady/nano/nanogen"
)

type Cmd struct {
	gen.Options
}

func (c *Cmd) Run() error {
	stats, err := c.Generator().Check(context.Background())
	if err != nil {
		return gen.Report(os.Stderr, err)
	}
	Summary(os.Stdout, stats)
	return nil
}

// Summary prints the result of a check.
func Summary(w io.Writer, s nanogen.Stats) {
	ok := color.GreenString("✓")
	fmt.Fprintf(w, "%s %d files, %d endpoints\n", ok, s.Files, s.Endpoints)
	fmt.Fprintf(w, "%s %d route groups, %d schemas\n", ok, s.Groups, s.Schemas)
	if s.Gaps > 0 {
		fmt.Fprintf(w, "%s %d unresolved types (run with --log-level=debug for details)\n", color.YellowString("!"), s.Gaps)
		return
	}
	fmt.Fprintf(w, "%s all types resolved\n", ok)
}

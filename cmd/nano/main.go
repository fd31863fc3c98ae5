package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	logging "github.com/ipfs/go-log/v2"

	"github.com/broady/nano/cmd/nano/internal/check"
	"github.com/broady/nano/cmd/nano/internal/gen"
)

type CLI struct {
	Config   kong.ConfigFlag `help:"TOML file with flag defaults." type:"path"`
	LogLevel string          `help:"Log level." default:"error" enum:"debug,info,warn,error" env:"NANO_LOG_LEVEL"`

	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     gen.Cmd    `cmd:"" help:"Generate the route table, OpenAPI document and endpoint listing."`
	Check   check.Cmd  `cmd:"" help:"Parse and resolve every endpoint without writing files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("nano"),
		kong.Description("Generate chi routes, OpenAPI and an endpoint listing from //nano: annotated handlers."),
		kong.UsageOnError(),
		kong.Configuration(TOML, "nano.toml"),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := &CLI{}
	parser, err := newParser(cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(logging.SetLogLevel("*", cli.LogLevel))
	ctx.FatalIfErrorf(ctx.Run())
}

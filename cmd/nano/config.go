package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
)

// TOML loads flag defaults from a TOML document. A flag is looked up in
// the table named after its command first, then at the top level. Keys may
// use dashes or underscores.
//
//	log-level = "info"
//
//	[gen]
//	routes = "internal/routes/routes_gen.go"
//	server = ["https://api.example.com production"]
func TOML(r io.Reader) (kong.Resolver, error) {
	values := make(map[string]any)
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return kong.ResolverFunc(func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		if parent != nil && parent.Command != nil {
			if table, ok := values[parent.Command.Name].(map[string]any); ok {
				if v, ok := lookup(table, flag.Name); ok {
					return v, nil
				}
			}
		}
		if v, ok := lookup(values, flag.Name); ok {
			return v, nil
		}
		return nil, nil
	}), nil
}

func lookup(table map[string]any, name string) (any, bool) {
	for _, key := range []string{name, strings.ReplaceAll(name, "-", "_")} {
		v, ok := table[key]
		if !ok {
			continue
		}
		if _, isTable := v.(map[string]any); isTable {
			continue
		}
		return v, true
	}
	return nil, false
}

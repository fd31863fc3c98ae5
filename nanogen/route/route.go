// Package route generates the chi router construction code for a set of
// endpoints.
//
// Endpoints are partitioned by their grouping key: the resolved state type
// they take plus the ordered list of middleware they declare. Each partition
// becomes one function returning a func(chi.Router) that installs the
// middleware in declaration order, binds the state last, and registers the
// partition's routes. A Routes function takes every distinct state value and
// mounts all partitions on one router.
package route

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"

	"github.com/broady/nano/nanogen/diag"
	"github.com/broady/nano/nanogen/ir"
)

var log = logging.Logger("nano/route")

// Group is the set of endpoints sharing one grouping key.
type Group struct {
	Key       ir.GroupingKey
	Endpoints []ir.Endpoint // sorted by FQName
}

// Gap records an endpoint whose state type could not be resolved. The
// endpoint is routed in the stateless partition.
type Gap struct {
	Endpoint string
	Err      error
}

// Table is the grouped routing plan.
type Table struct {
	Groups []Group // sorted by key
	Gaps   []Gap
}

// Plan resolves the state and middleware of every endpoint and groups them.
// An unresolvable middleware reference or a handler the generated package
// cannot reference fails the plan; an unresolvable state type does not.
// opts.ImportPath decides which declarations may stay unexported.
func Plan(endpoints map[string]ir.Endpoint, opts Options) (*Table, error) {
	t := &Table{}
	groups := make(map[string]*Group)
	var errs error

	for _, ep := range ir.Sorted(endpoints) {
		key, err := groupingKey(ep, opts.ImportPath, t)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		k := key.String()
		g, ok := groups[k]
		if !ok {
			g = &Group{Key: key}
			groups[k] = g
		}
		g.Endpoints = append(g.Endpoints, ep)
	}
	if errs != nil {
		return nil, errs
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Groups = append(t.Groups, *groups[k])
	}
	return t, nil
}

func groupingKey(ep ir.Endpoint, out string, t *Table) (ir.GroupingKey, error) {
	var key ir.GroupingKey
	var errs error
	if !visible(ep.Package, ep.Func, out) {
		errs = multierr.Append(errs, &diag.Error{
			Kind: diag.AnnotationError,
			Unit: ep.File,
			Decl: ep.Func,
			Pos:  token.Position{Filename: ep.File, Line: ep.Line},
			Err:  fmt.Errorf("handler %s is not exported", ep.Func),
		})
	}
	if p, ok := ep.StateParam(); ok {
		ref, err := ir.ResolveType(p.Inner, ep.Package, ep.Imports)
		if err == nil && !visible(ref.Package, ref.Name, out) {
			err = fmt.Errorf("state type %s is not exported", ref.Name)
		}
		if err != nil {
			log.Warnw("state type unresolved, routing without state",
				"endpoint", ep.FQName, "pos", ep.Position(), "error", err)
			t.Gaps = append(t.Gaps, Gap{Endpoint: ep.FQName, Err: err})
		} else {
			key.State = ref
		}
	}

	for _, ref := range ep.Layers {
		l, err := resolveLayer(ref, ep, out)
		if err != nil {
			errs = multierr.Append(errs, &diag.Error{
				Kind: diag.AnnotationError,
				Unit: ep.File,
				Decl: ep.Func,
				Pos:  token.Position{Filename: ep.File, Line: ep.Line},
				Err:  fmt.Errorf("layer %q: %w", ref.String(), err),
			})
			continue
		}
		key.Layers = append(key.Layers, l)
	}
	return key, errs
}

// visible reports whether name declared in pkg can be referenced from the
// generated package out.
func visible(pkg, name, out string) bool {
	return pkg == out || token.IsExported(name)
}

// resolveLayer resolves a middleware reference written as Func, pkg.Func or
// importpath.Func, with an optional state override.
func resolveLayer(ref ir.MiddlewareRef, ep ir.Endpoint, out string) (ir.ResolvedLayer, error) {
	var l ir.ResolvedLayer
	pkg, name, err := resolveFunc(ref.Func, ep)
	if err != nil {
		return l, err
	}
	if !visible(pkg, name, out) {
		return l, fmt.Errorf("%s is not exported", name)
	}
	l.Package, l.Func = pkg, name
	if ref.Override && ref.State == "" {
		return l, fmt.Errorf("empty state override")
	}
	if ref.State != "" {
		st, err := ir.ResolveType(ref.State, ep.Package, ep.Imports)
		if err != nil {
			return l, fmt.Errorf("state override: %w", err)
		}
		if !visible(st.Package, st.Name, out) {
			return l, fmt.Errorf("state override: %s is not exported", st.Name)
		}
		l.State = st
	}
	return l, nil
}

func resolveFunc(s string, ep ir.Endpoint) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("empty middleware reference")
	}
	if strings.Contains(s, "/") {
		return ir.SplitQualified(s)
	}
	e, err := parser.ParseExpr(s)
	if err != nil {
		return "", "", err
	}
	switch e := e.(type) {
	case *ast.Ident:
		return ep.Package, e.Name, nil
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return "", "", fmt.Errorf("unsupported qualifier %s", s)
		}
		path, ok := ep.Imports.Resolve(x.Name)
		if !ok {
			return "", "", fmt.Errorf("package %s is not imported by %s", x.Name, ep.File)
		}
		return path, e.Sel.Name, nil
	case *ast.CallExpr:
		return "", "", fmt.Errorf("middleware references take no arguments")
	}
	return "", "", fmt.Errorf("not a function reference")
}

// Generate plans and renders the route table.
func Generate(endpoints map[string]ir.Endpoint, opts Options) ([]byte, *Table, error) {
	t, err := Plan(endpoints, opts)
	if err != nil {
		return nil, nil, err
	}
	out, err := t.Render(opts)
	if err != nil {
		return nil, nil, err
	}
	return out, t, nil
}

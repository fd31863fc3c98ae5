package route

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"github.com/broady/nano/internal/gocode"
	"github.com/broady/nano/nanogen/ir"
)

const (
	chiPath  = "github.com/go-chi/chi/v5"
	nanoPath = "github.com/broady/nano"
	httpPath = "net/http"
)

// Options configures Render.
type Options struct {
	// Package is the package name of the generated file. Defaults to "routes".
	Package string

	// ImportPath is the import path of the generated file's package.
	// Handlers and middleware declared there are referenced unqualified.
	ImportPath string

	// Filename is used in formatting errors. Defaults to "routes.go".
	Filename string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "routes"
	}
	if o.Filename == "" {
		o.Filename = "routes.go"
	}
	return o
}

type param struct {
	Ident string
	Type  string
}

type groupData struct {
	Func   string
	Doc    string
	Params []param
	Uses   []string
	Routes []string
}

type fileData struct {
	Header  string
	Package string
	Imports string
	Params  []param
	Groups  []groupData
}

// Render emits the route table as a formatted Go file.
func (t *Table) Render(opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	im := gocode.NewImports(opts.ImportPath,
		gocode.Import{Alias: "http", Path: httpPath},
		gocode.Import{Alias: "chi", Path: chiPath},
		gocode.Import{Alias: "nano", Path: nanoPath},
	)
	im.Reserve("r")
	used := map[string]bool{chiPath: true}
	var states []ir.TypeRef
	for _, g := range t.Groups {
		if !g.Key.Stateless() {
			states = append(states, g.Key.State)
		}
		for _, l := range g.Key.Layers {
			im.Add(l.Package)
			if !l.State.IsZero() {
				states = append(states, l.State)
			}
		}
		for _, ep := range g.Endpoints {
			im.Add(ep.Package)
		}
	}
	for _, s := range states {
		im.Add(s.Package)
	}
	if len(t.Groups) > 0 {
		used[httpPath], used[nanoPath] = true, true
	}

	qualify := func(pkg, name string) string {
		if a := im.Alias(pkg); a != "" {
			used[pkg] = true
		}
		return im.Qualify(pkg, name)
	}
	typeExpr := func(ref ir.TypeRef) string {
		s := qualify(ref.Package, ref.Name)
		if ref.Pointer {
			return "*" + s
		}
		return s
	}

	// Identifiers must not shadow any import.
	idents := gocode.NewNames(append([]string{"r"}, im.Aliases()...)...)
	stateIdent := make(map[ir.TypeRef]string)
	for _, s := range lo.Uniq(states) {
		if _, ok := stateIdent[s]; ok {
			continue
		}
		want := gocode.LowerFirst(im.Alias(s.Package) + s.Name)
		if s.Pointer {
			want += "Ptr"
		}
		stateIdent[s] = idents.Take(gocode.Sanitize(want))
	}

	funcs := gocode.NewNames("Routes")
	data := fileData{
		Header:  gocode.Header,
		Package: opts.Package,
	}
	var all []param
	for _, g := range t.Groups {
		var gd groupData
		var behind []string

		name := "routesWithoutState"
		var params []param
		if !g.Key.Stateless() {
			id := stateIdent[g.Key.State]
			name = "routes" + gocode.UpperFirst(id)
			params = append(params, param{Ident: id, Type: typeExpr(g.Key.State)})
		}
		for _, l := range g.Key.Layers {
			name += "With" + gocode.UpperFirst(im.Alias(l.Package)) + gocode.UpperFirst(l.Func)
			fn := qualify(l.Package, l.Func)
			behind = append(behind, fn)
			if l.State.IsZero() {
				gd.Uses = append(gd.Uses, fn)
				continue
			}
			id := stateIdent[l.State]
			gd.Uses = append(gd.Uses, fn+"("+id+")")
			params = append(params, param{Ident: id, Type: typeExpr(l.State)})
		}
		gd.Doc = "endpoints without state"
		if !g.Key.Stateless() {
			gd.Uses = append(gd.Uses, "nano.WithState("+stateIdent[g.Key.State]+")")
			gd.Doc = "endpoints bound to " + typeExpr(g.Key.State)
		}
		if len(behind) > 0 {
			gd.Doc += " behind " + strings.Join(behind, ", ")
		}
		gd.Func = funcs.Take(name)
		gd.Params = lo.UniqBy(params, func(p param) string { return p.Ident })
		all = append(all, gd.Params...)

		for _, ep := range g.Endpoints {
			path, _ := ir.NormalizePath(ep.Path)
			gd.Routes = append(gd.Routes, fmt.Sprintf("r.Method(http.%s, %s, nano.Handle(%s))",
				ep.Method.HTTPConst(), strconv.Quote(path), qualify(ep.Package, ep.Func)))
		}
		sort.Strings(gd.Routes)
		data.Groups = append(data.Groups, gd)
	}
	data.Params = lo.UniqBy(all, func(p param) string { return p.Ident })
	sort.Slice(data.Params, func(i, j int) bool { return data.Params[i].Ident < data.Params[j].Ident })
	data.Imports = gocode.Block(im.List(used))

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render routes: %w", err)
	}
	return gocode.Format(opts.Filename, buf.Bytes())
}

var fileTemplate = template.Must(template.New("routes").Funcs(template.FuncMap{
	"params": func(ps []param) string {
		return strings.Join(lo.Map(ps, func(p param, _ int) string { return p.Ident + " " + p.Type }), ", ")
	},
	"args": func(ps []param) string {
		return strings.Join(lo.Map(ps, func(p param, _ int) string { return p.Ident }), ", ")
	},
}).Parse(`{{.Header}}package {{.Package}}

{{.Imports}}
// Routes mounts every annotated endpoint on a new router.
func Routes({{params .Params}}) chi.Router {
	r := chi.NewRouter()
{{- range .Groups}}
	r.Group({{.Func}}({{args .Params}}))
{{- end}}
	return r
}
{{range .Groups}}
// {{.Func}} registers {{.Doc}}.
func {{.Func}}({{params .Params}}) func(chi.Router) {
	return func(r chi.Router) {
{{- range .Uses}}
		r.Use({{.}})
{{- end}}
{{- range .Routes}}
		{{.}}
{{- end}}
	}
}
{{end}}`))

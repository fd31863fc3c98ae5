package gocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportsAliases(t *testing.T) {
	im := NewImports("example.com/app/routes",
		Import{Alias: "http", Path: "net/http"},
		Import{Alias: "chi", Path: "github.com/go-chi/chi/v5"},
	)
	im.Reserve("nano", "r")
	for _, p := range []string{
		"example.com/app/other/config",
		"example.com/app/config",
		"example.com/app/api/v2",
		"example.com/app/api/v3",
		"example.com/app/net/http",
		"example.com/app/type",
		"example.com/app/routes",
		"example.com/app/nano",
	} {
		im.Add(p)
	}

	assert.Equal(t, "config", im.Alias("example.com/app/config"))
	assert.Equal(t, "config2", im.Alias("example.com/app/other/config"))
	assert.Equal(t, "api", im.Alias("example.com/app/api/v2"))
	assert.Equal(t, "api2", im.Alias("example.com/app/api/v3"))
	assert.Equal(t, "http2", im.Alias("example.com/app/net/http"))
	assert.Equal(t, "type2", im.Alias("example.com/app/type"))
	assert.Equal(t, "nano2", im.Alias("example.com/app/nano"))
	assert.Equal(t, "", im.Alias("example.com/app/routes"))
	assert.Equal(t, "http", im.Alias("net/http"))

	assert.Equal(t, "config.RestConfig", im.Qualify("example.com/app/config", "RestConfig"))
	assert.Equal(t, "Local", im.Qualify("example.com/app/routes", "Local"))

	assert.Equal(t, []string{"api", "api2", "chi", "config", "config2", "http", "http2", "nano2", "type2"}, im.Aliases())

	list := im.List(map[string]bool{"net/http": true, "example.com/app/other/config": true, "github.com/go-chi/chi/v5": true})
	require.Len(t, list, 3)
	assert.Equal(t, `"net/http"`, list[0].Spec())
	assert.Equal(t, `config2 "example.com/app/other/config"`, list[1].Spec())
	assert.Equal(t, `"github.com/go-chi/chi/v5"`, list[2].Spec())

	want := "import (\n\t\"net/http\"\n\n\tconfig2 \"example.com/app/other/config\"\n\t\"github.com/go-chi/chi/v5\"\n)\n"
	assert.Equal(t, want, Block(list))
	assert.Equal(t, "", Block(nil))
}

func TestImportsOrderIndependent(t *testing.T) {
	a := NewImports("")
	a.Add("x/one/config")
	a.Add("x/two/config")
	b := NewImports("")
	b.Add("x/two/config")
	b.Add("x/one/config")
	assert.Equal(t, a.Alias("x/two/config"), b.Alias("x/two/config"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "go_yaml", Sanitize("go-yaml"))
	assert.Equal(t, "_3d", Sanitize("3d"))
	assert.Equal(t, "_", Sanitize(""))
}

func TestCase(t *testing.T) {
	assert.Equal(t, "restConfig", LowerFirst("RestConfig"))
	assert.Equal(t, "Config", UpperFirst("config"))
	assert.Equal(t, "", LowerFirst(""))
}

func TestNames(t *testing.T) {
	n := NewNames("r")
	assert.Equal(t, "r2", n.Take("r"))
	assert.Equal(t, "cfg", n.Take("cfg"))
	assert.Equal(t, "cfg2", n.Take("cfg"))
	assert.Equal(t, "func2", n.Take("func"))
}

func TestFormat(t *testing.T) {
	out, err := Format("x.go", []byte("package x\nfunc  F( ) {\nreturn}\n"))
	require.NoError(t, err)
	assert.Equal(t, "package x\n\nfunc F() {\n\treturn\n}\n", string(out))

	_, err = Format("x.go", []byte("package x\nfunc {"))
	assert.Error(t, err)
}

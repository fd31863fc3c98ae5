package nano

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate = validator.New()

	pathDecoder   = newDecoder("path")
	queryDecoder  = newDecoder("query")
	formDecoder   = newDecoder("form")
	headerDecoder = newDecoder("header")
)

func newDecoder(tag string) *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag(tag)
	d.IgnoreUnknownKeys(true)
	return d
}

// binder is implemented by the pointer of every handler parameter type.
type binder interface {
	bind(r *http.Request) error
}

// State is the value installed by WithState[T] on the route group.
type State[T any] struct{ Value T }

// Path holds URL parameters. A scalar T takes the route's only parameter;
// a struct T is filled field by field using `path` tags.
type Path[T any] struct{ Value T }

// Query holds the query string, decoded into a struct using `query` tags.
type Query[T any] struct{ Value T }

// JSON holds the decoded request body.
type JSON[T any] struct{ Value T }

// Form holds the parsed form, decoded into a struct using `form` tags.
type Form[T any] struct{ Value T }

// Header holds request headers, decoded into a struct using `header` tags.
type Header[T any] struct{ Value T }

func (s *State[T]) bind(r *http.Request) error {
	v, ok := StateFromContext[T](r.Context())
	if !ok {
		return Errorf(CodeInternal, "no state of type %s on this route", reflect.TypeFor[T]())
	}
	s.Value = v
	return nil
}

// scalar decodes a single path parameter through the path decoder.
type scalar[T any] struct {
	Value T `path:"value"`
}

func (p *Path[T]) bind(r *http.Request) error {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return Errorf(CodeInternal, "request was not routed by chi")
	}
	values := make(map[string][]string)
	var single []string
	for i, k := range rctx.URLParams.Keys {
		if k == "*" || k == "" {
			continue
		}
		values[k] = []string{rctx.URLParams.Values[i]}
		single = append(single, rctx.URLParams.Values[i])
	}

	if isStruct(reflect.TypeFor[T]()) {
		if err := decodeStruct(pathDecoder, &p.Value, values); err != nil {
			return Errorf(CodeInvalidArgument, "decode path: %v", err)
		}
		return check(p.Value)
	}
	if len(single) != 1 {
		return Errorf(CodeInternal, "route has %d path parameters, want 1", len(single))
	}
	var one scalar[T]
	if err := pathDecoder.Decode(&one, map[string][]string{"value": single}); err != nil {
		return Errorf(CodeInvalidArgument, "decode path: %v", err)
	}
	p.Value = one.Value
	return nil
}

func (q *Query[T]) bind(r *http.Request) error {
	if err := decodeStruct(queryDecoder, &q.Value, r.URL.Query()); err != nil {
		return Errorf(CodeInvalidArgument, "decode query: %v", err)
	}
	return check(q.Value)
}

func (j *JSON[T]) bind(r *http.Request) error {
	if r.Body == nil {
		return Errorf(CodeInvalidArgument, "request body is empty")
	}
	if err := json.NewDecoder(r.Body).Decode(&j.Value); err != nil {
		if errors.Is(err, io.EOF) {
			return Errorf(CodeInvalidArgument, "request body is empty")
		}
		return Errorf(CodeInvalidArgument, "decode body: %v", err)
	}
	return check(j.Value)
}

func (f *Form[T]) bind(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return Errorf(CodeInvalidArgument, "parse form: %v", err)
	}
	if err := decodeStruct(formDecoder, &f.Value, r.Form); err != nil {
		return Errorf(CodeInvalidArgument, "decode form: %v", err)
	}
	return check(f.Value)
}

func (h *Header[T]) bind(r *http.Request) error {
	if err := decodeStruct(headerDecoder, &h.Value, r.Header); err != nil {
		return Errorf(CodeInvalidArgument, "decode header: %v", err)
	}
	return check(h.Value)
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// decodeStruct decodes src into *dst. When T is itself a pointer, the
// struct it points to is allocated first.
func decodeStruct[T any](d *schema.Decoder, dst *T, src map[string][]string) error {
	rv := reflect.ValueOf(dst).Elem()
	if !isStruct(rv.Type()) {
		return errors.New(rv.Type().String() + " is not a struct")
	}
	if rv.Kind() == reflect.Pointer {
		rv.Set(reflect.New(rv.Type().Elem()))
		return d.Decode(rv.Interface(), src)
	}
	return d.Decode(dst, src)
}

// check validates structs and pointers to structs. Other values pass.
func check(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(v)
}

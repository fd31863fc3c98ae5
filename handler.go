// Package nano is the runtime of generated route tables: it binds request
// data to handler parameters and writes the response envelope.
package nano

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nano")

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	binderType  = reflect.TypeFor[binder]()
)

type handlerConfig struct {
	transformer  ErrorTransformer
	maskInternal bool
}

// Option configures Handle.
type Option func(*handlerConfig)

// WithErrorTransformer maps handler errors before the default mapping.
func WithErrorTransformer(t ErrorTransformer) Option {
	return func(c *handlerConfig) { c.transformer = t }
}

// MaskInternalErrors replaces the message of internal errors.
func MaskInternalErrors() Option {
	return func(c *handlerConfig) { c.maskInternal = true }
}

type handler struct {
	fn        reflect.Value
	withCtx   bool
	params    []reflect.Type
	hasResult bool
	cfg       handlerConfig
}

// Handle adapts fn to an http.HandlerFunc. fn has the shape
//
//	func([ctx context.Context,] params...) (R, error)
//
// or returns only an error. Every parameter is one of State, Path, Query,
// JSON, Form or Header. Handle panics when fn has any other shape.
func Handle(fn any, opts ...Option) http.HandlerFunc {
	h, err := newHandler(fn)
	if err != nil {
		panic(fmt.Sprintf("nano.Handle: %v", err))
	}
	for _, o := range opts {
		o(&h.cfg)
	}
	return h.serve
}

func newHandler(fn any) (*handler, error) {
	if fn == nil {
		return nil, errors.New("nil handler")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler is a %s, not a function", t)
	}
	if t.IsVariadic() {
		return nil, errors.New("handler must not be variadic")
	}

	h := &handler{fn: v}
	for i := 0; i < t.NumIn(); i++ {
		in := t.In(i)
		if i == 0 && in == contextType {
			h.withCtx = true
			continue
		}
		if !reflect.PointerTo(in).Implements(binderType) {
			return nil, fmt.Errorf("parameter %d has type %s; want context.Context first or a nano parameter type", i, in)
		}
		h.params = append(h.params, in)
	}

	switch {
	case t.NumOut() == 1 && t.Out(0) == errorType:
	case t.NumOut() == 2 && t.Out(1) == errorType:
		h.hasResult = true
	default:
		return nil, errors.New("handler must return (R, error) or error")
	}
	return h, nil
}

func (h *handler) serve(w http.ResponseWriter, r *http.Request) {
	ctx := newContext(r.Context(), w, r)
	r = r.WithContext(ctx)

	args := make([]reflect.Value, 0, len(h.params)+1)
	if h.withCtx {
		args = append(args, reflect.ValueOf(ctx))
	}
	for _, p := range h.params {
		ptr := reflect.New(p)
		if err := ptr.Interface().(binder).bind(r); err != nil {
			h.fail(w, err)
			return
		}
		args = append(args, ptr.Elem())
	}

	out := h.fn.Call(args)
	if err, _ := out[len(out)-1].Interface().(error); err != nil {
		h.fail(w, err)
		return
	}
	var data any
	if h.hasResult {
		data = out[0].Interface()
	}
	writeData(w, data)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	var e *Error
	if h.cfg.transformer != nil {
		e = h.cfg.transformer(err)
	}
	if e == nil {
		e = DefaultErrorTransformer(err)
	}
	if e.Code == CodeInternal {
		log.Warnw("handler failed", "error", err)
		if h.cfg.maskInternal {
			e = &Error{Code: e.Code, Message: "internal server error"}
		}
	}
	writeError(w, e)
}

package nano

import (
	"context"
	"net/http"
)

type contextKey struct {
	name string
}

var (
	requestKey = &contextKey{"request"}
	writerKey  = &contextKey{"writer"}
)

// stateKey is distinct for every state type.
type stateKey[T any] struct{}

// WithState returns middleware that makes v available to State[T] handler
// parameters.
func WithState[T any](v T) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), stateKey[T]{}, v)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StateFromContext returns the state of type T stored by WithState.
func StateFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(stateKey[T]{}).(T)
	return v, ok
}

// RequestFromContext returns the HTTP request inside a handler.
func RequestFromContext(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(requestKey).(*http.Request); ok {
		return r
	}
	return nil
}

// SetHeader sets a response header from inside a handler.
func SetHeader(ctx context.Context, key, value string) {
	if w, ok := ctx.Value(writerKey).(http.ResponseWriter); ok {
		w.Header().Set(key, value)
	}
}

func newContext(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	ctx = context.WithValue(ctx, writerKey, w)
	return context.WithValue(ctx, requestKey, r)
}

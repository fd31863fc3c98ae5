package nano

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type restConfig struct{ Tel string }

func TestWithState(t *testing.T) {
	var got restConfig
	var found bool
	mw := WithState(restConfig{Tel: "555"})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = StateFromContext[restConfig](r.Context())
		_, other := StateFromContext[*restConfig](r.Context())
		if other {
			t.Error("state is keyed by its exact type")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !found || got.Tel != "555" {
		t.Errorf("expected state, got %+v found=%v", got, found)
	}
}

func TestContextHelpers(t *testing.T) {
	if RequestFromContext(context.Background()) != nil {
		t.Error("expected nil request")
	}
	SetHeader(context.Background(), "X-Test", "ignored")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := newContext(r.Context(), w, r)
	if RequestFromContext(ctx) != r {
		t.Error("expected the request")
	}
	SetHeader(ctx, "X-Test", "1")
	if w.Header().Get("X-Test") != "1" {
		t.Error("expected header to be set")
	}
}

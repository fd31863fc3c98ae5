package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nano/http")

// Trace logs the method, path, client address, status and duration of
// every request.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		kv := []any{
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"ip", r.RemoteAddr,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			log.Warnw("request failed", kv...)
			return
		}
		log.Infow("request", kv...)
	})
}

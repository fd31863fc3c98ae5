// Package middleware holds chi middleware that can be named as layers in
// //nano: directives.
//
//	//nano:get path="/pets" layers=["middleware.Trace","middleware.CORS#{middleware.CORSConfig}"]
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// CORSConfig configures CORS. Empty fields take the defaults noted.
type CORSConfig struct {
	// Default: ["*"].
	AllowOrigins []string
	// Default: GET, POST, PUT, DELETE, PATCH, OPTIONS.
	AllowMethods []string
	// Default: Content-Type, Authorization.
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds. Zero omits it.
	MaxAge int
}

// CORS answers preflight requests and sets the CORS headers on every
// response from an allowed origin.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origins := lo.Ternary(len(cfg.AllowOrigins) > 0, cfg.AllowOrigins, []string{"*"})
	methods := lo.Ternary(len(cfg.AllowMethods) > 0, cfg.AllowMethods,
		[]string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"})
	headers := lo.Ternary(len(cfg.AllowHeaders) > 0, cfg.AllowHeaders, []string{"Content-Type", "Authorization"})
	wildcard := lo.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			switch {
			case wildcard && (origin == "" || !cfg.AllowCredentials):
				// "*" cannot be combined with credentials.
				h.Set("Access-Control-Allow-Origin", "*")
			case wildcard || (origin != "" && lo.Contains(origins, origin)):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			default:
				origin = ""
			}
			if origin != "" && cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if len(cfg.ExposeHeaders) > 0 {
				h.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposeHeaders, ", "))
			}

			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin reads of public fragments.
type CORSConfig struct {
	// AllowedOrigins lists exact origins such as "https://shop.example.com".
	// "*" allows any origin. Empty sends no CORS headers at all.
	AllowedOrigins []string

	// MaxAge is how long, in seconds, preflight results may be cached.
	// Defaults to 3600 if 0.
	MaxAge int
}

// CORS returns middleware that lets the configured origins fetch GET
// responses. Credentials are never allowed, so session cookies stay
// first-party.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	allowWildcard := false
	originSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowWildcard = true
		}
		if o != "" {
			originSet[o] = struct{}{}
		}
	}
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		if len(originSet) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if allowWildcard {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if origin != "" {
				w.Header().Add("Vary", "Origin")
				if _, ok := originSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, X-Correlation-ID")
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

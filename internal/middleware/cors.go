package middleware

import (
	"net/http"
	"slices"
	"strings"
)

var (
	corsAllowHeaders  = strings.Join([]string{"Content-Type", "X-Locale", "X-Gemini-Key", "X-Request-ID"}, ", ")
	corsExposeHeaders = strings.Join([]string{"X-Request-ID", "X-Seed", "X-Font-Source", "Content-Disposition", "Retry-After"}, ", ")
)

// CORS lets browser front-ends on allowedOrigins call the API with the
// session cookie. "*" echoes any origin back. An empty list sends nothing.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")
	allowed := func(origin string) bool {
		return origin != "" && (wildcard || slices.Contains(allowedOrigins, origin))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !allowed(origin) {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

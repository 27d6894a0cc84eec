package middleware

import (
	"context"
	"net/http"
	"strings"
)

type apiKeyKey struct{}

// APIKey lifts a user supplied Gemini key from the X-Gemini-Key header (or a
// bearer token) into the request context. The key is never logged.
func APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get("X-Gemini-Key"))
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
		}
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), apiKeyKey{}, key)))
	})
}

// APIKeyFromContext returns the key set by APIKey, or "".
func APIKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyKey{}).(string); ok {
		return v
	}
	return ""
}

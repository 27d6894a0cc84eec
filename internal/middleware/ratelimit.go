package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// windowLimiter counts hits per key in fixed windows.
type windowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window
	swept   time.Time
	now     func() time.Time
}

type window struct {
	hits  int
	reset time.Time
}

func newWindowLimiter(limit int, per time.Duration) *windowLimiter {
	return &windowLimiter{
		limit:   limit,
		window:  per,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// allow records a hit for key. When the window is full it reports false and
// how long until it resets.
func (l *windowLimiter) allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.window {
		for k, w := range l.windows {
			if !now.Before(w.reset) {
				delete(l.windows, k)
			}
		}
		l.swept = now
	}

	w := l.windows[key]
	if w == nil || !now.Before(w.reset) {
		w = &window{reset: now.Add(l.window)}
		l.windows[key] = w
	}
	if w.hits >= l.limit {
		return false, w.reset.Sub(now)
	}
	w.hits++
	return true, 0
}

// RateLimit allows limit generation requests per client IP each window.
// A non-positive limit disables it.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newWindowLimiter(limit, per)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.allow(ClientIP(r))
			if !ok {
				secs := int(wait/time.Second) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
					"code":        "rate_limited",
					"message":     "too many generation requests",
					"retry_after": secs,
				}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

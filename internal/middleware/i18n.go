package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

// LocaleKey stores the negotiated interface locale ("en" or "my").
var LocaleKey = localeContextKey{}

// Supported interface locales, in matcher preference order.
var supportedLocales = []language.Tag{language.English, language.Burmese}

var localeMatcher = language.NewMatcher(supportedLocales)

// LocaleLookup maps a client IP onto a locale, returning "" when unknown.
type LocaleLookup func(ip string) string

// I18N negotiates the response locale from X-Locale, Accept-Language, then
// the client's country, then defaultLocale.
func I18N(defaultLocale string, lookup LocaleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, defaultLocale, lookup)
			w.Header().Set("Content-Language", locale)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, lookup LocaleLookup) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		if locale := matchLocale(v); locale != "" {
			return locale
		}
	}
	if v := strings.TrimSpace(r.Header.Get("Accept-Language")); v != "" {
		if locale := matchLocale(v); locale != "" {
			return locale
		}
	}
	if lookup != nil {
		if locale := lookup(ClientIP(r)); locale != "" {
			return locale
		}
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// matchLocale returns "en" or "my" when the header value confidently matches
// one of them, or "" otherwise.
func matchLocale(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the negotiated locale, defaulting to English.
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

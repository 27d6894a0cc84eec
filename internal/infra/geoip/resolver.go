package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned by a resolver that has no database.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// CountryResolver resolves ISO country codes from IP addresses.
type CountryResolver interface {
	CountryCode(ip string) (string, error)
}

// countryLocales maps ISO country codes onto interface locales other than
// English.
var countryLocales = map[string]string{
	"MM": "my",
}

// maxCached bounds the lookup cache; it is cleared when full.
const maxCached = 4096

// Resolver looks countries up in a MaxMind GeoIP2 or GeoLite2 database and
// remembers recent answers.
type Resolver struct {
	reader *geoip2.Reader

	mu    sync.Mutex
	cache map[netip.Addr]string
}

// NewResolver opens the database at path. An empty path yields a nil
// resolver and no error; a nil resolver answers ErrUnavailable.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader, cache: make(map[netip.Addr]string)}, nil
}

func parseAddr(ip string) (netip.Addr, error) {
	ip = strings.TrimSpace(ip)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	return addr.Unmap(), nil
}

// CountryCode returns the ISO country code for ip, which may carry a port.
// Private and loopback addresses resolve to "" without a lookup.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	addr, err := parseAddr(ip)
	if err != nil {
		return "", err
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() {
		return "", nil
	}

	r.mu.Lock()
	code, ok := r.cache[addr]
	r.mu.Unlock()
	if ok {
		return code, nil
	}

	record, err := r.reader.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record != nil {
		code = record.Country.IsoCode
	}

	r.mu.Lock()
	if len(r.cache) >= maxCached {
		clear(r.cache)
	}
	r.cache[addr] = code
	r.mu.Unlock()
	return code, nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// LocaleFor returns the interface locale for the client address, or "" when
// the country is unknown or has no dedicated locale.
func LocaleFor(resolver CountryResolver, ip string) string {
	if resolver == nil {
		return ""
	}
	code, err := resolver.CountryCode(ip)
	if err != nil || code == "" {
		return ""
	}
	return countryLocales[strings.ToUpper(code)]
}

package requestinfo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Locator wraps a MaxMind GeoLite2 reader.  A nil *Locator is valid and
// never resolves anything, so geolocation stays optional.
type Locator struct {
	r *geoip2.Reader
}

// OpenLocator opens a GeoLite2-Country or GeoLite2-City database.
func OpenLocator(path string) (*Locator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("requestinfo: open GeoLite2 DB: %w", err)
	}
	return &Locator{r: r}, nil
}

// Country returns the ISO code for ip, or "" when unknown.
func (l *Locator) Country(ip net.IP) string {
	if l == nil || l.r == nil || ip == nil {
		return ""
	}
	rec, err := l.r.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil || l.r == nil {
		return nil
	}
	return l.r.Close()
}

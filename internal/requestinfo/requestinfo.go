//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + country, Accept-Language, and timestamp).
//  These structs are inert.  They contain no pointers to database handles
//  or large buffers, so they are safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing, see ua.go)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, see geo.go)
//

package requestinfo

import (
	"context"
	"net"
	"time"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// Geo holds IP-based geolocation hints.  These are best-effort and may be
// empty if no database is loaded or it has no match.
type Geo struct {
	IP         net.IP // Client address (left-most X-Forwarded-For entry)
	CountryISO string // "US", "BR", "FR", ...
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA             UA
	Geo            Geo
	AcceptLanguage string // First tag from Accept-Language ("pt-br", "en", ...)
	Timestamp      time.Time
}

// Source is the subset copied onto a stored lead.  Empty values are omitted.
type Source struct {
	IPCountry      string `json:"ipCountry,omitempty"`
	Browser        string `json:"browser,omitempty"`
	Device         string `json:"device,omitempty"`
	OS             string `json:"os,omitempty"`
	AcceptLanguage string `json:"acceptLanguage,omitempty"`
}

// Source projects ri onto lead metadata.  A nil receiver yields the zero
// Source.
func (ri *RequestInfo) Source() Source {
	if ri == nil {
		return Source{}
	}
	return Source{
		IPCountry:      ri.Geo.CountryISO,
		Browser:        ri.UA.Browser,
		Device:         ri.UA.Device,
		OS:             ri.UA.OS,
		AcceptLanguage: ri.AcceptLanguage,
	}
}

// Map returns the non-empty fields keyed by their JSON names.
func (s Source) Map() map[string]any {
	out := make(map[string]any, 5)
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("ipCountry", s.IPCountry)
	put("browser", s.Browser)
	put("device", s.Device)
	put("os", s.OS)
	put("acceptLanguage", s.AcceptLanguage)
	return out
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//
//  The Enrich middleware stores *RequestInfo inside the request context so
//  any code holding only a context can retrieve the struct.
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.  It returns
// nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// NewContext returns ctx carrying ri.
func NewContext(ctx context.Context, ri *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, ri)
}

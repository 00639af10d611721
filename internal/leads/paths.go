package leads

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/locale"
)

// Collection names.
const (
	CollectionLeads     = "leads"
	CollectionCountries = "countries"
	UnknownCountryID    = "unknown"
)

// Paths are the five fan-out document paths of one lead.
type Paths struct {
	Primary      string // leads/{email}
	Niche        string // {nicheId}/{email}
	Country      string // countries/{countryId}
	CountryLeads string // countries/{countryId}/leads/{email}
	CountryNiche string // countries/{countryId}/{nicheId}/{email}
}

// PathsFor derives the fan-out paths of l.
func PathsFor(l *Lead) Paths {
	e := EmailSegment(l.Email)
	c := l.CountryID
	if c == "" {
		c = NormalizeCountryID(l.Country)
	}
	return Paths{
		Primary:      docstore.Join(CollectionLeads, e),
		Niche:        docstore.Join(l.NicheID, e),
		Country:      docstore.Join(CollectionCountries, c),
		CountryLeads: docstore.Join(CollectionCountries, c, CollectionLeads, e),
		CountryNiche: docstore.Join(CollectionCountries, c, l.NicheID, e),
	}
}

// All returns the paths in write order.
func (p Paths) All() []string {
	return []string{p.Primary, p.Niche, p.Country, p.CountryLeads, p.CountryNiche}
}

// EmailSegment escapes an email for use as one path segment.
func EmailSegment(email string) string {
	return url.PathEscape(email)
}

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeCountryID turns a country display name into a path segment:
// diacritics stripped, lowercased, runs of other characters collapsed to
// "-", and trimmed.  Empty results become "unknown".  The function is
// idempotent.
func NormalizeCountryID(name string) string {
	id := strings.Trim(nonAlnum.ReplaceAllString(locale.Fold(name), "-"), "-")
	if id == "" {
		return UnknownCountryID
	}
	return id
}

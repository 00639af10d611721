// internal/leads/model.go
//
// Lead record, niches, and document encoding.
//
// Context
//   A Lead is created exactly once by the fan-out writer and never mutated
//   by this service.  The same field map is stored at every fan-out path, so
//   any index document can be read back as a full Lead.
//
//------------------------------------------------------------------------------

package leads

import (
	"strings"
	"time"

	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/requestinfo"
)

// StatusNew is the only status this service assigns.
const StatusNew = "new"

// -----------------------------------------------------------------------------
// Niches
// -----------------------------------------------------------------------------

// Niche is one entry of the closed niche set.
type Niche struct {
	Label string // display label, as stored on the lead
	ID    string // path segment
	Agent string // agent origin implied by the niche
}

// Niches is the closed set, in display order.
var Niches = []Niche{
	{Label: "Health", ID: "health", Agent: "Health Sales Agent"},
	{Label: "Wealth", ID: "wealth", Agent: "Wealth Sales Agent"},
	{Label: "Relationships", ID: "relationships", Agent: "Love Sales Agent"},
}

// LookupNiche matches a label or ID ignoring case.
func LookupNiche(s string) (Niche, bool) {
	s = strings.TrimSpace(s)
	for _, n := range Niches {
		if strings.EqualFold(n.Label, s) || strings.EqualFold(n.ID, s) {
			return n, true
		}
	}
	return Niche{}, false
}

// -----------------------------------------------------------------------------
// Lead
// -----------------------------------------------------------------------------

// Lead is one registered prospect.
type Lead struct {
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Niche        string             `json:"niche"`
	NicheID      string             `json:"nicheId"`
	Language     string             `json:"language"`
	LanguageCode string             `json:"languageCode"`
	Country      string             `json:"country"`
	CountryCode  string             `json:"countryCode"`
	CountryID    string             `json:"countryId"`
	AgentOrigin  string             `json:"agentOrigin"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	Source       requestinfo.Source `json:"source"`
}

// data encodes l for storage.  CreatedAt is always the server timestamp.
func (l *Lead) data() docstore.Data {
	d := docstore.Data{
		"name":         l.Name,
		"email":        l.Email,
		"niche":        l.Niche,
		"nicheId":      l.NicheID,
		"language":     l.Language,
		"languageCode": l.LanguageCode,
		"country":      l.Country,
		"countryCode":  l.CountryCode,
		"countryId":    l.CountryID,
		"agentOrigin":  l.AgentOrigin,
		"status":       l.Status,
		"createdAt":    docstore.ServerTime,
	}
	if src := l.Source.Map(); len(src) > 0 {
		d["source"] = src
	}
	return d
}

// leadFromSnapshot decodes a stored document.  Unknown or mistyped fields
// are left empty; legacy records written by older clients still decode.
func leadFromSnapshot(s docstore.Snapshot) Lead {
	d := s.Data
	l := Lead{
		Name:         str(d, "name"),
		Email:        str(d, "email"),
		Niche:        str(d, "niche"),
		NicheID:      str(d, "nicheId"),
		Language:     str(d, "language"),
		LanguageCode: str(d, "languageCode"),
		Country:      str(d, "country"),
		CountryCode:  str(d, "countryCode"),
		CountryID:    str(d, "countryId"),
		AgentOrigin:  str(d, "agentOrigin"),
		Status:       str(d, "status"),
		CreatedAt:    timestamp(d["createdAt"]),
	}
	if l.Email == "" {
		l.Email = s.ID()
	}
	if src, ok := d["source"].(map[string]any); ok {
		l.Source = requestinfo.Source{
			IPCountry:      str(src, "ipCountry"),
			Browser:        str(src, "browser"),
			Device:         str(src, "device"),
			OS:             str(src, "os"),
			AcceptLanguage: str(src, "acceptLanguage"),
		}
	}
	return l
}

func str(m map[string]any, k string) string {
	s, _ := m[k].(string)
	return s
}

// timestamp accepts native times (memory, Firestore) and RFC 3339 strings
// (DynamoDB, MySQL JSON).
func timestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

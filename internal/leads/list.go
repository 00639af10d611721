package leads

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/yanizio/leadflow/internal/docstore"
)

// FilterAll disables a filter dimension, as does an empty value.
const FilterAll = "All"

// Filter selects leads for the dashboard.
type Filter struct {
	Niche    string `json:"niche,omitempty"`    // label or id, exact
	Language string `json:"language,omitempty"` // case-insensitive
	Country  string `json:"country,omitempty"`  // display name or code, exact
}

// ParseFilter reads niche, language, and country from a query string.
func ParseFilter(q url.Values) Filter {
	return Filter{
		Niche:    filterValue(q.Get("niche")),
		Language: filterValue(q.Get("language")),
		Country:  filterValue(q.Get("country")),
	}
}

func filterValue(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, FilterAll) {
		return ""
	}
	return s
}

// Match reports whether l passes every set dimension of f.
func (f Filter) Match(l Lead) bool {
	if f.Niche != "" && f.Niche != l.Niche && f.Niche != l.NicheID {
		return false
	}
	if f.Language != "" && !strings.EqualFold(f.Language, l.Language) {
		return false
	}
	if f.Country != "" && f.Country != l.Country && f.Country != l.CountryCode {
		return false
	}
	return true
}

// List returns stored leads passing f, newest first.  Leads with the same
// timestamp are ordered by email.
func List(ctx context.Context, s docstore.Store, f Filter) ([]Lead, error) {
	snaps, err := s.List(ctx, CollectionLeads)
	if err != nil {
		return nil, fmt.Errorf("leads: list: %w", err)
	}

	out := make([]Lead, 0, len(snaps))
	for _, snap := range snaps {
		if l := leadFromSnapshot(snap); f.Match(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

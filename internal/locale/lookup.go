// internal/locale/lookup.go
//
// External country-by-language lookup against a REST Countries style API
// (GET {base}/lang/{language}).
//
// Concurrent requests for the same language share one HTTP round trip via
// singleflight.  Results are not cached; the next submission asks again.
// Every failure (transport, non-200, empty body, decode) is reported to the
// caller as “no match” and counted in metrics.

package locale

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/leadflow/internal/metrics"
)

// DefaultLookupBase is the public REST Countries v3.1 endpoint.
const DefaultLookupBase = "https://restcountries.com/v3.1"

// RESTCountries implements CountryLookup.
type RESTCountries struct {
	base   string
	client *http.Client
	group  singleflight.Group
	log    *zap.SugaredLogger
}

// NewRESTCountries returns a lookup client.  An empty base selects
// DefaultLookupBase; a zero timeout selects 3 s.
func NewRESTCountries(base string, timeout time.Duration, log *zap.SugaredLogger) *RESTCountries {
	if base == "" {
		base = DefaultLookupBase
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.S()
	}
	return &RESTCountries{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type countryRecord struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2      string            `json:"cca2"`
	Languages map[string]string `json:"languages"`
}

// LookupCountry satisfies CountryLookup.
func (c *RESTCountries) LookupCountry(ctx context.Context, language string) (Detail, bool) {
	key := Fold(language)
	if key == "" {
		return Detail{}, false
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		metrics.LocaleLookupErrorsTotal.Inc()
		c.log.Warnw("country lookup failed", "language", key, "err", err)
		return Detail{}, false
	}
	c.log.Debugw("country lookup", "language", key, "shared", shared)
	return v.(Detail), true
}

func (c *RESTCountries) fetch(ctx context.Context, key string) (Detail, error) {
	u := fmt.Sprintf("%s/lang/%s?fields=name,cca2,languages", c.base, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Detail{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Detail{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Detail{}, fmt.Errorf("lookup %q: status %d", key, resp.StatusCode)
	}

	var recs []countryRecord
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return Detail{}, fmt.Errorf("lookup %q: decode: %w", key, err)
	}
	if len(recs) == 0 || recs[0].CCA2 == "" || recs[0].Name.Common == "" {
		return Detail{}, fmt.Errorf("lookup %q: empty result", key)
	}

	first := recs[0]
	return Detail{
		LanguageCode: languageCode(key, first.Languages),
		CountryCode:  strings.ToUpper(first.CCA2),
		CountryName:  first.Name.Common,
	}, nil
}

// languageCode prefers the query itself when it already looks like a code,
// then the response key whose display name matches, then the smallest key.
func languageCode(key string, langs map[string]string) string {
	if len(key) == 2 || len(key) == 3 {
		return key
	}
	codes := make([]string, 0, len(langs))
	for code, name := range langs {
		if Fold(name) == key {
			return strings.ToLower(code)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return key
	}
	sort.Strings(codes)
	return strings.ToLower(codes[0])
}

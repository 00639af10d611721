// internal/locale/resolver.go
//
// Free-text language → (languageCode, countryCode, countryName).
//
// Context
//   Agents type the prospect’s language by hand, so input is noisy:
//   “Portuguese”, “portugues”, “PT”, “us-english”.  Resolution must never
//   block a submission, so Resolve always returns a Detail and never an
//   error.
//
// Workflow
//   1. Fold the input: trim, lowercase, strip diacritics, collapse spaces.
//   2. Exact match against the folded table keys.
//   3. Partial match: first entry, in table order, where either string
//      contains the other.
//   4. Optional external lookup (CountryLookup).  Failures mean “no match”.
//   5. Default (en / US / United States).
//
// Notes
//   •  The Resolver is immutable after New and safe for concurrent use.
//   •  Nothing is cached; every submission recomputes its Detail.
//
//------------------------------------------------------------------------------

package locale

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/yanizio/leadflow/internal/metrics"
)

// Detail is the resolved locale triple.
type Detail struct {
	LanguageCode string `json:"languageCode"`
	CountryCode  string `json:"countryCode"`
	CountryName  string `json:"countryName"`
}

// Entry is one (key, result) pair of the synonym table.
type Entry struct {
	Key    string
	Detail Detail
}

// Step records which pass produced a Detail.
type Step string

const (
	StepExact    Step = "exact"
	StepPartial  Step = "partial"
	StepExternal Step = "external"
	StepDefault  Step = "default"
)

// Result is a Detail plus the step that produced it.
type Result struct {
	Detail
	Step Step
}

// CountryLookup queries an external country-by-language service.  The bool
// is false on no match or on any failure.
type CountryLookup interface {
	LookupCountry(ctx context.Context, language string) (Detail, bool)
}

// Resolver holds an indexed copy of a synonym table.
type Resolver struct {
	entries   []Entry
	exact     map[string]Detail
	countries map[string]Detail
	lookup    CountryLookup
	log       *zap.SugaredLogger
}

// Option customises New.
type Option func(*Resolver)

// WithLookup enables step 4.
func WithLookup(l CountryLookup) Option { return func(r *Resolver) { r.lookup = l } }

// WithTable replaces DefaultTable.
func WithTable(t []Entry) Option { return func(r *Resolver) { r.entries = t } }

// WithLogger sets the logger used for debug spans.
func WithLogger(l *zap.SugaredLogger) Option { return func(r *Resolver) { r.log = l } }

// New indexes the table.  The first occurrence of a folded key wins, which
// keeps exact matches consistent with the partial pass.
func New(opts ...Option) *Resolver {
	r := &Resolver{entries: DefaultTable}
	for _, o := range opts {
		o(r)
	}
	if r.log == nil {
		r.log = zap.S()
	}

	folded := make([]Entry, 0, len(r.entries))
	r.exact = make(map[string]Detail, len(r.entries))
	r.countries = make(map[string]Detail)
	for _, e := range r.entries {
		k := Fold(e.Key)
		if k == "" {
			continue
		}
		folded = append(folded, Entry{Key: k, Detail: e.Detail})
		if _, dup := r.exact[k]; !dup {
			r.exact[k] = e.Detail
		}
		addCountry(r.countries, Fold(e.Detail.CountryName), e.Detail)
		addCountry(r.countries, strings.ToLower(e.Detail.CountryCode), e.Detail)
	}
	for k, d := range countryAliases {
		addCountry(r.countries, Fold(k), d)
	}
	r.entries = folded
	return r
}

func addCountry(m map[string]Detail, key string, d Detail) {
	if key == "" {
		return
	}
	if _, dup := m[key]; !dup {
		m[key] = d
	}
}

// Resolve maps a free-text language to a Detail.  It never fails.
func (r *Resolver) Resolve(ctx context.Context, input string) Result {
	res := r.resolve(ctx, input)
	metrics.LocaleResolutions.WithLabelValues(string(res.Step)).Inc()
	r.log.Debugw("locale resolved",
		"input", input,
		"step", res.Step,
		"language", res.LanguageCode,
		"country", res.CountryCode,
	)
	return res
}

func (r *Resolver) resolve(ctx context.Context, input string) Result {
	key := Fold(input)
	if key == "" {
		return Result{Detail: Default, Step: StepDefault}
	}

	if d, ok := r.exact[key]; ok {
		return Result{Detail: d, Step: StepExact}
	}

	for _, e := range r.entries {
		if strings.Contains(key, e.Key) || strings.Contains(e.Key, key) {
			return Result{Detail: e.Detail, Step: StepPartial}
		}
	}

	if r.lookup != nil {
		if d, ok := r.lookup.LookupCountry(ctx, key); ok {
			return Result{Detail: d, Step: StepExternal}
		}
	}

	return Result{Detail: Default, Step: StepDefault}
}

// Country matches a submitted country name, alias, or ISO code.  The bool
// is false when the input is unknown; callers keep the raw text then.
func (r *Resolver) Country(input string) (Detail, bool) {
	d, ok := r.countries[Fold(input)]
	return d, ok
}

// Resolve runs the default table without an external lookup.
func Resolve(input string) Detail {
	return defaultResolver.resolve(context.Background(), input).Detail
}

var defaultResolver = New(WithLogger(zap.NewNop().Sugar()))

// -----------------------------------------------------------------------------
// Folding
// -----------------------------------------------------------------------------

// Fold trims, lowercases, strips combining marks, and collapses runs of
// whitespace to one space.  Fold(Fold(s)) == Fold(s).
func Fold(s string) string {
	// transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// internal/leads/service.go
//
// Lead Registration Handler.
//
// Context
//   Registrar is the single entry point for a submission.  It owns no
//   global state: the store, resolver, and feed are constructed by the
//   caller and injected through Options.
//
// Workflow
//   1. Validate the posted field map against the intake form definition.
//      Every field error is collected; nothing touches the store on failure.
//   2. Build the Lead: canonical niche, agent origin derived from the niche
//      when not supplied, language resolved through the locale Resolver,
//      country taken from the submission when recognised.
//   3. Duplicate pre-check (Exists), then the fan-out Writer.  The primary
//      create-if-absent still rejects a racing duplicate.
//   4. Publish the stored lead to the live feed.  Feed errors are logged
//      only.
//   5. Map the result through Report.  Panics are recovered and reported as
//      internal errors so the caller always receives an Outcome.
//
// Instrumentation
//   Each attempt increments leadflow_submissions_total{outcome}.  Store
//   errors are logged with the request-scoped logger; the raw error never
//   leaves this package.
//
//------------------------------------------------------------------------------

package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/feed"
	"github.com/yanizio/leadflow/internal/form"
	"github.com/yanizio/leadflow/internal/locale"
	"github.com/yanizio/leadflow/internal/logger"
	"github.com/yanizio/leadflow/internal/metrics"
	"github.com/yanizio/leadflow/internal/requestinfo"
)

// FormID is the registered intake form.
const FormID = "leads/intake"

// OtherLanguage is the language sentinel that makes otherLanguage required.
const OtherLanguage = "other"

// Options configures a Registrar.  Store is required.
type Options struct {
	Store    docstore.Store
	Resolver *locale.Resolver // nil uses the static table only
	Feed     feed.Feed        // nil disables publishing
	Form     *form.FormDef    // nil uses the registered FormID
}

// Registrar validates, enriches, and stores leads.
type Registrar struct {
	store    docstore.Store
	writer   *Writer
	resolver *locale.Resolver
	feed     feed.Feed
	form     *form.FormDef
	now      func() time.Time
}

// NewRegistrar wires a Registrar from o.
func NewRegistrar(o Options) (*Registrar, error) {
	if o.Store == nil {
		return nil, errors.New("leads: store is required")
	}
	fd := o.Form
	if fd == nil {
		var ok bool
		if fd, ok = form.GetFormDef(FormID); !ok {
			return nil, fmt.Errorf("leads: form %q is not registered", FormID)
		}
	}
	res := o.Resolver
	if res == nil {
		res = locale.New()
	}
	return &Registrar{
		store:    o.Store,
		writer:   NewWriter(o.Store),
		resolver: res,
		feed:     o.Feed,
		form:     fd,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Form returns the form definition submissions are validated against.
func (r *Registrar) Form() *form.FormDef { return r.form }

// Submit validates posted and registers the lead.
func (r *Registrar) Submit(ctx context.Context, posted url.Values) Outcome {
	return r.run(ctx, func() error {
		clean, errs := r.form.Validate(posted)
		if len(errs) > 0 {
			return &form.ValidationError{Fields: errs}
		}
		_, err := r.register(ctx, clean)
		return err
	})
}

// Register stores an already validated field map.
func (r *Registrar) Register(ctx context.Context, clean map[string]string) Outcome {
	return r.run(ctx, func() error {
		_, err := r.register(ctx, clean)
		return err
	})
}

// Reject reports a submission that failed before validation (unreadable
// body, guard failure).
func (r *Registrar) Reject(ctx context.Context, err error) Outcome {
	return r.run(ctx, func() error { return err })
}

// run executes fn and turns its result, or a panic, into an Outcome.
func (r *Registrar) run(ctx context.Context, fn func() error) (o Outcome) {
	log := logger.FromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			log.Errorw("lead registration panicked", "panic", p, "stack", string(debug.Stack()))
			o = Report(fmt.Errorf("leads: panic: %v", p))
		}
		metrics.SubmissionsTotal.WithLabelValues(o.Kind()).Inc()
	}()

	err := fn()
	o = Report(err)

	switch o.Kind() {
	case KindSuccess, KindInvalid, KindBadBody:
		log.Debugw("lead submission", "outcome", o.Kind())
	case KindDuplicate:
		log.Infow("lead submission rejected", "outcome", o.Kind(), "err", err)
	default:
		log.Errorw("lead submission failed", "outcome", o.Kind(), "err", err)
	}
	return o
}

// register runs the pipeline after validation.
func (r *Registrar) register(ctx context.Context, clean map[string]string) (*Lead, error) {
	l, err := r.build(ctx, clean)
	if err != nil {
		return nil, err
	}

	dup, err := Exists(ctx, r.store, l.Email)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, l.Email)
	}

	if err := r.writer.Write(ctx, l); err != nil {
		return nil, err
	}
	l.CreatedAt = r.now()

	r.publish(ctx, l)
	return l, nil
}

// build turns a validated field map into a Lead.
func (r *Registrar) build(ctx context.Context, clean map[string]string) (*Lead, error) {
	niche, ok := LookupNiche(clean["niche"])
	if !ok {
		return nil, &form.ValidationError{Fields: []form.ErrorField{
			{Name: "niche", Message: "Please select a niche."},
		}}
	}

	language := clean["language"]
	if strings.EqualFold(language, OtherLanguage) {
		language = clean["otherLanguage"]
	}
	loc := r.resolver.Resolve(ctx, language)

	country, countryCode := loc.CountryName, loc.CountryCode
	if c := clean["country"]; c != "" {
		if d, ok := r.resolver.Country(c); ok {
			country, countryCode = d.CountryName, d.CountryCode
		} else {
			country, countryCode = c, ""
		}
	}

	agent := clean["agentOrigin"]
	if agent == "" {
		agent = niche.Agent
	}

	l := &Lead{
		Name:         clean["name"],
		Email:        strings.ToLower(clean["email"]),
		Niche:        niche.Label,
		NicheID:      niche.ID,
		Language:     language,
		LanguageCode: loc.LanguageCode,
		Country:      country,
		CountryCode:  countryCode,
		CountryID:    NormalizeCountryID(country),
		AgentOrigin:  agent,
		Status:       StatusNew,
		Source:       requestinfo.FromContext(ctx).Source(),
	}
	return l, nil
}

// publish sends l to the live feed.  Failures never affect the outcome.
func (r *Registrar) publish(ctx context.Context, l *Lead) {
	if r.feed == nil {
		return
	}
	payload, err := json.Marshal(l)
	if err != nil {
		logger.FromContext(ctx).Warnw("lead feed encode failed", "email", l.Email, "err", err)
		return
	}
	if err := r.feed.Publish(context.WithoutCancel(ctx), payload); err != nil {
		logger.FromContext(ctx).Warnw("lead feed publish failed", "email", l.Email, "err", err)
	}
}

// internal/leads/handler.go
//
// HTTP surface of the leads component.
//
// Routes
//   GET  /                 intake page
//   POST /                 browser post, guarded by CSRF token + fill time
//   POST /api/leads        JSON or form body, no guard
//   GET  /api/leads        dashboard list with niche/language/country filters
//   GET  /api/leads/live   websocket stream of new leads (see live.go)
//
// The API answers every submission with the Outcome JSON and a status from
// Outcome.HTTPStatus.  The page re-renders with the user's input on failure
// and with an empty form after success.
//
//------------------------------------------------------------------------------

package leads

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/leadflow/internal/component"
	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/feed"
	"github.com/yanizio/leadflow/internal/form"
	"github.com/yanizio/leadflow/internal/logger"
	"github.com/yanizio/leadflow/internal/requestinfo"
	"github.com/yanizio/leadflow/internal/view"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Compile-time assertion: *Handler satisfies component.Component.
var _ component.Component = (*Handler)(nil)

// HandlerOptions wires a Handler.  Registrar and Store are required.
type HandlerOptions struct {
	Registrar *Registrar
	Store     docstore.Store
	Feed      feed.Feed   // nil disables /api/leads/live
	Guard     *form.Guard // nil generates an ephemeral key
	Root      string      // application root for template overrides
}

// Handler serves the intake page and the leads API.
type Handler struct {
	reg   *Registrar
	store docstore.Store
	feed  feed.Feed
	guard *form.Guard
	page  *view.Engine
}

// NewHandler builds the component.
func NewHandler(o HandlerOptions) *Handler {
	g := o.Guard
	if g == nil {
		g = form.NewGuard(nil, 0)
	}
	sub, _ := fs.Sub(templateFiles, "templates")
	return &Handler{
		reg:   o.Registrar,
		store: o.Store,
		feed:  o.Feed,
		guard: g,
		page:  view.New("leads", o.Root, sub),
	}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (h *Handler) Name() string { return "leads" }

// Routes registers page and API endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handlePageGET)
	r.Post("/", h.handlePagePOST)
	r.Route("/api/leads", func(api chi.Router) {
		api.Get("/", h.handleList)
		api.Post("/", h.handleCreate)
		api.Get("/live", h.handleLive)
	})
}

/*──────────────────────────── Page handlers ────────────────────────────────*/

type pageData struct {
	Title     string
	Submit    string
	Form      template.HTML
	Success   string
	FormError string
	Info      *requestinfo.RequestInfo
}

func (h *Handler) handlePageGET(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, Outcome{}, nil)
}

func (h *Handler) handlePagePOST(w http.ResponseWriter, r *http.Request) {
	clean, posted, err := form.Submit(h.reg.Form(), h.guard, w, r)

	var o Outcome
	if err != nil {
		o = h.reg.Reject(r.Context(), err)
	} else {
		o = h.reg.Register(r.Context(), clean)
	}

	if o.Success {
		h.renderPage(w, r, http.StatusOK, o, nil)
		return
	}
	h.renderPage(w, r, o.HTTPStatus(), o, posted)
}

// renderPage writes the intake page.  posted, when non-nil, pre-fills the
// fields.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, o Outcome, posted url.Values) {
	fd := h.reg.Form()
	html, err := form.Render(fd, h.guard, form.RenderOptions{
		Prefill: prefill(posted),
		Errors:  o.FieldErrors,
	})
	if err != nil {
		logger.FromContext(r.Context()).Errorw("intake form render failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:     fd.Title,
		Submit:    fd.Submit,
		Form:      html,
		FormError: o.FormError,
		Info:      requestinfo.FromContext(r.Context()),
	}
	if o.Success {
		data.Success = o.Message
	}
	if data.Title == "" {
		data.Title = "Register a new lead"
	}
	if data.Submit == "" {
		data.Submit = "Submit"
	}

	if err := h.page.Render(w, status, "intake", data); err != nil {
		logger.FromContext(r.Context()).Errorw("intake page render failed", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// prefill keeps the first posted value per field.  Guard fields are
// regenerated on every render and are skipped.
func prefill(posted url.Values) map[string]string {
	if len(posted) == 0 {
		return nil
	}
	out := make(map[string]string, len(posted))
	for k, v := range posted {
		if k == form.FieldCSRF || k == form.FieldRenderTS || len(v) == 0 {
			continue
		}
		out[k] = v[0]
	}
	return out
}

/*──────────────────────────── API handlers ─────────────────────────────────*/

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	clean, _, err := form.Submit(h.reg.Form(), nil, w, r)

	var o Outcome
	if err != nil {
		o = h.reg.Reject(r.Context(), err)
	} else {
		o = h.reg.Register(r.Context(), clean)
	}
	writeJSON(w, r, o.HTTPStatus(), o)
}

type listResponse struct {
	Leads  []Lead `json:"leads"`
	Count  int    `json:"count"`
	Filter Filter `json:"filter"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	f := ParseFilter(r.URL.Query())
	leads, err := List(r.Context(), h.store, f)
	if err != nil {
		logger.FromContext(r.Context()).Errorw("lead list failed", "err", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": MsgInternal})
		return
	}
	writeJSON(w, r, http.StatusOK, listResponse{Leads: leads, Count: len(leads), Filter: f})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Warnw("response encode failed", "err", err)
	}
}

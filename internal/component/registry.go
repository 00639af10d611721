// internal/component/registry.go
//
// Component contract and mounting.
//
// A component bundles the page and API routes of one feature.  Components
// are constructed explicitly in cmd/web with their dependencies and mounted
// on the root router; there is no init-time registration.  Each component
// gets its own chi group, so middleware it adds stays local to its routes.

package component

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Component contract.
//
// Routes() should register BOTH page and API endpoints on r, e.g:
//
//	r.Get("/", page)
//	r.Route("/api/leads", func(api chi.Router) { ... })
type Component interface {
	Name() string
	Routes(r chi.Router)
}

// Mount registers every component on r.  Names must be unique.
func Mount(r chi.Router, log *zap.SugaredLogger, comps ...Component) error {
	if log == nil {
		log = zap.S()
	}
	seen := make(map[string]bool, len(comps))
	for _, c := range comps {
		if seen[c.Name()] {
			return fmt.Errorf("component: duplicate name %q", c.Name())
		}
		seen[c.Name()] = true
		r.Group(c.Routes)
		log.Debugw("component mounted", "name", c.Name())
	}
	return nil
}

// internal/view/render.go
//
// Page renderer: template lookup, override chain, func-map injection, and a
// cache of parsed template sets.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML.
//
// Lookup precedence (first hit wins):
//   1. <root>/templates/<comp>/<name>.html   (operator override on disk)
//   2. the component's embedded templates
//
// All templates in the same directory are parsed as one set so sub-templates
// ({{ template "row" . }}) work out-of-the-box.
//
// execName() chooses the template to execute:
//   – If the set contains "<name>.html", we run that (file has no define).
//   – Else we fall back to "<name>" (root template defined via {{ define }}).
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

//
// engine
//

// Engine renders the templates of one component.  Safe for concurrent use.
type Engine struct {
	comp     string
	override string // on-disk override dir, may be empty
	embedded fs.FS  // rooted at the component's template dir
	funcs    template.FuncMap

	mu  sync.RWMutex
	set map[string]*template.Template // parsed sets keyed by name
}

// New returns an Engine for comp.  root is the application root used for
// overrides ("" disables them).
func New(comp, root string, embedded fs.FS) *Engine {
	e := &Engine{
		comp:     comp,
		embedded: embedded,
		funcs:    FuncMap(),
		set:      make(map[string]*template.Template),
	}
	if root != "" {
		e.override = filepath.Join(root, "templates", comp)
	}
	return e
}

//
// public helpers
//

// Render executes the template name and streams it to w with status.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) error {
	out, err := e.RenderToString(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write([]byte(out))
	return err
}

// RenderToString executes and returns HTML.  Rendering into a buffer first
// keeps a failed execution from sending a half-written page.
func (e *Engine) RenderToString(name string, data any) (template.HTML, error) {
	t, err := e.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", fmt.Errorf("view: %s/%s: %w", e.comp, name, err)
	}
	return template.HTML(buf.String()), nil
}

//
// internal: load
//

// load returns the parsed set for name, parsing on first use.
func (e *Engine) load(name string) (*template.Template, error) {
	e.mu.RLock()
	t, ok := e.set[name]
	e.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := e.parse(name)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.set[name] = t
	e.mu.Unlock()
	return t, nil
}

func (e *Engine) parse(name string) (*template.Template, error) {
	base := template.New(name).Funcs(e.funcs)

	if e.override != "" {
		if _, err := os.Stat(filepath.Join(e.override, name+".html")); err == nil {
			t, err := base.ParseGlob(filepath.Join(e.override, "*.html"))
			if err != nil {
				return nil, fmt.Errorf("view: parse override %s: %w", e.override, err)
			}
			return t, nil
		}
	}

	if e.embedded == nil {
		return nil, fmt.Errorf("view: %s/%s: %w", e.comp, name, fs.ErrNotExist)
	}
	if _, err := fs.Stat(e.embedded, name+".html"); err != nil {
		return nil, fmt.Errorf("view: %s/%s: %w", e.comp, name, err)
	}
	t, err := base.ParseFS(e.embedded, "*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse %s: %w", e.comp, err)
	}
	return t, nil
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

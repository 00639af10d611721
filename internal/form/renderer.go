// internal/form/renderer.go
//
// LeadFlow – Forms subsystem: HTML renderer.
//
// Context
//   Given a parsed FormDef (from definition.go) this file converts the
//   definition into safe, accessible HTML markup.  The renderer applies HTML5
//   validation attributes, injects the CSRF token and render-timestamp hidden
//   inputs, and honours pre-fill data and server-side errors so a failed post
//   re-renders with the user’s input intact.
//
// Workflow
//   •  Render writes each field via writeField in definition order.
//   •  Required, minlength, maxlength, pattern, and placeholder attributes are
//      attached where relevant.  Select options come from the YAML Options
//      slice; Suggestions become a <datalist>.
//   •  A CSRF token is generated via Guard.Token (csrf.go) and embedded as a
//      hidden <input>, next to the render timestamp in microseconds.
//   •  The caller receives template.HTML so the surrounding page template does
//      not double-escape the markup.
//
// Style
//   Output HTML is plain, with no framework classes.  Each input gets
//   id="fld-{name}" and is wrapped in <div class="form-field">.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"
)

// RenderOptions bundles optional parameters influencing HTML output.
type RenderOptions struct {
	// Prefill provides initial field values keyed by field name.
	Prefill map[string]string
	// Errors holds field messages from a failed submission.
	Errors map[string][]string
}

// Render returns the HTML markup for fd, including security inputs from g.
func Render(fd *FormDef, g *Guard, opts RenderOptions) (template.HTML, error) {
	token, err := g.Token()
	if err != nil {
		return "", fmt.Errorf("Render: csrf token: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`<div class="lf-form" data-form="` + html.EscapeString(fd.ID) + `">` + "\n")

	for i := range fd.Fields {
		f := &fd.Fields[i]
		if err := writeField(&buf, f, opts.Prefill[f.Name], opts.Errors[f.Name]); err != nil {
			return "", err
		}
	}

	// Hidden meta inputs.
	fmt.Fprintf(&buf, `<input type="hidden" name="%s" value="%s">`+"\n", FieldCSRF, token)
	fmt.Fprintf(&buf, `<input type="hidden" name="%s" value="%d">`+"\n", FieldRenderTS, g.now().UnixMicro())

	buf.WriteString(`</div>`)
	return template.HTML(buf.String()), nil
}

// RenderForm renders the registered form formID.
func RenderForm(formID string, g *Guard, opts RenderOptions) (template.HTML, error) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return "", fmt.Errorf("RenderForm: unknown form %q", formID)
	}
	return Render(fd, g, opts)
}

// writeField emits HTML for an individual field into buf, applying prefill,
// validation attributes, and error messages.
func writeField(buf *bytes.Buffer, f *FieldDef, val string, errs []string) error {
	name := html.EscapeString(f.Name)

	// Container
	class := "form-field"
	if len(errs) > 0 {
		class += " has-error"
	}
	buf.WriteString(`<div class="` + class + `">` + "\n")

	// Shared attributes
	idAttr := `id="fld-` + name + `"`
	nameAttr := `name="` + name + `"`

	// Label first (for accessibility)
	buf.WriteString(`<label for="fld-` + name + `">` + html.EscapeString(f.Label) + `</label>` + "\n")

	switch f.Type {
	case "text", "email":
		buf.WriteString(`<input ` + idAttr + ` ` + nameAttr + ` type="` + f.Type + `"`)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		writeConstraints(buf, f)
		if f.Pattern != "" {
			buf.WriteString(` pattern="` + html.EscapeString(f.Pattern) + `"`)
		}
		if len(f.Suggestions) > 0 {
			buf.WriteString(` list="lst-` + name + `"`)
		}
		if val != "" {
			buf.WriteString(` value="` + html.EscapeString(val) + `"`)
		}
		buf.WriteString(`>` + "\n")
		if len(f.Suggestions) > 0 {
			buf.WriteString(`<datalist id="lst-` + name + `">` + "\n")
			for _, s := range f.Suggestions {
				buf.WriteString(`<option value="` + html.EscapeString(s) + `">` + "\n")
			}
			buf.WriteString(`</datalist>` + "\n")
		}

	case "textarea":
		buf.WriteString(`<textarea ` + idAttr + ` ` + nameAttr)
		writeConstraints(buf, f)
		if f.Placeholder != "" {
			buf.WriteString(` placeholder="` + html.EscapeString(f.Placeholder) + `"`)
		}
		buf.WriteString(`>` + html.EscapeString(val) + `</textarea>` + "\n")

	case "select":
		buf.WriteString(`<select ` + idAttr + ` ` + nameAttr)
		if f.Required {
			buf.WriteString(` required`)
		}
		buf.WriteString(`>` + "\n")
		buf.WriteString(`<option value="">Select…</option>` + "\n")
		for _, opt := range f.Options {
			sel := ""
			if strings.EqualFold(val, opt) {
				sel = ` selected`
			}
			buf.WriteString(`<option value="` + html.EscapeString(opt) + `"` + sel + `>` + html.EscapeString(opt) + `</option>` + "\n")
		}
		buf.WriteString(`</select>` + "\n")

	default:
		return fmt.Errorf("writeField: unsupported field type %q in form field %s", f.Type, f.Name)
	}

	// Error messages from a server re-render; empty span otherwise.
	buf.WriteString(`<span class="error" aria-live="polite">`)
	buf.WriteString(html.EscapeString(strings.Join(errs, " ")))
	buf.WriteString(`</span>` + "\n")

	buf.WriteString(`</div>` + "\n")
	return nil
}

func writeConstraints(buf *bytes.Buffer, f *FieldDef) {
	if f.Required {
		buf.WriteString(` required`)
	}
	if f.MinLength > 0 {
		buf.WriteString(` minlength="` + strconv.Itoa(f.MinLength) + `"`)
	}
	if f.MaxLength > 0 {
		buf.WriteString(` maxlength="` + strconv.Itoa(f.MaxLength) + `"`)
	}
}

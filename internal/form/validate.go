// internal/form/validate.go
//
// LeadFlow – Forms subsystem: server-side validation and normalization.
//
// Context
//   Browser posts and API calls both land here.  This file verifies a
//   submission against its FormDef: required fields, conditional
//   (required_if) fields, type constraints, regex patterns, option values,
//   and length limits.  It returns a normalized map that business logic can
//   trust.
//
// Workflow
//   •  Validate walks every FieldDef in order and collects ALL failures in
//      []ErrorField so templates and API clients can highlight each issue.
//   •  Each field is trimmed and normalized by type.  Emails are lowercased;
//      select values are replaced by their canonical option.
//   •  On success a map[string]string of clean values is returned.  Absent
//      optional fields are omitted.
//   •  On failure callers wrap the []ErrorField in *ValidationError (see
//      submit.go) and treat it as a user error, not a 500.
//
// Style
//   Comments follow the house guide: full sentences, two space spacing, and
//   IDs like “CSRF.”
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Error types
// -----------------------------------------------------------------------------

// ErrorField describes a single validation failure so the template can render
// a field-level message.  An empty Name marks a form-level failure.
type ErrorField struct {
	Name    string // field name
	Message string // user-facing message
}

// ValidationError wraps []ErrorField and satisfies the error interface.
//
// It allows callers to distinguish user input errors from system failures via
// errors.As / IsValidationError.
type ValidationError struct{ Fields []ErrorField }

func (ve *ValidationError) Error() string { return "form validation failed" }

// ByField groups field messages by name.  Form-level messages are skipped.
func (ve *ValidationError) ByField() map[string][]string {
	out := make(map[string][]string)
	for _, f := range ve.Fields {
		if f.Name == "" {
			continue
		}
		out[f.Name] = append(out[f.Name], f.Message)
	}
	return out
}

// FormLevel returns the form-level messages, if any.
func (ve *ValidationError) FormLevel() []string {
	var out []string
	for _, f := range ve.Fields {
		if f.Name == "" {
			out = append(out, f.Message)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Public API
// -----------------------------------------------------------------------------

var validate = validator.New()

// Validate checks posted values against fd.  It returns normalized values and
// any field errors.  A non-empty error slice means UI re-render is required.
func (fd *FormDef) Validate(posted url.Values) (map[string]string, []ErrorField) {
	var errs []ErrorField
	clean := make(map[string]string, len(fd.Fields))

	for i := range fd.Fields {
		f := &fd.Fields[i]
		raw := extractValue(posted, f)

		if raw == "" {
			if f.Required || conditionMet(posted, fd, f) {
				errs = append(errs, ErrorField{f.Name, requiredMsg(f)})
			}
			continue
		}

		val, msg := validateAndNormalize(f, raw)
		if msg != "" {
			errs = append(errs, ErrorField{f.Name, msg})
			continue
		}
		clean[f.Name] = val
	}

	return clean, errs
}

// ValidateForm validates posted against the registered form formID.
func ValidateForm(formID string, posted url.Values) (map[string]string, []ErrorField) {
	fd, ok := GetFormDef(formID)
	if !ok {
		return nil, []ErrorField{{Name: "", Message: "Unknown form."}}
	}
	return fd.Validate(posted)
}

// -----------------------------------------------------------------------------
// Field-level helpers
// -----------------------------------------------------------------------------

// extractValue obtains the trimmed submitted value for f, falling back to its
// aliases.
func extractValue(v url.Values, f *FieldDef) string {
	for _, k := range append([]string{f.Name}, f.Aliases...) {
		if s := strings.TrimSpace(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// conditionMet reports whether f's required_if condition holds.
func conditionMet(v url.Values, fd *FormDef, f *FieldDef) bool {
	if f.condKey == "" {
		return false
	}
	other := fd.Field(f.condKey)
	if other == nil {
		return false
	}
	return strings.EqualFold(extractValue(v, other), f.condVal)
}

func validateAndNormalize(f *FieldDef, val string) (string, string) {
	switch f.Type {
	case "text", "textarea":
		if msg := lengthCheck(f, val); msg != "" {
			return "", msg
		}
		if f.pattern != nil && !f.pattern.MatchString(val) {
			return "", patternMsg(f)
		}
		return val, ""

	case "email":
		if msg := lengthCheck(f, val); msg != "" {
			return "", msg
		}
		if err := validate.Var(val, "email"); err != nil {
			return "", invalidMsg(f)
		}
		return strings.ToLower(val), ""

	case "select":
		opt, ok := matchOption(f.Options, val)
		if !ok {
			return "", invalidMsg(f)
		}
		return opt, ""

	default:
		return "", fmt.Sprintf("Unsupported field type %q.", f.Type)
	}
}

// lengthCheck validates minlength / maxlength rules.
func lengthCheck(f *FieldDef, s string) string {
	n := utf8.RuneCountInString(s)
	if f.MinLength > 0 && n < f.MinLength {
		return fmt.Sprintf("Must be at least %d characters.", f.MinLength)
	}
	if f.MaxLength > 0 && n > f.MaxLength {
		return fmt.Sprintf("Must be at most %d characters.", f.MaxLength)
	}
	return ""
}

// matchOption returns the canonical option equal to v ignoring case.
func matchOption(opts []string, v string) (string, bool) {
	for _, o := range opts {
		if strings.EqualFold(o, v) {
			return o, true
		}
	}
	return "", false
}

// user-friendly default messages
func requiredMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "This field is required."
}
func invalidMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Invalid input."
}
func patternMsg(f *FieldDef) string {
	if f.ErrorMsg != "" {
		return f.ErrorMsg
	}
	return "Input does not match required format."
}

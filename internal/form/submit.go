// internal/form/submit.go
//
// LeadFlow – Forms subsystem: consolidated Submit helper.
//
// Context
//   Handlers want one call that parses the body, runs the guard when the post
//   came from a rendered page, validates input, and returns the clean map or
//   a *ValidationError.  Submit provides that so handler code stays terse.
//
//   Bodies may be form-encoded (browser) or a flat JSON object (API).  JSON
//   scalars are converted to strings; nested values are rejected.
//
//------------------------------------------------------------------------------

package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// MaxBodyBytes caps the accepted request body.
const MaxBodyBytes = 64 << 10

// ErrBadBody marks an unparsable request body.
var ErrBadBody = errors.New("form: malformed request body")

// Parse reads posted values from r.  JSON objects are flattened into
// url.Values; anything else goes through ParseForm.
func Parse(w http.ResponseWriter, r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
		}
		return r.PostForm, nil
	}

	var obj map[string]any
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	out := make(url.Values, len(obj))
	for k, v := range obj {
		switch t := v.(type) {
		case nil:
		case string:
			out.Set(k, t)
		case float64:
			out.Set(k, strconv.FormatFloat(t, 'f', -1, 64))
		case bool:
			out.Set(k, strconv.FormatBool(t))
		default:
			return nil, fmt.Errorf("%w: field %q must be a scalar", ErrBadBody, k)
		}
	}
	return out, nil
}

// Submit parses r, checks the guard when g is non-nil, and validates against
// fd.  On input failure it returns the posted values together with a
// *ValidationError so the caller can re-render with the user's input.
func Submit(fd *FormDef, g *Guard, w http.ResponseWriter, r *http.Request) (map[string]string, url.Values, error) {
	posted, err := Parse(w, r)
	if err != nil {
		return nil, nil, err
	}

	if g != nil {
		if msg := g.Check(posted); msg != "" {
			return nil, posted, &ValidationError{Fields: []ErrorField{{Name: "", Message: msg}}}
		}
	}

	clean, errs := fd.Validate(posted)
	if len(errs) > 0 {
		return nil, posted, &ValidationError{Fields: errs}
	}
	return clean, posted, nil
}

// IsValidationError reports whether err came from failed validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

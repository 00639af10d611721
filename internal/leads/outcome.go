// internal/leads/outcome.go
//
// Result reporter.
//
// Every registration attempt, whatever happened, ends as one Outcome.  The
// mapping from error to user-facing text lives only here; raw store errors
// are logged by the caller and never reach the response.

package leads

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yanizio/leadflow/internal/docstore"
	"github.com/yanizio/leadflow/internal/form"
)

// User-facing messages.
const (
	MsgSuccess    = "Lead registered successfully!"
	MsgDuplicate  = "This email is already registered."
	MsgPermission = "The lead store rejected the write.  Please contact an administrator."
	MsgInternal   = "Something went wrong on our end. Please try again."
	MsgBadBody    = "The request body could not be read."
)

// Outcome kinds, also used as the metrics label.
const (
	KindSuccess    = "success"
	KindInvalid    = "invalid"
	KindBadBody    = "bad_body"
	KindDuplicate  = "duplicate"
	KindPermission = "permission"
	KindPartial    = "partial"
	KindInternal   = "internal"
)

// Outcome is the uniform response of a registration attempt.
type Outcome struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	FormError   string              `json:"formError,omitempty"`

	kind string
}

// Kind returns the outcome class.
func (o Outcome) Kind() string { return o.kind }

// HTTPStatus maps the outcome to a response code.
func (o Outcome) HTTPStatus() int {
	switch o.kind {
	case KindSuccess:
		return http.StatusCreated
	case KindInvalid:
		return http.StatusUnprocessableEntity
	case KindBadBody:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindPermission:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Report maps err to an Outcome.  A nil err is success.
func Report(err error) Outcome {
	if err == nil {
		return Outcome{Success: true, Message: MsgSuccess, kind: KindSuccess}
	}

	var (
		ve      *form.ValidationError
		partial *PartialWriteError
	)
	switch {
	case errors.As(err, &ve):
		o := Outcome{kind: KindInvalid}
		if fe := ve.ByField(); len(fe) > 0 {
			o.FieldErrors = fe
		}
		if fl := ve.FormLevel(); len(fl) > 0 {
			o.FormError = strings.Join(fl, " ")
		}
		return o

	case errors.Is(err, form.ErrBadBody):
		return Outcome{FormError: MsgBadBody, kind: KindBadBody}

	case errors.Is(err, ErrDuplicateEmail):
		return Outcome{
			FieldErrors: map[string][]string{"email": {MsgDuplicate}},
			kind:        KindDuplicate,
		}

	case errors.As(err, &partial):
		return Outcome{FormError: MsgInternal, kind: KindPartial}

	case errors.Is(err, docstore.ErrPermissionDenied):
		return Outcome{FormError: MsgPermission, kind: KindPermission}

	default:
		return Outcome{FormError: MsgInternal, kind: KindInternal}
	}
}

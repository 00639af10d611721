package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/yanizio/leadflow/internal/docstore"
)

// ErrDuplicateEmail is returned when a lead with the same email exists.
var ErrDuplicateEmail = errors.New("leads: email already registered")

// Exists reports whether a lead with email is already stored.  It reads the
// canonical leads/{email} document first and then queries the leads
// collection, which also finds legacy records stored under generated ids.
func Exists(ctx context.Context, s docstore.Store, email string) (bool, error) {
	_, err := s.Get(ctx, docstore.Join(CollectionLeads, EmailSegment(email)))
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, docstore.ErrNotFound):
		return false, fmt.Errorf("leads: duplicate lookup: %w", err)
	}

	snaps, err := s.QueryEqual(ctx, CollectionLeads, "email", email)
	if err != nil {
		return false, fmt.Errorf("leads: duplicate query: %w", err)
	}
	return len(snaps) > 0, nil
}

// internal/feed/feed.go
//
// LeadFlow – live lead feed.
//
// Context
//   Every successfully registered lead is published here so dashboard
//   clients can stream new leads without polling the store.  Publishing is
//   fire-and-forget from the registration path: a feed failure is logged,
//   never surfaced to the submitter, and never rolls back the write.
//
//   Two backends share one interface:
//
//     •  Memory – in-process fan-out.  Fine for a single instance.
//     •  Redis  – PUBLISH/SUBSCRIBE on one channel, so every instance
//        behind the load balancer sees every lead.
//
// Delivery
//   Best effort.  Each subscriber owns a bounded buffer; when it is full the
//   event is dropped for that subscriber only.  A slow websocket never
//   stalls registration or other subscribers.
//
//------------------------------------------------------------------------------

package feed

import (
	"context"
	"sync"
)

// SubscriberBuffer is the per-subscriber queue depth.
const SubscriberBuffer = 64

// Feed publishes opaque payloads (JSON-encoded leads) to subscribers.
type Feed interface {
	Publish(ctx context.Context, payload []byte) error
	Subscribe(ctx context.Context) (*Subscription, error)
	Close() error
}

// Subscription delivers payloads on C until Close is called or the context
// passed to Subscribe ends.  C is closed afterwards.
type Subscription struct {
	C <-chan []byte

	once   sync.Once
	cancel func()
}

// Close stops delivery.  Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

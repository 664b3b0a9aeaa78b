package feed

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"

	// OpReset tells a resuming client its cursor fell out of the replay
	// buffer and it must re-fetch authoritative state over HTTP.
	OpReset Op = "reset"
)

const (
	TableWaitlistRequests = "waitlist_requests"
	TableOffers           = "property_offers"
	TableCounterOffers    = "counter_offers"
	TableNotifications    = "notifications"
)

// Event is one recipient-scoped row mutation. Events are invalidation
// hints, not the source of truth: delivery is at-least-once and a
// consumer re-applies idempotently by RowID, re-fetching over HTTP when
// in doubt.
type Event struct {
	Cursor  string `json:"cursor"`
	Table   string `json:"table,omitempty"`
	Op      Op     `json:"op"`
	RowID   string `json:"row_id,omitempty"`
	Payload any    `json:"payload,omitempty"`

	Recipient uuid.UUID `json:"-"`
}

// NewCursor returns a lexically ordered, globally unique cursor.
func NewCursor() string {
	return ulid.Make().String()
}

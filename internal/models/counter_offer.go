package models

import (
	"time"

	"github.com/google/uuid"
)

// CounterOffer is an append-only amount revision on an Offer. Authorship
// alternates between the parties; the newest row is the negotiation's
// effective amount. Rows are never mutated or deleted.
type CounterOffer struct {
	ID         uuid.UUID `json:"id"`
	OfferID    uuid.UUID `json:"offer_id"`
	Amount     int64     `json:"amount"`
	FromSeller bool      `json:"from_seller"`
	CreatedAt  time.Time `json:"created_at"`
}

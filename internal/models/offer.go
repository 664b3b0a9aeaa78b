package models

import (
	"time"

	"github.com/google/uuid"
)

type OfferStatusType string

const (
	OfferStatusPending   OfferStatusType = "PENDING"
	OfferStatusAccepted  OfferStatusType = "ACCEPTED"
	OfferStatusDeclined  OfferStatusType = "DECLINED"
	OfferStatusCountered OfferStatusType = "COUNTERED"
)

// Offer is one buyer's price negotiation on one property. SellerID is
// the property owner denormalized at creation time. Amounts are in the
// currency's minor unit and must be positive.
type Offer struct {
	Versioned

	ID              uuid.UUID       `json:"id"`
	PropertyID      uuid.UUID       `json:"property_id"`
	UserID          uuid.UUID       `json:"user_id"`
	SellerID        uuid.UUID       `json:"seller_id"`
	OfferAmount     int64           `json:"offer_amount"`
	IsInterested    bool            `json:"is_interested"`
	ProofOfFundsURL *string         `json:"proof_of_funds_url,omitempty"`
	Status          OfferStatusType `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Terminal reports whether the negotiation is closed. ACCEPTED and
// DECLINED are absorbing; no further transition is valid from either.
func (o *Offer) Terminal() bool {
	return o.Status == OfferStatusAccepted || o.Status == OfferStatusDeclined
}

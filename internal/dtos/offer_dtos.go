package dtos

import (
	"time"

	"github.com/google/uuid"
)

type OfferCreateRequest struct {
	PropertyID      uuid.UUID `json:"property_id" validate:"required"`
	OfferAmount     int64     `json:"offer_amount" validate:"required,gt=0"`
	IsInterested    bool      `json:"is_interested"`
	ProofOfFundsURL *string   `json:"proof_of_funds_url,omitempty" validate:"omitempty,url"`
}

const (
	OfferActionAccept  = "accept"
	OfferActionDecline = "decline"
	OfferActionCounter = "counter"
)

type OfferRespondRequest struct {
	Action string `json:"action" validate:"required,oneof=accept decline counter"`
	// Amount is only meaningful for counter and must then be positive.
	Amount int64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
}

type CounterOfferDTO struct {
	CounterOfferID uuid.UUID `json:"counter_offer_id"`
	Amount         int64     `json:"amount"`
	FromSeller     bool      `json:"from_seller"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	NegotiationRoleBuyer  = "buyer"
	NegotiationRoleSeller = "seller"
)

// NegotiationDTO merges an offer with its ordered counter chain and the
// caller-relative turn flag. EffectiveAmount is the newest counter's
// amount, or the original offer amount when no counters exist.
type NegotiationDTO struct {
	OfferID         uuid.UUID         `json:"offer_id"`
	PropertyID      uuid.UUID         `json:"property_id"`
	BuyerID         uuid.UUID         `json:"buyer_id"`
	SellerID        uuid.UUID         `json:"seller_id"`
	Status          string            `json:"status"`
	OriginalAmount  int64             `json:"original_amount"`
	EffectiveAmount int64             `json:"effective_amount"`
	IsInterested    bool              `json:"is_interested"`
	ProofOfFundsURL *string           `json:"proof_of_funds_url,omitempty"`
	Role            string            `json:"role"`
	YourTurn        bool              `json:"your_turn"`
	Counters        []CounterOfferDTO `json:"counters"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type ListNegotiationsResponse struct {
	Results []NegotiationDTO `json:"results"`
	Total   int              `json:"total"`
}

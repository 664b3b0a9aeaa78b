package models

import (
	"time"

	"github.com/google/uuid"
)

// Property is the listing the engine gates access to. The exact address
// and the owner's contact details are the sensitive fields; everything
// else is public listing data. Owner is immutable once created.
type Property struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	AskingPrice    int64     `json:"asking_price"`
	MarketPrice    int64     `json:"market_price"`
	ExactAddress   string    `json:"exact_address"`
	PublicLocation string    `json:"public_location"`
	RewardAmount   *int64    `json:"reward_amount,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

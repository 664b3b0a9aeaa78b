package dtos

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistCreateRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	Name       string    `json:"name" validate:"required,max=120"`
	Email      string    `json:"email" validate:"required,email"`
	Phone      string    `json:"phone" validate:"omitempty,max=32"`
}

type WaitlistDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept decline"`
}

type WaitlistRequestDTO struct {
	RequestID  uuid.UUID `json:"request_id"`
	PropertyID uuid.UUID `json:"property_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type WaitlistStatusResponse struct {
	PropertyID uuid.UUID  `json:"property_id"`
	Status     string     `json:"status"`
	RequestID  *uuid.UUID `json:"request_id,omitempty"`
}

type ListWaitlistResponse struct {
	Results []WaitlistRequestDTO `json:"results"`
	Total   int                  `json:"total"`
}

// SellerContactDTO is only populated for the owner and for buyers whose
// waitlist request has been accepted.
type SellerContactDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PropertyViewDTO is the gated read model of a listing. ExactAddress
// and SellerContact stay nil until the viewer holds accepted access.
type PropertyViewDTO struct {
	PropertyID     uuid.UUID         `json:"property_id"`
	PublicLocation string            `json:"public_location"`
	AskingPrice    int64             `json:"asking_price"`
	MarketPrice    int64             `json:"market_price"`
	RewardAmount   *int64            `json:"reward_amount,omitempty"`
	AccessStatus   string            `json:"access_status"`
	ExactAddress   *string           `json:"exact_address,omitempty"`
	SellerContact  *SellerContactDTO `json:"seller_contact,omitempty"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type WaitlistStatusType string

const (
	WaitlistStatusPending  WaitlistStatusType = "PENDING"
	WaitlistStatusAccepted WaitlistStatusType = "ACCEPTED"
	WaitlistStatusDeclined WaitlistStatusType = "DECLINED"
)

// WaitlistRequest is the per-(property, buyer) access gate. Contact
// fields are snapshotted at request time so a later profile edit does
// not rewrite the audit trail. Rows are never deleted.
type WaitlistRequest struct {
	Versioned

	ID         uuid.UUID          `json:"id"`
	PropertyID uuid.UUID          `json:"property_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Name       string             `json:"name"`
	Email      string             `json:"email"`
	Phone      string             `json:"phone"`
	Status     WaitlistStatusType `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Terminal reports whether the request can no longer change state.
func (wr *WaitlistRequest) Terminal() bool {
	return wr.Status == WaitlistStatusAccepted || wr.Status == WaitlistStatusDeclined
}

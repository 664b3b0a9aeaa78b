package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationWaitlistRequested NotificationType = "WAITLIST_REQUESTED"
	NotificationWaitlistAccepted  NotificationType = "WAITLIST_ACCEPTED"
	NotificationWaitlistDeclined  NotificationType = "WAITLIST_DECLINED"
	NotificationOfferReceived     NotificationType = "OFFER_RECEIVED"
	NotificationOfferAccepted     NotificationType = "OFFER_ACCEPTED"
	NotificationOfferDeclined     NotificationType = "OFFER_DECLINED"
	NotificationOfferCountered    NotificationType = "OFFER_COUNTERED"
)

type DispatchStatusType string

const (
	DispatchStatusPending DispatchStatusType = "PENDING"
	DispatchStatusSent    DispatchStatusType = "SENT"
	DispatchStatusFailed  DispatchStatusType = "FAILED"
)

// Notification is one row of the per-recipient append-only event log.
// Properties carries correlation ids (property_id, offer_id,
// counter_offer_id, request_id, amount) so a client can deep-link back
// into the negotiation. The only user-driven mutation is the read flag.
//
// The dispatch columns are the outbox: the row is written in the same
// transaction as the state transition it announces, and a separate
// dispatcher delivers it out-of-band and marks it sent.
type Notification struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Type       NotificationType  `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"created_at"`

	DispatchStatus DispatchStatusType `json:"-"`
	Attempts       int                `json:"-"`
	NextAttemptAt  *time.Time         `json:"-"`
	DispatchedAt   *time.Time         `json:"-"`
}
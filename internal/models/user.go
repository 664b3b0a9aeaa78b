package models

import "github.com/google/uuid"

// User is the slice of the identity service's users table this engine
// reads. Account management lives elsewhere; we only need contact
// details for notification delivery.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

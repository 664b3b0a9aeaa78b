package dtos

import (
	"time"

	"github.com/google/uuid"
)

type NotificationDTO struct {
	NotificationID uuid.UUID         `json:"notification_id"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Type           string            `json:"type"`
	Properties     map[string]string `json:"properties,omitempty"`
	Read           bool              `json:"read"`
	CreatedAt      time.Time         `json:"created_at"`
}

type ListNotificationsResponse struct {
	Results []NotificationDTO `json:"results"`
	Total   int               `json:"total"`
}

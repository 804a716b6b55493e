// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// SendStatus represents the delivery lifecycle state of a marketing notification.
type SendStatus string

// Send status values. Transitions only move forward:
// draft|scheduled -> sending -> sent|failed.
const (
	SendStatusDraft     SendStatus = "draft"
	SendStatusScheduled SendStatus = "scheduled"
	SendStatusSending   SendStatus = "sending"
	SendStatusSent      SendStatus = "sent"
	SendStatusFailed    SendStatus = "failed"
)

// MarketingNotification represents a push notification composed in the back office.
type MarketingNotification struct {
	ID           uuid.UUID  `json:"id"`            // The Global Unique Identifier (GUID) for the notification.
	Title        string     `json:"title"`         // Notification title shown on the device.
	Message      string     `json:"message"`       // Notification body text.
	ImageURL     *string    `json:"image_url"`     // Optional image attachment URL.
	IsActive     bool       `json:"is_active"`     // Inactive notifications are never dispatched.
	ScheduledFor *time.Time `json:"scheduled_for"` // Optional delivery time; nil means manual send only.
	SendStatus   SendStatus `json:"send_status"`   // Current lifecycle state.
	SentAt       *time.Time `json:"sent_at"`       // Set at most once, on the first terminal send attempt.
	LastError    *string    `json:"last_error"`    // Failure summary recorded when the send attempt fails.
	CreatedAt    time.Time  `json:"created_at"`    // Timestamp of when this record was created.
	UpdatedAt    time.Time  `json:"updated_at"`    // Timestamp of the last modification.
}

// Editable reports whether the notification content may still be changed.
// Once a send attempt has started the record is immutable except through
// the dispatch paths themselves.
func (n *MarketingNotification) Editable() bool {
	switch n.SendStatus {
	case SendStatusDraft, SendStatusScheduled, SendStatusFailed:
		return true
	default:
		return false
	}
}

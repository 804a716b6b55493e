// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a device registered for push notifications by one of the
// dashboard's client apps. Registration is owned by the external client flow;
// the push pipeline only ever reads these records.
type Device struct {
	ID        uuid.UUID `json:"id"`         // The Global Unique Identifier (GUID) for the device.
	Token     string    `json:"token"`      // Push provider token, unique per device installation.
	Platform  string    `json:"platform"`   // Device platform (web, ios, android).
	IsActive  bool      `json:"is_active"`  // Indicates if this device should receive notifications.
	CreatedAt time.Time `json:"created_at"` // Timestamp of when this device was registered.
	UpdatedAt time.Time `json:"updated_at"` // Timestamp of the last modification.
}

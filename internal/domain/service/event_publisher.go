package service

import (
	"context"
)

// DispatchEvent describes the outcome of one send attempt. It is published
// fire-and-forget so dashboard list views can refresh; the push pipeline
// itself never depends on it.
type DispatchEvent struct {
	RequestID      string `json:"request_id,omitempty"` // For distributed tracing.
	NotificationID string `json:"notification_id,omitempty"`
	Title          string `json:"title"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishDispatchEvent publishes a dispatch outcome event.
	PublishDispatchEvent(ctx context.Context, event *DispatchEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

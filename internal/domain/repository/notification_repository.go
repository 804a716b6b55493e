// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for notification persistence.
var (
	// ErrNotificationNotFound is returned when a notification is not found.
	ErrNotificationNotFound = errors.New("notification not found")
)

// NotificationRepository defines the interface for notification-related database operations.
type NotificationRepository interface {
	// CreateNotification persists a new marketing notification.
	CreateNotification(ctx context.Context, notification *entity.MarketingNotification) error

	// FindNotificationByID retrieves a notification by its unique ID.
	FindNotificationByID(ctx context.Context, id uuid.UUID) (*entity.MarketingNotification, error)

	// ListNotifications retrieves notifications for the back-office list view,
	// newest first.
	ListNotifications(ctx context.Context, limit, offset int) ([]*entity.MarketingNotification, error)

	// UpdateNotification persists edits to title, message, image, schedule,
	// activity flag, send status and last error for an existing record.
	UpdateNotification(ctx context.Context, notification *entity.MarketingNotification) error

	// FindDueScheduled retrieves active, scheduled, not-yet-sent notifications
	// whose delivery time has arrived, ordered by scheduled_for ascending and
	// bounded by limit.
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.MarketingNotification, error)

	// ClaimForSending atomically moves a notification to the sending state.
	// Draft, scheduled and failed rows without a recorded sent_at are
	// claimable; it returns false when the row was already claimed or sent.
	// The conditional update is the double-send guard for overlapping sweep
	// invocations.
	ClaimForSending(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkSent records a successful send attempt. sent_at is only ever set
	// once; rows with a non-null sent_at are left untouched.
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkFailed records a failed send attempt with an error summary.
	// sent_at stays null so an operator can reschedule and retry.
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

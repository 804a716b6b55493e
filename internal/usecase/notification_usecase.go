package usecase

import (
	"context"
	"time"

	"backoffice/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateNotificationInput carries the operator's input for a new notification.
type CreateNotificationInput struct {
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	ImageURL     *string    `json:"image_url,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// UpdateNotificationInput carries edits to an existing notification. Nil
// fields are left unchanged.
type UpdateNotificationInput struct {
	Title        *string    `json:"title,omitempty"`
	Message      *string    `json:"message,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// SendRequest is the interactive "send now" input. When NotificationID is
// set the content is loaded from and the outcome recorded on that record;
// otherwise the content is dispatched ad hoc without touching any record.
type SendRequest struct {
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ImageURL       *string    `json:"image_url,omitempty"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
}

// NotificationUsecase defines the back-office notification management use cases.
type NotificationUsecase interface {
	// CreateNotification persists a new notification as draft, or as
	// scheduled when a (strictly future) delivery time is supplied.
	// Creation never dispatches; sending is always an explicit second step.
	CreateNotification(ctx context.Context, input *CreateNotificationInput) (*entity.MarketingNotification, error)

	// GetNotification retrieves a single notification.
	GetNotification(ctx context.Context, id uuid.UUID) (*entity.MarketingNotification, error)

	// ListNotifications retrieves notifications for the list view, newest first.
	ListNotifications(ctx context.Context, limit, offset int) ([]*entity.MarketingNotification, error)

	// UpdateNotification edits a draft, scheduled or failed notification.
	// Rescheduling a failed notification resets it to scheduled and clears
	// the recorded error, which is the operator retry path.
	UpdateNotification(ctx context.Context, id uuid.UUID, input *UpdateNotificationInput) (*entity.MarketingNotification, error)

	// SendNow dispatches immediately and, when a notification record is
	// referenced, records the outcome on it.
	SendNow(ctx context.Context, req *SendRequest) (*DispatchResult, error)
}

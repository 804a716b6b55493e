package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "backoffice/internal/delivery/context"
	"backoffice/internal/domain/entity"
	domainerrors "backoffice/internal/domain/errors"
	"backoffice/internal/domain/repository"
	"backoffice/internal/domain/service"
	"backoffice/internal/errors"
	"backoffice/internal/usecase"

	"github.com/google/uuid"
)

type notificationService struct {
	logger           *slog.Logger
	notificationRepo repository.NotificationRepository
	dispatcher       usecase.DispatchUsecase
	events           service.EventPublisher
	now              func() time.Time
}

// NewNotificationService creates the back-office notification management service.
func NewNotificationService(
	logger *slog.Logger,
	notificationRepo repository.NotificationRepository,
	dispatcher usecase.DispatchUsecase,
	events service.EventPublisher,
) usecase.NotificationUsecase {
	return &notificationService{
		logger:           logger,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		events:           events,
		now:              time.Now,
	}
}

// CreateNotification persists a new notification. Supplying a delivery time
// schedules it; otherwise it stays a draft until the operator sends it by
// hand. Creation never dispatches anything.
func (s *notificationService) CreateNotification(ctx context.Context, input *usecase.CreateNotificationInput) (*entity.MarketingNotification, error) {
	title := strings.TrimSpace(input.Title)
	message := strings.TrimSpace(input.Message)
	if title == "" || message == "" {
		return nil, domainerrors.ErrInvalidContent
	}

	now := s.now()

	status := entity.SendStatusDraft
	if input.ScheduledFor != nil {
		if !input.ScheduledFor.After(now) {
			return nil, domainerrors.ErrScheduleInPast
		}

		status = entity.SendStatusScheduled
	}

	notification := &entity.MarketingNotification{
		ID:           uuid.New(),
		Title:        title,
		Message:      message,
		ImageURL:     input.ImageURL,
		IsActive:     true,
		ScheduledFor: input.ScheduledFor,
		SendStatus:   status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		return nil, domainerrors.ErrNotificationCreationFailed.WrapMessage(err.Error())
	}

	s.logger.Info("Notification created",
		slog.String("notification_id", notification.ID.String()),
		slog.String("send_status", string(notification.SendStatus)))

	return notification, nil
}

// GetNotification retrieves a single notification.
func (s *notificationService) GetNotification(ctx context.Context, id uuid.UUID) (*entity.MarketingNotification, error) {
	notification, err := s.notificationRepo.FindNotificationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, domainerrors.ErrNotificationNotFound
		}

		return nil, errors.Wrap(err, "failed to find notification")
	}

	return notification, nil
}

// ListNotifications retrieves notifications for the list view, newest first.
func (s *notificationService) ListNotifications(ctx context.Context, limit, offset int) ([]*entity.MarketingNotification, error) {
	notifications, err := s.notificationRepo.ListNotifications(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

// UpdateNotification edits a draft, scheduled or failed notification. Nil
// input fields are left unchanged. Giving a failed notification a new future
// delivery time resets it to scheduled and clears the recorded error, which
// is the operator retry path.
func (s *notificationService) UpdateNotification(ctx context.Context, id uuid.UUID, input *usecase.UpdateNotificationInput) (*entity.MarketingNotification, error) {
	notification, err := s.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	if !notification.Editable() {
		return nil, domainerrors.ErrNotificationImmutable
	}

	now := s.now()

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domainerrors.ErrInvalidContent
		}

		notification.Title = title
	}

	if input.Message != nil {
		message := strings.TrimSpace(*input.Message)
		if message == "" {
			return nil, domainerrors.ErrInvalidContent
		}

		notification.Message = message
	}

	if input.ImageURL != nil {
		notification.ImageURL = input.ImageURL
	}

	if input.IsActive != nil {
		notification.IsActive = *input.IsActive
	}

	if input.ScheduledFor != nil {
		if !input.ScheduledFor.After(now) {
			return nil, domainerrors.ErrScheduleInPast
		}

		notification.ScheduledFor = input.ScheduledFor
		notification.SendStatus = entity.SendStatusScheduled
		notification.LastError = nil
	}

	notification.UpdatedAt = now

	if err := s.notificationRepo.UpdateNotification(ctx, notification); err != nil {
		return nil, errors.Wrap(err, "failed to update notification")
	}

	s.logger.Info("Notification updated",
		slog.String("notification_id", notification.ID.String()),
		slog.String("send_status", string(notification.SendStatus)))

	return notification, nil
}

// SendNow dispatches immediately. With a notification_id the content comes
// from the record and the outcome is written back to it; without one the
// supplied content is dispatched ad hoc and nothing is persisted.
func (s *notificationService) SendNow(ctx context.Context, req *usecase.SendRequest) (*usecase.DispatchResult, error) {
	if req.NotificationID == nil {
		return s.sendAdHoc(ctx, req)
	}

	return s.sendRecorded(ctx, *req.NotificationID)
}

func (s *notificationService) sendAdHoc(ctx context.Context, req *usecase.SendRequest) (*usecase.DispatchResult, error) {
	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)
	if title == "" || message == "" {
		return nil, domainerrors.ErrInvalidContent
	}

	content := &usecase.NotificationContent{Title: title, Message: message}
	if req.ImageURL != nil {
		content.ImageURL = *req.ImageURL
	}

	result, err := s.dispatcher.Dispatch(ctx, content)
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, "", content.Title, result)

	return result, nil
}

func (s *notificationService) sendRecorded(ctx context.Context, id uuid.UUID) (*usecase.DispatchResult, error) {
	notification, err := s.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}

	if notification.SentAt != nil {
		return nil, domainerrors.ErrNotificationAlreadySent
	}

	if !notification.IsActive {
		return nil, domainerrors.ErrNotificationInactive
	}

	claimed, err := s.notificationRepo.ClaimForSending(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim notification")
	}

	if !claimed {
		return nil, domainerrors.ErrNotificationAlreadySent
	}

	content := &usecase.NotificationContent{
		Title:   notification.Title,
		Message: notification.Message,
	}
	if notification.ImageURL != nil {
		content.ImageURL = *notification.ImageURL
	}

	result, err := s.dispatcher.Dispatch(ctx, content)
	if err != nil {
		if markErr := s.notificationRepo.MarkFailed(ctx, id, err.Error()); markErr != nil {
			s.logger.Error("Failed to mark notification failed",
				slog.String("notification_id", id.String()),
				slog.Any("error", markErr))
		}

		return nil, err
	}

	if result.Sent > 0 {
		if err := s.notificationRepo.MarkSent(ctx, id, s.now()); err != nil {
			s.logger.Error("Failed to mark notification sent",
				slog.String("notification_id", id.String()),
				slog.Any("error", err))
		}
	} else {
		reason := "no deliveries succeeded"
		if result.Failed == 0 {
			reason = "no registered devices"
		}

		if err := s.notificationRepo.MarkFailed(ctx, id, reason); err != nil {
			s.logger.Error("Failed to mark notification failed",
				slog.String("notification_id", id.String()),
				slog.Any("error", err))
		}
	}

	s.publishOutcome(ctx, id.String(), content.Title, result)

	return result, nil
}

// publishOutcome emits the dispatch event fire-and-forget; publisher
// failures are logged and never surface to the caller.
func (s *notificationService) publishOutcome(ctx context.Context, notificationID, title string, result *usecase.DispatchResult) {
	event := &service.DispatchEvent{
		RequestID:      deliverycontext.GetRequestIDFromContext(ctx),
		NotificationID: notificationID,
		Title:          title,
		Sent:           result.Sent,
		Failed:         result.Failed,
	}

	if err := s.events.PublishDispatchEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish dispatch event", slog.Any("error", err))
	}
}

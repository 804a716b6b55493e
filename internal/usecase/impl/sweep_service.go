package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"backoffice/config"
	deliverycontext "backoffice/internal/delivery/context"
	"backoffice/internal/domain/entity"
	"backoffice/internal/domain/repository"
	"backoffice/internal/domain/service"
	"backoffice/internal/errors"
	"backoffice/internal/usecase"
)

// maxSweepErrors bounds the per-notification error strings carried in a
// SweepSummary.
const maxSweepErrors = 20

type sweepService struct {
	logger           *slog.Logger
	notificationRepo repository.NotificationRepository
	dispatcher       usecase.DispatchUsecase
	events           service.EventPublisher
	batchSize        int
	now              func() time.Time
}

// NewSweepService creates the scheduled-notification sweep.
func NewSweepService(
	logger *slog.Logger,
	notificationRepo repository.NotificationRepository,
	dispatcher usecase.DispatchUsecase,
	events service.EventPublisher,
	cfg *config.Config,
) usecase.SweepUsecase {
	batchSize := config.DefaultSweepBatch
	if cfg.Sweep != nil && cfg.Sweep.BatchSize > 0 {
		batchSize = cfg.Sweep.BatchSize
	}

	return &sweepService{
		logger:           logger,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		events:           events,
		batchSize:        batchSize,
		now:              time.Now,
	}
}

// ProcessDue finds due scheduled notifications and dispatches each one
// sequentially, oldest scheduled_for first. A failure on one notification is
// recorded on that row and never halts the rest of the batch. Overlapping
// invocations are safe: each row is claimed with a conditional update before
// any device send, so a row is only ever dispatched by the invocation that
// won the claim.
func (s *sweepService) ProcessDue(ctx context.Context) (*usecase.SweepSummary, error) {
	now := s.now()

	due, err := s.notificationRepo.FindDueScheduled(ctx, now, s.batchSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query due notifications")
	}

	summary := &usecase.SweepSummary{}
	if len(due) == 0 {
		summary.Message = "no scheduled notifications due"

		return summary, nil
	}

	s.logger.Info("Sweep found due notifications", slog.Int("count", len(due)))

	for _, notification := range due {
		claimed, err := s.notificationRepo.ClaimForSending(ctx, notification.ID)
		if err != nil {
			summary.Failed++
			s.recordError(summary, notification, errors.Wrap(err, "claim failed").Error())

			continue
		}

		if !claimed {
			// Another invocation won the row between the query and the claim.
			s.logger.Info("Skipping notification claimed elsewhere",
				slog.String("notification_id", notification.ID.String()))

			continue
		}

		summary.Processed++
		s.processOne(ctx, summary, notification)
	}

	s.logger.Info("Sweep finished",
		slog.Int("processed", summary.Processed),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed))

	return summary, nil
}

func (s *sweepService) processOne(ctx context.Context, summary *usecase.SweepSummary, notification *entity.MarketingNotification) {
	content := &usecase.NotificationContent{
		Title:   notification.Title,
		Message: notification.Message,
	}
	if notification.ImageURL != nil {
		content.ImageURL = *notification.ImageURL
	}

	result, err := s.dispatcher.Dispatch(ctx, content)

	switch {
	case err != nil:
		s.markFailed(ctx, summary, notification, err.Error())
	case result.Sent == 0:
		reason := "no deliveries succeeded"
		if result.Failed == 0 {
			reason = "no registered devices"
		}

		s.markFailed(ctx, summary, notification, reason)
	default:
		if err := s.notificationRepo.MarkSent(ctx, notification.ID, s.now()); err != nil {
			s.logger.Error("Failed to mark notification sent",
				slog.String("notification_id", notification.ID.String()),
				slog.Any("error", err))
		}

		summary.Sent++
	}

	if result != nil {
		s.publishOutcome(ctx, notification, result)
	}
}

func (s *sweepService) markFailed(ctx context.Context, summary *usecase.SweepSummary, notification *entity.MarketingNotification, reason string) {
	if err := s.notificationRepo.MarkFailed(ctx, notification.ID, reason); err != nil {
		s.logger.Error("Failed to mark notification failed",
			slog.String("notification_id", notification.ID.String()),
			slog.Any("error", err))
	}

	summary.Failed++
	s.recordError(summary, notification, reason)
}

func (s *sweepService) recordError(summary *usecase.SweepSummary, notification *entity.MarketingNotification, reason string) {
	if len(summary.Errors) >= maxSweepErrors {
		return
	}

	summary.Errors = append(summary.Errors,
		fmt.Sprintf("%s: %s", notification.ID.String(), reason))
}

// publishOutcome emits the dispatch event fire-and-forget; a publisher
// failure is logged and never affects the sweep outcome.
func (s *sweepService) publishOutcome(ctx context.Context, notification *entity.MarketingNotification, result *usecase.DispatchResult) {
	event := &service.DispatchEvent{
		RequestID:      deliverycontext.GetRequestIDFromContext(ctx),
		NotificationID: notification.ID.String(),
		Title:          notification.Title,
		Sent:           result.Sent,
		Failed:         result.Failed,
	}

	if err := s.events.PublishDispatchEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish dispatch event",
			slog.String("notification_id", notification.ID.String()),
			slog.Any("error", err))
	}
}

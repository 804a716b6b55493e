package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"backoffice/internal/domain/entity"
	domainerrors "backoffice/internal/domain/errors"
	"backoffice/internal/domain/repository"
	mockRepo "backoffice/internal/mocks/repository"
	mockSvc "backoffice/internal/mocks/service"
	mockUC "backoffice/internal/mocks/usecase"
	"backoffice/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestNotificationService(t *testing.T) (
	usecase.NotificationUsecase,
	*mockRepo.MockNotificationRepository,
	*mockUC.MockDispatchUsecase,
	*mockSvc.MockEventPublisher,
) {
	notificationRepo := mockRepo.NewMockNotificationRepository(t)
	dispatcher := mockUC.NewMockDispatchUsecase(t)
	events := mockSvc.NewMockEventPublisher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	service := NewNotificationService(logger, notificationRepo, dispatcher, events)

	return service, notificationRepo, dispatcher, events
}

func ptr[T any](v T) *T {
	return &v
}

func TestNotificationService_CreateNotification_Draft(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	notificationRepo.EXPECT().CreateNotification(ctx, mock.Anything).Return(nil)

	notification, err := service.CreateNotification(ctx, &usecase.CreateNotificationInput{
		Title:   "Weekend deal",
		Message: "Every pizza half price",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.SendStatusDraft, notification.SendStatus)
	assert.True(t, notification.IsActive)
	assert.Nil(t, notification.ScheduledFor)
	assert.Nil(t, notification.SentAt)
}

func TestNotificationService_CreateNotification_Scheduled(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	scheduledFor := time.Now().Add(2 * time.Hour)

	notificationRepo.EXPECT().CreateNotification(ctx, mock.Anything).Return(nil)

	notification, err := service.CreateNotification(ctx, &usecase.CreateNotificationInput{
		Title:        "Weekend deal",
		Message:      "Every pizza half price",
		ScheduledFor: &scheduledFor,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.SendStatusScheduled, notification.SendStatus)
	require.NotNil(t, notification.ScheduledFor)
	assert.Equal(t, scheduledFor, *notification.ScheduledFor)
}

func TestNotificationService_CreateNotification_ScheduleInPast(t *testing.T) {
	service, _, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	scheduledFor := time.Now().Add(-time.Minute)

	notification, err := service.CreateNotification(ctx, &usecase.CreateNotificationInput{
		Title:        "Weekend deal",
		Message:      "Every pizza half price",
		ScheduledFor: &scheduledFor,
	})

	require.ErrorIs(t, err, domainerrors.ErrScheduleInPast)
	assert.Nil(t, notification)
}

func TestNotificationService_CreateNotification_MissingContent(t *testing.T) {
	service, _, _, _ := createTestNotificationService(t)

	ctx := context.Background()

	notification, err := service.CreateNotification(ctx, &usecase.CreateNotificationInput{
		Title:   "   ",
		Message: "body",
	})

	require.ErrorIs(t, err, domainerrors.ErrInvalidContent)
	assert.Nil(t, notification)
}

func TestNotificationService_GetNotification_NotFound(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	id := uuid.New()

	notificationRepo.EXPECT().FindNotificationByID(ctx, id).
		Return(nil, repository.ErrNotificationNotFound)

	notification, err := service.GetNotification(ctx, id)

	require.ErrorIs(t, err, domainerrors.ErrNotificationNotFound)
	assert.Nil(t, notification)
}

func TestNotificationService_UpdateNotification_Immutable(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	sentAt := time.Now().Add(-time.Hour)
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Already out",
		Message:    "body",
		IsActive:   true,
		SendStatus: entity.SendStatusSent,
		SentAt:     &sentAt,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)

	updated, err := service.UpdateNotification(ctx, existing.ID, &usecase.UpdateNotificationInput{
		Title: ptr("New title"),
	})

	require.ErrorIs(t, err, domainerrors.ErrNotificationImmutable)
	assert.Nil(t, updated)
}

func TestNotificationService_UpdateNotification_RescheduleFailedClearsError(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Flaky",
		Message:    "body",
		IsActive:   true,
		SendStatus: entity.SendStatusFailed,
		LastError:  ptr("no deliveries succeeded"),
	}
	retryAt := time.Now().Add(30 * time.Minute)

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)
	notificationRepo.EXPECT().UpdateNotification(ctx, mock.Anything).Return(nil)

	updated, err := service.UpdateNotification(ctx, existing.ID, &usecase.UpdateNotificationInput{
		ScheduledFor: &retryAt,
	})

	require.NoError(t, err)
	assert.Equal(t, entity.SendStatusScheduled, updated.SendStatus)
	assert.Nil(t, updated.LastError, "rescheduling a failed notification clears the recorded error")
	require.NotNil(t, updated.ScheduledFor)
	assert.Equal(t, retryAt, *updated.ScheduledFor)
}

func TestNotificationService_SendNow_AdHoc(t *testing.T) {
	service, _, dispatcher, events := createTestNotificationService(t)

	ctx := context.Background()
	dispatcher.EXPECT().Dispatch(ctx, mock.MatchedBy(func(content *usecase.NotificationContent) bool {
		return content.Title == "Flash sale" && content.Message == "One hour only"
	})).Return(&usecase.DispatchResult{Sent: 7, Failed: 1}, nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{
		Title:   "Flash sale",
		Message: "One hour only",
	})

	require.NoError(t, err)
	assert.Equal(t, 7, result.Sent)
	assert.Equal(t, 1, result.Failed)
}

func TestNotificationService_SendNow_RecordedSuccess(t *testing.T) {
	service, notificationRepo, dispatcher, events := createTestNotificationService(t)

	ctx := context.Background()
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Launch",
		Message:    "We are live",
		ImageURL:   ptr("https://cdn.example.com/launch.png"),
		IsActive:   true,
		SendStatus: entity.SendStatusDraft,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, existing.ID).Return(true, nil)
	dispatcher.EXPECT().Dispatch(ctx, mock.MatchedBy(func(content *usecase.NotificationContent) bool {
		return content.Title == "Launch" && content.ImageURL == "https://cdn.example.com/launch.png"
	})).Return(&usecase.DispatchResult{Sent: 3}, nil)
	notificationRepo.EXPECT().MarkSent(ctx, existing.ID, mock.Anything).Return(nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{NotificationID: &existing.ID})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
}

func TestNotificationService_SendNow_AlreadySent(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	sentAt := time.Now().Add(-time.Hour)
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Old news",
		Message:    "body",
		IsActive:   true,
		SendStatus: entity.SendStatusSent,
		SentAt:     &sentAt,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{NotificationID: &existing.ID})

	require.ErrorIs(t, err, domainerrors.ErrNotificationAlreadySent)
	assert.Nil(t, result)
}

func TestNotificationService_SendNow_ClaimLost(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Race",
		Message:    "body",
		IsActive:   true,
		SendStatus: entity.SendStatusScheduled,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, existing.ID).Return(false, nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{NotificationID: &existing.ID})

	require.ErrorIs(t, err, domainerrors.ErrNotificationAlreadySent)
	assert.Nil(t, result)
}

func TestNotificationService_SendNow_InactiveNotification(t *testing.T) {
	service, notificationRepo, _, _ := createTestNotificationService(t)

	ctx := context.Background()
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Paused",
		Message:    "body",
		IsActive:   false,
		SendStatus: entity.SendStatusDraft,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{NotificationID: &existing.ID})

	require.ErrorIs(t, err, domainerrors.ErrNotificationInactive)
	assert.Nil(t, result)
}

func TestNotificationService_SendNow_RecordedZeroSuccess(t *testing.T) {
	service, notificationRepo, dispatcher, events := createTestNotificationService(t)

	ctx := context.Background()
	existing := &entity.MarketingNotification{
		ID:         uuid.New(),
		Title:      "Unlucky",
		Message:    "body",
		IsActive:   true,
		SendStatus: entity.SendStatusDraft,
	}

	notificationRepo.EXPECT().FindNotificationByID(ctx, existing.ID).Return(existing, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, existing.ID).Return(true, nil)
	dispatcher.EXPECT().Dispatch(ctx, mock.Anything).
		Return(&usecase.DispatchResult{Sent: 0, Failed: 2}, nil)
	notificationRepo.EXPECT().MarkFailed(ctx, existing.ID, "no deliveries succeeded").Return(nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil)

	result, err := service.SendNow(ctx, &usecase.SendRequest{NotificationID: &existing.ID})

	require.NoError(t, err, "a fully rejected fan-out is still a settled dispatch, not a request error")
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 2, result.Failed)
}

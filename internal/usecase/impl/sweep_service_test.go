package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"backoffice/config"
	"backoffice/internal/domain/entity"
	mockRepo "backoffice/internal/mocks/repository"
	mockSvc "backoffice/internal/mocks/service"
	mockUC "backoffice/internal/mocks/usecase"
	"backoffice/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestSweepService(t *testing.T) (
	usecase.SweepUsecase,
	*mockRepo.MockNotificationRepository,
	*mockUC.MockDispatchUsecase,
	*mockSvc.MockEventPublisher,
) {
	notificationRepo := mockRepo.NewMockNotificationRepository(t)
	dispatcher := mockUC.NewMockDispatchUsecase(t)
	events := mockSvc.NewMockEventPublisher(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sweep := NewSweepService(logger, notificationRepo, dispatcher, events, &config.Config{
		Sweep: &config.SweepConfig{BatchSize: 50},
	})

	return sweep, notificationRepo, dispatcher, events
}

func scheduledNotification(title string, scheduledFor time.Time) *entity.MarketingNotification {
	return &entity.MarketingNotification{
		ID:           uuid.New(),
		Title:        title,
		Message:      "message for " + title,
		IsActive:     true,
		ScheduledFor: &scheduledFor,
		SendStatus:   entity.SendStatusScheduled,
	}
}

func TestSweepService_ProcessDue_NothingDue(t *testing.T) {
	sweep, notificationRepo, _, _ := createTestSweepService(t)

	ctx := context.Background()
	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return([]*entity.MarketingNotification{}, nil)

	summary, err := sweep.ProcessDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
	assert.NotEmpty(t, summary.Message)
}

func TestSweepService_ProcessDue_DispatchesInScheduledOrder(t *testing.T) {
	sweep, notificationRepo, dispatcher, events := createTestSweepService(t)

	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	first := scheduledNotification("first", base)
	second := scheduledNotification("second", base.Add(time.Minute))
	third := scheduledNotification("third", base.Add(2*time.Minute))

	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return([]*entity.MarketingNotification{first, second, third}, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, mock.Anything).Return(true, nil).Times(3)

	var dispatched []string
	dispatcher.EXPECT().Dispatch(ctx, mock.Anything).
		RunAndReturn(func(_ context.Context, content *usecase.NotificationContent) (*usecase.DispatchResult, error) {
			dispatched = append(dispatched, content.Title)

			return &usecase.DispatchResult{Sent: 2}, nil
		}).Times(3)

	notificationRepo.EXPECT().MarkSent(ctx, mock.Anything, mock.Anything).Return(nil).Times(3)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil).Times(3)

	summary, err := sweep.ProcessDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, dispatched,
		"due notifications are processed sequentially, oldest first")
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
}

func TestSweepService_ProcessDue_SkipsRowsClaimedElsewhere(t *testing.T) {
	sweep, notificationRepo, dispatcher, events := createTestSweepService(t)

	ctx := context.Background()
	taken := scheduledNotification("taken", time.Now().Add(-time.Minute))
	free := scheduledNotification("free", time.Now().Add(-time.Minute))

	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return([]*entity.MarketingNotification{taken, free}, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, taken.ID).Return(false, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, free.ID).Return(true, nil)

	dispatcher.EXPECT().Dispatch(ctx, mock.Anything).Return(&usecase.DispatchResult{Sent: 1}, nil).Once()
	notificationRepo.EXPECT().MarkSent(ctx, free.ID, mock.Anything).Return(nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil)

	summary, err := sweep.ProcessDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed, "a row claimed by another invocation is skipped, not failed")
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 0, summary.Failed)
}

func TestSweepService_ProcessDue_FailureDoesNotHaltBatch(t *testing.T) {
	sweep, notificationRepo, dispatcher, events := createTestSweepService(t)

	ctx := context.Background()
	broken := scheduledNotification("broken", time.Now().Add(-2*time.Minute))
	healthy := scheduledNotification("healthy", time.Now().Add(-time.Minute))

	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return([]*entity.MarketingNotification{broken, healthy}, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, mock.Anything).Return(true, nil).Times(2)

	dispatcher.EXPECT().Dispatch(ctx, mock.MatchedBy(func(content *usecase.NotificationContent) bool {
		return content.Title == "broken"
	})).Return(nil, &usecase.DispatchError{Cause: errors.New("credential exchange failed")})

	dispatcher.EXPECT().Dispatch(ctx, mock.MatchedBy(func(content *usecase.NotificationContent) bool {
		return content.Title == "healthy"
	})).Return(&usecase.DispatchResult{Sent: 4}, nil)

	notificationRepo.EXPECT().MarkFailed(ctx, broken.ID, mock.Anything).Return(nil)
	notificationRepo.EXPECT().MarkSent(ctx, healthy.ID, mock.Anything).Return(nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil).Once()

	summary, err := sweep.ProcessDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], broken.ID.String())
}

func TestSweepService_ProcessDue_ZeroSuccessesMarksFailed(t *testing.T) {
	sweep, notificationRepo, dispatcher, events := createTestSweepService(t)

	ctx := context.Background()
	notification := scheduledNotification("all-rejected", time.Now().Add(-time.Minute))

	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return([]*entity.MarketingNotification{notification}, nil)
	notificationRepo.EXPECT().ClaimForSending(ctx, notification.ID).Return(true, nil)

	dispatcher.EXPECT().Dispatch(ctx, mock.Anything).
		Return(&usecase.DispatchResult{Sent: 0, Failed: 3, Errors: []string{"token-1: rejected"}}, nil)

	notificationRepo.EXPECT().MarkFailed(ctx, notification.ID, "no deliveries succeeded").Return(nil)
	events.EXPECT().PublishDispatchEvent(ctx, mock.Anything).Return(nil)

	summary, err := sweep.ProcessDue(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
}

func TestSweepService_ProcessDue_QueryFailure(t *testing.T) {
	sweep, notificationRepo, _, _ := createTestSweepService(t)

	ctx := context.Background()
	notificationRepo.EXPECT().FindDueScheduled(ctx, mock.Anything, 50).
		Return(nil, errors.New("connection refused"))

	summary, err := sweep.ProcessDue(ctx)

	require.Error(t, err)
	assert.Nil(t, summary)
}

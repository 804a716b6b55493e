package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"backoffice/internal/domain/entity"
	"backoffice/internal/domain/service"
	mockRepo "backoffice/internal/mocks/repository"
	mockSvc "backoffice/internal/mocks/service"
	"backoffice/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestDispatchService(t *testing.T) (
	usecase.DispatchUsecase,
	*mockRepo.MockDeviceRepository,
	*mockSvc.MockTokenSource,
	*mockSvc.MockPushSender,
) {
	deviceRepo := mockRepo.NewMockDeviceRepository(t)
	tokens := mockSvc.NewMockTokenSource(t)
	sender := mockSvc.NewMockPushSender(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dispatcher := NewDispatchService(logger, deviceRepo, tokens, sender)

	return dispatcher, deviceRepo, tokens, sender
}

func testDevices(tokens ...string) []*entity.Device {
	devices := make([]*entity.Device, 0, len(tokens))
	for _, token := range tokens {
		devices = append(devices, &entity.Device{Token: token, Platform: "android", IsActive: true})
	}

	return devices
}

func TestDispatchService_Dispatch_EmptyAudience(t *testing.T) {
	dispatcher, deviceRepo, _, _ := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).Return([]*entity.Device{}, nil)

	// No token exchange and no sends may happen for an empty audience.
	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Hello", Message: "World"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestDispatchService_Dispatch_AllSucceed(t *testing.T) {
	dispatcher, deviceRepo, tokens, sender := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).Return(testDevices("token-1", "token-2", "token-3"), nil)
	tokens.EXPECT().AccessToken(ctx).Return("bearer-abc", nil)
	sender.EXPECT().Send(ctx, "bearer-abc", mock.Anything).Return(nil).Times(3)

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Promo", Message: "2 for 1"})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.ImageWarning)
}

func TestDispatchService_Dispatch_PartialFailure(t *testing.T) {
	dispatcher, deviceRepo, tokens, sender := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).
		Return(testDevices("token-1", "token-2", "token-3", "token-4", "token-5"), nil)
	tokens.EXPECT().AccessToken(ctx).Return("bearer-abc", nil)

	rejected := map[string]bool{"token-2": true, "token-4": true}
	sender.EXPECT().Send(ctx, "bearer-abc", mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, msg *service.PushMessage) error {
			if rejected[msg.Token] {
				return &service.PushError{Token: msg.Token, StatusCode: 404, Reason: "UNREGISTERED"}
			}

			return nil
		}).Times(5)

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Promo", Message: "2 for 1"})

	require.NoError(t, err, "per-device rejections must never fail the dispatch")
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 2, result.Failed)
	assert.Len(t, result.Errors, 2)
}

func TestDispatchService_Dispatch_ImageRejectedRetriesTextOnly(t *testing.T) {
	dispatcher, deviceRepo, tokens, sender := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).Return(testDevices("token-1"), nil)
	tokens.EXPECT().AccessToken(ctx).Return("bearer-abc", nil)

	sender.EXPECT().Send(ctx, "bearer-abc", mock.MatchedBy(func(msg *service.PushMessage) bool {
		return msg.ImageURL != ""
	})).Return(&service.PushError{Token: "token-1", StatusCode: 400, Reason: "invalid image url", ImageRejected: true}).Once()

	sender.EXPECT().Send(ctx, "bearer-abc", mock.MatchedBy(func(msg *service.PushMessage) bool {
		return msg.ImageURL == ""
	})).Return(nil).Once()

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{
		Title:    "Promo",
		Message:  "2 for 1",
		ImageURL: "https://cdn.example.com/banner.png",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent, "text-only delivery still counts as sent")
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.ImageDroppedFor)
	assert.NotEmpty(t, result.ImageWarning)
}

func TestDispatchService_Dispatch_CredentialFailure(t *testing.T) {
	dispatcher, deviceRepo, tokens, _ := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).Return(testDevices("token-1", "token-2"), nil)
	tokens.EXPECT().AccessToken(ctx).
		Return("", &service.CredentialExchangeError{StatusCode: 401, Body: "invalid_grant"})

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Promo", Message: "2 for 1"})

	require.Error(t, err)
	assert.Nil(t, result)

	var dispatchErr *usecase.DispatchError
	require.ErrorAs(t, err, &dispatchErr)

	var credErr *service.CredentialExchangeError
	assert.ErrorAs(t, err, &credErr)
}

func TestDispatchService_Dispatch_DeviceListError(t *testing.T) {
	dispatcher, deviceRepo, _, _ := createTestDispatchService(t)

	ctx := context.Background()
	deviceRepo.EXPECT().ListActiveDevices(ctx).Return(nil, errors.New("connection refused"))

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Promo", Message: "2 for 1"})

	require.Error(t, err)
	assert.Nil(t, result)

	var dispatchErr *usecase.DispatchError
	assert.ErrorAs(t, err, &dispatchErr)
}

func TestDispatchService_Dispatch_ErrorDetailsBounded(t *testing.T) {
	dispatcher, deviceRepo, tokens, sender := createTestDispatchService(t)

	ctx := context.Background()

	deviceTokens := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		deviceTokens = append(deviceTokens, "token-"+string(rune('a'+i)))
	}

	deviceRepo.EXPECT().ListActiveDevices(ctx).Return(testDevices(deviceTokens...), nil)
	tokens.EXPECT().AccessToken(ctx).Return("bearer-abc", nil)
	sender.EXPECT().Send(ctx, "bearer-abc", mock.Anything).
		Return(&service.PushError{StatusCode: 500, Reason: "internal"}).Times(25)

	result, err := dispatcher.Dispatch(ctx, &usecase.NotificationContent{Title: "Promo", Message: "2 for 1"})

	require.NoError(t, err)
	assert.Equal(t, 25, result.Failed)
	assert.Len(t, result.Errors, maxErrorDetails)
}

// Package impl provides the concrete implementations of the use-case interfaces.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"backoffice/internal/domain/entity"
	"backoffice/internal/domain/repository"
	"backoffice/internal/domain/service"
	"backoffice/internal/errors"
	"backoffice/internal/usecase"
)

// maxErrorDetails bounds the per-device error strings carried in a
// DispatchResult so a large device registry cannot blow up the response.
const maxErrorDetails = 10

// tokenPreviewLen is how many leading characters of a device token are kept
// in error details. Full tokens are credentials and never logged.
const tokenPreviewLen = 12

type dispatchService struct {
	logger     *slog.Logger
	deviceRepo repository.DeviceRepository
	tokens     service.TokenSource
	sender     service.PushSender
}

// NewDispatchService creates the fan-out dispatcher.
func NewDispatchService(
	logger *slog.Logger,
	deviceRepo repository.DeviceRepository,
	tokens service.TokenSource,
	sender service.PushSender,
) usecase.DispatchUsecase {
	return &dispatchService{
		logger:     logger,
		deviceRepo: deviceRepo,
		tokens:     tokens,
		sender:     sender,
	}
}

// deviceOutcome is the settled result of one per-device send.
type deviceOutcome struct {
	token        string
	err          error
	imageDropped bool
}

// Dispatch fans the content out to every active device. The device list is
// fetched fresh on every call and the bearer token is exchanged fresh as
// well; nothing here is cached between dispatches.
func (s *dispatchService) Dispatch(ctx context.Context, content *usecase.NotificationContent) (*usecase.DispatchResult, error) {
	devices, err := s.deviceRepo.ListActiveDevices(ctx)
	if err != nil {
		return nil, &usecase.DispatchError{Cause: errors.Wrap(err, "failed to list active devices")}
	}

	if len(devices) == 0 {
		s.logger.Info("No active devices registered, nothing to dispatch",
			slog.String("title", content.Title))

		return &usecase.DispatchResult{}, nil
	}

	bearer, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, &usecase.DispatchError{Cause: err}
	}

	outcomes := make(chan deviceOutcome, len(devices))

	var wg sync.WaitGroup
	for _, device := range devices {
		wg.Add(1)

		go func(device *entity.Device) {
			defer wg.Done()
			outcomes <- s.sendToDevice(ctx, bearer, device, content)
		}(device)
	}

	wg.Wait()
	close(outcomes)

	result := &usecase.DispatchResult{}
	for outcome := range outcomes {
		if outcome.imageDropped {
			result.ImageDroppedFor++
		}

		if outcome.err == nil {
			result.Sent++

			continue
		}

		result.Failed++
		if len(result.Errors) < maxErrorDetails {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: %v", previewToken(outcome.token), outcome.err))
		}
	}

	if result.ImageDroppedFor > 0 {
		result.ImageWarning = fmt.Sprintf(
			"provider rejected the image for %d device(s); text was delivered without it",
			result.ImageDroppedFor)
	}

	s.logger.Info("Dispatch settled",
		slog.String("title", content.Title),
		slog.Int("devices", len(devices)),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("image_dropped_for", result.ImageDroppedFor))

	return result, nil
}

// sendToDevice performs one per-device send. When the provider rejects the
// image attachment specifically, the send is retried once without the image
// so the text content still reaches the device.
func (s *dispatchService) sendToDevice(ctx context.Context, bearer string, device *entity.Device, content *usecase.NotificationContent) deviceOutcome {
	msg := &service.PushMessage{
		Token:    device.Token,
		Title:    content.Title,
		Body:     content.Message,
		ImageURL: content.ImageURL,
	}

	err := s.sender.Send(ctx, bearer, msg)
	if err == nil {
		return deviceOutcome{token: device.Token}
	}

	var pushErr *service.PushError
	if errors.As(err, &pushErr) && pushErr.ImageRejected && content.ImageURL != "" {
		textOnly := *msg
		textOnly.ImageURL = ""

		if retryErr := s.sender.Send(ctx, bearer, &textOnly); retryErr != nil {
			return deviceOutcome{token: device.Token, err: retryErr, imageDropped: true}
		}

		s.logger.Warn("Image attachment rejected, delivered text-only",
			slog.String("token", previewToken(device.Token)),
			slog.String("image_url", content.ImageURL))

		return deviceOutcome{token: device.Token, imageDropped: true}
	}

	return deviceOutcome{token: device.Token, err: err}
}

func previewToken(token string) string {
	if len(token) <= tokenPreviewLen {
		return token
	}

	return token[:tokenPreviewLen] + "..."
}

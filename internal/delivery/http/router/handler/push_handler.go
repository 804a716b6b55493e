package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"backoffice/config"
	deliverycontext "backoffice/internal/delivery/context"
	"backoffice/internal/delivery/http/response"
	"backoffice/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

// tokenValidator validates an OIDC identity token against an audience.
// Swappable so tests do not need Google's certificate endpoint.
type tokenValidator func(ctx context.Context, token, audience string) error

// PushHandler exposes the push pipeline endpoints: the interactive send and
// the scheduled sweep trigger.
type PushHandler struct {
	notificationUC usecase.NotificationUsecase
	sweepUC        usecase.SweepUsecase
	cfg            *config.Config
	logger         *slog.Logger
	validateToken  tokenValidator
}

// NewPushHandler is the constructor for PushHandler
func NewPushHandler(
	notificationUC usecase.NotificationUsecase,
	sweepUC usecase.SweepUsecase,
	cfg *config.Config,
	logger *slog.Logger,
) *PushHandler {
	return &PushHandler{
		notificationUC: notificationUC,
		sweepUC:        sweepUC,
		cfg:            cfg,
		logger:         logger,
		validateToken:  validateGoogleIDToken,
	}
}

// SendPushRequest represents the request body for an immediate send
type SendPushRequest struct {
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	ImageURL       *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	NotificationID *uuid.UUID `json:"notification_id,omitempty"`
}

// SendPushNotification dispatches a notification to every registered device
// right now. The response body is the raw dispatch tally; the caller's UI
// renders it directly.
func (h *PushHandler) SendPushNotification(c echo.Context) error {
	var req SendPushRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid send input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.NotificationID == nil &&
		(strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "") {
		return response.BadRequest(c, "VALIDATION_ERROR", "title and message are required")
	}

	ctx := c.Request().Context()
	result, err := h.notificationUC.SendNow(ctx, &usecase.SendRequest{
		Title:          req.Title,
		Message:        req.Message,
		ImageURL:       req.ImageURL,
		NotificationID: req.NotificationID,
	})
	if err != nil {
		var dispatchErr *usecase.DispatchError
		if errors.As(err, &dispatchErr) {
			logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)
			logger.Error("Dispatch failed before any send", slog.Any("error", err))

			return response.Error(c, http.StatusBadGateway, "DISPATCH_FAILED",
				"Push dispatch failed", dispatchErr.Error())
		}

		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ProcessScheduled runs one sweep over due scheduled notifications. It is
// called by the platform scheduler; when an audience is configured the
// caller must present a valid Google-signed OIDC identity token.
func (h *PushHandler) ProcessScheduled(c echo.Context) error {
	ctx := c.Request().Context()

	if audience := h.sweepAudience(); audience != "" {
		token := bearerToken(c)
		if token == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Identity token is required")
		}

		if err := h.validateToken(ctx, token, audience); err != nil {
			logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)
			logger.Warn("Rejected sweep trigger", slog.Any("error", err))

			return response.Unauthorized(c, "INVALID_TOKEN", "Identity token rejected")
		}
	}

	summary, err := h.sweepUC.ProcessDue(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

func (h *PushHandler) sweepAudience() string {
	if h.cfg.Sweep == nil {
		return ""
	}

	return h.cfg.Sweep.Audience
}

func bearerToken(c echo.Context) string {
	authorization := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(authorization, "Bearer ")
	if token == authorization {
		return ""
	}

	return strings.TrimSpace(token)
}

// validateGoogleIDToken checks the token signature and audience, and that
// the token was issued by Google.
func validateGoogleIDToken(ctx context.Context, token, audience string) error {
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	return nil
}

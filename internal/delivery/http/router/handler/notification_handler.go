// Package handler contains the HTTP request handlers.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/delivery/http/response"
	"backoffice/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// NotificationHandler holds dependencies for notification management handlers
type NotificationHandler struct {
	uc     usecase.NotificationUsecase
	logger *slog.Logger
}

// NewNotificationHandler is the constructor for NotificationHandler
func NewNotificationHandler(uc usecase.NotificationUsecase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		uc:     uc,
		logger: logger,
	}
}

// CreateNotificationRequest represents the request body for creating a notification
type CreateNotificationRequest struct {
	Title        string     `json:"title" validate:"required"`
	Message      string     `json:"message" validate:"required"`
	ImageURL     *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// UpdateNotificationRequest represents the request body for editing a notification.
// Absent fields are left unchanged.
type UpdateNotificationRequest struct {
	Title        *string    `json:"title,omitempty"`
	Message      *string    `json:"message,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

// CreateNotification handles creating a new marketing notification
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid notification input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	notification, err := h.uc.CreateNotification(c.Request().Context(), &usecase.CreateNotificationInput{
		Title:        req.Title,
		Message:      req.Message,
		ImageURL:     req.ImageURL,
		ScheduledFor: req.ScheduledFor,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusCreated, notification, "Notification created successfully")
}

// GetNotification handles retrieving a single notification by ID
func (h *NotificationHandler) GetNotification(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Notification ID must be a valid UUID")
	}

	notification, err := h.uc.GetNotification(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, notification, "")
}

// ListNotifications handles retrieving the notification list, newest first
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	limit := defaultListLimit
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	notifications, err := h.uc.ListNotifications(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"notifications": notifications,
		"limit":         limit,
		"offset":        offset,
	}, "")
}

// UpdateNotification handles editing a draft, scheduled or failed notification
func (h *NotificationHandler) UpdateNotification(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Notification ID must be a valid UUID")
	}

	var req UpdateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid notification input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	notification, err := h.uc.UpdateNotification(c.Request().Context(), id, &usecase.UpdateNotificationInput{
		Title:        req.Title,
		Message:      req.Message,
		ImageURL:     req.ImageURL,
		ScheduledFor: req.ScheduledFor,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, notification, "Notification updated successfully")
}

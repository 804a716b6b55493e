package errors

import (
	"net/http"

	"backoffice/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Notification-related errors
	ErrNotificationNotFound = NewBaseError(
		http.StatusNotFound,
		"NOTIFICATION_NOT_FOUND",
		"Notification not found",
		"",
	)

	ErrNotificationImmutable = NewBaseError(
		http.StatusConflict,
		"NOTIFICATION_IMMUTABLE",
		"Notification can no longer be edited",
		"",
	)

	ErrNotificationAlreadySent = NewBaseError(
		http.StatusConflict,
		"NOTIFICATION_ALREADY_SENT",
		"Notification has already been sent",
		"",
	)

	ErrInvalidContent = NewBaseError(
		http.StatusBadRequest,
		"INVALID_CONTENT",
		"Title and message are required",
		"",
	)

	ErrNotificationInactive = NewBaseError(
		http.StatusConflict,
		"NOTIFICATION_INACTIVE",
		"Inactive notifications cannot be dispatched",
		"",
	)

	ErrScheduleInPast = NewBaseError(
		http.StatusBadRequest,
		"SCHEDULE_IN_PAST",
		"scheduled_for must be in the future",
		"",
	)

	ErrNotificationCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"NOTIFICATION_CREATION_FAILED",
		"Failed to create notification",
		"",
	)

	// Push pipeline errors
	ErrPushNotConfigured = NewBaseError(
		http.StatusInternalServerError,
		"PUSH_NOT_CONFIGURED",
		"Push credentials are not configured",
		"",
	)

	ErrDispatchFailed = NewBaseError(
		http.StatusBadGateway,
		"DISPATCH_FAILED",
		"Push dispatch failed",
		"",
	)

	// Infrastructure errors
	ErrDatabaseExecute = NewBaseError(
		http.StatusInternalServerError,
		"DATABASE_EXECUTE_ERROR",
		"Database operation failed",
		"",
	)
)

// NewDatabaseExecuteError wraps a low-level database error with context while
// keeping the generic AppError surface for the delivery layer.
func NewDatabaseExecuteError(err error, context string) error {
	return errors.Wrap(ErrDatabaseExecute.WithDetails(err.Error()), context)
}

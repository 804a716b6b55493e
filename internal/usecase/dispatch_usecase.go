// Package usecase defines the application use-case interfaces and their DTOs.
package usecase

import (
	"context"
	"fmt"
)

// NotificationContent is the provider-agnostic content of one dispatch.
type NotificationContent struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	ImageURL string `json:"image_url,omitempty"`
}

// DispatchResult aggregates the outcome of one fan-out. It is ephemeral and
// never persisted as its own entity.
type DispatchResult struct {
	// Sent is the number of devices the provider accepted the request for.
	Sent int `json:"sent"`

	// Failed is the number of devices the provider rejected.
	Failed int `json:"failed"`

	// ImageWarning is set when the provider rejected the image attachment for
	// some devices while the text content was still delivered.
	ImageWarning string `json:"image_warning,omitempty"`

	// ImageDroppedFor counts the devices affected by the image rejection.
	ImageDroppedFor int `json:"image_dropped_for,omitempty"`

	// Errors holds per-device error strings, bounded to avoid unbounded growth.
	Errors []string `json:"errors,omitempty"`
}

// DispatchError is a fatal dispatch failure: no per-device send was even
// attempted (missing credentials, device registry unreachable). Individual
// per-device rejections are never a DispatchError.
type DispatchError struct {
	Cause error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed: %v", e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// DispatchUsecase fans one notification's content out to every currently
// registered device.
type DispatchUsecase interface {
	// Dispatch fetches the active device list fresh, sends one message per
	// device concurrently and waits for all sends to settle. An empty device
	// list yields a zero-valued result and no error.
	Dispatch(ctx context.Context, content *NotificationContent) (*DispatchResult, error)
}

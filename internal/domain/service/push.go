// Package service defines interfaces for external collaborators of the domain.
package service

import (
	"context"
	"fmt"
)

// PushMessage is the provider-agnostic content of a single per-device send.
type PushMessage struct {
	Token    string // Destination device token.
	Title    string
	Body     string
	ImageURL string // Optional; empty means text-only.
}

// PushSender submits one message to the push provider's per-message send
// endpoint, authenticated with the supplied bearer token. A returned error
// describes that one device's outcome only.
type PushSender interface {
	Send(ctx context.Context, bearerToken string, msg *PushMessage) error
}

// TokenSource produces a short-lived bearer token for the push provider's
// send API. Implementations do not cache; callers request a fresh token at
// the top of each dispatch since dispatch volume is low.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// PushError is a per-device delivery rejection from the provider.
type PushError struct {
	Token         string // Device token the rejection applies to.
	StatusCode    int    // HTTP status returned by the provider, 0 for transport errors.
	Reason        string // Provider error payload or transport error text.
	ImageRejected bool   // True when the provider rejected the image attachment specifically.
}

func (e *PushError) Error() string {
	if e.ImageRejected {
		return fmt.Sprintf("push rejected for image attachment (status %d): %s", e.StatusCode, e.Reason)
	}

	return fmt.Sprintf("push rejected (status %d): %s", e.StatusCode, e.Reason)
}

// CredentialExchangeError is returned when the token endpoint rejects the
// signed assertion or is unreachable. It is fatal for the enclosing dispatch
// and is never retried at this layer.
type CredentialExchangeError struct {
	StatusCode int    // HTTP status from the token endpoint, 0 for transport errors.
	Body       string // The endpoint's error payload, if any.
	Err        error  // Underlying cause, if any.
}

func (e *CredentialExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("credential exchange failed: %v", e.Err)
	}

	return fmt.Sprintf("credential exchange failed (status %d): %s", e.StatusCode, e.Body)
}

func (e *CredentialExchangeError) Unwrap() error {
	return e.Err
}

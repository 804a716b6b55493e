package push

import (
	"context"

	"backoffice/internal/domain/service"

	"github.com/pkg/errors"
)

// Deployments without push credentials still run the management API; the
// pipeline endpoints then fail at dispatch time with a credential error
// instead of keeping the whole service from starting.

type unconfiguredTokenSource struct{}

// NewUnconfiguredTokenSource returns a TokenSource that fails every exchange.
func NewUnconfiguredTokenSource() service.TokenSource {
	return unconfiguredTokenSource{}
}

func (unconfiguredTokenSource) AccessToken(_ context.Context) (string, error) {
	return "", &service.CredentialExchangeError{Err: errors.New("push credentials are not configured")}
}

type unconfiguredSender struct{}

// NewUnconfiguredSender returns a PushSender that rejects every send.
func NewUnconfiguredSender() service.PushSender {
	return unconfiguredSender{}
}

func (unconfiguredSender) Send(_ context.Context, _ string, msg *service.PushMessage) error {
	return &service.PushError{Token: msg.Token, Reason: "push sender is not configured"}
}

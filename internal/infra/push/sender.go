package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"backoffice/config"
	"backoffice/internal/domain/service"

	"github.com/pkg/errors"
)

// httpSender implements service.PushSender against the provider's HTTP v1
// per-message send endpoint. One POST per device token; every error it
// returns describes that single device only.
type httpSender struct {
	endpoint   string
	projectID  string
	httpClient *http.Client
}

// NewHTTPSender is the constructor for httpSender.
func NewHTTPSender(cfg *config.PushConfig) (service.PushSender, error) {
	if cfg == nil || cfg.ProjectID == "" {
		return nil, errors.New("push project is not configured")
	}

	return &httpSender{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		projectID: cfg.ProjectID,
		// The client timeout is the per-device send bound; a timed-out send
		// is a per-device failure, never a fatal dispatch error.
		httpClient: &http.Client{Timeout: cfg.SendTimeout},
	}, nil
}

// sendRequest is the provider wire format for a single message.
type sendRequest struct {
	Message sendMessage `json:"message"`
}

type sendMessage struct {
	Token        string           `json:"token"`
	Notification sendNotification `json:"notification"`
}

type sendNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
}

// Send submits one message addressed to msg.Token.
func (s *httpSender) Send(ctx context.Context, bearerToken string, msg *service.PushMessage) error {
	payload, err := json.Marshal(sendRequest{
		Message: sendMessage{
			Token: msg.Token,
			Notification: sendNotification{
				Title: msg.Title,
				Body:  msg.Body,
				Image: msg.ImageURL,
			},
		},
	})
	if err != nil {
		return &service.PushError{Token: msg.Token, Reason: err.Error()}
	}

	sendURL := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewReader(payload))
	if err != nil {
		return &service.PushError{Token: msg.Token, Reason: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Transport errors and timeouts count against this device only.
		return &service.PushError{Token: msg.Token, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	reason := strings.TrimSpace(string(body))

	return &service.PushError{
		Token:         msg.Token,
		StatusCode:    resp.StatusCode,
		Reason:        reason,
		ImageRejected: isImageRejection(resp.StatusCode, reason, msg.ImageURL),
	}
}

// isImageRejection reports whether a provider rejection is a validation error
// tied to the image attachment rather than a generic delivery failure. The
// provider surfaces these as INVALID_ARGUMENT responses referencing the
// notification image field.
func isImageRejection(statusCode int, body, imageURL string) bool {
	if imageURL == "" || statusCode != http.StatusBadRequest {
		return false
	}

	lowered := strings.ToLower(body)

	return strings.Contains(lowered, "image")
}

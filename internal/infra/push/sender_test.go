package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backoffice/config"
	"backoffice/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSender_Send_Success(t *testing.T) {
	var capturedPath, capturedAuth string
	var capturedBody sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"projects/test-project/messages/0:12345"}`))
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token:    "device-token-1",
		Title:    "Promo",
		Body:     "2 for 1",
		ImageURL: "https://cdn.example.com/banner.png",
	})

	require.NoError(t, err)
	assert.Equal(t, "/v1/projects/test-project/messages:send", capturedPath)
	assert.Equal(t, "Bearer bearer-abc", capturedAuth)
	assert.Equal(t, "device-token-1", capturedBody.Message.Token)
	assert.Equal(t, "Promo", capturedBody.Message.Notification.Title)
	assert.Equal(t, "2 for 1", capturedBody.Message.Notification.Body)
	assert.Equal(t, "https://cdn.example.com/banner.png", capturedBody.Message.Notification.Image)
}

func TestHTTPSender_Send_TextOnlyOmitsImage(t *testing.T) {
	var rawBody map[string]map[string]json.RawMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token: "device-token-1",
		Title: "Promo",
		Body:  "2 for 1",
	})

	require.NoError(t, err)

	var notification map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rawBody["message"]["notification"], &notification))
	assert.NotContains(t, notification, "image")
}

func TestHTTPSender_Send_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":"NOT_FOUND","message":"Requested entity was not found."}}`))
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token: "stale-token",
		Title: "Promo",
		Body:  "2 for 1",
	})

	require.Error(t, err)

	var pushErr *service.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, "stale-token", pushErr.Token)
	assert.Equal(t, http.StatusNotFound, pushErr.StatusCode)
	assert.False(t, pushErr.ImageRejected)
}

func TestHTTPSender_Send_ImageRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"status":"INVALID_ARGUMENT","message":"Invalid value at 'message.notification.image'"}}`))
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token:    "device-token-1",
		Title:    "Promo",
		Body:     "2 for 1",
		ImageURL: "not-a-url",
	})

	require.Error(t, err)

	var pushErr *service.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.True(t, pushErr.ImageRejected)
}

func TestHTTPSender_Send_ImageRejectionRequiresImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"status":"INVALID_ARGUMENT","message":"image related text in an unrelated error"}}`))
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token: "device-token-1",
		Title: "Promo",
		Body:  "2 for 1",
	})

	require.Error(t, err)

	var pushErr *service.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.False(t, pushErr.ImageRejected, "a message without an image can never be an image rejection")
}

func TestHTTPSender_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	sender, err := NewHTTPSender(&config.PushConfig{
		ProjectID:   "test-project",
		Endpoint:    server.URL,
		SendTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "bearer-abc", &service.PushMessage{
		Token: "device-token-1",
		Title: "Promo",
		Body:  "2 for 1",
	})

	require.Error(t, err)

	var pushErr *service.PushError
	require.ErrorAs(t, err, &pushErr)
	assert.Equal(t, 0, pushErr.StatusCode, "a timed-out send is a transport failure for that device")
}

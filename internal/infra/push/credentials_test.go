package push

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/config"
	"backoffice/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return key, string(pemData)
}

func TestTokenSource_AccessToken_Success(t *testing.T) {
	key, pemData := generateTestKey(t)

	var capturedGrantType, capturedAssertion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		capturedGrantType = r.PostFormValue("grant_type")
		capturedAssertion = r.PostFormValue("assertion")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	tokens, err := NewTokenSource(&config.PushConfig{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  pemData,
		TokenURI:    server.URL,
		Scope:       "https://www.googleapis.com/auth/firebase.messaging",
	})
	require.NoError(t, err)

	token, err := tokens.AccessToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ya29.test-token", token)
	assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", capturedGrantType)

	parsed, err := jwt.Parse(capturedAssertion, func(token *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodRS256.Alg(), token.Method.Alg())

		return &key.PublicKey, nil
	})
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "svc@example.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, "svc@example.iam.gserviceaccount.com", claims["sub"])
	assert.Equal(t, server.URL, claims["aud"])
	assert.Equal(t, "https://www.googleapis.com/auth/firebase.messaging", claims["scope"])

	iat, err := parsed.Claims.GetIssuedAt()
	require.NoError(t, err)
	exp, err := parsed.Claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Equal(t, assertionLifetime, exp.Sub(iat.Time))
}

func TestTokenSource_AccessToken_EndpointRejection(t *testing.T) {
	_, pemData := generateTestKey(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT signature."}`))
	}))
	defer server.Close()

	tokens, err := NewTokenSource(&config.PushConfig{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  pemData,
		TokenURI:    server.URL,
		Scope:       "https://www.googleapis.com/auth/firebase.messaging",
	})
	require.NoError(t, err)

	token, err := tokens.AccessToken(context.Background())

	require.Error(t, err)
	assert.Empty(t, token)

	var credErr *service.CredentialExchangeError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, http.StatusBadRequest, credErr.StatusCode)
	assert.Contains(t, credErr.Body, "invalid_grant")
}

func TestTokenSource_AccessToken_EndpointUnreachable(t *testing.T) {
	_, pemData := generateTestKey(t)

	// A closed server gives a connection error rather than an HTTP response.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	tokens, err := NewTokenSource(&config.PushConfig{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  pemData,
		TokenURI:    server.URL,
		Scope:       "https://www.googleapis.com/auth/firebase.messaging",
	})
	require.NoError(t, err)

	token, err := tokens.AccessToken(context.Background())

	require.Error(t, err)
	assert.Empty(t, token)

	var credErr *service.CredentialExchangeError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 0, credErr.StatusCode)
}

func TestNewTokenSource_MissingCredential(t *testing.T) {
	_, err := NewTokenSource(&config.PushConfig{})

	require.Error(t, err)
}

func TestNewTokenSource_InvalidKey(t *testing.T) {
	_, err := NewTokenSource(&config.PushConfig{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  "not a pem block",
	})

	require.Error(t, err)
}

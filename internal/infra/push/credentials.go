// Package push contains the concrete push-provider integration: the
// service-account credential exchange and the per-message send client.
package push

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"backoffice/config"
	"backoffice/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	grantTypeJWTBearer = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// assertionLifetime is the validity window asserted in the signed JWT.
	assertionLifetime = time.Hour

	// exchangeTimeout bounds the token endpoint round trip.
	exchangeTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error payload is carried in errors.
	maxErrorBody = 4 << 10
)

// serviceTokenSource implements service.TokenSource using the OAuth2
// JWT-bearer service-account flow: it signs an RS256 assertion with the
// configured private key and exchanges it at the token endpoint for a
// short-lived bearer token. Tokens are not cached; each dispatch requests
// a fresh one.
type serviceTokenSource struct {
	clientEmail string
	signingKey  *rsa.PrivateKey
	tokenURI    string
	scope       string
	httpClient  *http.Client
	now         func() time.Time
}

// NewTokenSource is the constructor for serviceTokenSource. It fails fast on
// missing or unparseable credential configuration.
func NewTokenSource(cfg *config.PushConfig) (service.TokenSource, error) {
	if cfg == nil || cfg.ClientEmail == "" {
		return nil, errors.New("push service-account credential is not configured")
	}

	pemData := cfg.PrivateKey
	if pemData == "" && cfg.PrivateKeyFile != "" {
		raw, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read push private key file")
		}
		pemData = string(raw)
	}
	if pemData == "" {
		return nil, errors.New("push private key is not configured")
	}

	signingKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse push private key")
	}

	return &serviceTokenSource{
		clientEmail: cfg.ClientEmail,
		signingKey:  signingKey,
		tokenURI:    cfg.TokenURI,
		scope:       cfg.Scope,
		httpClient:  &http.Client{Timeout: exchangeTimeout},
		now:         time.Now,
	}, nil
}

// AccessToken builds the signed assertion and exchanges it for a bearer token.
func (s *serviceTokenSource) AccessToken(ctx context.Context) (string, error) {
	assertion, err := s.signAssertion()
	if err != nil {
		return "", &service.CredentialExchangeError{Err: err}
	}

	form := url.Values{
		"grant_type": {grantTypeJWTBearer},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &service.CredentialExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &service.CredentialExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return "", &service.CredentialExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &service.CredentialExchangeError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", &service.CredentialExchangeError{StatusCode: resp.StatusCode, Err: err}
	}
	if tokenResp.AccessToken == "" {
		return "", &service.CredentialExchangeError{
			StatusCode: resp.StatusCode,
			Body:       "token response missing access_token",
		}
	}

	return tokenResp.AccessToken, nil
}

// signAssertion builds the header+claims JWT and signs it with RSA-SHA256.
// Issuer and subject are the service-account identity, the audience is the
// token endpoint itself.
func (s *serviceTokenSource) signAssertion() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"iss":   s.clientEmail,
		"sub":   s.clientEmail,
		"aud":   s.tokenURI,
		"scope": s.scope,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign assertion")
	}

	return signed, nil
}

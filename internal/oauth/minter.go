// Package oauth exchanges the service-account credential for short-lived
// bearer access tokens via the assertion-grant flow.
package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/vaweTech/authgate/internal/credentials"
	"github.com/vaweTech/authgate/internal/observability/logger"
)

// DefaultTokenURL is the provider's OAuth token endpoint.
const DefaultTokenURL = "https://oauth2.googleapis.com/token"

const (
	grantType         = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLifetime = time.Hour
)

// AccessToken is a minted bearer token. Not cached: re-minted per need and
// discarded after use.
type AccessToken struct {
	Token     string
	ProjectID string
	ExpiresAt time.Time
}

// Minter builds a signed assertion from the loaded credential and exchanges
// it at the token endpoint. All failures are non-fatal: the caller treats a
// false return as "fallback path unavailable".
type Minter struct {
	Credentials credentials.Provider
	TokenURL    string
	HTTPClient  *http.Client

	// ProjectOverride wins over the credential's own project field when
	// building document API URLs.
	ProjectOverride string

	now func() time.Time
}

// NewMinter creates a Minter with the provider token endpoint.
func NewMinter(p credentials.Provider, projectOverride string) *Minter {
	return &Minter{
		Credentials:     p,
		TokenURL:        DefaultTokenURL,
		HTTPClient:      &http.Client{Timeout: 15 * time.Second},
		ProjectOverride: projectOverride,
		now:             time.Now,
	}
}

// Mint exchanges an assertion scoped to the given capabilities for an
// access token. Returns false when no credential is configured or the
// exchange fails.
func (m *Minter) Mint(ctx context.Context, scopes []string) (*AccessToken, bool) {
	log := logger.From(ctx).With(logger.Component("oauth"))

	sa, ok := m.Credentials.Load()
	if !ok {
		return nil, false
	}

	assertion, err := m.signAssertion(sa, scopes)
	if err != nil {
		log.Warn("could not sign token assertion", logger.Err(err))
		return nil, false
	}

	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		log.Warn("token exchange request failed", logger.Err(err))
		return nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Warn("token exchange response unreadable", logger.Err(err))
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		log.Warn("token exchange rejected", logger.Int("status", resp.StatusCode))
		return nil, false
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.AccessToken == "" {
		log.Warn("token exchange response malformed", logger.Err(err))
		return nil, false
	}

	project := m.ProjectOverride
	if project == "" {
		project = sa.ProjectID
	}

	expiry := out.ExpiresIn
	if expiry <= 0 {
		expiry = int(assertionLifetime.Seconds())
	}

	return &AccessToken{
		Token:     out.AccessToken,
		ProjectID: project,
		ExpiresAt: m.now().Add(time.Duration(expiry) * time.Second),
	}, true
}

// signAssertion builds the RS256-signed JWT: issuer and subject are the
// credential principal, audience is the token endpoint, expiry one hour
// out.
func (m *Minter) signAssertion(sa *credentials.ServiceAccount, scopes []string) (string, error) {
	key, err := jwtv5.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return "", err
	}

	now := m.now()
	claims := jwtv5.MapClaims{
		"iss":   sa.ClientEmail,
		"sub":   sa.ClientEmail,
		"aud":   m.TokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionLifetime).Unix(),
		"scope": strings.Join(scopes, " "),
	}

	return jwtv5.NewWithClaims(jwtv5.SigningMethodRS256, claims).SignedString(key)
}

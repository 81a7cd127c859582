package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultLookupBaseURL is the identity provider's REST API root.
const DefaultLookupBaseURL = "https://identitytoolkit.googleapis.com/v1"

// AccountLookup confirms a raw ID token server-side and synthesizes a claim
// from the returned account record.
type AccountLookup interface {
	Lookup(ctx context.Context, idToken string) (*Claim, error)
}

// LookupClient calls the provider's accounts:lookup endpoint. It exists as
// a fallback tier for runtimes where local signature verification is not
// possible; the provider does the cryptographic work instead.
type LookupClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewLookupClient creates a LookupClient. An empty baseURL selects the
// provider default.
func NewLookupClient(baseURL, apiKey string) *LookupClient {
	if baseURL == "" {
		baseURL = DefaultLookupBaseURL
	}
	return &LookupClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID          string `json:"localId"`
		Email            string `json:"email"`
		Disabled         bool   `json:"disabled"`
		CustomAttributes string `json:"customAttributes"`
	} `json:"users"`
}

// Lookup posts the raw token to accounts:lookup and maps the first returned
// user into a Claim with ProvenanceLookup. The custom-attributes blob, when
// present, is a vendor JSON string; a "role" field inside it is surfaced on
// the claim.
func (c *LookupClient) Lookup(ctx context.Context, idToken string) (*Claim, error) {
	const op = "identity.lookup"

	body, err := json.Marshal(lookupRequest{IDToken: idToken})
	if err != nil {
		return nil, E(KindUnknown, CodeInternal, op, err)
	}

	url := fmt.Sprintf("%s/accounts:lookup?key=%s", c.BaseURL, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, E(KindUnknown, CodeInternal, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, ClassifyTransport(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ClassifyTransport(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, E(KindInvalid, CodeTokenInvalid, op,
			fmt.Errorf("account lookup returned %d", resp.StatusCode))
	}

	var out lookupResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, E(KindUnknown, CodeInternal, op, err)
	}
	if len(out.Users) == 0 {
		return nil, E(KindNotFound, CodeUserNotFound, op,
			fmt.Errorf("account lookup returned no users"))
	}

	u := out.Users[0]
	if u.Disabled {
		return nil, E(KindDisabled, CodeUserDisabled, op,
			fmt.Errorf("account %s is disabled", u.LocalID))
	}

	claim := &Claim{
		UID:        u.LocalID,
		Email:      u.Email,
		Provenance: ProvenanceLookup,
	}
	if u.CustomAttributes != "" {
		var attrs map[string]any
		if err := json.Unmarshal([]byte(u.CustomAttributes), &attrs); err == nil {
			if role, ok := attrs["role"].(string); ok {
				claim.Role = role
			}
		}
	}
	return claim, nil
}

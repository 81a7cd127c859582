package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vaweTech/authgate/internal/oauth"
	"github.com/vaweTech/authgate/internal/observability/logger"
)

// DefaultDocumentsBaseURL is the document REST API root.
const DefaultDocumentsBaseURL = "https://firestore.googleapis.com/v1"

// datastoreScope is the read capability the minted token is scoped to.
const datastoreScope = "https://www.googleapis.com/auth/datastore"

// DocumentRoles fetches a user's role from the document REST API. Used
// only when the primary store client fails with a transient error.
type DocumentRoles interface {
	FetchRole(ctx context.Context, uid string) (string, bool)
}

// RESTDocumentClient mints an access token per call and reads the user
// document directly over REST, extracting the role string field. Every
// failure is (="", false): this is a best-effort tier, never a thrower.
type RESTDocumentClient struct {
	Minter     *oauth.Minter
	BaseURL    string
	HTTPClient *http.Client
}

// NewRESTDocumentClient creates a client over the provider document API.
func NewRESTDocumentClient(minter *oauth.Minter) *RESTDocumentClient {
	return &RESTDocumentClient{
		Minter:     minter,
		BaseURL:    DefaultDocumentsBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type documentResponse struct {
	Fields map[string]struct {
		StringValue string `json:"stringValue"`
	} `json:"fields"`
}

func (c *RESTDocumentClient) FetchRole(ctx context.Context, uid string) (string, bool) {
	log := logger.From(ctx).With(logger.Component("roles"))

	tok, ok := c.Minter.Mint(ctx, []string{datastoreScope})
	if !ok {
		return "", false
	}
	if tok.ProjectID == "" {
		log.Warn("document role fetch skipped: no project identifier resolved")
		return "", false
	}

	url := fmt.Sprintf("%s/projects/%s/databases/(default)/documents/users/%s",
		c.BaseURL, tok.ProjectID, uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Authorization", "Bearer "+tok.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Warn("document role fetch failed", logger.Err(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn("document role fetch rejected", logger.Int("status", resp.StatusCode))
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", false
	}

	var doc documentResponse
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	role := doc.Fields["role"].StringValue
	if role == "" {
		return "", false
	}
	return role, true
}

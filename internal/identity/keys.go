package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/vaweTech/authgate/internal/observability/logger"
)

// DefaultCertURL serves the X509 certificates the identity provider signs
// ID tokens with, as a JSON object of kid -> PEM certificate.
const DefaultCertURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// DefaultCertTTL is how long fetched certificates are reused before a
// refresh. The provider rotates on the order of hours.
const DefaultCertTTL = time.Hour

// KeySource supplies the verification key for a given key ID.
type KeySource interface {
	PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// CertSource fetches and caches the provider's signing certificates.
// Fetches are deduplicated with singleflight so concurrent cold-cache
// requests trigger a single upstream call.
type CertSource struct {
	URL        string
	HTTPClient *http.Client
	TTL        time.Duration

	cache *gocache.Cache
	group singleflight.Group
}

// NewCertSource creates a CertSource for the given endpoint. An empty url
// selects DefaultCertURL.
func NewCertSource(url string) *CertSource {
	if url == "" {
		url = DefaultCertURL
	}
	return &CertSource{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		TTL:        DefaultCertTTL,
		cache:      gocache.New(DefaultCertTTL, 10*time.Minute),
	}
}

// PublicKey returns the RSA public key for kid, refreshing the certificate
// set when the kid is not cached.
func (s *CertSource) PublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if v, ok := s.cache.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}

	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}

	if v, ok := s.cache.Get(kid); ok {
		return v.(*rsa.PublicKey), nil
	}
	return nil, E(KindInvalid, CodeTokenInvalid, "identity.certs",
		fmt.Errorf("no certificate for kid %q", kid))
}

func (s *CertSource) refresh(ctx context.Context) error {
	const op = "identity.certs"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return E(KindUnknown, CodeInternal, op, err)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return ClassifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return E(KindNetwork, CodeNetwork, op,
			fmt.Errorf("certificate endpoint returned %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ClassifyTransport(op, err)
	}

	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return E(KindDecoder, CodeDecoderFailed, op, err)
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultCertTTL
	}

	for kid, pemData := range certs {
		key, err := parseCertKey(pemData)
		if err != nil {
			// One broken certificate is a decoder-class failure: the whole
			// set is suspect.
			return E(KindDecoder, CodeDecoderFailed, op, err)
		}
		s.cache.Set(kid, key, ttl)
	}

	logger.L().Debug("identity certificates refreshed",
		logger.Component("identity"), logger.Int("count", len(certs)))
	return nil
}

func parseCertKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block in certificate material")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is %T, want *rsa.PublicKey", cert.PublicKey)
	}
	return key, nil
}

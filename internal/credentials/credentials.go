// Package credentials loads the service-account credential used to mint
// short-lived access tokens for the REST fallback paths.
package credentials

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/vaweTech/authgate/internal/observability/logger"
)

// Environment sources, in priority order. A local file is the last resort.
const (
	EnvJSONBase64 = "SERVICE_ACCOUNT_B64"
	EnvJSON       = "SERVICE_ACCOUNT_JSON"
	DefaultFile   = "service-account.json"
)

// ServiceAccount is the parsed credential. Immutable once loaded.
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
}

// Provider supplies the process credential. An absent credential is
// (nil, false), never an error: callers treat it as "fallback path
// unavailable", not as a fatal condition.
type Provider interface {
	Load() (*ServiceAccount, bool)
}

// EnvFileProvider resolves the credential from the environment or a local
// file, parses it once, and caches the result for the process lifetime.
// The sources are static, so a racing first load is idempotent.
type EnvFileProvider struct {
	// File overrides the local file path. Empty selects DefaultFile
	// relative to the working directory.
	File string

	once sync.Once
	sa   *ServiceAccount
}

// NewEnvFileProvider creates a provider reading from the standard sources.
func NewEnvFileProvider(file string) *EnvFileProvider {
	if file == "" {
		file = DefaultFile
	}
	return &EnvFileProvider{File: file}
}

// Load returns the cached credential, resolving it on first call.
func (p *EnvFileProvider) Load() (*ServiceAccount, bool) {
	p.once.Do(func() {
		p.sa = p.resolve()
	})
	return p.sa, p.sa != nil
}

func (p *EnvFileProvider) resolve() *ServiceAccount {
	log := logger.Named("credentials")

	if b64 := strings.TrimSpace(os.Getenv(EnvJSONBase64)); b64 != "" {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			log.Warn("base64 credential source is not decodable", logger.Err(err))
		} else if sa := parse(raw); sa != nil {
			log.Info("service account loaded from base64 env")
			return sa
		}
	}

	if rawJSON := strings.TrimSpace(os.Getenv(EnvJSON)); rawJSON != "" {
		if sa := parse([]byte(rawJSON)); sa != nil {
			log.Info("service account loaded from raw JSON env")
			return sa
		}
	}

	if raw, err := os.ReadFile(p.File); err == nil {
		if sa := parse(raw); sa != nil {
			log.Info("service account loaded from file", logger.String("file", p.File))
			return sa
		}
	}

	log.Debug("no service account configured; REST fallback paths unavailable")
	return nil
}

func parse(raw []byte) *ServiceAccount {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		logger.Named("credentials").Warn("service account JSON is not parseable", logger.Err(err))
		return nil
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil
	}
	// Keys that traveled through env vars carry literal \n sequences.
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	return &sa
}

// Static is a Provider returning a fixed credential. Intended for tests.
type Static struct {
	SA *ServiceAccount
}

func (s Static) Load() (*ServiceAccount, bool) {
	return s.SA, s.SA != nil
}

// Package config loads the gateway configuration from an optional YAML
// file with environment-variable overrides on top.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vaweTech/authgate/internal/identity"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// memory | mongo | postgres
		Driver string `yaml:"driver"`
		Mongo  struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
		Postgres struct {
			DSN string `yaml:"dsn"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Identity struct {
		// APIKey enables the REST account-lookup fallback.
		APIKey    string `yaml:"api_key"`
		ProjectID string `yaml:"project_id"`

		// Endpoint overrides, mainly for tests. Empty selects the
		// provider defaults.
		CertURL          string `yaml:"cert_url"`
		LookupBaseURL    string `yaml:"lookup_base_url"`
		TokenURL         string `yaml:"token_url"`
		DocumentsBaseURL string `yaml:"documents_base_url"`

		// ServiceAccountFile overrides the local credential file path.
		ServiceAccountFile string `yaml:"service_account_file"`
	} `yaml:"identity"`

	Auth struct {
		// Comma-separated, normalized at parse time, immutable afterwards.
		AdminEmails      string `yaml:"admin_emails"`
		SuperadminEmails string `yaml:"superadmin_emails"`
	} `yaml:"auth"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Backend     string `yaml:"backend"` // memory | redis
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
		Redis       struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	Mail struct {
		// TLSInsecure is consumed by the outbound-mail collaborator, not
		// by the auth pipeline. Surfaced here so one config covers both.
		TLSInsecure bool `yaml:"tls_insecure"`
	} `yaml:"mail"`
}

// Load reads the YAML file at path (missing file is fine when path is
// empty or the default), applies env overrides and defaults.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	c.applyEnvOverrides()

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "authgate"
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}

	return &c, nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = v
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("MONGO_URI"); ok {
		c.Storage.Mongo.URI = v
	}
	if v, ok := getEnvStr("MONGO_DB"); ok {
		c.Storage.Mongo.Database = v
	}
	if v, ok := getEnvStr("POSTGRES_DSN"); ok {
		c.Storage.Postgres.DSN = v
	}

	// The identity API key historically shipped under several names;
	// accept them all, first hit wins.
	for _, key := range []string{"IDENTITY_API_KEY", "FIREBASE_API_KEY", "FIREBASE_WEB_API_KEY"} {
		if v, ok := getEnvStr(key); ok {
			c.Identity.APIKey = v
			break
		}
	}
	for _, key := range []string{"PROJECT_ID", "GOOGLE_CLOUD_PROJECT"} {
		if v, ok := getEnvStr(key); ok {
			c.Identity.ProjectID = v
			break
		}
	}
	if v, ok := getEnvStr("IDENTITY_CERT_URL"); ok {
		c.Identity.CertURL = v
	}
	if v, ok := getEnvStr("IDENTITY_LOOKUP_BASE_URL"); ok {
		c.Identity.LookupBaseURL = v
	}
	if v, ok := getEnvStr("IDENTITY_TOKEN_URL"); ok {
		c.Identity.TokenURL = v
	}
	if v, ok := getEnvStr("IDENTITY_DOCUMENTS_BASE_URL"); ok {
		c.Identity.DocumentsBaseURL = v
	}
	if v, ok := getEnvStr("SERVICE_ACCOUNT_FILE"); ok {
		c.Identity.ServiceAccountFile = v
	}

	if v, ok := getEnvStr("ADMIN_EMAILS"); ok {
		c.Auth.AdminEmails = v
	}
	if v, ok := getEnvStr("SUPERADMIN_EMAILS"); ok {
		c.Auth.SuperadminEmails = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}

	if v, ok := getEnvBool("MAIL_TLS_INSECURE"); ok {
		c.Mail.TLSInsecure = v
	}
}

// Production reports whether the runtime mode flag marks production. The
// degraded-access fallbacks widen only when this is false.
func (c *Config) Production() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Env))
	return env == "prod" || env == "production"
}

// RateWindow parses the configured window, defaulting to a minute.
func (c *Config) RateWindow() time.Duration {
	d, err := time.ParseDuration(c.Rate.Window)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// AdminAllowlist returns the normalized admin allow-list.
func (c *Config) AdminAllowlist() identity.Allowlist {
	return identity.ParseAllowlist(c.Auth.AdminEmails)
}

// SuperadminAllowlist returns the normalized superadmin allow-list.
func (c *Config) SuperadminAllowlist() identity.Allowlist {
	return identity.ParseAllowlist(c.Auth.SuperadminEmails)
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func getEnvBool(key string) (bool, bool) {
	v, ok := getEnvStr(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

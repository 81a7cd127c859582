package handlers

import (
	"net/http"

	"github.com/vaweTech/authgate/internal/config"
	"github.com/vaweTech/authgate/internal/http/middlewares"
)

// NewSuperadminConfigHandler exposes the running, non-secret configuration.
// Secrets (API keys, DSNs, credentials) are deliberately absent from the
// response shape rather than filtered at render time.
func NewSuperadminConfigHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"env":        cfg.App.Env,
			"production": cfg.Production(),
			"role":       middlewares.GetRole(r.Context()),
			"storage": map[string]any{
				"driver": cfg.Storage.Driver,
			},
			"rate": map[string]any{
				"enabled":      cfg.Rate.Enabled,
				"backend":      cfg.Rate.Backend,
				"max_requests": cfg.Rate.MaxRequests,
				"window":       cfg.RateWindow().String(),
			},
			"identity": map[string]any{
				"project_id": cfg.Identity.ProjectID,
			},
		})
	}
}

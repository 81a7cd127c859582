package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/vaweTech/authgate/internal/observability/logger"
)

// ReadyCheck probes one dependency. Name is used in the failure response.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewHealthzHandler answers liveness. It must not touch dependencies.
func NewHealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if v := os.Getenv("SERVICE_VERSION"); v != "" {
			w.Header().Set("X-Service-Version", v)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// NewReadyzHandler answers readiness by running each dependency check
// with a short deadline. First failure reports 503.
func NewReadyzHandler(checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, c := range checks {
			if c.Check == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := c.Check(ctx)
			cancel()
			if err != nil {
				logger.From(r.Context()).Error("readiness check failed",
					logger.String("check", c.Name), logger.Err(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"status": "unavailable",
					"check":  c.Name,
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}
}

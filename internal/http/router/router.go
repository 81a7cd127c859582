// Package router wires the HTTP surface: public probes, the
// authenticated API, and role-gated admin routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaweTech/authgate/internal/config"
	"github.com/vaweTech/authgate/internal/http/handlers"
	mw "github.com/vaweTech/authgate/internal/http/middlewares"
	"github.com/vaweTech/authgate/internal/rate"
	"github.com/vaweTech/authgate/internal/store/core"
)

// Deps carries everything the router needs. All fields except Verifier
// and Resolver may be nil; nil disables the corresponding feature.
type Deps struct {
	Config   *config.Config
	Verifier mw.TokenVerifier
	Resolver mw.RoleResolver
	Store    core.UserStore
	Limiter  rate.Limiter
	Registry *prometheus.Registry
	Checks   []handlers.ReadyCheck
}

// New builds the full route tree with the middleware ordering the API
// depends on: request ID and logging outermost, then rate limiting,
// then authn, then role gates.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithRecover())
	r.Use(mw.WithLogging())

	r.Get("/healthz", handlers.NewHealthzHandler())
	r.Get("/readyz", handlers.NewReadyzHandler(deps.Checks...))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	rateLimit := func(next http.Handler) http.Handler { return next }
	if deps.Limiter != nil && deps.Config != nil && deps.Config.Rate.Enabled {
		rateLimit = mw.WithRateLimit(mw.RateLimitConfig{
			Limiter: deps.Limiter,
			Limit:   deps.Config.Rate.MaxRequests,
			Window:  deps.Config.RateWindow(),
		})
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(rateLimit)
		v1.Use(mw.RequireAuth(deps.Verifier))

		v1.Get("/me", handlers.NewMeHandler())

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(mw.RequireAdmin(deps.Resolver))
			admin.Get("/ping", handlers.NewAdminPingHandler())
			admin.Get("/users/{uid}", handlers.NewAdminGetUserHandler(deps.Store))
			admin.Post("/announcements", handlers.NewAnnouncementHandler())
		})

		v1.Route("/superadmin", func(sa chi.Router) {
			sa.Use(mw.RequireSuperadmin(deps.Resolver))
			sa.Get("/config", handlers.NewSuperadminConfigHandler(deps.Config))
		})
	})

	return r
}

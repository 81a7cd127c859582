package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth pipeline Prometheus metrics. Defined in a standalone package to
// avoid import cycles between the identity/roles packages and HTTP.

var (
	VerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_verify_total",
		Help: "Token verifications by resulting provenance (or denied)",
	}, []string{"provenance"})

	FallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_verify_fallback_total",
		Help: "Verification fallback tier activations by tier and result",
	}, []string{"tier", "result"})

	RoleFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authgate_role_fallback_total",
		Help: "Role resolution fallback activations by tier and result",
	}, []string{"tier", "result"})

	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authgate_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Register registers the auth metrics on the given registry (or the default
// registry if nil). Double registration is tolerated.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		VerifyTotal,
		FallbackTotal,
		RoleFallbackTotal,
		RateLimitedTotal,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

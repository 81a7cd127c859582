package roles

import (
	"context"
	"errors"

	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/metrics"
	"github.com/vaweTech/authgate/internal/observability/logger"
	"github.com/vaweTech/authgate/internal/store/core"
)

// Resolver resolves authorization roles after identity verification.
//
// The primary store is authoritative: a found record's role is returned
// immediately and no fallback is ever consulted. A missing record is a
// terminal not-found. Only a transient store failure — decoder or network
// kind — opens the REST and degraded tiers.
//
// The degraded paths exist solely to tolerate a cipher-suite
// incompatibility in constrained runtimes and transient partitions to the
// primary store. They must never fire for a plain insufficient-privilege
// outcome; that is decided by the caller comparing the resolved role.
type Resolver struct {
	Store       core.UserStore
	Docs        DocumentRoles // nil: REST tier unavailable
	Admins      identity.Allowlist
	Superadmins identity.Allowlist
	Production  bool
}

// Resolve returns the subject's role for admin-level authorization.
func (r *Resolver) Resolve(ctx context.Context, uid, email string) (Role, error) {
	const op = "roles.resolve"

	role, kerr := r.primary(ctx, op, uid)
	if kerr == nil {
		return role, nil
	}
	kind := kerr.Kind
	if kind != identity.KindDecoder && kind != identity.KindNetwork {
		return "", kerr
	}

	log := logger.From(ctx).With(logger.Component("roles"), logger.UserID(uid))
	log.Warn("primary role lookup failed transiently, entering fallback",
		logger.String("kind", kind.String()), logger.Err(kerr))

	if r.Docs != nil {
		if s, ok := r.Docs.FetchRole(ctx, uid); ok {
			metrics.RoleFallbackTotal.WithLabelValues("rest", "ok").Inc()
			log.Info("role resolved via document REST fallback", logger.Role(s))
			return Parse(s), nil
		}
		metrics.RoleFallbackTotal.WithLabelValues("rest", "fail").Inc()
	}

	decoder := kind == identity.KindDecoder
	network := kind == identity.KindNetwork
	listed := r.Admins.Contains(email)

	if (decoder && listed) || (!r.Production && (decoder || network)) || (network && listed) {
		metrics.RoleFallbackTotal.WithLabelValues("degraded", "ok").Inc()
		log.Warn("degraded access granted", logger.Role(string(RoleAdmin)),
			logger.Bool("allowlisted", listed), logger.Bool("production", r.Production))
		return RoleAdmin, nil
	}

	metrics.RoleFallbackTotal.WithLabelValues("degraded", "fail").Inc()
	return "", kerr
}

// ResolveSuperadmin returns the subject's role for superadmin-level
// authorization. Same structure as Resolve, but the degraded tier only
// promotes to superadmin, only on decoder-kind failures, gated by the
// superadmin allow-list or a non-production runtime. There is no
// network-failure degraded branch at this level.
func (r *Resolver) ResolveSuperadmin(ctx context.Context, uid, email string) (Role, error) {
	const op = "roles.resolve_superadmin"

	role, kerr := r.primary(ctx, op, uid)
	if kerr == nil {
		return role, nil
	}
	kind := kerr.Kind
	if kind != identity.KindDecoder && kind != identity.KindNetwork {
		return "", kerr
	}

	log := logger.From(ctx).With(logger.Component("roles"), logger.UserID(uid))
	log.Warn("primary role lookup failed transiently, entering superadmin fallback",
		logger.String("kind", kind.String()), logger.Err(kerr))

	if r.Docs != nil {
		if s, ok := r.Docs.FetchRole(ctx, uid); ok {
			metrics.RoleFallbackTotal.WithLabelValues("rest", "ok").Inc()
			return Parse(s), nil
		}
		metrics.RoleFallbackTotal.WithLabelValues("rest", "fail").Inc()
	}

	if kind == identity.KindDecoder && (r.Superadmins.Contains(email) || !r.Production) {
		metrics.RoleFallbackTotal.WithLabelValues("degraded", "ok").Inc()
		log.Warn("degraded superadmin access granted",
			logger.Bool("production", r.Production))
		return RoleSuperadmin, nil
	}

	metrics.RoleFallbackTotal.WithLabelValues("degraded", "fail").Inc()
	return "", kerr
}

// primary performs the authoritative store lookup, classifying failures
// into the typed taxonomy at this boundary.
func (r *Resolver) primary(ctx context.Context, op, uid string) (Role, *identity.Error) {
	u, err := r.Store.GetUserByID(ctx, uid)
	if err == nil {
		return Parse(u.Role), nil
	}
	if errors.Is(err, core.ErrNotFound) {
		return "", identity.E(identity.KindNotFound, identity.CodeUserNotFound, op, err)
	}
	return "", identity.ClassifyTransport(op, err)
}

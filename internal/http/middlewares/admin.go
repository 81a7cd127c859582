package middlewares

import (
	"context"
	"net/http"

	"github.com/vaweTech/authgate/internal/http/errors"
	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/roles"
)

// RoleResolver resolves the effective role for an authenticated subject.
type RoleResolver interface {
	Resolve(ctx context.Context, uid, email string) (roles.Role, error)
	ResolveSuperadmin(ctx context.Context, uid, email string) (roles.Role, error)
}

// RequireAdmin gates a route behind the admin role. The claim must already
// be in the context (RequireAuth runs first in the chain).
func RequireAdmin(resolver RoleResolver) Middleware {
	return requireRole(resolver, roles.RoleAdmin, errors.ErrAdminRequired, false)
}

// RequireSuperadmin gates a route behind the superadmin role.
func RequireSuperadmin(resolver RoleResolver) Middleware {
	return requireRole(resolver, roles.RoleSuperadmin, errors.ErrSuperadminRequired, true)
}

func requireRole(resolver RoleResolver, min roles.Role, forbidden *errors.AppError, super bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim := GetUser(r.Context())
			if claim == nil {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			var (
				role roles.Role
				err  error
			)
			if super {
				role, err = resolver.ResolveSuperadmin(r.Context(), claim.UID, claim.Email)
			} else {
				role, err = resolver.Resolve(r.Context(), claim.UID, claim.Email)
			}
			if err != nil {
				errors.WriteError(w, roleError(err))
				return
			}
			if !role.AtLeast(min) {
				errors.WriteError(w, forbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

func roleError(err error) *errors.AppError {
	if identity.IsKind(err, identity.KindNotFound) {
		return errors.ErrUserNotFound
	}
	// The token already verified; a failed resolution is a backend
	// problem, not a bad header. Keep 401 but say so.
	base := errors.ErrRoleResolution
	if code := identity.CodeOf(err); code != "" {
		return base.WithDetail(code)
	}
	return base
}

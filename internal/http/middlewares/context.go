package middlewares

import (
	"context"

	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/roles"
)

type (
	userCtxKey      struct{}
	roleCtxKey      struct{}
	requestIDCtxKey struct{}
)

// WithUser stores the verified identity claim in the context.
func WithUser(ctx context.Context, claim *identity.Claim) context.Context {
	return context.WithValue(ctx, userCtxKey{}, claim)
}

// GetUser returns the verified claim, or nil when the request never passed
// authentication.
func GetUser(ctx context.Context) *identity.Claim {
	if v := ctx.Value(userCtxKey{}); v != nil {
		if c, ok := v.(*identity.Claim); ok {
			return c
		}
	}
	return nil
}

// WithRole stores the resolved authorization role in the context.
func WithRole(ctx context.Context, role roles.Role) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// GetRole returns the resolved role, or RoleUser when none was resolved.
func GetRole(ctx context.Context) roles.Role {
	if v := ctx.Value(roleCtxKey{}); v != nil {
		if r, ok := v.(roles.Role); ok {
			return r
		}
	}
	return roles.RoleUser
}

func setRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, rid)
}

// GetRequestID returns the request ID injected by WithRequestID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDCtxKey{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

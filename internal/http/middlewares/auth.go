package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaweTech/authgate/internal/http/errors"
	"github.com/vaweTech/authgate/internal/identity"
)

// TokenVerifier is the identity boundary the authn middleware depends on.
// Injected so tests can run the full chain against a fake.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*identity.Claim, error)
}

// RequireAuth validates `Authorization: Bearer <token>` and stores the
// resulting claim in the context. Invalid or missing tokens answer 401
// with a code mirroring the provider's where one is known.
func RequireAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])
			if raw == "" {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			claim, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				errors.WriteError(w, authError(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claim)))
		})
	}
}

// authError maps a typed identity failure onto the HTTP error taxonomy.
func authError(err error) *errors.AppError {
	var base *errors.AppError
	switch identity.KindOf(err) {
	case identity.KindExpired:
		base = errors.ErrTokenExpired
	case identity.KindDisabled:
		base = errors.ErrAccountDisabled
	default:
		base = errors.ErrTokenInvalid
	}
	if code := identity.CodeOf(err); code != "" {
		return base.WithDetail(code)
	}
	return base
}

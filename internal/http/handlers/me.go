package handlers

import (
	"net/http"

	"github.com/vaweTech/authgate/internal/http/errors"
	"github.com/vaweTech/authgate/internal/http/middlewares"
)

// NewMeHandler returns the authenticated caller's identity as the
// verifier established it, provenance included so clients can tell a
// fully verified session from a degraded one.
func NewMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claim := middlewares.GetUser(r.Context())
		if claim == nil {
			errors.WriteError(w, errors.ErrUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"uid":           claim.UID,
			"email":         claim.Email,
			"role":          claim.Role,
			"provenance":    claim.Provenance,
			"low_assurance": claim.LowAssurance(),
		})
	}
}

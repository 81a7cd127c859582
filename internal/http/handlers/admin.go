package handlers

import (
	errs "errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vaweTech/authgate/internal/http/errors"
	"github.com/vaweTech/authgate/internal/http/middlewares"
	"github.com/vaweTech/authgate/internal/observability/logger"
	"github.com/vaweTech/authgate/internal/store/core"
	"github.com/vaweTech/authgate/internal/validation"
)

// NewAdminPingHandler is a minimal probe for the admin gate: reaching it
// at all means the caller cleared authn and role resolution.
func NewAdminPingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"pong": true,
			"role": middlewares.GetRole(r.Context()),
		})
	}
}

// NewAdminGetUserHandler fetches a user record by ID from the primary store.
func NewAdminGetUserHandler(store core.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(chi.URLParam(r, "uid"))
		if uid == "" {
			errors.WriteError(w, errors.ErrBadRequest.WithDetail("uid is required"))
			return
		}

		user, err := store.GetUserByID(r.Context(), uid)
		if err != nil {
			if errs.Is(err, core.ErrNotFound) {
				errors.WriteError(w, errors.ErrUserNotFound)
				return
			}
			logger.From(r.Context()).Error("user fetch failed", logger.UserID(uid), logger.Err(err))
			errors.WriteError(w, errors.ErrInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"id":         user.ID,
			"email":      user.Email,
			"name":       user.Name,
			"role":       user.Role,
			"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// NewAnnouncementHandler accepts an announcement posting. Storage of the
// announcement body is out of scope for this service; the handler owns
// validation and audit logging, then acknowledges with a generated ID.
func NewAnnouncementHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := readJSONMap(w, r)
		if !ok {
			return
		}
		if missing := validation.MissingStrings(body, "title", "body"); len(missing) > 0 {
			errors.WriteError(w, errors.ErrMissingFields.WithDetail(strings.Join(missing, ", ")))
			return
		}

		id := uuid.NewString()
		claim := middlewares.GetUser(r.Context())
		author := ""
		if claim != nil {
			author = claim.UID
		}
		logger.From(r.Context()).Info("announcement accepted",
			logger.String("announcement_id", id),
			logger.UserID(author),
		)

		writeJSON(w, http.StatusCreated, map[string]any{
			"id":     id,
			"status": "accepted",
		})
	}
}

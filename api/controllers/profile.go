package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eduport/eduport-backend/api/responses"
	"github.com/eduport/eduport-backend/api/validators"
	"github.com/eduport/eduport-backend/internal/users"
	"github.com/eduport/eduport-backend/pkg/db/models"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
	"github.com/eduport/eduport-backend/pkg/logger"
)

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateDeviceToken(ctx context.Context, id uuid.UUID, token *string) error
}

type deviceTokenRequest struct {
	DeviceToken *string `json:"device_token"`
}

// Me returns the authenticated user's profile.
func Me(repo profileRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := repo.FindByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// UpdateDeviceToken registers or clears the push target for the user.
func UpdateDeviceToken(repo profileRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body deviceTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token := body.DeviceToken
		if token != nil {
			trimmed := strings.TrimSpace(*token)
			if trimmed == "" {
				token = nil
			} else {
				token = &trimmed
			}
		}

		if err := repo.UpdateDeviceToken(r.Context(), userID, token); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update device token"))
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

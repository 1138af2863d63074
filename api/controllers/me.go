package controllers

import (
	"net/http"

	"github.com/scanlyhq/scanly-backend/api/responses"
	"github.com/scanlyhq/scanly-backend/api/validators"
	"github.com/scanlyhq/scanly-backend/internal/users"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

type profileUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,max=120"`
}

// MeGet returns the authenticated user's profile.
func MeGet(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetProfile(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// MeUpdate mutates the authenticated user's profile.
func MeUpdate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload profileUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), uid, users.UpdateProfileInput{Name: payload.Name})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

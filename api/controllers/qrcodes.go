package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/api/middleware"
	"github.com/scanlyhq/scanly-backend/api/responses"
	"github.com/scanlyhq/scanly-backend/api/validators"
	"github.com/scanlyhq/scanly-backend/internal/qrcodes"
	"github.com/scanlyhq/scanly-backend/pkg/enums"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

type qrCreateRequest struct {
	Name            string `json:"name" validate:"max=200"`
	Type            string `json:"type" validate:"required"`
	Data            string `json:"data" validate:"required"`
	TargetURL       string `json:"targetUrl"`
	Security        string `json:"security"`
	Password        string `json:"password"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	Message         string `json:"message"`
	ForegroundColor string `json:"foregroundColor"`
	BackgroundColor string `json:"backgroundColor"`
	DotStyle        string `json:"dotStyle"`
	CornerStyle     string `json:"cornerStyle"`
	Size            int    `json:"size" validate:"min=0,max=2048"`
	LogoURL         string `json:"logoUrl"`
	ErrorCorrection string `json:"errorCorrection"`
}

type qrUpdateRequest struct {
	Name            *string `json:"name"`
	TargetURL       *string `json:"targetUrl"`
	IsActive        *bool   `json:"isActive"`
	ForegroundColor *string `json:"foregroundColor"`
	BackgroundColor *string `json:"backgroundColor"`
	DotStyle        *string `json:"dotStyle"`
	CornerStyle     *string `json:"cornerStyle"`
	Size            *int    `json:"size"`
	LogoURL         *string `json:"logoUrl"`
	ErrorCorrection *string `json:"errorCorrection"`
}

func principal(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	uid, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return uid, nil
}

func codeIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid qr code id")
	}
	return id, nil
}

// QRCreate handles creating a code for the authenticated user.
func QRCreate(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload qrCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qrType, err := enums.ParseQRType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid qr type"))
			return
		}

		input := qrcodes.CreateInput{
			Name: payload.Name,
			Type: qrType,
			Data: payload.Data,
			Aux: qrcodes.AuxData{
				Security: payload.Security,
				Password: payload.Password,
				Subject:  payload.Subject,
				Body:     payload.Body,
				Message:  payload.Message,
			},
			TargetURL:       payload.TargetURL,
			ForegroundColor: payload.ForegroundColor,
			BackgroundColor: payload.BackgroundColor,
			DotStyle:        payload.DotStyle,
			CornerStyle:     payload.CornerStyle,
			Size:            payload.Size,
			LogoURL:         payload.LogoURL,
		}
		if raw := strings.TrimSpace(payload.ErrorCorrection); raw != "" {
			level, err := enums.ParseErrorCorrection(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid error correction level"))
				return
			}
			input.ErrorCorrection = level
		}

		view, err := svc.Create(r.Context(), uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// QRList returns the user's codes with optional search and cursor paging.
func QRList(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid limit"))
				return
			}
		}

		result, err := svc.List(r.Context(), qrcodes.ListParams{
			UserID: uid,
			Search: r.URL.Query().Get("search"),
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":      result.Items,
			"nextCursor": result.NextCursor,
		})
	}
}

// QRGet returns one owned code, decrypted.
func QRGet(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codeID, err := codeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), uid, codeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// QRUpdate mutates an owned code.
func QRUpdate(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codeID, err := codeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload qrUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := qrcodes.UpdateInput{
			Name:            payload.Name,
			TargetURL:       payload.TargetURL,
			IsActive:        payload.IsActive,
			ForegroundColor: payload.ForegroundColor,
			BackgroundColor: payload.BackgroundColor,
			DotStyle:        payload.DotStyle,
			CornerStyle:     payload.CornerStyle,
			Size:            payload.Size,
			LogoURL:         payload.LogoURL,
		}
		if payload.ErrorCorrection != nil {
			level, err := enums.ParseErrorCorrection(*payload.ErrorCorrection)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid error correction level"))
				return
			}
			input.ErrorCorrection = &level
		}

		view, err := svc.Update(r.Context(), uid, codeID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// QRDelete removes an owned code and its scan history.
func QRDelete(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codeID, err := codeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), uid, codeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// QRImage renders the code as a base64 PNG data URL.
func QRImage(svc qrcodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codeID, err := codeIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		size := 0
		if raw := r.URL.Query().Get("size"); raw != "" {
			size, err = strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid size"))
				return
			}
		}

		dataURL, err := svc.RenderImage(r.Context(), uid, codeID, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"image": dataURL})
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scanlyhq/scanly-backend/api/responses"
	"github.com/scanlyhq/scanly-backend/internal/resolver"
	"github.com/scanlyhq/scanly-backend/internal/scans"
	"github.com/scanlyhq/scanly-backend/pkg/logger"

	"github.com/google/uuid"
)

// noCacheHeaders keep CDNs and browsers from replaying a stale redirect
// after the owner retargets a dynamic code.
var noCacheHeaders = map[string]string{
	"Cache-Control":     "no-store, no-cache, must-revalidate, proxy-revalidate",
	"Pragma":            "no-cache",
	"Expires":           "0",
	"Surrogate-Control": "no-store",
}

// Resolve serves the public scan endpoint: a redirect for dynamic codes,
// a content payload for static ones.
func Resolve(svc resolver.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortID := chi.URLParam(r, "shortId")
		scan := scans.FromRequest(uuid.Nil, r)

		resolution, err := svc.Resolve(r.Context(), shortID, scan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if resolution.Redirect {
			for key, value := range noCacheHeaders {
				w.Header().Set(key, value)
			}
			http.Redirect(w, r, resolution.TargetURL, http.StatusTemporaryRedirect)
			return
		}

		responses.WriteSuccess(w, map[string]string{"content": resolution.Content})
	}
}

// ResolveShortCode serves the older JSON redirect API used by the
// client-side interstitial page.
func ResolveShortCode(svc resolver.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")
		scan := scans.FromRequest(uuid.Nil, r)

		resolution, err := svc.ResolveShortCode(r.Context(), shortCode, scan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolution)
	}
}

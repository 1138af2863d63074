package controllers

import (
	"net/http"

	"github.com/scanlyhq/scanly-backend/api/responses"
	"github.com/scanlyhq/scanly-backend/internal/analytics"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

// QRAnalytics returns the per-code scan summary for the owner.
func QRAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
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

		summary, err := svc.Summarize(r.Context(), uid, codeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

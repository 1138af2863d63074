package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/scanlyhq/scanly-backend/api/responses"
	"github.com/scanlyhq/scanly-backend/internal/billing"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

// AccessCheck reports whether a user holds dynamic access. Without a
// userId query it returns the caller's full access view; with one it
// answers the bare allowed/denied question for that user.
func AccessCheck(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("userId"); raw != "" {
			target, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid userId"))
				return
			}
			allowed, err := svc.HasDynamicAccess(r.Context(), target)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]bool{"allowed": allowed})
			return
		}

		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetAccess(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutCreate starts a hosted checkout session for dynamic access.
func CheckoutCreate(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.CreateCheckout(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"checkoutUrl": url})
	}
}

// SubscriptionCancel flags the user's subscription to end at period close.
func SubscriptionCancel(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelSubscription(r.Context(), uid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancellation_initiated"})
	}
}

// PaymentsList returns the user's recorded transactions.
func PaymentsList(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := principal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListPayments(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments)
	}
}

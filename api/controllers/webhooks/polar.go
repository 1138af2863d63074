package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/scanlyhq/scanly-backend/api/responses"
	polarwebhook "github.com/scanlyhq/scanly-backend/internal/webhooks/polar"
	pkgerrors "github.com/scanlyhq/scanly-backend/pkg/errors"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
	"github.com/scanlyhq/scanly-backend/pkg/metrics"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

type PolarWebhookService interface {
	HandleEvent(ctx context.Context, event *polarwebhook.Event) error
}

type polarWebhookGuard interface {
	CheckAndMark(ctx context.Context, deliveryID string) (bool, error)
	Delete(ctx context.Context, deliveryID string) error
}

type polarClient interface {
	WebhookSecret() string
}

// PolarWebhook verifies and dispatches Polar billing events. Signature
// failures are rejected before any state is touched; redeliveries of an
// already-processed webhook id short-circuit to an accepted response.
func PolarWebhook(svc PolarWebhookService, client polarClient, guard polarWebhookGuard, m *metrics.ResolverMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "polar client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		verifier, err := standardwebhooks.NewWebhook(client.WebhookSecret())
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "init webhook verifier"))
			return
		}
		if err := verifier.Verify(payload, r.Header); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature"))
			return
		}

		deliveryID := r.Header.Get("webhook-id")
		if deliveryID != "" {
			alreadyProcessed, err := guard.CheckAndMark(ctx, deliveryID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				responses.WriteSuccess(w, map[string]bool{"received": true})
				return
			}
		}

		event, err := polarwebhook.ParseEvent(payload)
		if err != nil {
			if deliveryID != "" {
				_ = guard.Delete(ctx, deliveryID)
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse event"))
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if deliveryID != "" {
				_ = guard.Delete(ctx, deliveryID)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		m.IncWebhook(event.Type)
		if logg != nil {
			logg.Info(logg.WithField(ctx, "event_type", event.Type), "polar event processed")
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}

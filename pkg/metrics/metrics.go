package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ResolverMetrics records resolution outcomes and webhook traffic.
type ResolverMetrics struct {
	resolutions *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewResolverMetrics registers the counters on the provided registerer.
func NewResolverMetrics(reg prometheus.Registerer) *ResolverMetrics {
	if reg == nil {
		return &ResolverMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qr_resolutions_total",
		Help: "QR short-id resolutions by outcome.",
	}, []string{"outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_webhook_events_total",
		Help: "Billing webhook deliveries by event type.",
	}, []string{"type"})
	reg.MustRegister(resolutions, webhooks)
	return &ResolverMetrics{
		resolutions: resolutions,
		webhooks:    webhooks,
	}
}

// IncResolution increments the resolution counter for the given outcome
// (redirect, content, not_found, error).
func (m *ResolverMetrics) IncResolution(outcome string) {
	if m == nil || m.resolutions == nil {
		return
	}
	m.resolutions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhook increments the webhook counter for the given event type.
func (m *ResolverMetrics) IncWebhook(eventType string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scanlyhq/scanly-backend/api/controllers"
	webhookcontrollers "github.com/scanlyhq/scanly-backend/api/controllers/webhooks"
	"github.com/scanlyhq/scanly-backend/api/middleware"
	"github.com/scanlyhq/scanly-backend/internal/analytics"
	"github.com/scanlyhq/scanly-backend/internal/auth"
	"github.com/scanlyhq/scanly-backend/internal/billing"
	"github.com/scanlyhq/scanly-backend/internal/qrcodes"
	"github.com/scanlyhq/scanly-backend/internal/resolver"
	"github.com/scanlyhq/scanly-backend/internal/users"
	polarwebhook "github.com/scanlyhq/scanly-backend/internal/webhooks/polar"
	"github.com/scanlyhq/scanly-backend/pkg/config"
	"github.com/scanlyhq/scanly-backend/pkg/db"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
	"github.com/scanlyhq/scanly-backend/pkg/metrics"
	"github.com/scanlyhq/scanly-backend/pkg/polar"
	"github.com/scanlyhq/scanly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	resolverMetrics *metrics.ResolverMetrics,
	authService auth.Service,
	usersService users.Service,
	qrService qrcodes.Service,
	analyticsService analytics.Service,
	resolverService resolver.Service,
	billingService billing.Service,
	polarClient *polar.Client,
	polarWebhookService polarwebhook.Service,
	polarWebhookGuard *polarwebhook.IdempotencyGuard,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, redisClient, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Public scan endpoints. These sit outside /api so short links stay short.
	r.Get("/qr/{shortId}", controllers.Resolve(resolverService, logg))
	r.Get("/r/{shortCode}", controllers.ResolveShortCode(resolverService, logg))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/polar", webhookcontrollers.PolarWebhook(polarWebhookService, polarClient, polarWebhookGuard, resolverMetrics, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.Register(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/qr", func(r chi.Router) {
			r.Post("/", controllers.QRCreate(qrService, logg))
			r.Get("/", controllers.QRList(qrService, logg))
			r.Get("/{id}", controllers.QRGet(qrService, logg))
			r.Put("/{id}", controllers.QRUpdate(qrService, logg))
			r.Delete("/{id}", controllers.QRDelete(qrService, logg))
			r.Post("/{id}/image", controllers.QRImage(qrService, logg))
			r.Get("/{id}/analytics", controllers.QRAnalytics(analyticsService, logg))
		})

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.MeGet(usersService, logg))
			r.Put("/", controllers.MeUpdate(usersService, logg))
		})

		r.Get("/access-check", controllers.AccessCheck(billingService, logg))
		r.Route("/billing", func(r chi.Router) {
			r.Post("/checkout", controllers.CheckoutCreate(billingService, logg))
			r.Post("/cancel", controllers.SubscriptionCancel(billingService, logg))
		})
		r.Get("/payments", controllers.PaymentsList(billingService, logg))
	})

	return r
}

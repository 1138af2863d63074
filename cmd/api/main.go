package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/scanlyhq/scanly-backend/api/routes"
	"github.com/scanlyhq/scanly-backend/internal/analytics"
	"github.com/scanlyhq/scanly-backend/internal/auth"
	"github.com/scanlyhq/scanly-backend/internal/billing"
	"github.com/scanlyhq/scanly-backend/internal/qrcodes"
	"github.com/scanlyhq/scanly-backend/internal/resolver"
	"github.com/scanlyhq/scanly-backend/internal/scans"
	"github.com/scanlyhq/scanly-backend/internal/users"
	polarwebhook "github.com/scanlyhq/scanly-backend/internal/webhooks/polar"
	"github.com/scanlyhq/scanly-backend/pkg/config"
	"github.com/scanlyhq/scanly-backend/pkg/db"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
	"github.com/scanlyhq/scanly-backend/pkg/metrics"
	"github.com/scanlyhq/scanly-backend/pkg/migrate"
	"github.com/scanlyhq/scanly-backend/pkg/polar"
	"github.com/scanlyhq/scanly-backend/pkg/redis"
	"github.com/scanlyhq/scanly-backend/pkg/secrets"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cipher, err := secrets.NewCipher(cfg.Secrets)
	if err != nil {
		logg.Error(context.Background(), "failed to init payload cipher", err)
		os.Exit(1)
	}

	polarClient, err := polar.NewClient(context.Background(), cfg.Polar, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to init polar client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	resolverMetrics := metrics.NewResolverMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	qrRepo := qrcodes.NewRepository(dbClient.DB())
	scansRepo := scans.NewRepository(dbClient.DB())
	billingRepo := billing.NewRepository(dbClient.DB())

	authService, err := auth.NewService(usersRepo, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	billingService, err := billing.NewService(billingRepo, polarClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create billing service", err)
		os.Exit(1)
	}
	qrService, err := qrcodes.NewService(qrRepo, cipher, billingService)
	if err != nil {
		logg.Error(context.Background(), "failed to create qr service", err)
		os.Exit(1)
	}
	resolverService, err := resolver.NewService(qrRepo, scansRepo, cipher, logg, resolverMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create resolver service", err)
		os.Exit(1)
	}
	analyticsService, err := analytics.NewService(qrRepo, scansRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}
	webhookService, err := polarwebhook.NewService(billingRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := polarwebhook.NewIdempotencyGuard(redisClient, cfg.Polar.WebhookIdempotencyTTL, "polar-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			resolverMetrics,
			authService,
			usersService,
			qrService,
			analyticsService,
			resolverService,
			billingService,
			polarClient,
			webhookService,
			webhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

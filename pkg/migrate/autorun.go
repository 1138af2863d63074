package migrate

import (
	"context"
	"fmt"

	"github.com/scanlyhq/scanly-backend/pkg/config"
	"github.com/scanlyhq/scanly-backend/pkg/db"
	"github.com/scanlyhq/scanly-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations when auto-migrate is enabled in
// development. Production deploys run the migrate binary explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, log *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return nil
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	log.Info(ctx, "applying pending migrations (dev auto-migrate)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}

	log.Info(ctx, "migrations up to date")
	return nil
}

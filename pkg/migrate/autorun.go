package migrate

import (
	"context"
	"fmt"

	"github.com/genericsdirect/dealtracker/pkg/config"
	"github.com/genericsdirect/dealtracker/pkg/db"
	"github.com/genericsdirect/dealtracker/pkg/logger"
)

// MaybeRunDev applies the embedded migrations when the app runs in dev mode
// with the auto-migrate flag on, or against a local sqlite database.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if !cfg.App.IsDev() && !cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "running goose migrations (auto-run)")

	if err := Up(ctx, sqlDB, client.Dialect()); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}

package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/pos-backend/pkg/config"
	"github.com/angelmondragon/pos-backend/pkg/db"
	"github.com/angelmondragon/pos-backend/pkg/db/models"
	"github.com/angelmondragon/pos-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to date when POS_AUTO_MIGRATE is set.
// It is a no-op in every other environment. SQLite gets gorm AutoMigrate since
// the goose files are written for Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.FeatureFlags.UseSQLite {
		return autoMigrateSQLite(logg.WithField(ctx, "sqlite_path", cfg.DB.SQLitePath), logg, client)
	}
	return gooseUp(logg.WithField(ctx, "source", "embedded"), logg, client)
}

func autoMigrateSQLite(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	all := models.All()
	if err := client.DB().WithContext(ctx).AutoMigrate(all...); err != nil {
		return fmt.Errorf("sqlite auto-migrate: %w", err)
	}
	logg.Info(logg.WithField(ctx, "tables", len(all)), "sqlite schema migrated")
	return nil
}

func gooseUp(ctx context.Context, logg *logger.Logger, client *db.Client) error {
	if err := Validate(Embedded()); err != nil {
		return fmt.Errorf("embedded migrations invalid: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return err
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "version", version), "goose migrations applied")
	return nil
}

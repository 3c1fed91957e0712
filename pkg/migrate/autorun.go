package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/db/models"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
)

// MaybeRunDev brings the schema up to date at boot when running in dev with
// STREETEATS_AUTO_MIGRATE set. SQLite databases take the gorm models;
// postgres runs the embedded goose migrations.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if strings.EqualFold(cfg.DB.Driver, config.DriverSQLite) {
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("sqlite automigrate: %w", err)
		}
		logg.Info(ctx, "sqlite schema migrated from models")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	m, err := New(sqlDB, nil)
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "storefront migrations applied")
	return nil
}

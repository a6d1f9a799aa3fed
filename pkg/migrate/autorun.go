package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

func autoRunEnabled(cfg *config.Config) bool {
	return cfg != nil && cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev applies pending migrations at boot in dev when
// PRINTSHOP_AUTO_MIGRATE is set. On postgres the run holds a session advisory
// lock so binaries starting together apply each migration once.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !autoRunEnabled(cfg) {
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	provider, err := newProvider(sqlDB, cfg.DB.Driver, DefaultDir)
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("auto-migrate up: %w", err)
	}
	for _, res := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     res.Source.Version,
			"duration_ms": res.Duration.Milliseconds(),
		}), "migration applied")
	}
	logg.Info(logg.WithField(ctx, "applied", len(results)), "auto-migrate complete")
	return nil
}

func newProvider(sqlDB *sql.DB, driver, dir string) (*goose.Provider, error) {
	if strings.EqualFold(strings.TrimSpace(driver), db.DriverSQLite) {
		return goose.NewProvider(goose.DialectSQLite3, sqlDB, os.DirFS(dir))
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("creating migration lock: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, os.DirFS(dir), goose.WithSessionLocker(locker))
	if err != nil {
		return nil, fmt.Errorf("creating goose provider: %w", err)
	}
	return provider, nil
}

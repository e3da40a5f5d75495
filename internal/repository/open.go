package repository

import (
	"context"
	"fmt"

	"github.com/iliyamo/meeting-reservation/internal/config"
	"github.com/iliyamo/meeting-reservation/internal/database"
)

// Open builds the store selected by cfg.Driver.  SQL stores are migrated
// before they are returned.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	if cfg.Driver == "memory" {
		return NewMemoryStore(), nil
	}
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrPersistence, cfg.Driver, err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return NewSQLStore(db), nil
}

func dataSource(cfg config.StoreConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case "sqlite":
		return database.SQLite, database.SQLiteDSN(cfg.SQLitePath), nil
	case "mysql":
		if cfg.DatabaseURL != "" {
			return database.MySQL, cfg.DatabaseURL, nil
		}
		return database.MySQL, database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName), nil
	case "postgres":
		if cfg.DatabaseURL != "" {
			return database.Postgres, cfg.DatabaseURL, nil
		}
		return database.Postgres, database.PostgresDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName), nil
	}
	return "", "", fmt.Errorf("unsupported store driver %q", cfg.Driver)
}

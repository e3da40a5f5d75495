package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
	id VARCHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	date VARCHAR(10) NOT NULL,
	time VARCHAR(8) NOT NULL,
	note TEXT NOT NULL,
	created_at DATETIME(6) NOT NULL,
	updated_at DATETIME(6) NOT NULL,
	INDEX idx_reservations_date (date)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date)`,
}

// Migrate creates the reservations table for the connection's driver.
// Statements are idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case SQLite:
		stmts = sqliteSchema
	case MySQL:
		stmts = mysqlSchema
	case Postgres:
		stmts = postgresSchema
	default:
		return fmt.Errorf("migrate: unsupported driver %q", db.DriverName())
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names as registered with database/sql.
const (
	SQLite   = "sqlite3"
	MySQL    = "mysql"
	Postgres = "pgx"
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if driver == SQLite {
		// a single connection keeps in-memory databases alive and avoids
		// SQLITE_BUSY between writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MySQLDSN builds a go-sql-driver DSN.
func MySQLDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}

// PostgresDSN builds a libpq style URL understood by pgx.
func PostgresDSN(user, pass, host, port, name string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + port,
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// SQLiteDSN points at a database file.  ":memory:" yields a private
// in-memory database.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_busy_timeout=5000"
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000", path)
}

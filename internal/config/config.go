package config // package config loads application configuration from environment variables

import (
    "errors"
    "fmt"
    "io/fs"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; see Load for the defaults.
type Config struct {
    Env      string // application environment (e.g. "dev", "prod")
    Port     string // HTTP port to listen on
    LogLevel string // zap level override; empty picks one from Env

    Store   StoreConfig
    Booking BookingConfig
    Notify  NotifyConfig

    Redis     RedisConfig
    Cache     CacheConfig
    RateLimit RateLimitConfig

    CORSOrigins     []string      // allowed origins for the browser calendar
    ShutdownTimeout time.Duration // grace period for in-flight requests
}

// StoreConfig selects and addresses the reservation store.
type StoreConfig struct {
    Driver      string // memory, sqlite, mysql or postgres
    SQLitePath  string // database file for the sqlite driver
    DatabaseURL string // full DSN; overrides the DB_* parts when set
    DBUser      string
    DBPass      string
    DBHost      string
    DBPort      string
    DBName      string
}

// BookingConfig tunes the conflict rule and the availability grid.
type BookingConfig struct {
    ConflictPolicy   string        // "window" or "exact"
    ConflictWindow   time.Duration // minimum distance between two meetings on a day
    DeleteIdempotent bool          // deleting a missing id succeeds instead of 404
    OpenHour         int           // first bookable hour of the grid
    CloseHour        int           // last bookable hour of the grid
}

var (
    storeDrivers    = map[string]bool{"memory": true, "sqlite": true, "mysql": true, "postgres": true}
    conflictPolicy  = map[string]bool{"window": true, "exact": true}
    notifyTransport = map[string]bool{"log": true, "smtp": true, "amqp": true, "none": true}
)

// Load reads an optional .env file and then the process environment.  An
// absent .env file is not an error; variables already set in the
// environment win over the file.
func Load() (Config, error) {
    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        return Config{}, fmt.Errorf("load .env: %w", err)
    }
    return FromEnv()
}

// FromEnv builds a Config from the process environment only.  Malformed
// numbers, booleans and durations are reported together with any
// validation failure.
func FromEnv() (Config, error) {
    r := &envReader{}
    cfg := Config{
        Env:      r.str("APP_ENV", "dev"),
        Port:     r.str("APP_PORT", "5000"),
        LogLevel: r.str("LOG_LEVEL", ""),
        Store: StoreConfig{
            Driver:      strings.ToLower(r.str("STORE_DRIVER", "memory")),
            SQLitePath:  r.str("SQLITE_PATH", "reservations.db"),
            DatabaseURL: r.str("DATABASE_URL", ""),
            DBUser:      r.str("DB_USER", ""),
            DBPass:      r.str("DB_PASS", ""),
            DBHost:      r.str("DB_HOST", "localhost"),
            DBPort:      r.str("DB_PORT", ""),
            DBName:      r.str("DB_NAME", ""),
        },
        Booking: BookingConfig{
            ConflictPolicy:   strings.ToLower(r.str("CONFLICT_POLICY", "window")),
            ConflictWindow:   r.dur("CONFLICT_WINDOW", time.Hour),
            DeleteIdempotent: r.flag("DELETE_IDEMPOTENT", false),
            OpenHour:         r.num("BUSINESS_OPEN_HOUR", 10),
            CloseHour:        r.num("BUSINESS_CLOSE_HOUR", 19),
        },
        Notify:          loadNotify(r),
        Redis:           loadRedis(r),
        Cache:           loadCache(r),
        RateLimit:       loadRateLimit(r),
        CORSOrigins:     r.list("CORS_ORIGINS", "*"),
        ShutdownTimeout: r.dur("SHUTDOWN_TIMEOUT", 10*time.Second),
    }
    if err := r.err(); err != nil {
        return Config{}, err
    }
    if err := cfg.Validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
    if !storeDrivers[c.Store.Driver] {
        return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
    }
    if (c.Store.Driver == "mysql" || c.Store.Driver == "postgres") && c.Store.DatabaseURL == "" {
        for _, v := range []struct{ key, value string }{
            {"DB_USER", c.Store.DBUser},
            {"DB_PORT", c.Store.DBPort},
            {"DB_NAME", c.Store.DBName},
        } {
            if v.value == "" {
                return fmt.Errorf("missing required env var: %s", v.key)
            }
        }
    }
    if !conflictPolicy[c.Booking.ConflictPolicy] {
        return fmt.Errorf("invalid CONFLICT_POLICY %q", c.Booking.ConflictPolicy)
    }
    if c.Booking.ConflictWindow <= 0 {
        return fmt.Errorf("CONFLICT_WINDOW must be positive, got %s", c.Booking.ConflictWindow)
    }
    if c.Booking.OpenHour < 0 || c.Booking.CloseHour > 23 || c.Booking.OpenHour > c.Booking.CloseHour {
        return fmt.Errorf("invalid business hours %d-%d", c.Booking.OpenHour, c.Booking.CloseHour)
    }
    if !notifyTransport[c.Notify.Transport] {
        return fmt.Errorf("invalid NOTIFY_TRANSPORT %q", c.Notify.Transport)
    }
    if c.Notify.Transport == "smtp" && c.Notify.SMTPHost == "" {
        return errors.New("missing required env var: SMTP_HOST")
    }
    return nil
}

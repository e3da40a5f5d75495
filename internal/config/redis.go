package config

// Redis backs the listing cache and the write rate limiter.  Both are
// optional: when the server cannot be reached NewRedisClient returns nil and
// the middleware degrade to pass-through.

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig addresses the Redis server.  REDIS_HOST and REDIS_PORT win
// over REDIS_ADDR when both are set.
type RedisConfig struct {
    Enabled  bool
    Addr     string
    Password string
    DB       int
    TLS      bool
}

func loadRedis(r *envReader) RedisConfig {
    c := RedisConfig{
        Enabled:  r.flag("REDIS_ENABLED", true),
        Addr:     r.str("REDIS_ADDR", "localhost:6379"),
        Password: r.str("REDIS_PASSWORD", ""),
        DB:       r.num("REDIS_DB", 0),
        TLS:      r.flag("REDIS_TLS", false),
    }
    if host, port := r.str("REDIS_HOST", ""), r.str("REDIS_PORT", ""); host != "" && port != "" {
        c.Addr = net.JoinHostPort(host, port)
    }
    return c
}

// NewRedisClient connects and pings.  It returns nil when Redis is disabled
// or does not answer within two seconds.
func NewRedisClient(ctx context.Context, c RedisConfig) *redis.Client {
    if !c.Enabled {
        return nil
    }
    opts := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
    if c.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}

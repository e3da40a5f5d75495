package config

import (
    "strings"
    "time"
)

// CacheConfig drives the Redis response cache in front of the read routes.
// Every key lives below Prefix so one write can retire all of them.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // upper-case HTTP methods that may be served from cache
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int // larger responses are passed through uncached
}

func loadCache(r *envReader) CacheConfig {
    c := CacheConfig{
        Enabled:      r.flag("CACHE_ENABLED", true),
        Methods:      map[string]bool{},
        TTL:          r.dur("CACHE_TTL", 30*time.Second),
        Prefix:       r.str("CACHE_PREFIX", "cache:reservations"),
        MaxBodyBytes: r.num("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    for _, m := range r.list("CACHE_METHODS", "GET") {
        c.Methods[strings.ToUpper(m)] = true
    }
    if c.TTL <= 0 {
        c.TTL = 30 * time.Second
    }
    return c
}

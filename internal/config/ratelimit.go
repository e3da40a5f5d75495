package config

import "time"

// Bucket is a token bucket holding Burst tokens that regains one token
// every Every.
type Bucket struct {
    Burst int
    Every time.Duration
}

// RateLimitConfig sizes the per-client write limits.  New bookings and
// changes to an existing reservation drain separate buckets, so a client
// rescheduling one meeting does not lose the ability to book another.
type RateLimitConfig struct {
    Enabled bool
    Prefix  string
    Book    Bucket // POST /api/reservations
    Change  Bucket // PUT and DELETE, one bucket per reservation id
}

func loadRateLimit(r *envReader) RateLimitConfig {
    return RateLimitConfig{
        Enabled: r.flag("RATE_LIMIT_ENABLED", true),
        Prefix:  r.str("RATE_LIMIT_PREFIX", "rl:reservations"),
        Book:    loadBucket(r, "RATE_LIMIT_BOOK", Bucket{Burst: 5, Every: 12 * time.Second}),
        Change:  loadBucket(r, "RATE_LIMIT_CHANGE", Bucket{Burst: 10, Every: 3 * time.Second}),
    }
}

func loadBucket(r *envReader, prefix string, def Bucket) Bucket {
    b := Bucket{
        Burst: r.num(prefix+"_BURST", def.Burst),
        Every: r.dur(prefix+"_EVERY", def.Every),
    }
    if b.Burst < 1 {
        b.Burst = 1
    }
    if b.Every <= 0 {
        b.Every = time.Second
    }
    return b
}

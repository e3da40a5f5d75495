package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/meeting-reservation/internal/config"
)

// Cached responses are keyed by the generation counter stored at
// <prefix>:gen.  Every successful write bumps the counter before purging, so
// a read that started before the write can only fill an entry nobody will
// look up again.

// headers never replayed from cache: they belong to the current request
var skipHeaders = map[string]bool{
    echo.HeaderContentLength: true,
    echo.HeaderXRequestID:    true,
    "X-Cache":                true,
}

func genKey(prefix string) string { return prefix + ":gen" }

// generation returns the current cache generation; a missing counter is 0.
func generation(ctx context.Context, rdb *redis.Client, prefix string) (int64, error) {
    n, err := rdb.Get(ctx, genKey(prefix)).Int64()
    if errors.Is(err, redis.Nil) {
        return 0, nil
    }
    return n, err
}

// cacheKeyFrom names the entry for a request within generation gen.  The
// concrete path is used so /api/reservations/:id never shares an entry
// across ids; the query is re-encoded so parameter order does not matter.
func cacheKeyFrom(prefix string, gen int64, r *http.Request) string {
    sum := sha1.Sum([]byte(r.Method + " " + r.URL.Path + "?" + r.URL.Query().Encode()))
    return fmt.Sprintf("%s:%d:%x", prefix, gen, sum)
}

// captureWriter tees the response body into buf until it exceeds limit.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (w *captureWriter) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
    if !w.overflow {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.overflow = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// encodePayload packs [status u32][header length u32][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdr, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8, 8+len(hdr)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
    out = append(out, hdr...)
    return append(out, body...), nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return int(binary.BigEndian.Uint32(bs[0:4])), header, bs[8+hlen:], true
}

// NewRedisCache replays cached 200 responses for the configured methods,
// headers included, and marks them X-Cache: HIT.  Redis failures fall back
// to the handler.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            if !cfg.Methods[req.Method] {
                return next(c)
            }
            ctx := req.Context()
            gen, err := generation(ctx, rdb, cfg.Prefix)
            if err != nil {
                return next(c)
            }
            key := cacheKeyFrom(cfg.Prefix, gen, req)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    h := c.Response().Header()
                    for k, vals := range hdr {
                        if !skipHeaders[k] {
                            h[k] = vals
                        }
                    }
                    h.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }

            // a write finished while this request ran; its view may be stale
            if now, err := generation(context.Background(), rdb, cfg.Prefix); err != nil || now != gen {
                return nil
            }
            hdr := make(http.Header)
            for k, vals := range c.Response().Header() {
                if !skipHeaders[k] {
                    hdr[k] = append([]string(nil), vals...)
                }
            }
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                _ = rdb.Set(context.Background(), key, payload, cfg.TTL).Err()
            }
            return nil
        }
    }
}

// InvalidateOnWrite retires every cached response once a mutating request
// has succeeded: it bumps the generation, then deletes the old entries.
func InvalidateOnWrite(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if m := c.Request().Method; m == http.MethodGet || m == http.MethodHead {
                return err
            }
            if err != nil || c.Response().Status >= http.StatusBadRequest {
                return err
            }
            ctx := context.Background()
            if err := rdb.Incr(ctx, genKey(cfg.Prefix)).Err(); err != nil {
                log.Warn("cache generation bump failed", zap.String("prefix", cfg.Prefix), zap.Error(err))
            }
            if n, err := PurgePrefix(ctx, rdb, cfg.Prefix); err != nil {
                log.Warn("cache purge failed", zap.String("prefix", cfg.Prefix), zap.Error(err))
            } else if n > 0 {
                log.Debug("cache purged", zap.String("prefix", cfg.Prefix), zap.Int("keys", n))
            }
            return nil
        }
    }
}

// PurgePrefix deletes the cached entries below prefix, keeping the
// generation counter, and returns how many keys were removed.
func PurgePrefix(ctx context.Context, rdb *redis.Client, prefix string) (int, error) {
    const batchSize = 200
    var (
        n     int
        batch []string
    )
    flush := func() error {
        if len(batch) == 0 {
            return nil
        }
        if err := rdb.Del(ctx, batch...).Err(); err != nil {
            return err
        }
        n += len(batch)
        batch = batch[:0]
        return nil
    }
    iter := rdb.Scan(ctx, 0, prefix+":*", batchSize).Iterator()
    for iter.Next(ctx) {
        if k := iter.Val(); k != genKey(prefix) {
            batch = append(batch, k)
        }
        if len(batch) == batchSize {
            if err := flush(); err != nil {
                return n, err
            }
        }
    }
    if err := iter.Err(); err != nil {
        return n, err
    }
    return n, flush()
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }


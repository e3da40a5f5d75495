package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/meeting-reservation/internal/config"
)

var (
	testCache = config.CacheConfig{
		Enabled: true,
		Methods: map[string]bool{http.MethodGet: true},
		TTL:     time.Minute,
		Prefix:  "cache:reservations",
	}
	testLimits = config.RateLimitConfig{
		Enabled: true,
		Prefix:  "rl:reservations",
		Book:    config.Bucket{Burst: 2, Every: time.Minute},
		Change:  config.Bucket{Burst: 5, Every: time.Minute},
	}
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// idList is a tiny reservation listing behind the middleware under test.
type idList struct {
	mu    sync.Mutex
	ids   []string
	reads int
	// hold, when set, runs after a listing has been read and before it is
	// written out
	hold func()
}

func (l *idList) list(c echo.Context) error {
	l.mu.Lock()
	l.reads++
	snapshot := append([]string{}, l.ids...)
	hold := l.hold
	l.hold = nil
	l.mu.Unlock()
	if hold != nil {
		hold()
	}
	return c.JSON(http.StatusOK, snapshot)
}

func (l *idList) create(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := "r" + strconv.Itoa(len(l.ids)+1)
	l.ids = append(l.ids, id)
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (l *idList) remove(c echo.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, id := range l.ids {
		if id == c.Param("id") {
			l.ids = append(l.ids[:i], l.ids[i+1:]...)
			return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
		}
	}
	return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
}

func newApp(rdb *redis.Client, l *idList) *echo.Echo {
	log := zap.NewNop()
	e := echo.New()
	e.Use(echomw.RequestID())
	read := NewRedisCache(testCache, rdb)
	limit := NewTokenBucket(testLimits, rdb, log)
	purge := InvalidateOnWrite(testCache, rdb, log)

	e.GET("/api/reservations", l.list, read)
	e.POST("/api/reservations", l.create, limit, purge)
	e.PUT("/api/reservations/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, limit, purge)
	e.DELETE("/api/reservations/:id", l.remove, limit, purge)
	e.DELETE("/api/admin/reservations/:id", l.remove, limit, purge)
	return e
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func listed(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var ids []string
	if err := json.Unmarshal(rec.Body.Bytes(), &ids); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return ids
}

func TestCacheKey(t *testing.T) {
	key := func(gen int64, target string) string {
		return cacheKeyFrom("cache:reservations", gen, httptest.NewRequest(http.MethodGet, target, nil))
	}

	if key(0, "/api/reservations/abc") == key(0, "/api/reservations/def") {
		t.Error("different ids must not share a cache entry")
	}
	if key(0, "/api/reservations?date=2024-01-01") == key(0, "/api/reservations?date=2024-01-02") {
		t.Error("different queries must not share a cache entry")
	}
	if key(0, "/api/reservations?date=2024-01-01&sort=time") != key(0, "/api/reservations?sort=time&date=2024-01-01") {
		t.Error("parameter order should not matter")
	}
	if key(0, "/api/reservations") == key(1, "/api/reservations") {
		t.Error("a new generation must use new keys")
	}
	if k := key(3, "/x"); !strings.HasPrefix(k, "cache:reservations:3:") {
		t.Errorf("key %q is outside the purge prefix", k)
	}
}

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	raw, err := encodePayload(http.StatusOK, hdr, []byte(`[{"id":"1"}]`))
	if err != nil {
		t.Fatalf("encodePayload failed: %v", err)
	}
	status, gotHdr, body, ok := decodePayload(raw)
	if !ok || status != http.StatusOK || gotHdr.Get("Content-Type") != "application/json" || string(body) != `[{"id":"1"}]` {
		t.Errorf("decodePayload = %d %v %q %v", status, gotHdr, body, ok)
	}
	if _, _, _, ok := decodePayload(raw[:5]); ok {
		t.Error("truncated payload should not decode")
	}
}

func TestBucketFor(t *testing.T) {
	e := echo.New()
	ctx := func(method, path, id string) echo.Context {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
		c := e.NewContext(req, httptest.NewRecorder())
		if id != "" {
			c.SetParamNames("id")
			c.SetParamValues(id)
		}
		return c
	}

	key, b := bucketFor(testLimits, ctx(http.MethodPost, "/api/reservations", ""))
	if key != "rl:reservations:10.0.0.7:book" || b != testLimits.Book {
		t.Errorf("POST -> %q %+v", key, b)
	}
	key, b = bucketFor(testLimits, ctx(http.MethodPut, "/api/reservations/r1", "r1"))
	if key != "rl:reservations:10.0.0.7:change:r1" || b != testLimits.Change {
		t.Errorf("PUT -> %q %+v", key, b)
	}
	alias, _ := bucketFor(testLimits, ctx(http.MethodDelete, "/api/admin/reservations/r1", "r1"))
	if alias != key {
		t.Errorf("admin delete uses %q, want %q", alias, key)
	}
}

func TestMiddlewarePassThroughWithoutRedis(t *testing.T) {
	called := 0
	next := func(c echo.Context) error {
		called++
		return c.String(http.StatusOK, "ok")
	}
	for _, mw := range []echo.MiddlewareFunc{
		NewRedisCache(testCache, nil),
		InvalidateOnWrite(testCache, nil, zap.NewNop()),
		NewTokenBucket(testLimits, nil, zap.NewNop()),
	} {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if err := mw(next)(c); err != nil {
			t.Fatalf("middleware returned %v", err)
		}
	}
	if called != 3 {
		t.Errorf("expected every middleware to call next, got %d", called)
	}
}

func TestCacheHitReplaysResponse(t *testing.T) {
	l := &idList{ids: []string{"r1"}}
	e := newApp(newRedis(t), l)

	first := serve(e, http.MethodGet, "/api/reservations")
	if first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first read X-Cache = %q", first.Header().Get("X-Cache"))
	}
	second := serve(e, http.MethodGet, "/api/reservations")
	if second.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second read X-Cache = %q", second.Header().Get("X-Cache"))
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("replayed body %q, want %q", second.Body.String(), first.Body.String())
	}
	if second.Header().Get(echo.HeaderContentType) != first.Header().Get(echo.HeaderContentType) {
		t.Errorf("content type not replayed: %v", second.Header())
	}
	if ids := second.Header().Values(echo.HeaderXRequestID); len(ids) != 1 || ids[0] == first.Header().Get(echo.HeaderXRequestID) {
		t.Errorf("X-Request-Id on hit = %v, want one fresh id", ids)
	}
	if l.reads != 1 {
		t.Errorf("handler ran %d times, want 1", l.reads)
	}
}

func TestWriteInvalidatesCache(t *testing.T) {
	l := &idList{ids: []string{"r1"}}
	e := newApp(newRedis(t), l)

	serve(e, http.MethodGet, "/api/reservations")
	if rec := serve(e, http.MethodPost, "/api/reservations"); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	rec := serve(e, http.MethodGet, "/api/reservations")
	if rec.Header().Get("X-Cache") != "MISS" || len(listed(t, rec)) != 2 {
		t.Errorf("after create: X-Cache=%s body=%s", rec.Header().Get("X-Cache"), rec.Body.String())
	}

	// a failed write leaves the cache alone
	serve(e, http.MethodDelete, "/api/reservations/nope")
	if rec := serve(e, http.MethodGet, "/api/reservations"); rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("404 delete purged the cache")
	}
}

func TestReadOverlappingDeleteIsNotCached(t *testing.T) {
	l := &idList{ids: []string{"r1"}}
	e := newApp(newRedis(t), l)

	read, release := make(chan struct{}), make(chan struct{})
	l.hold = func() {
		close(read)
		<-release
	}
	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- serve(e, http.MethodGet, "/api/reservations") }()

	<-read
	if rec := serve(e, http.MethodDelete, "/api/reservations/r1"); rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	close(release)
	if stale := listed(t, <-done); len(stale) != 1 {
		t.Fatalf("overlapping read should have seen r1, got %v", stale)
	}

	rec := serve(e, http.MethodGet, "/api/reservations")
	if ids := listed(t, rec); len(ids) != 0 {
		t.Errorf("after delete: X-Cache=%s body=%v, deleted reservation still listed", rec.Header().Get("X-Cache"), ids)
	}
}

func TestTokenBucketBlocksBookings(t *testing.T) {
	l := &idList{}
	e := newApp(newRedis(t), l)

	for i := 0; i < testLimits.Book.Burst; i++ {
		rec := serve(e, http.MethodPost, "/api/reservations")
		if rec.Code != http.StatusCreated {
			t.Fatalf("booking %d: %d", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(testLimits.Book.Burst-1-i) {
			t.Errorf("booking %d remaining = %s", i, got)
		}
	}

	rec := serve(e, http.MethodPost, "/api/reservations")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over the limit: %d", rec.Code)
	}
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 60 {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] != "too_many_requests" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if len(l.ids) != testLimits.Book.Burst {
		t.Errorf("blocked request reached the handler: %v", l.ids)
	}

	// changes to an existing reservation draw from their own bucket
	if rec := serve(e, http.MethodPut, "/api/reservations/r1"); rec.Code != http.StatusOK {
		t.Errorf("update after booking limit: %d", rec.Code)
	}
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLog(zap.New(core)))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["uri"] != "/healthz" || fields["status"] != int64(http.StatusOK) {
		t.Errorf("unexpected fields %v", fields)
	}
}

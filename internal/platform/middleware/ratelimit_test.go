package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func hit(e *echo.Echo, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_WithinBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		rec, err := hit(e, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsAndRefills(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := newLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}, clock.now)
	e := echo.New()
	h := rateLimit(l)(func(c echo.Context) error { return nil })

	for i := 0; i < 2; i++ {
		if _, err := hit(e, h, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	rec, err := hit(e, h, "10.0.0.1")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	if _, err := hit(e, h, "10.0.0.2"); err != nil {
		t.Errorf("expected a separate bucket per IP, got %v", err)
	}

	clock.advance(time.Second)
	if _, err := hit(e, h, "10.0.0.1"); err != nil {
		t.Errorf("expected a refilled token, got %v", err)
	}
}

func TestRateLimit_SweepsIdleBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	l := newLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute}, clock.now)

	l.allow("a")
	l.allow("b")
	clock.advance(2 * time.Minute)
	l.allow("c")

	if len(l.buckets) != 1 {
		t.Errorf("expected idle buckets to be dropped, have %d", len(l.buckets))
	}
}

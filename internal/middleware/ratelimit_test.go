package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/config"
)

// With the limiter disabled or Redis absent the middleware must be a pure
// pass-through with no rate-limit headers.
func TestTokenBucketNoopWhenDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: false}
	mw := NewTokenBucket(cfg, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Fatal("disabled limiter must not set rate-limit headers")
	}
}

func TestTokenBucketNoopWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 20}
	mw := NewTokenBucket(cfg, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAsInt64Conversions(t *testing.T) {
	if asInt64(int64(7)) != 7 {
		t.Fatal("int64 passthrough failed")
	}
	if asInt64("12") != 12 {
		t.Fatal("numeric string conversion failed")
	}
	if asInt64("garbage") != 0 {
		t.Fatal("unparseable string should yield 0")
	}
	if asInt64(3.5) != 0 {
		t.Fatal("unsupported type should yield 0")
	}
}

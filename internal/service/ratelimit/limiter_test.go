package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestAllowRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("k", 2, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("k", 2, 1) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatalf("keys must not share buckets")
	}
	now = now.Add(time.Second)
	if !l.Allow("k", 2, 1) {
		t.Fatalf("one token should have refilled")
	}
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	l := New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, l.Middleware(1, 0))

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit, maxKeys int) (*MemoryLimiter, *clock) {
	c := &clock{t: time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(limit, time.Minute, maxKeys, quietLogger())
	l.now = c.now
	return l, c
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded for first entry", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-IP": "198.51.100.2"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2", "X-Nf-Client-Connection-Ip": "192.0.2.9"}, "198.51.100.2"},
		{"cdn header", map[string]string{"X-Nf-Client-Connection-Ip": "192.0.2.9"}, "192.0.2.9"},
		{"blank forwarded for", map[string]string{"X-Forwarded-For": " ,10.0.0.1", "X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"nothing", map[string]string{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l, c := newTestLimiter(3, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, _ := l.Allow(ctx, "a")
		if !d.Allowed || d.Remaining != 2-i {
			t.Fatalf("Request %d: unexpected decision %+v", i+1, d)
		}
	}

	c.advance(20 * time.Second)
	d, _ := l.Allow(ctx, "a")
	if d.Allowed {
		t.Fatal("Expected fourth request to be rejected")
	}
	if d.RetryAfter != 40*time.Second {
		t.Errorf("Expected retry after 40s, got %s", d.RetryAfter)
	}

	if d, _ := l.Allow(ctx, "b"); !d.Allowed {
		t.Error("Keys must not share a window")
	}

	c.advance(40 * time.Second)
	if d, _ := l.Allow(ctx, "a"); !d.Allowed {
		t.Error("Expected a fresh window after the period")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	l, c := newTestLimiter(5, 100)
	ctx := context.Background()

	l.Allow(ctx, "old")
	c.advance(30 * time.Second)
	l.Allow(ctx, "new")
	c.advance(40 * time.Second)

	if removed := l.Cleanup(); removed != 1 {
		t.Errorf("Expected 1 expired window removed, got %d", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Expected 1 window left, got %d", l.Len())
	}
}

func TestMemoryLimiterKeyCap(t *testing.T) {
	l, c := newTestLimiter(5, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Allow(ctx, fmt.Sprintf("ip-%d", i))
		c.advance(time.Second)
	}
	l.Allow(ctx, "ip-3")

	if l.Len() != 3 {
		t.Fatalf("Expected cap of 3 windows, got %d", l.Len())
	}
	l.mutex.Lock()
	_, oldestKept := l.windows["ip-0"]
	l.mutex.Unlock()
	if oldestKept {
		t.Error("Expected the oldest window to be evicted")
	}
}

func TestMemoryLimiterCapPrefersExpired(t *testing.T) {
	l, c := newTestLimiter(5, 3)
	ctx := context.Background()

	l.Allow(ctx, "stale-1")
	l.Allow(ctx, "stale-2")
	c.advance(2 * time.Minute)
	l.Allow(ctx, "fresh")
	l.Allow(ctx, "newcomer")

	if l.Len() != 2 {
		t.Errorf("Expected expired windows swept, have %d", l.Len())
	}
}

func TestMemoryLimiterRunStopsWithContext(t *testing.T) {
	l, _ := newTestLimiter(5, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Janitor did not stop")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1, 10)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(l, "pdf", quietLogger())(ok)

	call := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/pdf", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := call(); rec.Code != http.StatusOK {
		t.Fatalf("Expected first call to pass, got %d", rec.Code)
	}
	rec := call()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}

	open := Middleware(failingLimiter{}, "pdf", quietLogger())(ok)
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pdf", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected limiter failure to let the request through, got %d", rec.Code)
	}
}

func TestDecide(t *testing.T) {
	if d := decide(3, 3, time.Second); !d.Allowed || d.Remaining != 0 {
		t.Errorf("Expected last allowed request, got %+v", d)
	}
	if d := decide(4, 3, 1500*time.Millisecond); d.Allowed || d.RetryAfter != 1500*time.Millisecond {
		t.Errorf("Expected rejection, got %+v", d)
	}
}

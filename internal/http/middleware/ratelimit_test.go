package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "bucket refills over time")
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(limiterIdleTTL / 2)
	rl.Allow("10.0.0.2")
	now = now.Add(limiterIdleTTL/2 + time.Second)
	rl.Sweep()

	assert.Equal(t, 1, rl.size())
}

func TestRateLimitMiddleware(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)
	handler := RateLimit(0.001, 1, stop)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/booking/slots", nil)
	req.RemoteAddr = "203.0.113.9:5000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimitMiddlewareIgnoresSpoofedHeaders(t *testing.T) {
	stop := make(chan struct{})
	defer close(stop)
	handler := RateLimit(0.001, 1, stop)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i, port := range []string{"4000", "4001", "4002"} {
		req := httptest.NewRequest(http.MethodGet, "/api/booking/slots", nil)
		req.RemoteAddr = "198.51.100.7:" + port
		req.Header.Set("X-Real-Ip", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientIP(req))

	req.RemoteAddr = "192.0.2.4"
	assert.Equal(t, "192.0.2.4", clientIP(req))
}

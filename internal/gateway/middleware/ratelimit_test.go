package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(5)

	// Should allow up to 5 requests immediately (burst).
	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow(), "request %d should have been allowed", i+1)
	}
	assert.False(t, rl.Allow(), "6th request should have been denied")
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(10)
	for i := 0; i < 10; i++ {
		rl.Allow()
	}
	assert.False(t, rl.Allow())

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-1 * time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.Allow(), "should be allowed after refill period")
}

func TestRateLimiter_MaxTokensCapped(t *testing.T) {
	rl := NewRateLimiter(5)

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-10 * time.Second)
	rl.mu.Unlock()

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPerClientRateLimiter_IsolatesClients(t *testing.T) {
	pcrl := NewPerClientRateLimiter(2)

	assert.True(t, pcrl.Allow("client-a"))
	assert.True(t, pcrl.Allow("client-a"))
	assert.False(t, pcrl.Allow("client-a"))
	assert.True(t, pcrl.Allow("client-b"), "separate bucket")
}

func TestPerClientRateLimiter_SweepsIdleClients(t *testing.T) {
	pcrl := NewPerClientRateLimiter(2)
	pcrl.Allow("client-a")

	pcrl.mu.Lock()
	pcrl.lastSweep = time.Now().Add(-2 * sweepInterval)
	pcrl.clients["client-a"].lastRefill = time.Now().Add(-time.Minute)
	pcrl.mu.Unlock()

	pcrl.Allow("client-b")
	pcrl.mu.Lock()
	defer pcrl.mu.Unlock()
	assert.NotContains(t, pcrl.clients, "client-a")
	assert.Contains(t, pcrl.clients, "client-b")
}

func TestPerClientRateLimitMiddleware_KeysByIP(t *testing.T) {
	handler := PerClientRateLimitMiddleware(NewPerClientRateLimiter(1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req1)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req1)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "10.0.0.2:12345"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	assert.Equal(t, http.StatusOK, rec.Code)
}

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter implements a simple token bucket rate limiter.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter that allows rps requests per second.
func NewRateLimiter(rps int) *RateLimiter {
	return &RateLimiter{
		tokens:     float64(rps),
		maxTokens:  float64(rps),
		refillRate: float64(rps),
		lastRefill: time.Now(),
	}
}

// Allow reports whether a single request is permitted.
// It consumes one token if available.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)
	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// full reports whether the bucket has refilled completely, i.e. the client
// has been idle long enough to forget.
func (rl *RateLimiter) full(now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(now)
	return rl.tokens >= rl.maxTokens
}

// PerClientRateLimiter keeps one bucket per client key.
type PerClientRateLimiter struct {
	mu        sync.Mutex
	rps       int
	clients   map[string]*RateLimiter
	lastSweep time.Time
}

const sweepInterval = time.Minute

// NewPerClientRateLimiter creates a limiter granting each client rps requests per second.
func NewPerClientRateLimiter(rps int) *PerClientRateLimiter {
	return &PerClientRateLimiter{rps: rps, clients: make(map[string]*RateLimiter), lastSweep: time.Now()}
}

// Allow reports whether the client identified by key may make a request.
func (p *PerClientRateLimiter) Allow(key string) bool {
	p.mu.Lock()
	now := time.Now()
	if now.Sub(p.lastSweep) > sweepInterval {
		for k, rl := range p.clients {
			if rl.full(now) {
				delete(p.clients, k)
			}
		}
		p.lastSweep = now
	}
	rl, ok := p.clients[key]
	if !ok {
		rl = NewRateLimiter(p.rps)
		p.clients[key] = rl
	}
	p.mu.Unlock()

	return rl.Allow()
}

// RateLimitMiddleware applies a single shared bucket to incoming HTTP requests.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PerClientRateLimitMiddleware rate limits by client IP.
func PerClientRateLimitMiddleware(limiter *PerClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				tooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "1")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"status":"error","kind":"rate_limited","message":"rate limit exceeded"}`))
}

package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-client token bucket on write endpoints.
type RateLimiter struct {
	enabled bool
	limit   rate.Limit
	burst   int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing requestsPerMinute sustained
// requests per client key with the given burst.
func NewRateLimiter(requestsPerMinute, burst int, enabled bool) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		enabled: enabled,
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	limiter, ok := rl.clients[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients[key] = limiter
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled        bool    `json:"enabled"`
	TrackedClients int     `json:"tracked_clients"`
	LimitPerMinute float64 `json:"limit_per_minute"`
	Burst          int     `json:"burst"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	return Stats{
		Enabled:        true,
		TrackedClients: len(rl.clients),
		LimitPerMinute: float64(rl.limit) * 60.0,
		Burst:          rl.burst,
	}
}

// Reset clears all tracked clients (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.clients = make(map[string]*rate.Limiter)
}

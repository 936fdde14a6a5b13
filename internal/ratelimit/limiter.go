// Package ratelimit guards the engine's HTTP facade against bursts of
// download-start or query requests. Uses a token bucket algorithm for
// smooth rate limiting.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter implements a token bucket rate limiter.
// It's safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewLimiter creates a new rate limiter.
// maxTokens: maximum burst size
// refillRate: tokens replenished per second
func NewLimiter(maxTokens float64, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if an action is allowed and consumes a token if so.
// Returns true if the action is allowed, false if rate limited.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN checks if n actions are allowed and consumes n tokens if so.
func (l *Limiter) AllowN(n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	if l.tokens >= n {
		l.tokens -= n
		return true
	}

	return false
}

// refill adds tokens based on elapsed time.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens += elapsed * l.refillRate

	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}

	l.lastRefill = now
}

// Global rate limiters for the engine's HTTP facade.
var (
	// DownloadStartLimiter guards the download-start endpoint (5 req, 1/sec):
	// the heaviest External Interfaces operation, since it spins up a Fetcher.
	DownloadStartLimiter = NewLimiter(5, 1)

	// QueryLimiter guards the read-only download-list endpoint (10 req, 2/sec).
	// The stats and quota endpoints are not rate limited.
	QueryLimiter = NewLimiter(10, 2)
)

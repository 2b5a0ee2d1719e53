// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is wrapped by CheckLimit when a tool's bucket is empty.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Limit is the rate and burst for one tool.
type Limit struct {
	PerMinute float64
	Burst     int
}

// DefaultToolLimits are generous for interactive use. Loading hits the network
// and logging in hashes a password, so those two are the tightest.
var DefaultToolLimits = map[string]Limit{
	"chart_load":    {PerMinute: 20, Burst: 3},
	"chart_domains": {PerMinute: 120, Burst: 20},
	"chart_filter":  {PerMinute: 120, Burst: 20},
	"chart_render":  {PerMinute: 60, Burst: 10},
	"chart_posts":   {PerMinute: 120, Burst: 20},
	"social_login":  {PerMinute: 10, Burst: 3},
	"social_feed":   {PerMinute: 30, Burst: 5},
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates one limiter per entry of limits.
// A nil map uses DefaultToolLimits.
func NewToolLimiters(limits map[string]Limit) ToolLimiters {
	if limits == nil {
		limits = DefaultToolLimits
	}
	out := make(ToolLimiters, len(limits))
	for tool, lim := range limits {
		out[tool] = NewLimiter(lim.PerMinute/60.0, lim.Burst)
	}
	return out
}

// CheckLimit returns nil if toolName may run now, or an error wrapping
// ErrRateLimited. Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}
	return nil
}

// Package ratelimit bounds how often a client may open sessions or submit
// verification attempts.
package ratelimit

import (
	"context"
	"time"
)

// Class groups endpoints that share a limit.
type Class string

const (
	ClassSession      Class = "session"
	ClassVerification Class = "verification"
)

// Limit is the number of requests allowed per sliding window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result describes one admission decision.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Store counts requests per key in a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

func retryAfter(resetAt, now time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

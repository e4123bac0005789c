package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a per-process sliding window. Use RedisStore when several
// instances serve the same clients.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	clock   func() time.Time
}

func NewInMemoryStore(clock func() time.Time) *InMemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryStore{windows: make(map[string][]time.Time), clock: clock}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	stamps := cleanup(s.windows[key], now.Add(-limit.Window))

	if len(stamps) >= limit.Requests {
		s.windows[key] = stamps
		resetAt := now.Add(limit.Window)
		if len(stamps) > 0 {
			resetAt = stamps[0].Add(limit.Window)
		}
		return &Result{
			Allowed:    false,
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(resetAt, now),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - len(stamps),
		ResetAt:   stamps[0].Add(limit.Window),
	}, nil
}

// cleanup drops timestamps at or before cutoff.
func cleanup(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

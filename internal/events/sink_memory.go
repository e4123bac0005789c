package events

import (
	"context"
	"sync"

	"veridion/pkg/domain"
)

// MemorySink keeps events in process, grouped by identity.
type MemorySink struct {
	mu     sync.RWMutex
	events map[domain.IdentityKey][]Event
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{events: make(map[domain.IdentityKey][]Event)}
}

func (s *MemorySink) Write(_ context.Context, events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range events {
		s.events[e.Identity] = append(s.events[e.Identity], e)
	}
	return nil
}

// ListByIdentity returns events for one identity in write order.
func (s *MemorySink) ListByIdentity(_ context.Context, identity domain.IdentityKey) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[identity]...), nil
}

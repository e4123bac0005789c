// Package store holds the SnapshotStore implementations: in-memory, Redis,
// PostgreSQL and MinIO.
package store

import (
	"context"
	"sync"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

var (
	_ ports.SnapshotStore = (*InMemoryStore)(nil)
	_ ports.SnapshotStore = (*RedisStore)(nil)
	_ ports.SnapshotStore = (*PostgresStore)(nil)
	_ ports.SnapshotStore = (*MinioStore)(nil)
)

// InMemoryStore keeps snapshots in process memory.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[domain.IdentityKey]verification.Snapshot
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[domain.IdentityKey]verification.Snapshot)}
}

func (s *InMemoryStore) Load(_ context.Context, identity domain.IdentityKey) (*verification.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[identity]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := cloneSnapshot(snap)
	return &out, nil
}

func (s *InMemoryStore) Save(_ context.Context, snap verification.Snapshot, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A missing entry reads as version 0.
	if s.snapshots[snap.Identity].Version != expected {
		return sentinel.ErrStale
	}
	s.snapshots[snap.Identity] = cloneSnapshot(snap)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, identity domain.IdentityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[identity]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.snapshots, identity)
	return nil
}

func cloneSnapshot(snap verification.Snapshot) verification.Snapshot {
	out := snap
	out.Records = append([]verification.Record(nil), snap.Records...)
	return out
}

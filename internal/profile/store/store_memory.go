// Package store persists wallet profiles.
package store

import (
	"context"
	"sync"
	"time"

	"veridion/internal/profile/models"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in a map keyed by wallet.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.IdentityKey]models.Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.IdentityKey]models.Profile)}
}

func (s *InMemoryStore) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.Wallet]; ok {
		return sentinel.ErrConflict
	}
	s.profiles[p.Wallet] = *p
	return nil
}

func (s *InMemoryStore) FindByWallet(_ context.Context, wallet domain.IdentityKey) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[wallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) Update(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.Wallet]; !ok {
		return sentinel.ErrNotFound
	}
	s.profiles[p.Wallet] = *p
	return nil
}

func (s *InMemoryStore) RecordLogin(_ context.Context, wallet domain.IdentityKey, at time.Time, device string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[wallet]
	if !ok {
		return sentinel.ErrNotFound
	}
	p.LoginCount++
	p.LastLoginAt = &at
	p.LastLoginDevice = device
	p.UpdatedAt = at
	s.profiles[wallet] = p
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, wallet domain.IdentityKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[wallet]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, wallet)
	return nil
}

// Package passport mirrors verification ledgers into the wallet passport
// contract and serves the mirrored view.
package passport

import (
	"context"
	"sort"
	"sync"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

// Contract verification tags. Methods without a dedicated tag are recorded
// as Custom:<method id>.
const (
	TypeGitHub  = "GitHub"
	customToken = "Custom:"
)

// TypeFor maps a catalog method to the contract's verification type.
func TypeFor(methodID string) string {
	if methodID == verification.MethodGitHub {
		return TypeGitHub
	}
	return customToken + methodID
}

type user struct {
	name          string
	surnames      string
	verifications map[string]int
}

// InMemory is a process-local passport used when no contract is configured
// and in tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[domain.IdentityKey]*user
}

var _ ports.Passport = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[domain.IdentityKey]*user)}
}

func (p *InMemory) RegisterUser(_ context.Context, wallet domain.IdentityKey, name, surnames string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.users[wallet]; ok {
		return sentinel.ErrConflict
	}
	p.users[wallet] = &user{name: name, surnames: surnames, verifications: make(map[string]int)}
	return nil
}

// UpsertVerification sets the points for vtype and returns the new score.
func (p *InMemory) UpsertVerification(_ context.Context, wallet domain.IdentityKey, vtype string, points int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[wallet]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	u.verifications[vtype] = points
	return score(u), nil
}

func (p *InMemory) UserScore(_ context.Context, wallet domain.IdentityKey) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.users[wallet]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return score(u), nil
}

// UserVerifications lists the wallet's verifications sorted by type.
func (p *InMemory) UserVerifications(_ context.Context, wallet domain.IdentityKey) ([]ports.PassportVerification, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.users[wallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]ports.PassportVerification, 0, len(u.verifications))
	for t, pts := range u.verifications {
		out = append(out, ports.PassportVerification{Type: t, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func score(u *user) int {
	total := 0
	for _, pts := range u.verifications {
		total += pts
	}
	return total
}

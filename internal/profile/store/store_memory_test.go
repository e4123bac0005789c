package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veridion/internal/profile/models"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func newProfile() *models.Profile {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return &models.Profile{
		ID:         uuid.New(),
		Wallet:     domain.IdentityKey(testutil.NewAccountID()),
		Name:       "Ada",
		Surnames:   "Lovelace",
		LoginCount: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	p := newProfile()
	s.Require().NoError(s.store.Create(s.ctx, p))

	found, err := s.store.FindByWallet(s.ctx, p.Wallet)
	s.Require().NoError(err)
	s.Equal(*p, *found)

	found.Name = "changed"
	again, err := s.store.FindByWallet(s.ctx, p.Wallet)
	s.Require().NoError(err)
	s.Equal("Ada", again.Name, "callers get a copy")
}

func (s *InMemoryStoreSuite) TestCreateDuplicateConflicts() {
	p := newProfile()
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestMissingWallet() {
	wallet := domain.IdentityKey(testutil.NewAccountID())

	_, err := s.store.FindByWallet(s.ctx, wallet)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, &models.Profile{Wallet: wallet}), sentinel.ErrNotFound)
	s.ErrorIs(s.store.RecordLogin(s.ctx, wallet, time.Now(), ""), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, wallet), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRecordLogin() {
	p := newProfile()
	s.Require().NoError(s.store.Create(s.ctx, p))
	at := p.CreatedAt.Add(time.Hour)

	s.Require().NoError(s.store.RecordLogin(s.ctx, p.Wallet, at, "Firefox on Linux"))

	found, err := s.store.FindByWallet(s.ctx, p.Wallet)
	s.Require().NoError(err)
	s.Equal(2, found.LoginCount)
	s.Require().NotNil(found.LastLoginAt)
	s.Equal(at, *found.LastLoginAt)
	s.Equal("Firefox on Linux", found.LastLoginDevice)
	s.Equal(at, found.UpdatedAt)
}

func (s *InMemoryStoreSuite) TestDelete() {
	p := newProfile()
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.Require().NoError(s.store.Delete(s.ctx, p.Wallet))

	_, err := s.store.FindByWallet(s.ctx, p.Wallet)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// Package service registers wallet holders and keeps their login history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"veridion/internal/profile/models"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/email"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/requestcontext"
)

const (
	maxNameLength       = 100
	maxWalletTypeLength = 32
	maxAvatarURLLength  = 2048
)

// Store persists profiles.
type Store interface {
	Create(ctx context.Context, p *models.Profile) error
	FindByWallet(ctx context.Context, wallet domain.IdentityKey) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
	RecordLogin(ctx context.Context, wallet domain.IdentityKey, at time.Time, device string) error
	Delete(ctx context.Context, wallet domain.IdentityKey) error
}

// LedgerPurger erases a wallet's verification ledger.
type LedgerPurger interface {
	Purge(ctx context.Context, identity domain.IdentityKey) error
}

type Service struct {
	store  Store
	ledger LedgerPurger
	logger *slog.Logger
}

func New(store Store, ledger LedgerPurger, logger *slog.Logger) *Service {
	return &Service{store: store, ledger: ledger, logger: logger}
}

// Register creates the wallet's profile. The registration itself counts as
// the first login.
func (s *Service) Register(ctx context.Context, wallet domain.IdentityKey, reg models.Registration, device string) (*models.Profile, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Surnames = strings.TrimSpace(reg.Surnames)
	reg.WalletType = strings.ToLower(strings.TrimSpace(reg.WalletType))
	if err := validateName("name", reg.Name); err != nil {
		return nil, err
	}
	if err := validateName("surnames", reg.Surnames); err != nil {
		return nil, err
	}
	if len(reg.WalletType) > maxWalletTypeLength {
		return nil, dErrors.New(dErrors.CodeValidation, "wallet_type is too long")
	}
	normalized, err := email.Normalize(reg.Email)
	if err != nil {
		return nil, err
	}
	avatar, err := normalizeAvatarURL(reg.AvatarURL)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	p := &models.Profile{
		ID:              uuid.New(),
		Wallet:          wallet,
		Name:            reg.Name,
		Surnames:        reg.Surnames,
		Email:           normalized,
		AvatarURL:       avatar,
		WalletType:      reg.WalletType,
		LoginCount:      1,
		LastLoginAt:     &now,
		LastLoginDevice: device,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "profile already exists")
		}
		return nil, s.storeFailure(ctx, "failed to create profile", wallet, err)
	}

	s.logger.InfoContext(ctx, "profile registered",
		"request_id", requestcontext.RequestID(ctx),
		"identity", wallet,
		"wallet_type", p.WalletType,
	)
	return p, nil
}

// Get returns the wallet's profile.
func (s *Service) Get(ctx context.Context, wallet domain.IdentityKey) (*models.Profile, error) {
	p, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, s.storeFailure(ctx, "failed to load profile", wallet, err)
	}
	return p, nil
}

// Update applies a partial change. Name and surnames may change but never
// become empty; an empty email or avatar clears it.
func (s *Service) Update(ctx context.Context, wallet domain.IdentityKey, changes models.Changes) (*models.Profile, error) {
	if changes.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if err := normalizeChanges(&changes); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, wallet)
	if err != nil {
		return nil, err
	}
	changes.Apply(p)
	p.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, s.storeFailure(ctx, "failed to update profile", wallet, err)
	}
	return p, nil
}

// RecordLogin bumps the login counter. A wallet without a profile reports
// CodeNotFound.
func (s *Service) RecordLogin(ctx context.Context, wallet domain.IdentityKey, device string) error {
	if err := s.store.RecordLogin(ctx, wallet, requestcontext.Now(ctx), device); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return s.storeFailure(ctx, "failed to record login", wallet, err)
	}
	return nil
}

// Delete erases the ledger and then the profile. Erasing a wallet that has a
// ledger but never registered still succeeds.
func (s *Service) Delete(ctx context.Context, wallet domain.IdentityKey) error {
	if s.ledger != nil {
		if err := s.ledger.Purge(ctx, wallet); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, wallet); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return s.storeFailure(ctx, "failed to delete profile", wallet, err)
	}
	s.logger.InfoContext(ctx, "profile erased",
		"request_id", requestcontext.RequestID(ctx),
		"identity", wallet,
	)
	return nil
}

func (s *Service) storeFailure(ctx context.Context, msg string, wallet domain.IdentityKey, err error) error {
	s.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"identity", wallet,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "profile store unavailable")
}

func normalizeChanges(c *models.Changes) error {
	if c.Name != nil {
		v := strings.TrimSpace(*c.Name)
		if err := validateName("name", v); err != nil {
			return err
		}
		c.Name = &v
	}
	if c.Surnames != nil {
		v := strings.TrimSpace(*c.Surnames)
		if err := validateName("surnames", v); err != nil {
			return err
		}
		c.Surnames = &v
	}
	if c.Email != nil {
		v, err := email.Normalize(*c.Email)
		if err != nil {
			return err
		}
		c.Email = &v
	}
	if c.AvatarURL != nil {
		v, err := normalizeAvatarURL(*c.AvatarURL)
		if err != nil {
			return err
		}
		c.AvatarURL = &v
	}
	return nil
}

func validateName(field, v string) error {
	if v == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if utf8.RuneCountInString(v) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, field+" is too long")
	}
	return nil
}

func normalizeAvatarURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if len(raw) > maxAvatarURLLength {
		return "", dErrors.New(dErrors.CodeValidation, "avatar_url is too long")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", dErrors.New(dErrors.CodeValidation, "avatar_url must be an http(s) URL")
	}
	return raw, nil
}

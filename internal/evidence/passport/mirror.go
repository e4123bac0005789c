package passport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"veridion/internal/events"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

// Mirror is an events.Sink that replays ledger changes into a passport.
// The contract cannot delete a verification, so resets write zero points.
type Mirror struct {
	passport ports.Passport
	logger   *slog.Logger
}

var _ events.Sink = (*Mirror)(nil)

func NewMirror(passport ports.Passport, logger *slog.Logger) *Mirror {
	return &Mirror{passport: passport, logger: logger}
}

func (m *Mirror) Write(ctx context.Context, evs ...events.Event) error {
	var errs []error
	for _, e := range evs {
		if err := m.apply(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("mirror %s for %s: %w", e.Type, e.Identity, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Mirror) apply(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.TypeMethodCompleted:
		return m.complete(ctx, e.Identity, TypeFor(e.MethodID), e.Points)
	case events.TypeMethodReset:
		return ignoreUnknown(m.upsert(ctx, e.Identity, TypeFor(e.MethodID), 0))
	case events.TypeLedgerCleared:
		recorded, err := m.passport.UserVerifications(ctx, e.Identity)
		if err != nil {
			return ignoreUnknown(err)
		}
		for _, v := range recorded {
			if v.Points == 0 {
				continue
			}
			if err := m.upsert(ctx, e.Identity, v.Type, 0); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// complete registers the wallet on its first completion.
func (m *Mirror) complete(ctx context.Context, wallet domain.IdentityKey, vtype string, points int) error {
	err := m.upsert(ctx, wallet, vtype, points)
	if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if err := m.passport.RegisterUser(ctx, wallet, "", ""); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return fmt.Errorf("register wallet: %w", err)
	}
	return m.upsert(ctx, wallet, vtype, points)
}

func (m *Mirror) upsert(ctx context.Context, wallet domain.IdentityKey, vtype string, points int) error {
	score, err := m.passport.UpsertVerification(ctx, wallet, vtype, points)
	if err != nil {
		return err
	}
	m.logger.DebugContext(ctx, "passport updated",
		"identity", wallet,
		"type", vtype,
		"points", points,
		"score", score,
	)
	return nil
}

func ignoreUnknown(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return err
}

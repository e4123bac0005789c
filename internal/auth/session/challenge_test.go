package session

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/testutil"
)

type failingChallengeStore struct{}

func (failingChallengeStore) Put(context.Context, Challenge, time.Duration) error {
	return errors.New("redis down")
}

func (failingChallengeStore) Take(context.Context, string) (*Challenge, error) {
	return nil, errors.New("redis down")
}

func TestChallenges_Verify(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	address, key := testutil.NewKeypair()
	wallet := domain.IdentityKey(address)

	newChallenges := func() *Challenges {
		return NewChallenges(NewInMemoryChallengeStore(clock), 5*time.Minute, "veridion", WithChallengeClock(clock))
	}

	t.Run("accepts the wallet's signature once", func(t *testing.T) {
		c := newChallenges()
		ch, err := c.Issue(ctx, wallet)
		require.NoError(t, err)
		assert.Equal(t, now.Add(5*time.Minute), ch.ExpiresAt)

		sig := signChallenge(key, ch.Message)
		require.NoError(t, c.Verify(ctx, wallet, ch.Nonce, sig))

		err = c.Verify(ctx, wallet, ch.Nonce, sig)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a raw signature without the message prefix", func(t *testing.T) {
		c := newChallenges()
		ch, err := c.Issue(ctx, wallet)
		require.NoError(t, err)

		raw := ed25519.Sign(key, []byte(ch.Message))
		err = c.Verify(ctx, wallet, ch.Nonce, base64.StdEncoding.EncodeToString(raw))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("a failed attempt spends the nonce", func(t *testing.T) {
		c := newChallenges()
		ch, err := c.Issue(ctx, wallet)
		require.NoError(t, err)

		_, otherKey := testutil.NewKeypair()
		require.Error(t, c.Verify(ctx, wallet, ch.Nonce, signChallenge(otherKey, ch.Message)))
		err = c.Verify(ctx, wallet, ch.Nonce, signChallenge(key, ch.Message))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired challenge is rejected", func(t *testing.T) {
		c := newChallenges()
		ch, err := c.Issue(ctx, wallet)
		require.NoError(t, err)

		now = now.Add(5 * time.Minute)
		err = c.Verify(ctx, wallet, ch.Nonce, signChallenge(key, ch.Message))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		c := NewChallenges(failingChallengeStore{}, time.Minute, "veridion")
		_, err := c.Issue(ctx, wallet)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

		err = c.Verify(ctx, wallet, "nonce", signChallenge(key, "m"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestInMemoryChallengeStore_Take(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryChallengeStore(func() time.Time { return now })

	require.NoError(t, store.Put(ctx, Challenge{Nonce: "n1", ExpiresAt: now.Add(time.Minute)}, time.Minute))
	got, err := store.Take(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", got.Nonce)

	_, err = store.Take(ctx, "n1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Put(ctx, Challenge{Nonce: "n2", ExpiresAt: now.Add(time.Minute)}, time.Minute))
	now = now.Add(time.Minute)
	_, err = store.Take(ctx, "n2")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

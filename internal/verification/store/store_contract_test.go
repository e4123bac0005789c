package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/testutil"
)

func sampleSnapshot(identity domain.IdentityKey, version int64) verification.Snapshot {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return verification.Snapshot{
		Identity: identity,
		Records: []verification.Record{
			{MethodID: verification.MethodGitHub, Category: verification.CategorySocial, Completed: true, CompletedAt: at, Points: 6},
			{MethodID: verification.MethodStellarTransactions, Category: verification.CategoryBlockchain, Completed: true, CompletedAt: at, Points: 10},
		},
		Total:     16,
		Version:   version,
		UpdatedAt: at,
	}
}

// runSnapshotStoreContract checks the behaviour every SnapshotStore shares.
func runSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("load of unknown identity is not found", func(t *testing.T) {
		_, err := store.Load(ctx, domain.IdentityKey(testutil.NewAccountID()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then load round-trips verbatim", func(t *testing.T) {
		identity := domain.IdentityKey(testutil.NewAccountID())
		snap := sampleSnapshot(identity, 2)
		require.NoError(t, store.Save(ctx, snap, 0))

		got, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, snap.Identity, got.Identity)
		assert.Equal(t, snap.Total, got.Total)
		assert.Equal(t, snap.Version, got.Version)
		assert.True(t, snap.UpdatedAt.Equal(got.UpdatedAt))
		require.Len(t, got.Records, 2)
		for i := range snap.Records {
			assert.Equal(t, snap.Records[i].MethodID, got.Records[i].MethodID)
			assert.Equal(t, snap.Records[i].Points, got.Records[i].Points)
			assert.True(t, snap.Records[i].CompletedAt.Equal(got.Records[i].CompletedAt))
		}
	})

	t.Run("second writer from the same base is stale", func(t *testing.T) {
		identity := domain.IdentityKey(testutil.NewAccountID())
		require.NoError(t, store.Save(ctx, sampleSnapshot(identity, 1), 0))

		rival := sampleSnapshot(identity, 1)
		rival.Records = rival.Records[:1]
		rival.Total = 6
		assert.ErrorIs(t, store.Save(ctx, rival, 0), sentinel.ErrStale)

		got, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, 16, got.Total, "the first acknowledged write is kept")
	})

	t.Run("save advances from the stored version only", func(t *testing.T) {
		identity := domain.IdentityKey(testutil.NewAccountID())
		require.NoError(t, store.Save(ctx, sampleSnapshot(identity, 1), 0))
		require.NoError(t, store.Save(ctx, sampleSnapshot(identity, 2), 1))
		assert.ErrorIs(t, store.Save(ctx, sampleSnapshot(identity, 3), 1), sentinel.ErrStale)

		cleared := sampleSnapshot(identity, 3)
		cleared.Records = nil
		cleared.Total = 0
		require.NoError(t, store.Save(ctx, cleared, 2))

		got, err := store.Load(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Version)
		assert.Equal(t, 0, got.Total)
		assert.Empty(t, got.Records)
	})

	t.Run("missing snapshot only matches version zero", func(t *testing.T) {
		identity := domain.IdentityKey(testutil.NewAccountID())
		assert.ErrorIs(t, store.Save(ctx, sampleSnapshot(identity, 5), 4), sentinel.ErrStale)

		_, err := store.Load(ctx, identity)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete removes the snapshot", func(t *testing.T) {
		identity := domain.IdentityKey(testutil.NewAccountID())
		require.NoError(t, store.Save(ctx, sampleSnapshot(identity, 1), 0))
		require.NoError(t, store.Delete(ctx, identity))

		_, err := store.Load(ctx, identity)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veridion/internal/events"
	"veridion/internal/platform/logger"
	"veridion/internal/verification"
	"veridion/internal/verification/ports/mocks"
	"veridion/internal/verification/store"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/requestcontext"
	"veridion/pkg/testutil"
)

//go:generate mockgen -source=../ports/ports.go -destination=../ports/mocks/mocks.go -package=mocks

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// countingStore counts saves and can be told to fail them.
type countingStore struct {
	*store.InMemoryStore
	saves atomic.Int32
	fail  atomic.Bool
}

func newCountingStore() *countingStore {
	return &countingStore{InMemoryStore: store.NewInMemoryStore()}
}

func (s *countingStore) Save(ctx context.Context, snap verification.Snapshot, expected int64) error {
	s.saves.Add(1)
	if s.fail.Load() {
		return errors.New("connection refused")
	}
	return s.InMemoryStore.Save(ctx, snap, expected)
}

type CoordinatorSuite struct {
	suite.Suite
	ctx      context.Context
	identity domain.IdentityKey
	store    *countingStore
	sink     *events.MemorySink
	sessions *Sessions
	coord    *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), fixedNow)
	s.identity = domain.IdentityKey(testutil.NewAccountID())
	s.store = newCountingStore()
	s.sink = events.NewMemorySink()
	publisher := events.NewPublisher(s.sink)
	s.sessions = NewSessions(s.store,
		WithPublisher(publisher),
		WithSessionsLogger(logger.Discard()),
		WithSessionsClock(func() time.Time { return fixedNow }),
	)
	s.coord = NewCoordinator(s.sessions, logger.Discard(), nil)
}

func (s *CoordinatorSuite) stored() *verification.Snapshot {
	snap, err := s.store.Load(context.Background(), s.identity)
	s.Require().NoError(err)
	return snap
}

func (s *CoordinatorSuite) TestSocialSignalCompletesWithFixedPoints() {
	out, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)

	s.True(out.Completed)
	s.False(out.AlreadyCompleted)
	s.Equal(6, out.Points)
	s.Equal(6, out.Total)
	s.True(out.Persisted)
	s.Require().NotNil(out.Record)
	s.Equal(fixedNow, out.Record.CompletedAt)

	snap := s.stored()
	s.Equal(6, snap.Total)
	s.Len(snap.Records, 1)
}

func (s *CoordinatorSuite) TestBlockchainSignalScoresByTier() {
	out, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 37)
	s.Require().NoError(err)

	s.True(out.Completed)
	s.Equal(15, out.Points)
	s.Equal(verification.TierRegularUser, out.Tier)
	s.Equal(15, out.Total)
}

func (s *CoordinatorSuite) TestZeroActivityNeverCompletes() {
	out, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 0)
	s.Require().NoError(err)

	s.False(out.Completed)
	s.Equal(ReasonNoActivity, out.Reason)
	s.Equal(verification.TierNoActivity, out.Tier)
	s.Equal(0, out.Total)
	s.Equal(int32(0), s.store.saves.Load())

	view, err := s.coord.Ledger(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Empty(view.Records)
}

func (s *CoordinatorSuite) TestZeroActivityAfterCompletionKeepsRecord() {
	_, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 12)
	s.Require().NoError(err)

	out, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 0)
	s.Require().NoError(err)
	s.True(out.Completed)
	s.True(out.AlreadyCompleted)
	s.Empty(out.Reason)
	s.Equal(10, out.Points)
	s.Equal(10, out.Total)
}

func (s *CoordinatorSuite) TestRepeatedSignalIsIdempotent() {
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGoogle)
	s.Require().NoError(err)

	out, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGoogle)
	s.Require().NoError(err)
	s.True(out.Completed)
	s.True(out.AlreadyCompleted)
	s.Equal(6, out.Total)
	s.True(out.Persisted)
	s.Equal(int32(1), s.store.saves.Load())
}

func (s *CoordinatorSuite) TestPointsAreFrozenAtCompletion() {
	_, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 3)
	s.Require().NoError(err)

	out, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 500)
	s.Require().NoError(err)
	s.True(out.AlreadyCompleted)
	s.Equal(1, out.Points)
	s.Equal(1, out.Total)
}

func (s *CoordinatorSuite) TestInvalidSignalsLeaveLedgerUntouched() {
	_, err := s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, -1)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGovernmentID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.coord.HandleSocialSignal(s.ctx, s.identity, "myspace")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.coord.HandlePhysicalSignal(s.ctx, s.identity, verification.MethodBiometrics, -5)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	view, err := s.coord.Ledger(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Equal(0, view.Total)
	s.Equal(int64(0), view.Version)
}

func (s *CoordinatorSuite) TestPhysicalSignalUsesSuppliedPoints() {
	out, err := s.coord.HandlePhysicalSignal(s.ctx, s.identity, verification.MethodGovernmentID, 1000)
	s.Require().NoError(err)
	s.Equal(1000, out.Points)
	s.Equal(verification.CategoryPhysical, out.Category)
}

func (s *CoordinatorSuite) TestResetSymmetry() {
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodDiscord)
	s.Require().NoError(err)
	_, err = s.coord.HandleBlockchainSignal(s.ctx, s.identity, verification.MethodStellarTransactions, 60)
	s.Require().NoError(err)

	res, err := s.coord.ResetMethod(s.ctx, s.identity, verification.MethodStellarTransactions)
	s.Require().NoError(err)
	s.Equal(1, res.Removed)
	s.Equal(6, res.Total)
	s.True(res.Persisted)
	s.Equal(6, s.stored().Total)

	res, err = s.coord.ResetMethod(s.ctx, s.identity, verification.MethodStellarTransactions)
	s.Require().NoError(err)
	s.Equal(0, res.Removed)
	s.Equal(6, res.Total)

	res, err = s.coord.ResetAll(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Equal(1, res.Removed)
	s.Equal(0, res.Total)

	snap := s.stored()
	s.Equal(0, snap.Total)
	s.Empty(snap.Records)
}

func (s *CoordinatorSuite) TestResetUnknownMethod() {
	_, err := s.coord.ResetMethod(s.ctx, s.identity, "myspace")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CoordinatorSuite) TestStatus() {
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodLinkedIn)
	s.Require().NoError(err)

	st, err := s.coord.Status(s.ctx, s.identity, verification.MethodLinkedIn)
	s.Require().NoError(err)
	s.True(st.Completed)
	s.Require().NotNil(st.Record)
	s.Equal(6, st.Record.Points)

	st, err = s.coord.Status(s.ctx, s.identity, verification.MethodBinance)
	s.Require().NoError(err)
	s.False(st.Completed)
	s.Nil(st.Record)
	s.Equal(verification.CategoryPhysical, st.Method.Category)
}

func (s *CoordinatorSuite) TestChangesArePublishedWithRequestID() {
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)
	_, err = s.coord.ResetAll(s.ctx, s.identity)
	s.Require().NoError(err)

	evs, err := s.sink.ListByIdentity(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Require().Len(evs, 2)
	s.Equal(events.TypeMethodCompleted, evs[0].Type)
	s.Equal("req-1", evs[0].RequestID)
	s.Equal(6, evs[0].Total)
	s.Equal(events.TypeLedgerCleared, evs[1].Type)
	s.Equal(0, evs[1].Total)
}

func (s *CoordinatorSuite) TestPersistenceFailureKeepsCompletionAndFlushRetries() {
	s.store.fail.Store(true)

	out, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)
	s.True(out.Completed)
	s.False(out.Persisted)
	s.Equal(6, out.Total)
	s.True(s.sessions.IsDirty(s.identity))

	again, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)
	s.True(again.AlreadyCompleted)
	s.False(again.Persisted)

	saved, failed := s.sessions.Flush(s.ctx)
	s.Equal(0, saved)
	s.Equal(1, failed)

	s.store.fail.Store(false)
	saved, failed = s.sessions.Flush(s.ctx)
	s.Equal(1, saved)
	s.Equal(0, failed)
	s.False(s.sessions.IsDirty(s.identity))
	s.Equal(6, s.stored().Total)
}

func (s *CoordinatorSuite) TestNextMutationSavesFullSnapshot() {
	s.store.fail.Store(true)
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)

	s.store.fail.Store(false)
	out, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodDiscord)
	s.Require().NoError(err)
	s.True(out.Persisted)

	snap := s.stored()
	s.Equal(12, snap.Total)
	s.Len(snap.Records, 2)
}

func (s *CoordinatorSuite) TestConcurrentSignalsCountOnce() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGoogle)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	view, err := s.coord.Ledger(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Equal(6, view.Total)
	s.Len(view.Records, 1)
	s.Equal(int32(1), s.store.saves.Load())
	s.Equal(1, s.sessions.Len())
}

func (s *CoordinatorSuite) TestCloseSavesDirtyLedgerAndReloads() {
	s.store.fail.Store(true)
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)

	s.store.fail.Store(false)
	s.Require().NoError(s.sessions.Close(s.ctx, s.identity))
	s.Equal(0, s.sessions.Len())

	view, err := s.coord.Ledger(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Equal(6, view.Total)
	s.True(view.Persisted)
}

func (s *CoordinatorSuite) TestPurgeDropsStoredLedger() {
	_, err := s.coord.HandleSocialSignal(s.ctx, s.identity, verification.MethodGitHub)
	s.Require().NoError(err)

	s.Require().NoError(s.sessions.Purge(s.ctx, s.identity))
	_, err = s.store.Load(context.Background(), s.identity)
	s.ErrorIs(err, sentinel.ErrNotFound)

	view, err := s.coord.Ledger(s.ctx, s.identity)
	s.Require().NoError(err)
	s.Equal(0, view.Total)
}

func TestSessions_LoadFailureIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	identity := domain.IdentityKey(testutil.NewAccountID())
	snapshots.EXPECT().Load(gomock.Any(), identity).Return(nil, errors.New("i/o timeout"))

	sessions := NewSessions(snapshots, WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)

	_, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.Equal(t, 0, sessions.Len())
}

func TestSessions_RestoresStoredLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	identity := domain.IdentityKey(testutil.NewAccountID())
	snapshots.EXPECT().Load(gomock.Any(), identity).Return(&verification.Snapshot{
		Identity: identity,
		Records: []verification.Record{
			{MethodID: verification.MethodGitHub, Category: verification.CategorySocial, Completed: true, CompletedAt: fixedNow, Points: 6},
		},
		Total:   6,
		Version: 7,
	}, nil)
	snapshots.EXPECT().Save(gomock.Any(), gomock.Any(), int64(7)).DoAndReturn(func(_ context.Context, snap verification.Snapshot, _ int64) error {
		assert.Equal(t, int64(8), snap.Version)
		assert.Equal(t, 12, snap.Total)
		return nil
	})

	coord := NewCoordinator(NewSessions(snapshots, WithSessionsLogger(logger.Discard())), logger.Discard(), nil)

	out, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	require.NoError(t, err)
	assert.True(t, out.AlreadyCompleted)
	assert.Equal(t, 6, out.Total)

	out, err = coord.HandleSocialSignal(context.Background(), identity, verification.MethodDiscord)
	require.NoError(t, err)
	assert.Equal(t, 12, out.Total)
}

func TestSessions_RepairsInconsistentSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	identity := domain.IdentityKey(testutil.NewAccountID())
	snapshots.EXPECT().Load(gomock.Any(), identity).Return(&verification.Snapshot{
		Identity: identity,
		Records: []verification.Record{
			{MethodID: verification.MethodGitHub, Category: verification.CategorySocial, Completed: true, CompletedAt: fixedNow, Points: 6},
			{MethodID: verification.MethodGitHub, Category: verification.CategorySocial, Completed: true, CompletedAt: fixedNow, Points: 6},
		},
		Total:   40,
		Version: 3,
	}, nil)
	snapshots.EXPECT().Save(gomock.Any(), gomock.Any(), int64(3)).DoAndReturn(func(_ context.Context, snap verification.Snapshot, _ int64) error {
		assert.Equal(t, 6, snap.Total)
		assert.Len(t, snap.Records, 1)
		return nil
	})

	sessions := NewSessions(snapshots, WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)

	view, err := coord.Ledger(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, 6, view.Total)
	assert.False(t, view.Persisted)
	assert.True(t, sessions.IsDirty(identity))

	saved, failed := sessions.Flush(context.Background())
	assert.Equal(t, 1, saved)
	assert.Equal(t, 0, failed)
}

func TestSessions_StaleSaveMergesWithStoredCopy(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshots := mocks.NewMockSnapshotStore(ctrl)
	identity := domain.IdentityKey(testutil.NewAccountID())
	discordAt := fixedNow.Add(-time.Hour)

	gomock.InOrder(
		snapshots.EXPECT().Load(gomock.Any(), identity).Return(nil, sentinel.ErrNotFound),
		snapshots.EXPECT().Save(gomock.Any(), gomock.Any(), int64(0)).Return(sentinel.ErrStale),
		snapshots.EXPECT().Load(gomock.Any(), identity).Return(&verification.Snapshot{
			Identity: identity,
			Records: []verification.Record{
				{MethodID: verification.MethodDiscord, Category: verification.CategorySocial, Completed: true, CompletedAt: discordAt, Points: 6},
			},
			Total:   6,
			Version: 9,
		}, nil),
		snapshots.EXPECT().Save(gomock.Any(), gomock.Any(), int64(9)).DoAndReturn(func(_ context.Context, snap verification.Snapshot, _ int64) error {
			assert.Equal(t, int64(10), snap.Version)
			assert.Equal(t, 12, snap.Total)
			require.Len(t, snap.Records, 2)
			assert.Equal(t, verification.MethodDiscord, snap.Records[0].MethodID)
			assert.True(t, discordAt.Equal(snap.Records[0].CompletedAt))
			assert.Equal(t, verification.MethodGitHub, snap.Records[1].MethodID)
			assert.True(t, fixedNow.Equal(snap.Records[1].CompletedAt))
			return nil
		}),
	)

	sessions := NewSessions(snapshots, WithSessionsLogger(logger.Discard()),
		WithSessionsClock(func() time.Time { return fixedNow }))
	coord := NewCoordinator(sessions, logger.Discard(), nil)

	out, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.True(t, out.Persisted)
	assert.False(t, sessions.IsDirty(identity))

	view, err := coord.Ledger(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, 12, view.Total)
	assert.Equal(t, int64(10), view.Version)
}

func TestSessions_ConcurrentInstancesKeepEveryCompletion(t *testing.T) {
	shared := store.NewInMemoryStore()
	identity := domain.IdentityKey(testutil.NewAccountID())
	ctx := context.Background()
	newCoord := func() *Coordinator {
		return NewCoordinator(NewSessions(shared, WithSessionsLogger(logger.Discard())), logger.Discard(), nil)
	}
	first, second := newCoord(), newCoord()

	// Both instances load the empty ledger before either writes.
	_, err := first.Ledger(ctx, identity)
	require.NoError(t, err)
	_, err = second.Ledger(ctx, identity)
	require.NoError(t, err)

	out, err := first.HandleSocialSignal(ctx, identity, verification.MethodGoogle)
	require.NoError(t, err)
	assert.True(t, out.Persisted)
	_, err = first.HandleSocialSignal(ctx, identity, verification.MethodDiscord)
	require.NoError(t, err)

	out, err = second.HandleSocialSignal(ctx, identity, verification.MethodGitHub)
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.True(t, out.Persisted)

	done, err := second.IsCompleted(ctx, identity, verification.MethodGitHub)
	require.NoError(t, err)
	assert.True(t, done, "a reported completion survives the conflict")

	stored, err := shared.Load(ctx, identity)
	require.NoError(t, err)
	methods := make([]string, 0, len(stored.Records))
	for _, r := range stored.Records {
		methods = append(methods, r.MethodID)
	}
	assert.ElementsMatch(t, []string{verification.MethodDiscord, verification.MethodGitHub, verification.MethodGoogle}, methods)
	assert.Equal(t, 18, stored.Total)
}

func TestSessions_FailedCloseKeepsDirtyLedger(t *testing.T) {
	st := newCountingStore()
	sessions := NewSessions(st, WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)
	identity := domain.IdentityKey(testutil.NewAccountID())

	st.fail.Store(true)
	_, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	require.NoError(t, err)

	err = sessions.Close(context.Background(), identity)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePersistence))
	assert.Equal(t, 1, sessions.Len())
	assert.True(t, sessions.IsDirty(identity))

	st.fail.Store(false)
	saved, failed := sessions.Flush(context.Background())
	assert.Equal(t, 1, saved)
	assert.Equal(t, 0, failed)

	stored, err := st.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Total)
}

func TestSessions_PublishFailureDoesNotFailSignal(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockEventPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(events.ErrBufferFull)

	identity := domain.IdentityKey(testutil.NewAccountID())
	sessions := NewSessions(store.NewInMemoryStore(), WithPublisher(publisher), WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)

	out, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	require.NoError(t, err)
	assert.True(t, out.Persisted)
}

func TestSessions_CancelledContext(t *testing.T) {
	sessions := NewSessions(store.NewInMemoryStore(), WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := coord.HandleSocialSignal(ctx, domain.IdentityKey(testutil.NewAccountID()), verification.MethodGitHub)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestFlusher_RunFlushesOnShutdown(t *testing.T) {
	st := newCountingStore()
	st.fail.Store(true)
	sessions := NewSessions(st, WithSessionsLogger(logger.Discard()))
	coord := NewCoordinator(sessions, logger.Discard(), nil)
	identity := domain.IdentityKey(testutil.NewAccountID())

	_, err := coord.HandleSocialSignal(context.Background(), identity, verification.MethodGitHub)
	require.NoError(t, err)
	require.True(t, sessions.IsDirty(identity))
	st.fail.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewFlusher(sessions, time.Hour, logger.Discard()).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("flusher did not stop")
	}
	assert.False(t, sessions.IsDirty(identity))
}

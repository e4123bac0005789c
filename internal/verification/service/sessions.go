package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"veridion/internal/events"
	"veridion/internal/verification"
	"veridion/internal/verification/metrics"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/requestcontext"
)

// Sessions keeps one ledger per identity in memory. A ledger is loaded from
// the snapshot store on first use and every mutation is serialised through a
// sharded per-identity mutex, so two requests for a new identity never build
// two ledgers and saves for one identity never interleave.
const numSessionShards = 128

// defaultSessionTimeout bounds work done under a shard lock when the caller
// did not set a deadline.
const defaultSessionTimeout = 10 * time.Second

// publishTimeout bounds how long a mutation waits for a full event buffer.
const publishTimeout = 2 * time.Second

type session struct {
	ledger      *verification.Ledger
	dirty       atomic.Bool
	unsubscribe func()

	// base is the stored version this ledger was loaded from or last saved
	// as. Saves are conditional on the store still holding it.
	base int64
	// resets made since base, applied when merging with a newer stored copy
	resets verification.Resets

	// ctx of the call currently holding the shard lock; ledger
	// notifications run synchronously inside that call.
	ctx context.Context
}

// Sessions is the per-identity ledger registry.
type Sessions struct {
	shards [numSessionShards]sync.Mutex

	mu      sync.RWMutex
	entries map[domain.IdentityKey]*session

	store     ports.SnapshotStore
	publisher ports.EventPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
	timeout   time.Duration
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithPublisher forwards every effective ledger change as an event.
func WithPublisher(p ports.EventPublisher) SessionsOption {
	return func(s *Sessions) { s.publisher = p }
}

// WithSessionsLogger sets the logger.
func WithSessionsLogger(l *slog.Logger) SessionsOption {
	return func(s *Sessions) { s.logger = l }
}

// WithSessionsMetrics sets the metrics sink.
func WithSessionsMetrics(m *metrics.Metrics) SessionsOption {
	return func(s *Sessions) { s.metrics = m }
}

// WithSessionsClock overrides the clock handed to new ledgers.
func WithSessionsClock(clock func() time.Time) SessionsOption {
	return func(s *Sessions) { s.clock = clock }
}

// NewSessions creates a registry backed by store.
func NewSessions(store ports.SnapshotStore, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		entries: make(map[domain.IdentityKey]*session),
		store:   store,
		logger:  slog.Default(),
		clock:   time.Now,
		timeout: defaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// with runs fn with the identity's session loaded and its shard locked.
func (s *Sessions) with(ctx context.Context, identity domain.IdentityKey, fn func(ctx context.Context, sess *session) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger access aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := &s.shards[hashIdentity(identity.String())%numSessionShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "ledger access aborted: context cancelled")
	}

	sess, err := s.loadLocked(ctx, identity)
	if err != nil {
		return err
	}
	sess.ctx = ctx
	defer func() { sess.ctx = nil }()
	return fn(ctx, sess)
}

// loadLocked returns the cached session or builds one from the store.
// Callers hold the identity's shard lock.
func (s *Sessions) loadLocked(ctx context.Context, identity domain.IdentityKey) (*session, error) {
	s.mu.RLock()
	sess, ok := s.entries[identity]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	ledger := verification.NewLedger(identity, verification.WithClock(s.clock))
	sess = &session{ledger: ledger}

	snap, err := s.store.Load(ctx, identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		s.metrics.IncrementPersistenceFailure("load")
		s.logger.ErrorContext(ctx, "failed to load ledger snapshot",
			"request_id", requestcontext.RequestID(ctx),
			"identity", identity,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unavailable")
	default:
		sess.base = snap.Version
		if rerr := ledger.Restore(*snap); rerr != nil {
			s.logger.WarnContext(ctx, "repairing inconsistent ledger snapshot",
				"request_id", requestcontext.RequestID(ctx),
				"identity", identity,
				"stored_total", snap.Total,
				"error", rerr,
			)
			if err := ledger.Restore(verification.RepairSnapshot(*snap)); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ledger snapshot could not be repaired")
			}
			sess.dirty.Store(true)
		}
	}

	sess.unsubscribe = ledger.Subscribe(func(c verification.Change) {
		sess.resets.Note(c)
		changeCtx := sess.ctx
		if changeCtx == nil {
			changeCtx = context.Background()
		}
		s.onChange(changeCtx, c)
	})

	s.mu.Lock()
	s.entries[identity] = sess
	active := len(s.entries)
	s.mu.Unlock()
	s.metrics.SetActiveLedgers(active)
	s.reportDirty()
	return sess, nil
}

// onChange forwards a ledger change as an event tagged with the request that
// caused it.
func (s *Sessions) onChange(ctx context.Context, c verification.Change) {
	s.metrics.IncrementLedgerChange(string(c.Kind), c.MethodID)
	if s.publisher == nil {
		return
	}
	event := events.FromChange(c)
	event.RequestID = requestcontext.RequestID(ctx)
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.WarnContext(pubCtx, "failed to publish ledger event",
			"request_id", event.RequestID,
			"identity", c.Identity,
			"event_type", event.Type,
			"method_id", c.MethodID,
			"error", err,
		)
	}
}

// persistLocked saves the session's full snapshot and reports whether the
// write landed. When another writer moved the stored version first, the two
// are merged so no acknowledged completion is dropped. Callers hold the
// identity's shard lock.
func (s *Sessions) persistLocked(ctx context.Context, sess *session) bool {
	snap := sess.ledger.Snapshot()
	err := s.store.Save(ctx, snap, sess.base)
	if errors.Is(err, sentinel.ErrStale) {
		s.logger.WarnContext(ctx, "ledger snapshot is stale, merging with stored copy",
			"request_id", requestcontext.RequestID(ctx),
			"identity", snap.Identity,
			"version", snap.Version,
			"base_version", sess.base,
		)
		snap, err = s.reconcileLocked(ctx, sess, snap)
	}
	if err == nil {
		sess.base = snap.Version
		sess.resets = verification.Resets{}
		sess.dirty.Store(false)
		s.reportDirty()
		return true
	}

	s.metrics.IncrementPersistenceFailure("save")
	s.logger.ErrorContext(ctx, "failed to persist ledger snapshot",
		"request_id", requestcontext.RequestID(ctx),
		"identity", snap.Identity,
		"version", snap.Version,
		"error", err,
	)
	sess.dirty.Store(true)
	s.reportDirty()
	return false
}

// reconcileLocked reloads the stored snapshot, merges the session's records
// into it, and saves the merge against the version just read. The in-memory
// ledger takes the merged state even if that save fails, so the next attempt
// starts from it.
func (s *Sessions) reconcileLocked(ctx context.Context, sess *session, local verification.Snapshot) (verification.Snapshot, error) {
	stored := verification.Snapshot{Identity: local.Identity}
	current, err := s.store.Load(ctx, local.Identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return local, err
	default:
		stored = *current
	}

	merged := verification.MergeSnapshots(stored, local, sess.resets)
	if err := sess.ledger.Restore(merged); err != nil {
		return local, err
	}
	sess.base = stored.Version
	return merged, s.store.Save(ctx, merged, stored.Version)
}

func (s *Sessions) evictLocked(identity domain.IdentityKey) {
	s.mu.Lock()
	sess, ok := s.entries[identity]
	delete(s.entries, identity)
	active := len(s.entries)
	s.mu.Unlock()
	if ok && sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	s.metrics.SetActiveLedgers(active)
	s.reportDirty()
}

func (s *Sessions) reportDirty() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetDirtyLedgers(len(s.dirtyIdentities()))
}

func (s *Sessions) dirtyIdentities() []domain.IdentityKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.IdentityKey
	for id, sess := range s.entries {
		if sess.dirty.Load() {
			out = append(out, id)
		}
	}
	return out
}

// Flush retries every dirty snapshot and returns how many were saved and
// how many still failed.
func (s *Sessions) Flush(ctx context.Context) (saved, failed int) {
	for _, identity := range s.dirtyIdentities() {
		shard := &s.shards[hashIdentity(identity.String())%numSessionShards]
		shard.Lock()
		s.mu.RLock()
		sess, ok := s.entries[identity]
		s.mu.RUnlock()
		if ok && sess.dirty.Load() {
			if s.persistLocked(ctx, sess) {
				saved++
			} else {
				failed++
			}
		}
		shard.Unlock()
	}
	return saved, failed
}

// Close ends an identity's session: a dirty ledger gets one last save. A
// ledger whose save fails stays in memory, dirty, for the flusher to retry.
func (s *Sessions) Close(ctx context.Context, identity domain.IdentityKey) error {
	shard := &s.shards[hashIdentity(identity.String())%numSessionShards]
	shard.Lock()
	defer shard.Unlock()

	s.mu.RLock()
	sess, ok := s.entries[identity]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if sess.dirty.Load() && !s.persistLocked(ctx, sess) {
		return dErrors.New(dErrors.CodePersistence, "ledger could not be saved before the session ended")
	}
	s.evictLocked(identity)
	return nil
}

// Purge deletes an identity's stored snapshot and drops its ledger.
func (s *Sessions) Purge(ctx context.Context, identity domain.IdentityKey) error {
	shard := &s.shards[hashIdentity(identity.String())%numSessionShards]
	shard.Lock()
	defer shard.Unlock()

	if err := s.store.Delete(ctx, identity); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.metrics.IncrementPersistenceFailure("delete")
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger store unavailable")
	}
	s.evictLocked(identity)
	return nil
}

// Len reports how many ledgers are held in memory.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IsDirty reports whether the identity has unsaved changes.
func (s *Sessions) IsDirty(identity domain.IdentityKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.entries[identity]
	return ok && sess.dirty.Load()
}

// hashIdentity picks the shard for an identity.
func hashIdentity(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridion/internal/verification"
	"veridion/pkg/domain"
)

const wallet = domain.IdentityKey("GWALLET")

func completed(method string) Event {
	return Event{Type: TypeMethodCompleted, Identity: wallet, MethodID: method, Points: 6}
}

func TestPublisher_SyncMode(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink)
	defer pub.Close()

	require.NoError(t, pub.Publish(context.Background(), completed(verification.MethodGoogle)))

	got, err := sink.ListByIdentity(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Publish(context.Background(), completed(verification.MethodGitHub)))
	}
	pub.Close()

	got, err := sink.ListByIdentity(context.Background(), wallet)
	require.NoError(t, err)
	assert.Len(t, got, 10, "all events should be drained on close")
}

func TestPublisher_PublishAfterCloseWritesThrough(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink, WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	require.NoError(t, pub.Publish(context.Background(), completed(verification.MethodDiscord)))
	got, _ := sink.ListByIdentity(context.Background(), wallet)
	assert.Len(t, got, 1)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	sink := NewMemorySink()
	pub := NewPublisher(sink)
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := completed(verification.MethodGoogle)
	e.OccurredAt = at

	require.NoError(t, pub.Publish(context.Background(), e))
	got, _ := sink.ListByIdentity(context.Background(), wallet)
	assert.Equal(t, at, got[0].OccurredAt)
}

type blockingSink struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (b *blockingSink) Write(context.Context, ...Event) error {
	<-b.release
	b.mu.Lock()
	b.n++
	b.mu.Unlock()
	return nil
}

func TestPublisher_BufferFullHonoursContext(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	pub := NewPublisher(sink, WithAsyncBuffer(1))

	// One event is held by the worker, one fills the buffer.
	require.NoError(t, pub.Publish(context.Background(), completed("a")))
	require.Eventually(t, func() bool { return len(pub.buffer) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pub.Publish(context.Background(), completed("b")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.Publish(ctx, completed("c"))
	assert.True(t, errors.Is(err, ErrBufferFull))

	close(sink.release)
	pub.Close()
	assert.Equal(t, 2, sink.n)
}

func TestFromChange(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := FromChange(verification.Change{
		Identity:   wallet,
		Kind:       verification.ChangeResetAll,
		Points:     1006,
		Total:      0,
		Version:    7,
		OccurredAt: at,
	})
	assert.Equal(t, TypeLedgerCleared, e.Type)
	assert.Equal(t, 1006, e.Points)
	assert.Equal(t, int64(7), e.Version)
	assert.Equal(t, at, e.OccurredAt)
	assert.NotEqual(t, uuid.Nil, e.ID)
}

type brokenSink struct{ err error }

func (s brokenSink) Write(context.Context, ...Event) error { return s.err }

func TestMultiSink_WritesEverySink(t *testing.T) {
	first, second := NewMemorySink(), NewMemorySink()
	boom := errors.New("broker down")
	sink := MultiSink(first, brokenSink{err: boom}, second)

	err := sink.Write(context.Background(), completed(verification.MethodGoogle))
	assert.ErrorIs(t, err, boom)

	for _, s := range []*MemorySink{first, second} {
		got, _ := s.ListByIdentity(context.Background(), wallet)
		assert.Len(t, got, 1)
	}
}

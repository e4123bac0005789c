package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBufferFull is returned by Publish in async mode when the buffer is
// saturated and the caller's context ends first.
var ErrBufferFull = errors.New("event buffer full")

// Sink persists or forwards events.
type Sink interface {
	Write(ctx context.Context, events ...Event) error
}

// Publisher writes events to a sink, synchronously by default or through a
// bounded buffer drained by a background goroutine.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	buffer  chan Event
	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan Event, n)
		}
	}
}

// WithLogger sets the logger used for async write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over sink.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Publish stamps missing ids and timestamps and hands the event to the sink.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if p.buffer == nil {
		return p.sink.Write(ctx, event)
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return p.sink.Write(ctx, event)
	}
	select {
	case p.buffer <- event:
		return nil
	default:
	}
	select {
	case p.buffer <- event:
		return nil
	case <-ctx.Done():
		return ErrBufferFull
	}
}

// Close stops accepting buffered events and drains what is queued.
func (p *Publisher) Close() {
	if p.buffer == nil {
		return
	}
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.buffer)
	p.closeMu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.sink.Write(ctx, event); err != nil {
			p.logger.Error("failed to write event",
				"error", err,
				"event_type", string(event.Type),
				"identity", event.Identity.String(),
			)
		}
		cancel()
	}
}

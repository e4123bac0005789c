package service

import (
	"context"
	"log/slog"
	"time"
)

const defaultFlushInterval = 30 * time.Second

// Flusher periodically retries ledgers whose last save failed.
type Flusher struct {
	sessions *Sessions
	interval time.Duration
	logger   *slog.Logger
}

// NewFlusher creates a flusher over sessions.
func NewFlusher(sessions *Sessions, interval time.Duration, logger *slog.Logger) *Flusher {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Flusher{sessions: sessions, interval: interval, logger: logger}
}

// Run flushes on every tick until ctx is done, then makes one last attempt
// bounded by the flush interval.
func (f *Flusher) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.interval)
			f.FlushOnce(final)
			cancel()
			return nil
		case <-ticker.C:
			f.FlushOnce(ctx)
		}
	}
}

// FlushOnce retries every dirty ledger once.
func (f *Flusher) FlushOnce(ctx context.Context) {
	saved, failed := f.sessions.Flush(ctx)
	if saved == 0 && failed == 0 {
		return
	}
	if failed > 0 {
		f.logger.WarnContext(ctx, "ledger flush incomplete", "saved", saved, "failed", failed)
		return
	}
	f.logger.InfoContext(ctx, "ledgers flushed", "saved", saved)
}

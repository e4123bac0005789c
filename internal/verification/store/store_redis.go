package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"veridion/internal/verification"
	"veridion/pkg/domain"
	"veridion/pkg/platform/sentinel"
)

const (
	// Redis key namespace for ledger snapshots
	ledgerKeyPrefix = "ledger:"

	// optimistic transaction attempts before giving up on a contended key
	maxWatchRetries = 3
)

// RedisStore keeps one JSON snapshot per identity. Saves run inside
// WATCH/MULTI so the version check and the write are atomic.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces every key, e.g. "veridion:".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore constructs a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) key(identity domain.IdentityKey) string {
	return s.prefix + ledgerKeyPrefix + identity.String()
}

func (s *RedisStore) Load(ctx context.Context, identity domain.IdentityKey) (*verification.Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	var snap verification.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode ledger snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Save(ctx context.Context, snap verification.Snapshot, expected int64) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode ledger snapshot: %w", err)
	}
	key := s.key(snap.Identity)

	txf := func(tx *redis.Tx) error {
		var stored struct {
			Version int64 `json:"version"`
		}
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(current, &stored); err != nil {
				return fmt.Errorf("decode stored ledger version: %w", err)
			}
		}
		if stored.Version != expected {
			return sentinel.ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrStale):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("save ledger snapshot: %w", sentinel.ErrConflict)
	default:
		return fmt.Errorf("save ledger snapshot: %w", err)
	}
}

func (s *RedisStore) Delete(ctx context.Context, identity domain.IdentityKey) error {
	n, err := s.client.Del(ctx, s.key(identity)).Result()
	if err != nil {
		return fmt.Errorf("delete ledger snapshot: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

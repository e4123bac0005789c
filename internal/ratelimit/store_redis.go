package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:"

// RedisStore keeps each sliding window in a sorted set scored by request time.
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, clock: time.Now}
}

// Allow trims the window, counts it, and records the request only when it is
// admitted. The check and the add are not atomic across instances, so a
// burst can overshoot the limit by the number of concurrent callers.
func (s *RedisStore) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	now := s.clock()
	fullKey := s.prefix + rateLimitKeyPrefix + key
	cutoff := now.Add(-limit.Window).UnixMicro()

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, fullKey, "-inf", strconv.FormatInt(cutoff, 10))
		count = pipe.ZCard(ctx, fullKey)
		oldest = pipe.ZRangeWithScores(ctx, fullKey, 0, 0)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read rate limit window: %w", err)
	}

	resetAt := now.Add(limit.Window)
	if zs := oldest.Val(); len(zs) > 0 {
		resetAt = time.UnixMicro(int64(zs[0].Score)).Add(limit.Window)
	}
	current := int(count.Val())
	if current >= limit.Requests {
		return &Result{
			Allowed:    false,
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(resetAt, now),
		}, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, fullKey, redis.Z{Score: float64(now.UnixMicro()), Member: uuid.NewString()})
		pipe.PExpire(ctx, fullKey, limit.Window)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record rate limit hit: %w", err)
	}
	if current == 0 {
		resetAt = now.Add(limit.Window)
	}
	return &Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - current - 1,
		ResetAt:   resetAt,
	}, nil
}

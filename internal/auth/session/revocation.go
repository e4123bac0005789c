package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var isRevokedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "veridion_session_revocation_check_seconds",
	Help:    "Latency of session token revocation checks",
	Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
})

const revokedTokenKeyPrefix = "revoked:jti:"

// Revocations records ended sessions until their tokens would have expired
// anyway.
type Revocations interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

var errInvalidTTL = errors.New("revocation ttl must be positive")

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return errInvalidTTL
	}
	return nil
}

// InMemoryRevocations keeps revoked token ids in a map. Expired entries are
// dropped lazily on lookup.
type InMemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	clock   func() time.Time
}

func NewInMemoryRevocations(clock func() time.Time) *InMemoryRevocations {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryRevocations{revoked: make(map[string]time.Time), clock: clock}
}

func (r *InMemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = r.clock().Add(ttl)
	return nil
}

func (r *InMemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.revoked[jti]
	if !ok {
		return false, nil
	}
	if !r.clock().Before(expiresAt) {
		delete(r.revoked, jti)
		return false, nil
	}
	return true, nil
}

// RedisRevocations shares revoked token ids between instances. Keys expire
// with the token, so the set never grows past the live sessions.
type RedisRevocations struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocations(client *redis.Client, prefix string) *RedisRevocations {
	return &RedisRevocations{client: client, prefix: prefix}
}

func (r *RedisRevocations) key(jti string) string {
	return r.prefix + revokedTokenKeyPrefix + jti
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() { isRevokedDuration.Observe(time.Since(start).Seconds()) }()

	if jti == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, r.key(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return true, nil
}

package session

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/sentinel"
)

const (
	challengeKeyPrefix = "challenge:"

	// Prefix wallets add before hashing a message to sign (SEP-53).
	signedMessagePrefix = "Stellar Signed Message:\n"
)

// Challenge is a single-use sign-in nonce bound to one wallet. The wallet
// proves ownership by signing Message with the account key.
type Challenge struct {
	Nonce     string             `json:"nonce"`
	Wallet    domain.IdentityKey `json:"wallet"`
	Message   string             `json:"message"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// ChallengeStore keeps issued challenges until they are taken or expire.
// Take removes the challenge and returns sentinel.ErrNotFound when it is
// unknown, already used or expired.
type ChallengeStore interface {
	Put(ctx context.Context, c Challenge, ttl time.Duration) error
	Take(ctx context.Context, nonce string) (*Challenge, error)
}

// SignedMessageDigest is the hash a Stellar wallet signs for message.
func SignedMessageDigest(message string) []byte {
	sum := sha256.Sum256([]byte(signedMessagePrefix + message))
	return sum[:]
}

// Challenges issues and checks sign-in challenges.
type Challenges struct {
	store ChallengeStore
	ttl   time.Duration
	realm string
	clock func() time.Time
}

type ChallengesOption func(*Challenges)

// WithChallengeClock overrides time.Now.
func WithChallengeClock(clock func() time.Time) ChallengesOption {
	return func(c *Challenges) { c.clock = clock }
}

func NewChallenges(store ChallengeStore, ttl time.Duration, realm string, opts ...ChallengesOption) *Challenges {
	c := &Challenges{store: store, ttl: ttl, realm: realm, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue creates a challenge for wallet.
func (c *Challenges) Issue(ctx context.Context, wallet domain.IdentityKey) (*Challenge, error) {
	now := c.clock().UTC()
	ch := Challenge{
		Nonce:     uuid.NewString(),
		Wallet:    wallet,
		ExpiresAt: now.Add(c.ttl),
	}
	ch.Message = fmt.Sprintf("%s sign-in\nWallet: %s\nNonce: %s\nIssued At: %s",
		c.realm, wallet, ch.Nonce, now.Format(time.RFC3339))
	if err := c.store.Put(ctx, ch, c.ttl); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "challenge could not be stored")
	}
	return &ch, nil
}

// Verify consumes the challenge and checks the base64 ed25519 signature over
// its message. The challenge is spent even when the signature is wrong.
func (c *Challenges) Verify(ctx context.Context, wallet domain.IdentityKey, nonce, signature string) error {
	ch, err := c.store.Take(ctx, nonce)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "challenge not found or expired")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "challenge could not be read")
	}
	if ch.Wallet != wallet {
		return dErrors.New(dErrors.CodeUnauthorized, "challenge was issued to another wallet")
	}
	if !c.clock().Before(ch.ExpiresAt) {
		return dErrors.New(dErrors.CodeUnauthorized, "challenge not found or expired")
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid signature")
	}
	key, err := wallet.PublicKey()
	if err != nil {
		return err
	}
	if !ed25519.Verify(key[:], SignedMessageDigest(ch.Message), sig) {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid signature")
	}
	return nil
}

// InMemoryChallengeStore is a per-process challenge store.
type InMemoryChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	clock      func() time.Time
}

func NewInMemoryChallengeStore(clock func() time.Time) *InMemoryChallengeStore {
	if clock == nil {
		clock = time.Now
	}
	return &InMemoryChallengeStore{challenges: make(map[string]Challenge), clock: clock}
}

func (s *InMemoryChallengeStore) Put(_ context.Context, c Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for nonce, existing := range s.challenges {
		if !now.Before(existing.ExpiresAt) {
			delete(s.challenges, nonce)
		}
	}
	s.challenges[c.Nonce] = c
	return nil
}

func (s *InMemoryChallengeStore) Take(_ context.Context, nonce string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[nonce]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.challenges, nonce)
	if !s.clock().Before(c.ExpiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

// RedisChallengeStore shares challenges between instances. GETDEL makes a
// nonce usable once even under concurrent sign-ins.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisChallengeStore(client *redis.Client, prefix string) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, prefix: prefix}
}

func (s *RedisChallengeStore) key(nonce string) string {
	return s.prefix + challengeKeyPrefix + nonce
}

func (s *RedisChallengeStore) Put(ctx context.Context, c Challenge, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	if err := s.client.Set(ctx, s.key(c.Nonce), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Take(ctx context.Context, nonce string) (*Challenge, error) {
	raw, err := s.client.GetDel(ctx, s.key(nonce)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take challenge: %w", err)
	}
	var c Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &c, nil
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"veridion/internal/auth/session"
	"veridion/internal/events"
	"veridion/internal/events/kafka"
	"veridion/internal/evidence/oauth"
	"veridion/internal/evidence/passport"
	"veridion/internal/evidence/providers"
	"veridion/internal/evidence/stellar"
	"veridion/internal/platform/config"
	"veridion/internal/platform/postgres"
	"veridion/internal/platform/redis"
	profileservice "veridion/internal/profile/service"
	profilestore "veridion/internal/profile/store"
	"veridion/internal/ratelimit"
	"veridion/internal/verification/ports"
	"veridion/internal/verification/store"
	"veridion/pkg/platform/circuit"
)

// infra holds the optional shared connections.
type infra struct {
	redis *redis.Client
	db    *sql.DB
}

func openInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	in.redis = client

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		in.db = db
		if err := postgres.Migrate(ctx, db); err != nil {
			in.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		log.Info("database migrated")
	}
	return in, nil
}

// Health pings every configured dependency.
func (in *infra) Health(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if in.redis != nil {
		checks["redis"] = in.redis.Health(ctx)
	}
	if in.db != nil {
		checks["postgres"] = in.db.PingContext(ctx)
	}
	return checks
}

func (in *infra) Close() {
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func buildLedgerStore(ctx context.Context, cfg *config.Config, in *infra) (ports.SnapshotStore, error) {
	switch cfg.LedgerStore {
	case config.StoreRedis:
		if in.redis == nil {
			return nil, fmt.Errorf("ledger store %q needs redis", cfg.LedgerStore)
		}
		return store.NewRedisStore(in.redis.Client, store.WithKeyPrefix(in.redis.Prefix())), nil
	case config.StorePostgres:
		if in.db == nil {
			return nil, fmt.Errorf("ledger store %q needs a database", cfg.LedgerStore)
		}
		return store.NewPostgresStore(in.db), nil
	case config.StoreMinio:
		client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		return store.NewMinioStore(ctx, client, cfg.Minio.Bucket)
	default:
		return store.NewInMemoryStore(), nil
	}
}

func buildProfileStore(in *infra) profileservice.Store {
	if in.db != nil {
		return profilestore.NewPostgresStore(in.db)
	}
	return profilestore.NewInMemoryStore()
}

func buildRevocations(in *infra) session.Revocations {
	if in.redis != nil {
		return session.NewRedisRevocations(in.redis.Client, in.redis.Prefix())
	}
	return session.NewInMemoryRevocations(time.Now)
}

func buildChallenges(cfg *config.Config, in *infra) *session.Challenges {
	var store session.ChallengeStore = session.NewInMemoryChallengeStore(time.Now)
	if in.redis != nil {
		store = session.NewRedisChallengeStore(in.redis.Client, in.redis.Prefix())
	}
	return session.NewChallenges(store, cfg.Session.ChallengeTTL, cfg.Session.Issuer)
}

func buildLimiter(cfg *config.Config, in *infra, log *slog.Logger) *ratelimit.Middleware {
	var store ratelimit.Store = ratelimit.NewInMemoryStore(time.Now)
	if in.redis != nil {
		store = ratelimit.NewRedisStore(in.redis.Client, in.redis.Prefix())
	}
	rl := cfg.RateLimit
	return ratelimit.New(store, log,
		ratelimit.WithDisabled(rl.Disabled),
		ratelimit.WithLimit(ratelimit.ClassSession, ratelimit.Limit{Requests: rl.SessionRequests, Window: rl.SessionWindow}),
		ratelimit.WithLimit(ratelimit.ClassVerification, ratelimit.Limit{Requests: rl.VerificationRequests, Window: rl.VerificationWindow}),
	)
}

// buildPassport returns the passport ledger changes are mirrored into, or
// nil when mirroring is off.
func buildPassport(cfg *config.Config) ports.Passport {
	if !cfg.Passport.Enabled {
		return nil
	}
	return passport.NewInMemory()
}

// buildPublisher returns an async publisher over Kafka when brokers are
// configured and over an in-memory sink otherwise. A non-nil contract
// receives every change as well.
func buildPublisher(ctx context.Context, cfg *config.Config, contract ports.Passport, log *slog.Logger) (*events.Publisher, func(), error) {
	withPassport := func(sink events.Sink) events.Sink {
		if contract == nil {
			return sink
		}
		return events.MultiSink(sink, passport.NewMirror(contract, log))
	}

	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		p := events.NewPublisher(withPassport(events.NewMemorySink()), events.WithLogger(log))
		return p, p.Close, nil
	}

	sink, err := kafka.NewSink(brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka sink: %w", err)
	}
	if err := sink.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.Replicas); err != nil {
		sink.Close()
		return nil, nil, fmt.Errorf("ensure topic %s: %w", cfg.Kafka.Topic, err)
	}
	p := events.NewPublisher(withPassport(sink), events.WithAsyncBuffer(cfg.Kafka.BufferSize), events.WithLogger(log))
	return p, func() {
		p.Close()
		sink.Close()
	}, nil
}

func buildHorizon(cfg *config.Config, log *slog.Logger) *stellar.Client {
	breaker := circuit.New("horizon",
		circuit.WithFailureThreshold(cfg.Stellar.BreakerThreshold),
		circuit.WithCooldown(cfg.Stellar.BreakerCooldown),
	)
	return stellar.New(cfg.Stellar.HorizonURL,
		stellar.WithBreaker(breaker),
		stellar.WithPaging(cfg.Stellar.PageSize, cfg.Stellar.MaxTransactions),
		stellar.WithLogger(log),
	)
}

// buildProviders registers every social provider that has credentials.
func buildProviders(cfg *config.Config, log *slog.Logger) *providers.Registry {
	registry := providers.NewRegistry()
	httpClient := &http.Client{Timeout: cfg.Verification.ExternalTimeout}
	creds := func(p config.Provider) oauth.Credentials {
		return oauth.Credentials{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			TokenURL:     p.TokenURL,
			ProfileURL:   p.APIURL,
		}
	}

	var configured []ports.IdentityProvider
	if cfg.OAuth.GitHub.ClientID != "" {
		configured = append(configured, oauth.NewGitHub(creds(cfg.OAuth.GitHub), httpClient))
	}
	if cfg.OAuth.Discord.ClientID != "" {
		configured = append(configured, oauth.NewDiscord(creds(cfg.OAuth.Discord), httpClient))
	}
	if cfg.OAuth.LinkedIn.ClientID != "" {
		configured = append(configured, oauth.NewLinkedIn(creds(cfg.OAuth.LinkedIn), httpClient))
	}
	if cfg.OAuth.GoogleClientID != "" {
		configured = append(configured, oauth.NewGoogle(cfg.OAuth.GoogleClientID))
	}
	for _, p := range configured {
		if err := registry.Register(p); err != nil {
			log.Warn("skipping provider", "provider", p.ID(), "error", err)
		}
	}
	log.Info("social providers configured", "providers", registry.IDs())
	return registry
}

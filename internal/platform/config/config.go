// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Ledger store backends selectable with LEDGER_STORE.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMinio    = "minio"
)

// Config is the root configuration for the verification server.
type Config struct {
	LedgerStore  string       `env:"LEDGER_STORE" envDefault:"memory"`
	HTTP         HTTP         `envPrefix:"HTTP_"`
	Log          Log          `envPrefix:"LOG_"`
	Redis        RedisConfig  `envPrefix:"REDIS_"`
	Database     Database     `envPrefix:"DATABASE_"`
	Minio        Minio        `envPrefix:"MINIO_"`
	Kafka        Kafka        `envPrefix:"KAFKA_"`
	Stellar      Stellar      `envPrefix:"STELLAR_"`
	OAuth        OAuth        `envPrefix:"OAUTH_"`
	Session      Session      `envPrefix:"SESSION_"`
	Verification Verification `envPrefix:"VERIFICATION_"`
	RateLimit    RateLimit    `envPrefix:"RATELIMIT_"`
	Passport     Passport     `envPrefix:"PASSPORT_"`
}

// HTTP captures server level configuration.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Log selects level (debug|info|warn|error) and format (text|json).
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// RedisConfig holds connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"KEY_PREFIX" envDefault:"veridion:"`
}

// Database holds PostgreSQL settings. An empty DSN disables the profile
// and ledger tables.
type Database struct {
	DSN             string        `env:"DSN"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Minio holds object storage settings for the document ledger store.
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"veridion-ledgers"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Kafka configures the completion event sink. No brokers means events are
// kept in memory only.
type Kafka struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	Topic      string   `env:"TOPIC" envDefault:"veridion.verification.events"`
	Partitions int32    `env:"PARTITIONS" envDefault:"3"`
	Replicas   int16    `env:"REPLICAS" envDefault:"1"`
	BufferSize int      `env:"BUFFER_SIZE" envDefault:"256"`
}

// Stellar configures the Horizon client.
type Stellar struct {
	HorizonURL       string        `env:"HORIZON_URL" envDefault:"https://horizon-testnet.stellar.org"`
	MaxTransactions  int           `env:"MAX_TRANSACTIONS" envDefault:"1000"`
	PageSize         int           `env:"PAGE_SIZE" envDefault:"200"`
	BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// OAuth holds per-provider client credentials and endpoint overrides.
type OAuth struct {
	RedirectURL    string   `env:"REDIRECT_URL" envDefault:"http://localhost:3000/callback"`
	GoogleClientID string   `env:"GOOGLE_CLIENT_ID"`
	GitHub         Provider `envPrefix:"GITHUB_"`
	Discord        Provider `envPrefix:"DISCORD_"`
	LinkedIn       Provider `envPrefix:"LINKEDIN_"`
}

// Provider is one OAuth client registration. Empty URLs fall back to the
// provider's public endpoints.
type Provider struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	TokenURL     string `env:"TOKEN_URL"`
	APIURL       string `env:"API_URL"`
}

// Passport toggles mirroring ledger changes into the wallet passport.
type Passport struct {
	Enabled bool `env:"ENABLED" envDefault:"true"`
}

// Session configures bearer session tokens.
type Session struct {
	SigningKey   string        `env:"SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer       string        `env:"ISSUER" envDefault:"veridion"`
	TTL          time.Duration `env:"TTL" envDefault:"24h"`
	ChallengeTTL time.Duration `env:"CHALLENGE_TTL" envDefault:"5m"`
}

// Verification tunes the coordinator and flusher.
type Verification struct {
	ExternalTimeout time.Duration `env:"EXTERNAL_TIMEOUT" envDefault:"15s"`
	FlushInterval   time.Duration `env:"FLUSH_INTERVAL" envDefault:"30s"`
}

// RateLimit bounds session creation per client address and verification
// attempts per wallet.
type RateLimit struct {
	Disabled             bool          `env:"DISABLED" envDefault:"false"`
	SessionRequests      int           `env:"SESSION_REQUESTS" envDefault:"20"`
	SessionWindow        time.Duration `env:"SESSION_WINDOW" envDefault:"1m"`
	VerificationRequests int           `env:"VERIFICATION_REQUESTS" envDefault:"30"`
	VerificationWindow   time.Duration `env:"VERIFICATION_WINDOW" envDefault:"1m"`
}

// Load parses the environment into a Config and validates the store choice.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	brokers, err := parseBrokers(cfg.Kafka.Brokers)
	if err != nil {
		return nil, err
	}
	cfg.Kafka.Brokers = brokers
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseBrokers trims and dedupes KAFKA_BROKERS, keeping order. Every entry
// must be host:port.
func parseBrokers(values []string) ([]string, error) {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		addr := strings.TrimSpace(v)
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		host, port, err := net.SplitHostPort(addr)
		if err != nil || host == "" {
			return nil, fmt.Errorf("KAFKA_BROKERS: %q is not host:port", addr)
		}
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("KAFKA_BROKERS: %q has an invalid port", addr)
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}

func (c *Config) validate() error {
	switch c.LedgerStore {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("LEDGER_STORE=redis requires REDIS_URL")
		}
	case StorePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("LEDGER_STORE=postgres requires DATABASE_DSN")
		}
	case StoreMinio:
		if c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return fmt.Errorf("LEDGER_STORE=minio requires MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown LEDGER_STORE %q", c.LedgerStore)
	}
	if c.Verification.ExternalTimeout <= 0 {
		return fmt.Errorf("VERIFICATION_EXTERNAL_TIMEOUT must be positive")
	}
	if c.Session.ChallengeTTL <= 0 {
		return fmt.Errorf("SESSION_CHALLENGE_TTL must be positive")
	}
	if c.Verification.FlushInterval <= 0 {
		return fmt.Errorf("VERIFICATION_FLUSH_INTERVAL must be positive")
	}
	return nil
}

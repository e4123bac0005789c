package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.LedgerStore)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://horizon-testnet.stellar.org", cfg.Stellar.HorizonURL)
	assert.Equal(t, 1000, cfg.Stellar.MaxTransactions)
	assert.Equal(t, 15*time.Second, cfg.Verification.ExternalTimeout)
	assert.Equal(t, 30*time.Second, cfg.Verification.FlushInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Session.ChallengeTTL)
	assert.True(t, cfg.Passport.Enabled)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, 20, cfg.RateLimit.SessionRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.VerificationWindow)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*testing.T, *Config)
	}{
		{
			name:    "redis store",
			envVars: map[string]string{"LEDGER_STORE": "redis", "REDIS_URL": "redis://localhost:6379/0"},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreRedis, cfg.LedgerStore)
				assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
			},
		},
		{
			name:    "kafka brokers list",
			envVars: map[string]string{"KAFKA_BROKERS": " a:9092,b:9092,,a:9092 , [::1]:9093"},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"a:9092", "b:9092", "[::1]:9093"}, cfg.Kafka.Brokers)
			},
		},
		{
			name:    "oauth provider override",
			envVars: map[string]string{"OAUTH_GITHUB_CLIENT_ID": "gh-id", "OAUTH_GITHUB_TOKEN_URL": "http://token"},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "gh-id", cfg.OAuth.GitHub.ClientID)
				assert.Equal(t, "http://token", cfg.OAuth.GitHub.TokenURL)
			},
		},
		{
			name:    "rate limit disabled",
			envVars: map[string]string{"RATELIMIT_DISABLED": "true", "RATELIMIT_VERIFICATION_REQUESTS": "5"},
			expected: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.RateLimit.Disabled)
				assert.Equal(t, 5, cfg.RateLimit.VerificationRequests)
			},
		},
		{
			name:    "verification timeout",
			envVars: map[string]string{"VERIFICATION_EXTERNAL_TIMEOUT": "2s"},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2*time.Second, cfg.Verification.ExternalTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}
			cfg, err := Load()
			require.NoError(t, err)
			tt.expected(t, cfg)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store":        {"LEDGER_STORE": "sqlite"},
		"redis without url":    {"LEDGER_STORE": "redis"},
		"postgres without dsn": {"LEDGER_STORE": "postgres"},
		"minio without keys":   {"LEDGER_STORE": "minio"},
		"zero timeout":         {"VERIFICATION_EXTERNAL_TIMEOUT": "0s"},
		"broker without port":  {"KAFKA_BROKERS": "kafka"},
		"broker port range":    {"KAFKA_BROKERS": "kafka:70000"},
		"broker without host":  {"KAFKA_BROKERS": ":9092"},
		"zero challenge ttl":   {"SESSION_CHALLENGE_TTL": "0s"},
	}
	for name, envVars := range tests {
		t.Run(name, func(t *testing.T) {
			for key, value := range envVars {
				t.Setenv(key, value)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

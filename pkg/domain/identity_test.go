package domain

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veridion/pkg/domain-errors"
)

func randomAccountID(t *testing.T) string {
	t.Helper()
	var key [32]byte
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	return EncodeAccountID(key)
}

// TestParseIdentityKey_Invariants validates the parsing invariant:
// "identity keys must be valid Stellar account strkeys"
func TestParseIdentityKey_Invariants(t *testing.T) {
	t.Run("accepts encoded account id", func(t *testing.T) {
		account := randomAccountID(t)
		key, err := ParseIdentityKey(account)
		require.NoError(t, err)
		assert.Equal(t, account, key.String())
		assert.False(t, key.IsZero())
	})

	t.Run("encoded ids start with G", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(randomAccountID(t), "G"))
		assert.Len(t, randomAccountID(t), 56)
	})

	t.Run("rejects single character corruption", func(t *testing.T) {
		account := []byte(randomAccountID(t))
		if account[10] == 'A' {
			account[10] = 'B'
		} else {
			account[10] = 'A'
		}
		_, err := ParseIdentityKey(string(account))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects lower case", func(t *testing.T) {
		_, err := ParseIdentityKey(strings.ToLower(randomAccountID(t)))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseIdentityKey_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"SQL injection attempt", "'; DROP TABLE ledgers;--"},
		{"path traversal", "../../../etc/passwd"},
		{"oversized input", strings.Repeat("G", 1000)},
		{"secret seed prefix", "S" + strings.Repeat("A", 55)},
		{"all A account", "G" + strings.Repeat("A", 55)},
		{"invalid base32 alphabet", "G" + strings.Repeat("1", 55)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdentityKey(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIdentityKey_PublicKey(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i)
	}
	key := IdentityKey(EncodeAccountID(raw))

	got, err := key.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = IdentityKey("GBAD").PublicKey()
	assert.Error(t, err)
}

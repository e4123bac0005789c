package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veridion/pkg/domain-errors"
)

func TestNormalize(t *testing.T) {
	t.Run("lowercases the domain only", func(t *testing.T) {
		got, err := Normalize("  Jane.Doe@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "Jane.Doe@example.com", got)
	})

	t.Run("empty stays empty", func(t *testing.T) {
		got, err := Normalize("   ")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	for _, bad := range []string{
		"not-an-email",
		"Jane <jane@example.com>",
		"jane@localhost",
		"jane@@example.com",
		strings.Repeat("a", 250) + "@example.com",
	} {
		t.Run("rejects "+bad[:min(len(bad), 24)], func(t *testing.T) {
			_, err := Normalize(bad)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridion/internal/verification/ports"
	dErrors "veridion/pkg/domain-errors"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{401, ErrorAuthentication, false},
		{403, ErrorAuthentication, false},
		{404, ErrorNotFound, false},
		{429, ErrorRateLimited, true},
		{500, ErrorProviderOutage, true},
		{503, ErrorProviderOutage, true},
		{400, ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := FromStatus("github", tt.status, "")
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestFromTransport(t *testing.T) {
	err := FromTransport("horizon", fmt.Errorf("get: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrorTimeout, err.Category)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	err = FromTransport("horizon", errors.New("connection refused"))
	assert.Equal(t, ErrorProviderOutage, err.Category)
}

func TestToDomain(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		code     dErrors.Code
	}{
		{ErrorAuthentication, dErrors.CodeUnauthorized},
		{ErrorNotFound, dErrors.CodeNotFound},
		{ErrorTimeout, dErrors.CodeUnavailable},
		{ErrorProviderOutage, dErrors.CodeUnavailable},
		{ErrorBadData, dErrors.CodeUnavailable},
		{ErrorRateLimited, dErrors.CodeUnavailable},
		{ErrorMisconfigured, dErrors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := ToDomain(NewProviderError(tt.category, "p", "m", nil))
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.NoError(t, ToDomain(nil))
	coded := dErrors.New(dErrors.CodeInvalidInput, "bad account")
	assert.Same(t, coded, ToDomain(coded).(*dErrors.Error))
	assert.True(t, dErrors.HasCode(ToDomain(errors.New("boom")), dErrors.CodeUnavailable))
}

type namedProvider string

func (n namedProvider) ID() string { return string(n) }
func (n namedProvider) Authenticate(context.Context, ports.Proof) (*ports.ExternalAccount, error) {
	return &ports.ExternalAccount{Provider: string(n), Subject: "1"}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(namedProvider("github")))
	require.NoError(t, r.Register(namedProvider("discord")))
	assert.Error(t, r.Register(namedProvider("github")))

	p, err := r.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.ID())
	_, err = r.Get("myspace")
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Equal(t, []string{"discord", "github"}, r.IDs())
}

// Package providers normalises failures from external evidence sources
// (OAuth providers, Horizon) and keeps the registry of social providers.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"

	dErrors "veridion/pkg/domain-errors"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates the provider rejected the proof
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorNotFound indicates the requested record doesn't exist
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorMisconfigured indicates missing client credentials on our side
	ErrorMisconfigured ErrorCategory = "misconfigured"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a new normalized provider error
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// FromTransport classifies an HTTP client error: deadline and net timeouts
// become ErrorTimeout, anything else ErrorProviderOutage.
func FromTransport(providerID string, err error) *ProviderError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(ErrorTimeout, providerID, "request timed out", err)
	}
	return NewProviderError(ErrorProviderOutage, providerID, "request failed", err)
}

// FromStatus classifies a non-2xx HTTP status.
func FromStatus(providerID string, status int, body string) *ProviderError {
	msg := fmt.Sprintf("unexpected status %d", status)
	if body != "" {
		msg += ": " + body
	}
	switch {
	case status == 401 || status == 403:
		return NewProviderError(ErrorAuthentication, providerID, msg, nil)
	case status == 404:
		return NewProviderError(ErrorNotFound, providerID, msg, nil)
	case status == 429:
		return NewProviderError(ErrorRateLimited, providerID, msg, nil)
	case status >= 500:
		return NewProviderError(ErrorProviderOutage, providerID, msg, nil)
	default:
		return NewProviderError(ErrorBadData, providerID, msg, nil)
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ToDomain converts a provider failure into the client-facing error:
// rejected proofs are unauthorized, missing records not found, and every
// transport, outage or malformed response is external_unavailable.
func ToDomain(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch GetCategory(err) {
	case ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "provider rejected the proof")
	case ErrorNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, "not found at provider")
	case ErrorMisconfigured:
		return dErrors.Wrap(err, dErrors.CodeInternal, "provider is not configured")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "external service unavailable")
	}
}

// ErrProviderNotFound is returned by Registry.Get for unconfigured ids.
var ErrProviderNotFound = errors.New("provider not found")

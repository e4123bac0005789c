// Package contract holds reusable checks every identity provider adapter
// must pass against a recorded fixture server.
package contract

import (
	"context"
	"testing"

	"veridion/internal/evidence/providers"
	"veridion/internal/verification/ports"
)

// SuccessTest checks a handshake that the provider accepts.
type SuccessTest struct {
	Name         string
	Provider     ports.IdentityProvider
	Proof        ports.Proof
	ValidateFunc func(account *ports.ExternalAccount) error
}

// Suite is a collection of contract tests for one provider.
type Suite struct {
	ProviderID string
	Success    []SuccessTest
	Errors     []ErrorTest
}

// Run executes all contract tests in the suite.
func (s *Suite) Run(t *testing.T) {
	t.Helper()
	for _, test := range s.Success {
		t.Run(test.Name, func(t *testing.T) {
			account, err := test.Provider.Authenticate(context.Background(), test.Proof)
			if err != nil {
				t.Fatalf("authenticate failed: %v", err)
			}
			if test.Provider.ID() != s.ProviderID {
				t.Errorf("expected provider id %s, got %s", s.ProviderID, test.Provider.ID())
			}
			if account.Provider != s.ProviderID {
				t.Errorf("expected account provider %s, got %s", s.ProviderID, account.Provider)
			}
			if account.Subject == "" {
				t.Error("account subject not set")
			}
			if test.ValidateFunc != nil {
				if err := test.ValidateFunc(account); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}
	for _, test := range s.Errors {
		t.Run(test.Name, test.Run)
	}
}

// ErrorTest validates that provider errors follow the taxonomy.
type ErrorTest struct {
	Name          string
	Provider      ports.IdentityProvider
	Proof         ports.Proof
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// Run executes an error contract test.
func (et *ErrorTest) Run(t *testing.T) {
	_, err := et.Provider.Authenticate(context.Background(), et.Proof)
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if category := providers.GetCategory(err); category != et.ExpectedError {
		t.Errorf("expected error category %s, got %s (%v)", et.ExpectedError, category, err)
	}
	if retry := providers.IsRetryable(err); retry != et.ExpectedRetry {
		t.Errorf("expected retryable=%v, got %v", et.ExpectedRetry, retry)
	}
}

// Package ports declares the collaborators the verification service needs.
// Adapters live under internal/evidence and internal/verification/store.
package ports

import (
	"context"

	"veridion/internal/events"
	"veridion/internal/verification"
	"veridion/pkg/domain"
)

// Proof is what the client hands over after an OAuth redirect: an
// authorization code for code-exchange providers or an ID token for Google.
type Proof struct {
	Code         string `json:"code,omitempty"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

// ExternalAccount is the provider-side account a handshake proved.
type ExternalAccount struct {
	Provider string `json:"provider"`
	Subject  string `json:"subject"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// IdentityProvider runs one social provider's handshake.
// A rejected handshake returns a providers.ErrorAuthentication error; transport
// failures return timeout or provider_outage categories.
type IdentityProvider interface {
	ID() string
	Authenticate(ctx context.Context, proof Proof) (*ExternalAccount, error)
}

// AccountQuery reads on-chain account activity.
type AccountQuery interface {
	AccountExists(ctx context.Context, accountID string) (bool, error)
	TransactionCount(ctx context.Context, accountID string) (int, error)
}

// SnapshotStore persists ledgers. Load returns sentinel.ErrNotFound when no
// snapshot exists. Save is a compare-and-swap: it writes only when the stored
// version equals expected (a missing snapshot matches expected 0) and returns
// sentinel.ErrStale otherwise.
type SnapshotStore interface {
	Load(ctx context.Context, identity domain.IdentityKey) (*verification.Snapshot, error)
	Save(ctx context.Context, snap verification.Snapshot, expected int64) error
	Delete(ctx context.Context, identity domain.IdentityKey) error
}

// EventPublisher forwards ledger changes.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// PassportVerification is one verification recorded in a wallet's passport.
type PassportVerification struct {
	Type   string `json:"type"`
	Points int    `json:"points"`
}

// Passport is the on-chain passport contract that mirrors ledger
// completions. RegisterUser returns sentinel.ErrConflict for a known wallet;
// the other calls return sentinel.ErrNotFound for an unregistered one.
type Passport interface {
	RegisterUser(ctx context.Context, wallet domain.IdentityKey, name, surnames string) error
	UpsertVerification(ctx context.Context, wallet domain.IdentityKey, vtype string, points int) (int, error)
	UserScore(ctx context.Context, wallet domain.IdentityKey) (int, error)
	UserVerifications(ctx context.Context, wallet domain.IdentityKey) ([]PassportVerification, error)
}

package oauth

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"veridion/internal/evidence/providers"
	"veridion/internal/verification"
	"veridion/internal/verification/ports"
	dErrors "veridion/pkg/domain-errors"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// Google reads the ID token issued to the client. The signature is not
// checked; issuer, audience and expiry are.
type Google struct {
	clientID string
	now      func() time.Time
}

// NewGoogle builds the Google provider. An empty clientID skips the
// audience check.
func NewGoogle(clientID string) *Google {
	return &Google{clientID: clientID, now: time.Now}
}

func (g *Google) ID() string {
	return verification.MethodGoogle
}

func (g *Google) Authenticate(_ context.Context, proof ports.Proof) (*ports.ExternalAccount, error) {
	raw := strings.TrimSpace(proof.IDToken)
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "id_token is required")
	}

	var claims googleClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, g.reject("malformed id token", err)
	}
	if claims.Subject == "" {
		return nil, g.reject("id token has no subject", nil)
	}
	if !slices.Contains(googleIssuers, claims.Issuer) {
		return nil, g.reject("id token issuer is not google", nil)
	}
	if g.clientID != "" && !slices.Contains(claims.Audience, g.clientID) {
		return nil, g.reject("id token was issued to another client", nil)
	}
	if claims.ExpiresAt != nil && !g.now().Before(claims.ExpiresAt.Time) {
		return nil, g.reject("id token expired", nil)
	}

	return &ports.ExternalAccount{
		Provider: g.ID(),
		Subject:  claims.Subject,
		Username: claims.Name,
		Email:    claims.Email,
	}, nil
}

func (g *Google) reject(msg string, err error) error {
	return providers.NewProviderError(providers.ErrorAuthentication, g.ID(), msg, err)
}

// Package session issues and revokes the bearer tokens that scope every
// ledger request to one wallet.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	authmw "veridion/pkg/platform/middleware/auth"
)

// Claims are the JWT claims of a session token. The subject is the wallet.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a freshly issued session token.
type Token struct {
	Value     string
	JTI       string
	Wallet    domain.IdentityKey
	ExpiresAt time.Time
}

// TokenService signs and validates HS256 session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the issuing clock.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) { s.clock = clock }
}

func NewTokenService(signingKey, issuer string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is how long issued tokens stay valid.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for wallet.
func (s *TokenService) Issue(wallet domain.IdentityKey) (*Token, error) {
	now := s.clock()
	jti := uuid.NewString()
	expiresAt := now.Add(s.ttl)
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return &Token{Value: signed, JTI: jti, Wallet: wallet, ExpiresAt: expiresAt}, nil
}

// ValidateToken checks signature, issuer and expiry and returns the wallet
// and token id.
func (s *TokenService) ValidateToken(tokenString string) (*authmw.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.clock))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	wallet, err := domain.ParseIdentityKey(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &authmw.SessionClaims{Wallet: wallet, JTI: claims.ID}, nil
}

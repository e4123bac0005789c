package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"

	"veridion/pkg/domain"
	"veridion/pkg/requestcontext"
)

// WithIdentity adds a wallet identity to the request context, as the session
// middleware would for an authenticated request. Invalid addresses are ignored.
func WithIdentity(req *http.Request, wallet string) *http.Request {
	key, err := domain.ParseIdentityKey(wallet)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithIdentity(req.Context(), key))
}

// NewAccountID returns a fresh, checksum-valid Stellar account address.
func NewAccountID() string {
	var key [32]byte
	_, _ = rand.Read(key[:])
	return domain.EncodeAccountID(key)
}

// NewKeypair returns a fresh account address with the private key that
// controls it, for tests that sign wallet challenges.
func NewKeypair() (string, ed25519.PrivateKey) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	var key [32]byte
	copy(key[:], pub)
	return domain.EncodeAccountID(key), priv
}

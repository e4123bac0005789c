package handler

import (
	"strings"

	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
)

const maxProofFieldLength = 4096

// StellarRequest is the body of POST /verifications/stellar. An empty
// account means the session wallet.
type StellarRequest struct {
	AccountID string `json:"account_id"`
}

// Validate implements httputil.Validatable.
func (r *StellarRequest) Validate() error {
	if r == nil {
		return nil
	}
	r.AccountID = strings.TrimSpace(r.AccountID)
	if r.AccountID == "" {
		return nil
	}
	return domain.ValidateAccountID(r.AccountID)
}

// SocialRequest is the body of POST /verifications/social/{provider}.
type SocialRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
	IDToken      string `json:"id_token"`
}

// Validate implements httputil.Validatable.
func (r *SocialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	for _, f := range []*string{&r.Code, &r.RedirectURI, &r.CodeVerifier, &r.IDToken} {
		*f = strings.TrimSpace(*f)
		if len(*f) > maxProofFieldLength {
			return dErrors.New(dErrors.CodeValidation, "proof field is too long")
		}
	}
	if r.Code == "" && r.IDToken == "" {
		return dErrors.New(dErrors.CodeValidation, "code or id_token is required")
	}
	return nil
}

// Proof converts the request into the provider proof.
func (r *SocialRequest) Proof() ports.Proof {
	return ports.Proof{
		Code:         r.Code,
		RedirectURI:  r.RedirectURI,
		CodeVerifier: r.CodeVerifier,
		IDToken:      r.IDToken,
	}
}

package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/testutil"
)

func TestStellarRequest_Validate(t *testing.T) {
	account := testutil.NewAccountID()

	req := &StellarRequest{AccountID: "  " + account + " "}
	require.NoError(t, req.Validate())
	assert.Equal(t, account, req.AccountID)

	require.NoError(t, (&StellarRequest{}).Validate())

	err := (&StellarRequest{AccountID: strings.ToLower(account)}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestSocialRequest_Validate(t *testing.T) {
	require.NoError(t, (&SocialRequest{IDToken: "eyJ.a.b"}).Validate())

	err := (&SocialRequest{RedirectURI: "https://app.example/cb"}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = (&SocialRequest{Code: strings.Repeat("x", maxProofFieldLength+1)}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veridion/internal/platform/logger"
	"veridion/internal/verification"
	"veridion/internal/verification/handler/mocks"
	"veridion/internal/verification/ports"
	"veridion/internal/verification/service"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Ledgers,Verifier
type VerificationHandlerSuite struct {
	suite.Suite
	ledgers  *mocks.MockLedgers
	verifier *mocks.MockVerifier
	router   chi.Router
	wallet   string
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ledgers = mocks.NewMockLedgers(ctrl)
	s.verifier = mocks.NewMockVerifier(ctrl)
	s.wallet = testutil.NewAccountID()

	h := New(s.ledgers, s.verifier, logger.Discard())
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.Register(s.router)
}

func (s *VerificationHandlerSuite) authed(method, path string, body any) *http.Request {
	return testutil.WithIdentity(testutil.NewJSONRequest(s.T(), method, path, body), s.wallet)
}

func (s *VerificationHandlerSuite) TestListMethods() {
	s.verifier.EXPECT().Providers().Return([]string{"discord", "github"})

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/methods", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[CatalogResponse](s.T(), rr)
	s.Len(resp.Methods, len(verification.Methods("")))
	s.Equal(verification.MaxScore(), resp.MaxScore)
	s.Equal([]string{"discord", "github"}, resp.Providers)
	s.NotEmpty(resp.Tiers)
}

func (s *VerificationHandlerSuite) TestListMethodsByCategory() {
	s.verifier.EXPECT().Providers().Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/methods?category=physical", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[CatalogResponse](s.T(), rr)
	for _, m := range resp.Methods {
		s.Equal(verification.CategoryPhysical, m.Category)
	}

	rr = testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/methods?category=astral", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
}

func (s *VerificationHandlerSuite) TestSessionRequired() {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/verifications", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
}

func (s *VerificationHandlerSuite) TestGetLedger() {
	identity := domain.IdentityKey(s.wallet)
	s.ledgers.EXPECT().Ledger(gomock.Any(), identity).Return(&service.LedgerView{
		Identity:  identity,
		Records:   []verification.Record{{MethodID: "github", Category: verification.CategorySocial, Completed: true, Points: 6}},
		Total:     6,
		MaxScore:  verification.MaxScore(),
		Persisted: true,
	}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/verifications", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[service.LedgerView](s.T(), rr)
	s.Equal(6, resp.Total)
	s.Len(resp.Records, 1)
}

func (s *VerificationHandlerSuite) TestGetStatusUnknownMethod() {
	s.ledgers.EXPECT().Status(gomock.Any(), domain.IdentityKey(s.wallet), "myspace").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "unknown verification method: myspace"))

	rr := testutil.DoRequest(s.router, s.authed(http.MethodGet, "/verifications/myspace", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *VerificationHandlerSuite) TestVerifySocial() {
	body := SocialRequest{Code: " abc ", RedirectURI: "https://app.example/cb"}
	s.verifier.EXPECT().
		VerifySocial(gomock.Any(), domain.IdentityKey(s.wallet), "github", ports.Proof{Code: "abc", RedirectURI: "https://app.example/cb"}).
		Return(&service.Outcome{MethodID: "github", Category: verification.CategorySocial, Completed: true, Points: 6, Total: 6, Persisted: true}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/social/github", body))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(true, (*resp)["completed"])
	s.Equal(float64(6), (*resp)["points"])
	s.NotContains(*resp, "warning")
}

func (s *VerificationHandlerSuite) TestVerifySocialRequiresProof() {
	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/social/github", SocialRequest{}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *VerificationHandlerSuite) TestVerifySocialRejected() {
	s.verifier.EXPECT().VerifySocial(gomock.Any(), gomock.Any(), "github", gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "provider rejected the proof"))

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/social/github", SocialRequest{Code: "stale"}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
}

func (s *VerificationHandlerSuite) TestVerifyStellarReportsPersistenceWarning() {
	s.verifier.EXPECT().VerifyStellar(gomock.Any(), domain.IdentityKey(s.wallet), "").
		Return(&service.Outcome{MethodID: verification.MethodStellarTransactions, Completed: true, Points: 15, Total: 15, Persisted: false}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/stellar", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(string(dErrors.CodePersistence), (*resp)["warning"])
	s.Equal(false, (*resp)["persisted"])
}

func (s *VerificationHandlerSuite) TestVerifyStellarUnavailable() {
	s.verifier.EXPECT().VerifyStellar(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "external service unavailable"))

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/stellar", StellarRequest{}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeUnavailable))
}

func (s *VerificationHandlerSuite) TestVerifyStellarRejectsMalformedAccount() {
	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/stellar", StellarRequest{AccountID: "GNOPE"}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
}

func (s *VerificationHandlerSuite) TestVerifyPhysical() {
	s.verifier.EXPECT().VerifyPhysical(gomock.Any(), domain.IdentityKey(s.wallet), verification.MethodGovernmentID).
		Return(&service.Outcome{MethodID: verification.MethodGovernmentID, Completed: true, Points: 1000, Total: 1000, Persisted: true}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodPost, "/verifications/physical/government-id", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *VerificationHandlerSuite) TestResetMethod() {
	s.ledgers.EXPECT().ResetMethod(gomock.Any(), domain.IdentityKey(s.wallet), "github").
		Return(&service.ResetResult{MethodID: "github", Removed: 1, Total: 0, Persisted: true}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodDelete, "/verifications/github", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal(float64(1), (*resp)["removed"])
}

func (s *VerificationHandlerSuite) TestResetAll() {
	s.ledgers.EXPECT().ResetAll(gomock.Any(), domain.IdentityKey(s.wallet)).
		Return(&service.ResetResult{Removed: 3, Total: 0, Persisted: true}, nil)

	rr := testutil.DoRequest(s.router, s.authed(http.MethodDelete, "/verifications", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *VerificationHandlerSuite) TestPreviewStellar() {
	account := testutil.NewAccountID()
	s.verifier.EXPECT().PreviewStellar(gomock.Any(), account).
		Return(&service.ActivityPreview{AccountID: account, Transactions: 42, Points: 15, Tier: verification.TierRegularUser}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/stellar/accounts/"+account+"/activity", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[service.ActivityPreview](s.T(), rr)
	s.Equal(42, resp.Transactions)
	s.Equal(verification.TierRegularUser, resp.Tier)
}

func (s *VerificationHandlerSuite) TestPreviewStellarNotFound() {
	account := testutil.NewAccountID()
	s.verifier.EXPECT().PreviewStellar(gomock.Any(), account).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "stellar account not found"))

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/stellar/accounts/"+account+"/activity", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func (s *VerificationHandlerSuite) TestAuthorize() {
	s.verifier.EXPECT().SocialAuthorizationURL("discord", "xyz").Return("https://discord.com/oauth2/authorize?state=xyz", nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/verifications/social/discord/authorize?state=xyz", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[AuthorizeResponse](s.T(), rr)
	s.Contains(resp.URL, "state=xyz")
}

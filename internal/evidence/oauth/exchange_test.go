package oauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridion/internal/evidence/providers"
	"veridion/internal/evidence/providers/contract"
	"veridion/internal/verification/ports"
	dErrors "veridion/pkg/domain-errors"
)

const goodCode = "good-code"

// fakeProvider serves a token endpoint that accepts goodCode and a profile
// endpoint that requires the issued bearer token.
type fakeProvider struct {
	profile       any
	tokenStatus   int
	profileStatus int
	lastForm      url.Values
	lastHeaders   http.Header
}

func (f *fakeProvider) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.lastForm = r.PostForm
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"server_error"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("code") != goodCode {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"bad code"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer"}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		f.lastHeaders = r.Header.Clone()
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.profileStatus != 0 {
			w.WriteHeader(f.profileStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func creds(srv *httptest.Server) Credentials {
	return Credentials{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/callback",
		TokenURL:     srv.URL + "/token",
		ProfileURL:   srv.URL + "/profile",
	}
}

func TestGitHub_Contract(t *testing.T) {
	fake := &fakeProvider{profile: map[string]any{"id": 583231, "login": "octocat", "email": "octo@example.com"}}
	srv := fake.server(t)
	provider := NewGitHub(creds(srv), srv.Client())

	suite := &contract.Suite{
		ProviderID: "github",
		Success: []contract.SuccessTest{{
			Name:     "exchanges code and reads profile",
			Provider: provider,
			Proof:    ports.Proof{Code: goodCode},
			ValidateFunc: func(a *ports.ExternalAccount) error {
				if a.Subject != "583231" || a.Username != "octocat" {
					return errors.New("unexpected account")
				}
				return nil
			},
		}},
		Errors: []contract.ErrorTest{{
			Name:          "rejected code is an authentication failure",
			Provider:      provider,
			Proof:         ports.Proof{Code: "stale"},
			ExpectedError: providers.ErrorAuthentication,
		}},
	}
	suite.Run(t)

	assert.Equal(t, "client", fake.lastForm.Get("client_id"), "credentials are sent in the body")
	assert.Equal(t, "application/vnd.github.v3+json", fake.lastHeaders.Get("Accept"))
}

func TestDiscord_Contract(t *testing.T) {
	fake := &fakeProvider{profile: map[string]any{"id": "80351110224678912", "username": "nelly"}}
	srv := fake.server(t)
	suite := &contract.Suite{
		ProviderID: "discord",
		Success: []contract.SuccessTest{{
			Name:     "exchanges code and reads profile",
			Provider: NewDiscord(creds(srv), srv.Client()),
			Proof:    ports.Proof{Code: goodCode, RedirectURI: "http://app/cb"},
		}},
	}
	suite.Run(t)
	assert.Equal(t, "http://app/cb", fake.lastForm.Get("redirect_uri"))
	assert.Equal(t, "authorization_code", fake.lastForm.Get("grant_type"))
}

func TestLinkedIn_Contract(t *testing.T) {
	fake := &fakeProvider{profile: map[string]any{
		"id":        "abc",
		"firstName": map[string]any{"localized": map[string]string{"en_US": "Ada"}},
		"lastName":  map[string]any{"localized": map[string]string{"en_US": "Lovelace"}},
	}}
	srv := fake.server(t)
	suite := &contract.Suite{
		ProviderID: "linkedin",
		Success: []contract.SuccessTest{{
			Name:     "exchanges code and reads profile",
			Provider: NewLinkedIn(creds(srv), srv.Client()),
			Proof:    ports.Proof{Code: goodCode},
			ValidateFunc: func(a *ports.ExternalAccount) error {
				if a.Username != "Ada Lovelace" {
					return errors.New("unexpected name " + a.Username)
				}
				return nil
			},
		}},
	}
	suite.Run(t)
	assert.Equal(t, "2.0.0", fake.lastHeaders.Get("X-Restli-Protocol-Version"))
}

func TestCodeExchange_Failures(t *testing.T) {
	t.Run("token endpoint outage", func(t *testing.T) {
		fake := &fakeProvider{tokenStatus: http.StatusBadGateway}
		srv := fake.server(t)
		et := contract.ErrorTest{
			Provider:      NewGitHub(creds(srv), srv.Client()),
			Proof:         ports.Proof{Code: goodCode},
			ExpectedError: providers.ErrorProviderOutage,
			ExpectedRetry: true,
		}
		et.Run(t)
	})

	t.Run("profile endpoint outage", func(t *testing.T) {
		fake := &fakeProvider{profileStatus: http.StatusServiceUnavailable}
		srv := fake.server(t)
		et := contract.ErrorTest{
			Provider:      NewDiscord(creds(srv), srv.Client()),
			Proof:         ports.Proof{Code: goodCode},
			ExpectedError: providers.ErrorProviderOutage,
			ExpectedRetry: true,
		}
		et.Run(t)
	})

	t.Run("profile without id", func(t *testing.T) {
		fake := &fakeProvider{profile: map[string]any{"username": "ghost"}}
		srv := fake.server(t)
		et := contract.ErrorTest{
			Provider:      NewDiscord(creds(srv), srv.Client()),
			Proof:         ports.Proof{Code: goodCode},
			ExpectedError: providers.ErrorBadData,
		}
		et.Run(t)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		fake := &fakeProvider{}
		srv := fake.server(t)
		c := creds(srv)
		srv.Close()
		et := contract.ErrorTest{
			Provider:      NewGitHub(c, &http.Client{Timeout: time.Second}),
			Proof:         ports.Proof{Code: goodCode},
			ExpectedError: providers.ErrorProviderOutage,
			ExpectedRetry: true,
		}
		et.Run(t)
	})

	t.Run("missing code is invalid input", func(t *testing.T) {
		_, err := NewGitHub(Credentials{ClientID: "a", ClientSecret: "b"}, nil).Authenticate(t.Context(), ports.Proof{})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("unconfigured client", func(t *testing.T) {
		_, err := NewLinkedIn(Credentials{}, nil).Authenticate(t.Context(), ports.Proof{Code: "x"})
		assert.Equal(t, providers.ErrorMisconfigured, providers.GetCategory(err))
	})
}

func TestCodeExchange_AuthCodeURL(t *testing.T) {
	p := NewGitHub(Credentials{ClientID: "cid", RedirectURL: "http://localhost:3000/callback"}, nil)
	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
}

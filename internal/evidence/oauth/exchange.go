// Package oauth implements the social identity providers. GitHub, Discord
// and LinkedIn exchange an authorization code and fetch the profile; Google
// decodes the ID token the client already holds. Provider responses are
// trusted as returned.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"veridion/internal/evidence/providers"
	"veridion/internal/verification/ports"
	dErrors "veridion/pkg/domain-errors"
)

const maxProfileBytes = 1 << 20

// Credentials configures one code-exchange provider. Empty URLs use the
// provider's public endpoints.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenURL     string
	ProfileURL   string
	Scopes       []string
}

type profileDecoder func(providerID string, body []byte) (*ports.ExternalAccount, error)

// CodeExchange is an authorization-code provider: token exchange followed by
// one authenticated profile request.
type CodeExchange struct {
	id         string
	conf       *oauth2.Config
	httpClient *http.Client
	profileURL string
	headers    map[string]string
	decode     profileDecoder
}

func newCodeExchange(id string, endpoint oauth2.Endpoint, creds Credentials, defaultProfileURL string, httpClient *http.Client, headers map[string]string, decode profileDecoder) *CodeExchange {
	if creds.TokenURL != "" {
		endpoint.TokenURL = creds.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	profileURL := defaultProfileURL
	if creds.ProfileURL != "" {
		profileURL = creds.ProfileURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &CodeExchange{
		id: id,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       creds.Scopes,
		},
		httpClient: httpClient,
		profileURL: profileURL,
		headers:    headers,
		decode:     decode,
	}
}

// ID returns the method id this provider proves.
func (c *CodeExchange) ID() string {
	return c.id
}

// AuthCodeURL builds the consent page URL the client should redirect to.
func (c *CodeExchange) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Authenticate exchanges proof.Code for an access token and reads the
// provider profile with it.
func (c *CodeExchange) Authenticate(ctx context.Context, proof ports.Proof) (*ports.ExternalAccount, error) {
	if strings.TrimSpace(proof.Code) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "authorization code is required")
	}
	if c.conf.ClientID == "" || c.conf.ClientSecret == "" {
		return nil, providers.NewProviderError(providers.ErrorMisconfigured, c.id, "oauth client is not configured", nil)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	var opts []oauth2.AuthCodeOption
	if proof.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", proof.RedirectURI))
	}
	if proof.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(proof.CodeVerifier))
	}

	token, err := c.conf.Exchange(ctx, proof.Code, opts...)
	if err != nil {
		return nil, c.classifyExchange(err)
	}
	return c.fetchProfile(ctx, token)
}

func (c *CodeExchange) classifyExchange(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil && re.Response.StatusCode >= http.StatusInternalServerError {
			return providers.NewProviderError(providers.ErrorProviderOutage, c.id, "token endpoint failed", err)
		}
		return providers.NewProviderError(providers.ErrorAuthentication, c.id, "authorization code rejected", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return providers.FromTransport(c.id, err)
	}
	return providers.NewProviderError(providers.ErrorBadData, c.id, "unexpected token response", err)
}

func (c *CodeExchange) fetchProfile(ctx context.Context, token *oauth2.Token) (*ports.ExternalAccount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, c.id, "build profile request", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, providers.FromTransport(c.id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, providers.FromTransport(c.id, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providers.FromStatus(c.id, resp.StatusCode, "")
	}

	account, err := c.decode(c.id, body)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, c.id, "malformed profile", err)
	}
	if account.Subject == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, c.id, "profile without id", nil)
	}
	return account, nil
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	return nil
}

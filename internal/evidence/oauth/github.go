package oauth

import (
	"net/http"
	"strconv"

	"golang.org/x/oauth2/endpoints"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
)

const githubProfileURL = "https://api.github.com/user"

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewGitHub builds the GitHub provider.
func NewGitHub(creds Credentials, httpClient *http.Client) *CodeExchange {
	if creds.Scopes == nil {
		creds.Scopes = []string{"read:user"}
	}
	return newCodeExchange(verification.MethodGitHub, endpoints.GitHub, creds, githubProfileURL, httpClient,
		map[string]string{"Accept": "application/vnd.github.v3+json"},
		func(providerID string, body []byte) (*ports.ExternalAccount, error) {
			var u githubUser
			if err := decodeJSON(body, &u); err != nil {
				return nil, err
			}
			account := &ports.ExternalAccount{Provider: providerID, Username: u.Login, Email: u.Email}
			if u.ID != 0 {
				account.Subject = strconv.FormatInt(u.ID, 10)
			}
			return account, nil
		})
}

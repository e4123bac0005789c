package oauth

import (
	"net/http"

	"golang.org/x/oauth2/endpoints"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
)

const discordProfileURL = "https://discord.com/api/users/@me"

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// NewDiscord builds the Discord provider.
func NewDiscord(creds Credentials, httpClient *http.Client) *CodeExchange {
	if creds.Scopes == nil {
		creds.Scopes = []string{"identify"}
	}
	return newCodeExchange(verification.MethodDiscord, endpoints.Discord, creds, discordProfileURL, httpClient, nil,
		func(providerID string, body []byte) (*ports.ExternalAccount, error) {
			var u discordUser
			if err := decodeJSON(body, &u); err != nil {
				return nil, err
			}
			return &ports.ExternalAccount{Provider: providerID, Subject: u.ID, Username: u.Username, Email: u.Email}, nil
		})
}

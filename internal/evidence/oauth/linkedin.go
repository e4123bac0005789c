package oauth

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/oauth2/endpoints"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
)

const linkedinProfileURL = "https://api.linkedin.com/v2/people/~:(id,firstName,lastName)"

type localizedName struct {
	Localized map[string]string `json:"localized"`
}

// first returns a deterministic pick from the localized variants.
func (n localizedName) first() string {
	keys := make([]string, 0, len(n.Localized))
	for k := range n.Localized {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return ""
	}
	return n.Localized[keys[0]]
}

type linkedinUser struct {
	ID        string        `json:"id"`
	FirstName localizedName `json:"firstName"`
	LastName  localizedName `json:"lastName"`
}

// NewLinkedIn builds the LinkedIn provider.
func NewLinkedIn(creds Credentials, httpClient *http.Client) *CodeExchange {
	if creds.Scopes == nil {
		creds.Scopes = []string{"r_liteprofile"}
	}
	return newCodeExchange(verification.MethodLinkedIn, endpoints.LinkedIn, creds, linkedinProfileURL, httpClient,
		map[string]string{"X-Restli-Protocol-Version": "2.0.0"},
		func(providerID string, body []byte) (*ports.ExternalAccount, error) {
			var u linkedinUser
			if err := decodeJSON(body, &u); err != nil {
				return nil, err
			}
			name := strings.TrimSpace(u.FirstName.first() + " " + u.LastName.first())
			return &ports.ExternalAccount{Provider: providerID, Subject: u.ID, Username: name}, nil
		})
}

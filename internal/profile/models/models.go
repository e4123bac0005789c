// Package models holds the wallet profile entity.
package models

import (
	"time"

	"github.com/google/uuid"

	"veridion/pkg/domain"
)

// Profile is the registration record of a wallet holder.
type Profile struct {
	ID              uuid.UUID          `json:"id"`
	Wallet          domain.IdentityKey `json:"wallet"`
	Name            string             `json:"name"`
	Surnames        string             `json:"surnames"`
	Email           string             `json:"email,omitempty"`
	AvatarURL       string             `json:"avatar_url,omitempty"`
	WalletType      string             `json:"wallet_type,omitempty"`
	LoginCount      int                `json:"login_count"`
	LastLoginAt     *time.Time         `json:"last_login_at,omitempty"`
	LastLoginDevice string             `json:"last_login_device,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Registration is the input of a new profile.
type Registration struct {
	Name       string
	Surnames   string
	Email      string
	AvatarURL  string
	WalletType string
}

// Changes is a partial update; nil fields are left untouched.
type Changes struct {
	Name      *string
	Surnames  *string
	Email     *string
	AvatarURL *string
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.Name == nil && c.Surnames == nil && c.Email == nil && c.AvatarURL == nil
}

// Apply copies the set fields onto p.
func (c Changes) Apply(p *Profile) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Surnames != nil {
		p.Surnames = *c.Surnames
	}
	if c.Email != nil {
		p.Email = *c.Email
	}
	if c.AvatarURL != nil {
		p.AvatarURL = *c.AvatarURL
	}
}

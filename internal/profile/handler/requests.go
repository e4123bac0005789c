package handler

import (
	"strings"

	"veridion/internal/profile/models"
	dErrors "veridion/pkg/domain-errors"
)

// RegisterRequest is the body of POST /profile.
type RegisterRequest struct {
	Name       string `json:"name"`
	Surnames   string `json:"surnames"`
	Email      string `json:"email"`
	AvatarURL  string `json:"avatar_url"`
	WalletType string `json:"wallet_type"`
}

// Validate implements httputil.Validatable.
func (r *RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Surnames = strings.TrimSpace(r.Surnames)
	if r.Name == "" || r.Surnames == "" {
		return dErrors.New(dErrors.CodeValidation, "name and surnames are required")
	}
	return nil
}

func (r *RegisterRequest) toModel() models.Registration {
	return models.Registration{
		Name:       r.Name,
		Surnames:   r.Surnames,
		Email:      r.Email,
		AvatarURL:  r.AvatarURL,
		WalletType: r.WalletType,
	}
}

// UpdateRequest is the body of PATCH /profile. Absent fields stay as they are.
type UpdateRequest struct {
	Name      *string `json:"name"`
	Surnames  *string `json:"surnames"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

// Validate implements httputil.Validatable.
func (r *UpdateRequest) Validate() error {
	if r.toModel().IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	return nil
}

func (r *UpdateRequest) toModel() models.Changes {
	return models.Changes{
		Name:      r.Name,
		Surnames:  r.Surnames,
		Email:     r.Email,
		AvatarURL: r.AvatarURL,
	}
}

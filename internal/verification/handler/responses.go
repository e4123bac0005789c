package handler

import (
	"veridion/internal/verification"
	"veridion/internal/verification/service"
	dErrors "veridion/pkg/domain-errors"
)

// OutcomeResponse is a signal outcome plus a warning when the ledger could
// not be saved; the completion itself still stands.
type OutcomeResponse struct {
	*service.Outcome
	Warning string `json:"warning,omitempty"`
}

// ResetResponse is a reset result plus the same persistence warning.
type ResetResponse struct {
	*service.ResetResult
	Warning string `json:"warning,omitempty"`
}

// CatalogResponse lists verification methods.
type CatalogResponse struct {
	Methods   []verification.Method       `json:"methods"`
	MaxScore  int                         `json:"max_score"`
	Tiers     []verification.ActivityTier `json:"activity_tiers"`
	Providers []string                    `json:"configured_providers"`
}

// AuthorizeResponse carries a provider consent URL.
type AuthorizeResponse struct {
	URL string `json:"url"`
}

func toOutcomeResponse(o *service.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Outcome: o}
	if !o.Persisted {
		resp.Warning = string(dErrors.CodePersistence)
	}
	return resp
}

func toResetResponse(r *service.ResetResult) ResetResponse {
	resp := ResetResponse{ResetResult: r}
	if !r.Persisted {
		resp.Warning = string(dErrors.CodePersistence)
	}
	return resp
}

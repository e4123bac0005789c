// Package handler serves the wallet profile endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridion/internal/profile/models"
	verification "veridion/internal/verification/service"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/httputil"
	"veridion/pkg/platform/middleware/metadata"
	"veridion/pkg/requestcontext"
)

// Service manages profiles.
type Service interface {
	Register(ctx context.Context, wallet domain.IdentityKey, reg models.Registration, device string) (*models.Profile, error)
	Get(ctx context.Context, wallet domain.IdentityKey) (*models.Profile, error)
	Update(ctx context.Context, wallet domain.IdentityKey, changes models.Changes) (*models.Profile, error)
	Delete(ctx context.Context, wallet domain.IdentityKey) error
}

// ScoreReader reads the wallet's verification ledger.
type ScoreReader interface {
	Ledger(ctx context.Context, identity domain.IdentityKey) (*verification.LedgerView, error)
}

// ProfileResponse is a profile with the wallet's current score. Score is
// omitted when the ledger could not be read.
type ProfileResponse struct {
	*models.Profile
	Score    *int `json:"score,omitempty"`
	MaxScore *int `json:"max_score,omitempty"`
}

type Handler struct {
	service Service
	scores  ScoreReader
	logger  *slog.Logger
}

// New constructs a profile handler. scores may be nil.
func New(service Service, scores ScoreReader, logger *slog.Logger) *Handler {
	return &Handler{service: service, scores: scores, logger: logger}
}

// Register mounts the session-scoped profile routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.HandleGet)
	r.Post("/profile", h.HandleRegister)
	r.Patch("/profile", h.HandleUpdate)
	r.Delete("/profile", h.HandleDelete)
}

// HandleGet handles GET /profile.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(ctx, wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.withScore(ctx, p))
}

// HandleRegister handles POST /profile.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	wallet, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Register(ctx, wallet, req.toModel(), metadata.Device(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "profile registration failed",
			"request_id", requestID,
			"identity", wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, h.withScore(ctx, p))
}

// HandleUpdate handles PATCH /profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	wallet, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.Update(ctx, wallet, req.toModel())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.withScore(ctx, p))
}

// HandleDelete handles DELETE /profile: the profile and the verification
// ledger are both erased.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, wallet); err != nil {
		h.logger.ErrorContext(ctx, "profile erasure failed",
			"request_id", requestcontext.RequestID(ctx),
			"identity", wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) withScore(ctx context.Context, p *models.Profile) ProfileResponse {
	resp := ProfileResponse{Profile: p}
	if h.scores == nil {
		return resp
	}
	view, err := h.scores.Ledger(ctx, p.Wallet)
	if err != nil {
		h.logger.WarnContext(ctx, "profile served without score",
			"request_id", requestcontext.RequestID(ctx),
			"identity", p.Wallet,
			"error", err,
		)
		return resp
	}
	resp.Score = &view.Total
	resp.MaxScore = &view.MaxScore
	return resp
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (domain.IdentityKey, bool) {
	identity := requestcontext.Identity(r.Context())
	if identity.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return identity, true
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"veridion/internal/verification"
	"veridion/internal/verification/ports"
	"veridion/internal/verification/service"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/httputil"
	"veridion/pkg/requestcontext"
)

// Ledgers reads and resets verification ledgers.
type Ledgers interface {
	Ledger(ctx context.Context, identity domain.IdentityKey) (*service.LedgerView, error)
	Status(ctx context.Context, identity domain.IdentityKey, methodID string) (*service.MethodStatus, error)
	ResetMethod(ctx context.Context, identity domain.IdentityKey, methodID string) (*service.ResetResult, error)
	ResetAll(ctx context.Context, identity domain.IdentityKey) (*service.ResetResult, error)
}

// Verifier runs verification flows.
type Verifier interface {
	VerifyStellar(ctx context.Context, identity domain.IdentityKey, accountID string) (*service.Outcome, error)
	VerifySocial(ctx context.Context, identity domain.IdentityKey, providerID string, proof ports.Proof) (*service.Outcome, error)
	VerifyPhysical(ctx context.Context, identity domain.IdentityKey, methodID string) (*service.Outcome, error)
	PreviewStellar(ctx context.Context, accountID string) (*service.ActivityPreview, error)
	SocialAuthorizationURL(providerID, state string) (string, error)
	Providers() []string
}

// Handler wires verification endpoints to the coordinator and verifier.
type Handler struct {
	ledgers  Ledgers
	verifier Verifier
	logger   *slog.Logger
}

// New constructs a verification handler.
func New(ledgers Ledgers, verifier Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		ledgers:  ledgers,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterPublic mounts the endpoints that need no session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/methods", h.HandleListMethods)
	r.Get("/stellar/accounts/{accountID}/activity", h.HandlePreviewStellar)
	r.Get("/verifications/social/{provider}/authorize", h.HandleAuthorize)
}

// Register mounts the session-scoped endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verifications", h.HandleGetLedger)
	r.Delete("/verifications", h.HandleResetAll)
	r.Post("/verifications/stellar", h.HandleVerifyStellar)
	r.Post("/verifications/social/{provider}", h.HandleVerifySocial)
	r.Post("/verifications/physical/{methodID}", h.HandleVerifyPhysical)
	r.Get("/verifications/{methodID}", h.HandleGetStatus)
	r.Delete("/verifications/{methodID}", h.HandleResetMethod)
}

// HandleListMethods handles GET /methods.
func (h *Handler) HandleListMethods(w http.ResponseWriter, r *http.Request) {
	category := verification.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	if category != "" && !category.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown category: "+string(category)))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CatalogResponse{
		Methods:   verification.Methods(category),
		MaxScore:  verification.MaxScore(),
		Tiers:     verification.ActivityTiers(),
		Providers: h.verifier.Providers(),
	})
}

// HandlePreviewStellar handles GET /stellar/accounts/{accountID}/activity.
func (h *Handler) HandlePreviewStellar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := chi.URLParam(r, "accountID")

	preview, err := h.verifier.PreviewStellar(ctx, accountID)
	if err != nil {
		h.logFailure(ctx, "stellar activity preview failed", err, "account_id", accountID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, preview)
}

// HandleAuthorize handles GET /verifications/social/{provider}/authorize.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	url, err := h.verifier.SocialAuthorizationURL(chi.URLParam(r, "provider"), r.URL.Query().Get("state"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuthorizeResponse{URL: url})
}

// HandleGetLedger handles GET /verifications.
func (h *Handler) HandleGetLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	view, err := h.ledgers.Ledger(ctx, identity)
	if err != nil {
		h.logFailure(ctx, "ledger read failed", err, "identity", identity)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleGetStatus handles GET /verifications/{methodID}.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	status, err := h.ledgers.Status(ctx, identity, chi.URLParam(r, "methodID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleVerifyStellar handles POST /verifications/stellar.
func (h *Handler) HandleVerifyStellar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StellarRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.verifier.VerifyStellar(ctx, identity, req.AccountID)
	if err != nil {
		h.logFailure(ctx, "stellar verification failed", err, "identity", identity)
		httputil.WriteError(w, err)
		return
	}
	h.logOutcome(ctx, outcome, identity, start)
	httputil.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleVerifySocial handles POST /verifications/social/{provider}.
func (h *Handler) HandleVerifySocial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SocialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	provider := chi.URLParam(r, "provider")

	outcome, err := h.verifier.VerifySocial(ctx, identity, provider, req.Proof())
	if err != nil {
		h.logFailure(ctx, "social verification failed", err, "identity", identity, "provider", provider)
		httputil.WriteError(w, err)
		return
	}
	h.logOutcome(ctx, outcome, identity, start)
	httputil.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleVerifyPhysical handles POST /verifications/physical/{methodID}.
func (h *Handler) HandleVerifyPhysical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	methodID := chi.URLParam(r, "methodID")

	outcome, err := h.verifier.VerifyPhysical(ctx, identity, methodID)
	if err != nil {
		h.logFailure(ctx, "physical verification failed", err, "identity", identity, "method_id", methodID)
		httputil.WriteError(w, err)
		return
	}
	h.logOutcome(ctx, outcome, identity, start)
	httputil.WriteJSON(w, http.StatusOK, toOutcomeResponse(outcome))
}

// HandleResetMethod handles DELETE /verifications/{methodID}.
func (h *Handler) HandleResetMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	result, err := h.ledgers.ResetMethod(ctx, identity, chi.URLParam(r, "methodID"))
	if err != nil {
		h.logFailure(ctx, "method reset failed", err, "identity", identity)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResetResponse(result))
}

// HandleResetAll handles DELETE /verifications.
func (h *Handler) HandleResetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	result, err := h.ledgers.ResetAll(ctx, identity)
	if err != nil {
		h.logFailure(ctx, "ledger reset failed", err, "identity", identity)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResetResponse(result))
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (domain.IdentityKey, bool) {
	identity := requestcontext.Identity(r.Context())
	if identity.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return identity, true
}

// logFailure logs server-side failures at error level and client mistakes at
// warn level.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "error", err}, attrs...)
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
		return
	}
	h.logger.WarnContext(ctx, msg, args...)
}

func (h *Handler) logOutcome(ctx context.Context, o *service.Outcome, identity domain.IdentityKey, start time.Time) {
	h.logger.InfoContext(ctx, "verification handled",
		"request_id", requestcontext.RequestID(ctx),
		"identity", identity,
		"method_id", o.MethodID,
		"completed", o.Completed,
		"already_completed", o.AlreadyCompleted,
		"persisted", o.Persisted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

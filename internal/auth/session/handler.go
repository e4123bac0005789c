package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/httputil"
	"veridion/pkg/platform/middleware/metadata"
	"veridion/pkg/requestcontext"
)

// Issuer signs session tokens.
type Issuer interface {
	Issue(wallet domain.IdentityKey) (*Token, error)
	TTL() time.Duration
}

// Challenger issues sign-in challenges and checks their signatures.
type Challenger interface {
	Issue(ctx context.Context, wallet domain.IdentityKey) (*Challenge, error)
	Verify(ctx context.Context, wallet domain.IdentityKey, nonce, signature string) error
}

// LoginRecorder counts logins on a registered profile. A wallet without a
// profile reports CodeNotFound, which is not a login failure.
type LoginRecorder interface {
	RecordLogin(ctx context.Context, wallet domain.IdentityKey, device string) error
}

// LedgerCloser releases the in-memory ledger of an ending session.
type LedgerCloser interface {
	Close(ctx context.Context, identity domain.IdentityKey) error
}

// ChallengeRequest asks for a sign-in challenge.
type ChallengeRequest struct {
	Wallet string `json:"wallet"`
}

func (r *ChallengeRequest) Validate() error {
	return validateWallet(&r.Wallet)
}

// ChallengeResponse is the message the wallet must sign.
type ChallengeResponse struct {
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateRequest starts a session for a wallet that signed its challenge.
// Signature is the base64 ed25519 signature over the challenge message.
type CreateRequest struct {
	Wallet    string `json:"wallet"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// Validate trims and checks the wallet address and proof fields.
func (r *CreateRequest) Validate() error {
	if err := validateWallet(&r.Wallet); err != nil {
		return err
	}
	r.Nonce = strings.TrimSpace(r.Nonce)
	r.Signature = strings.TrimSpace(r.Signature)
	if r.Nonce == "" || r.Signature == "" {
		return dErrors.New(dErrors.CodeValidation, "nonce and signature are required")
	}
	return nil
}

func validateWallet(wallet *string) error {
	*wallet = strings.TrimSpace(*wallet)
	if *wallet == "" {
		return dErrors.New(dErrors.CodeValidation, "wallet is required")
	}
	return domain.ValidateAccountID(*wallet)
}

// CreateResponse carries the bearer token.
type CreateResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Wallet    string    `json:"wallet"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EndResponse reports a logout. Warning is set when the ledger could not be
// saved on the way out.
type EndResponse struct {
	Ended   bool   `json:"ended"`
	Warning string `json:"warning,omitempty"`
}

// Handler serves session endpoints.
type Handler struct {
	issuer      Issuer
	challenges  Challenger
	revocations Revocations
	logins      LoginRecorder
	ledgers     LedgerCloser
	logger      *slog.Logger
}

func NewHandler(issuer Issuer, challenges Challenger, revocations Revocations, logins LoginRecorder, ledgers LedgerCloser, logger *slog.Logger) *Handler {
	return &Handler{
		issuer:      issuer,
		challenges:  challenges,
		revocations: revocations,
		logins:      logins,
		ledgers:     ledgers,
		logger:      logger,
	}
}

// RegisterPublic mounts the sign-in endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/sessions/challenge", h.HandleChallenge)
	r.Post("/sessions", h.HandleCreate)
}

// Register mounts DELETE /sessions behind the session guard.
func (h *Handler) Register(r chi.Router) {
	r.Delete("/sessions", h.HandleEnd)
}

// HandleChallenge handles POST /sessions/challenge.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[ChallengeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet := domain.IdentityKey(req.Wallet)

	ch, err := h.challenges.Issue(ctx, wallet)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue sign-in challenge",
			"request_id", requestID,
			"identity", wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ChallengeResponse{
		Nonce:     ch.Nonce,
		Message:   ch.Message,
		ExpiresAt: ch.ExpiresAt,
	})
}

// HandleCreate handles POST /sessions. The wallet must have signed a
// challenge from HandleChallenge.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	wallet := domain.IdentityKey(req.Wallet)

	if err := h.challenges.Verify(ctx, wallet, req.Nonce, req.Signature); err != nil {
		h.logger.WarnContext(ctx, "sign-in proof rejected",
			"request_id", requestID,
			"identity", wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.issuer.Issue(wallet)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session token",
			"request_id", requestID,
			"identity", wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	if h.logins != nil {
		if err := h.logins.RecordLogin(ctx, wallet, metadata.Device(ctx)); err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "failed to record login",
				"request_id", requestID,
				"identity", wallet,
				"error", err,
			)
		}
	}

	h.logger.InfoContext(ctx, "session started",
		"request_id", requestID,
		"identity", wallet,
		"jti", token.JTI,
	)
	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		Token:     token.Value,
		TokenType: "Bearer",
		Wallet:    wallet.String(),
		ExpiresAt: token.ExpiresAt,
	})
}

// HandleEnd handles DELETE /sessions: the token is revoked and the ledger
// gets a final save before leaving memory.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	identity := requestcontext.Identity(ctx)
	if identity.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.revocations.Revoke(ctx, requestcontext.SessionID(ctx), h.issuer.TTL()); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke session token",
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "session could not be ended"))
		return
	}

	resp := EndResponse{Ended: true}
	if err := h.ledgers.Close(ctx, identity); err != nil {
		h.logger.ErrorContext(ctx, "ledger not saved at session end",
			"request_id", requestID,
			"identity", identity,
			"error", err,
		)
		resp.Warning = string(dErrors.CodePersistence)
	}
	h.logger.InfoContext(ctx, "session ended",
		"request_id", requestID,
		"identity", identity,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

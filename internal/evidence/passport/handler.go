package passport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veridion/internal/verification/ports"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/httputil"
	"veridion/pkg/platform/sentinel"
	"veridion/pkg/requestcontext"
)

// Response is the wallet's mirrored passport.
type Response struct {
	Wallet        string                       `json:"wallet"`
	Score         int                          `json:"score"`
	Verifications []ports.PassportVerification `json:"verifications"`
}

type Handler struct {
	passport ports.Passport
	logger   *slog.Logger
}

func NewHandler(passport ports.Passport, logger *slog.Logger) *Handler {
	return &Handler{passport: passport, logger: logger}
}

// Register mounts the session-scoped passport route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/passport", h.HandleGet)
}

// HandleGet handles GET /passport.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wallet := requestcontext.Identity(ctx)
	if wallet.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	score, err := h.passport.UserScore(ctx, wallet)
	if err == nil {
		var recorded []ports.PassportVerification
		recorded, err = h.passport.UserVerifications(ctx, wallet)
		if err == nil {
			httputil.WriteJSON(w, http.StatusOK, Response{Wallet: wallet.String(), Score: score, Verifications: recorded})
			return
		}
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "wallet has no passport"))
		return
	}
	h.logger.ErrorContext(ctx, "passport read failed",
		"request_id", requestcontext.RequestID(ctx),
		"identity", wallet,
		"error", err,
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "passport unavailable"))
}

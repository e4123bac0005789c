package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"veridion/internal/evidence/providers"
	"veridion/internal/evidence/stellar"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/platform/httputil"
	"veridion/pkg/requestcontext"
)

const defaultListLimit = 10

// AccountReader reads public Horizon data for the account dashboard.
type AccountReader interface {
	AccountInfo(ctx context.Context, accountID string) (*stellar.AccountInfo, error)
	LatestTransactions(ctx context.Context, accountID string, limit int) ([]stellar.Transaction, error)
	Operations(ctx context.Context, accountID string, limit int) ([]stellar.Operation, error)
	Payments(ctx context.Context, accountID string, limit int) ([]stellar.Payment, error)
}

// Accounts serves read-only account data. Nothing here touches a ledger.
type Accounts struct {
	reader  AccountReader
	timeout time.Duration
	logger  *slog.Logger
}

// NewAccounts constructs the dashboard handler. Each Horizon call is bounded
// by timeout.
func NewAccounts(reader AccountReader, timeout time.Duration, logger *slog.Logger) *Accounts {
	return &Accounts{reader: reader, timeout: timeout, logger: logger}
}

// RegisterPublic mounts the dashboard endpoints.
func (h *Accounts) RegisterPublic(r chi.Router) {
	r.Get("/stellar/accounts/{accountID}", h.HandleAccountInfo)
	r.Get("/stellar/accounts/{accountID}/transactions", listHandler(h, "transactions", h.reader.LatestTransactions))
	r.Get("/stellar/accounts/{accountID}/operations", listHandler(h, "operations", h.reader.Operations))
	r.Get("/stellar/accounts/{accountID}/payments", listHandler(h, "payments", h.reader.Payments))
}

// HandleAccountInfo handles GET /stellar/accounts/{accountID}.
func (h *Accounts) HandleAccountInfo(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := domain.ValidateAccountID(accountID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	ctx, cancel := h.callContext(r)
	defer cancel()

	info, err := h.reader.AccountInfo(ctx, accountID)
	if err != nil {
		h.fail(w, r, "account info", accountID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// RecordsResponse wraps a dashboard list.
type RecordsResponse[T any] struct {
	AccountID string `json:"account_id"`
	Records   []T    `json:"records"`
}

func listHandler[T any](h *Accounts, resource string, fetch func(context.Context, string, int) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID := chi.URLParam(r, "accountID")
		if err := domain.ValidateAccountID(accountID); err != nil {
			httputil.WriteError(w, err)
			return
		}
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ctx, cancel := h.callContext(r)
		defer cancel()

		records, err := fetch(ctx, accountID, limit)
		if err != nil {
			h.fail(w, r, resource, accountID, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, RecordsResponse[T]{AccountID: accountID, Records: records})
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > stellar.MaxListLimit {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and "+strconv.Itoa(stellar.MaxListLimit))
	}
	return n, nil
}

func (h *Accounts) callContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Accounts) fail(w http.ResponseWriter, r *http.Request, resource, accountID string, err error) {
	h.logger.WarnContext(r.Context(), "horizon read failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"resource", resource,
		"account_id", accountID,
		"category", providers.GetCategory(err),
		"retryable", providers.IsRetryable(err),
		"error", err,
	)
	httputil.WriteError(w, providers.ToDomain(err))
}

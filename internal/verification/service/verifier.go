package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"veridion/internal/evidence/providers"
	"veridion/internal/verification"
	"veridion/internal/verification/metrics"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/requestcontext"
)

const defaultExternalTimeout = 15 * time.Second

// ProviderLookup resolves social identity providers by id.
type ProviderLookup interface {
	Get(id string) (ports.IdentityProvider, error)
	IDs() []string
}

// authorizer is implemented by code-exchange providers that can build the
// consent screen URL.
type authorizer interface {
	AuthCodeURL(state string) string
}

// ActivityPreview is a read-only view of an account's on-chain activity.
type ActivityPreview struct {
	AccountID    string `json:"account_id"`
	Transactions int    `json:"transactions"`
	Points       int    `json:"points"`
	Tier         string `json:"tier"`
	Capped       bool   `json:"capped"`
}

// Verifier runs the external checks that produce verification signals and
// hands the results to the Coordinator.
type Verifier struct {
	coordinator *Coordinator
	accounts    ports.AccountQuery
	providers   ProviderLookup
	timeout     time.Duration
	maxCount    int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	group       singleflight.Group
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithExternalTimeout bounds each call to an external collaborator.
func WithExternalTimeout(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithTransactionCap tells previews where the collaborator stops counting.
func WithTransactionCap(n int) VerifierOption {
	return func(v *Verifier) { v.maxCount = n }
}

// WithVerifierLogger sets the logger.
func WithVerifierLogger(l *slog.Logger) VerifierOption {
	return func(v *Verifier) { v.logger = l }
}

// WithVerifierMetrics sets the metrics sink.
func WithVerifierMetrics(m *metrics.Metrics) VerifierOption {
	return func(v *Verifier) { v.metrics = m }
}

// NewVerifier creates a verifier.
func NewVerifier(coordinator *Coordinator, accounts ports.AccountQuery, lookup ProviderLookup, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		coordinator: coordinator,
		accounts:    accounts,
		providers:   lookup,
		timeout:     defaultExternalTimeout,
		logger:      slog.Default(),
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyStellar checks the account's on-chain activity and feeds the count
// to the blockchain signal. accountID defaults to the identity's wallet.
func (v *Verifier) VerifyStellar(ctx context.Context, identity domain.IdentityKey, accountID string) (*Outcome, error) {
	if accountID == "" {
		accountID = identity.String()
	}
	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	methodID := verification.MethodStellarTransactions

	return v.collapse(ctx, identity, methodID+"|"+accountID, func(ctx context.Context) (*Outcome, error) {
		ctx, span := v.tracer.Start(ctx, "Verifier.VerifyStellar", trace.WithAttributes(
			attribute.String("identity", identity.String()),
			attribute.String("account_id", accountID),
		))
		defer span.End()

		if done, outcome, err := v.alreadyCompleted(ctx, identity, methodID); err != nil || done {
			return outcome, err
		}

		count, err := v.countTransactions(ctx, accountID)
		if err != nil {
			v.logger.WarnContext(ctx, "stellar activity check failed",
				"request_id", requestcontext.RequestID(ctx),
				"identity", identity,
				"account_id", accountID,
				"error", err,
			)
			return nil, recordSpanError(span, err)
		}

		outcome, err := v.coordinator.HandleBlockchainSignal(ctx, identity, methodID, count)
		if err != nil {
			return nil, recordSpanError(span, err)
		}
		outcome.Transactions = &count
		return outcome, nil
	})
}

// VerifySocial runs the provider handshake and, when the provider accepts
// the proof, completes the social method named after it.
func (v *Verifier) VerifySocial(ctx context.Context, identity domain.IdentityKey, providerID string, proof ports.Proof) (*Outcome, error) {
	if _, err := verification.LookupMethodIn(providerID, verification.CategorySocial); err != nil {
		return nil, err
	}
	provider, err := v.lookupProvider(providerID)
	if err != nil {
		return nil, err
	}

	return v.collapse(ctx, identity, providerID, func(ctx context.Context) (*Outcome, error) {
		ctx, span := v.tracer.Start(ctx, "Verifier.VerifySocial", trace.WithAttributes(
			attribute.String("identity", identity.String()),
			attribute.String("provider", providerID),
		))
		defer span.End()

		if done, outcome, err := v.alreadyCompleted(ctx, identity, providerID); err != nil || done {
			return outcome, err
		}

		callCtx, cancel := context.WithTimeout(ctx, v.timeout)
		start := time.Now()
		account, err := provider.Authenticate(callCtx, proof)
		cancel()
		v.metrics.ObserveExternal(providerID, err, time.Since(start))
		if err != nil {
			v.logger.WarnContext(ctx, "social handshake failed",
				"request_id", requestcontext.RequestID(ctx),
				"identity", identity,
				"provider", providerID,
				"category", providers.GetCategory(err),
				"retryable", providers.IsRetryable(err),
				"error", err,
			)
			return nil, recordSpanError(span, providers.ToDomain(err))
		}

		outcome, err := v.coordinator.HandleSocialSignal(ctx, identity, providerID)
		if err != nil {
			return nil, recordSpanError(span, err)
		}
		outcome.Account = account
		return outcome, nil
	})
}

// VerifyPhysical completes a physical method with its catalog points.
func (v *Verifier) VerifyPhysical(ctx context.Context, identity domain.IdentityKey, methodID string) (*Outcome, error) {
	method, err := verification.LookupMethodIn(methodID, verification.CategoryPhysical)
	if err != nil {
		return nil, err
	}
	return v.coordinator.HandlePhysicalSignal(ctx, identity, method.ID, method.BasePoints)
}

// PreviewStellar reports an account's activity, points and tier without
// touching any ledger.
func (v *Verifier) PreviewStellar(ctx context.Context, accountID string) (*ActivityPreview, error) {
	if err := domain.ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	ctx, span := v.tracer.Start(ctx, "Verifier.PreviewStellar", trace.WithAttributes(
		attribute.String("account_id", accountID),
	))
	defer span.End()

	count, err := v.countTransactions(ctx, accountID)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	points, err := verification.PointsForTransactionCount(count)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	tier, err := verification.TierLabelForTransactionCount(count)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	return &ActivityPreview{
		AccountID:    accountID,
		Transactions: count,
		Points:       points,
		Tier:         tier,
		Capped:       v.maxCount > 0 && count >= v.maxCount,
	}, nil
}

// SocialAuthorizationURL builds the provider consent URL for state.
func (v *Verifier) SocialAuthorizationURL(providerID, state string) (string, error) {
	provider, err := v.lookupProvider(providerID)
	if err != nil {
		return "", err
	}
	a, ok := provider.(authorizer)
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "provider does not use an authorization code flow: "+providerID)
	}
	if state == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "state is required")
	}
	return a.AuthCodeURL(state), nil
}

func (v *Verifier) lookupProvider(id string) (ports.IdentityProvider, error) {
	provider, err := v.providers.Get(id)
	if errors.Is(err, providers.ErrProviderNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "provider is not configured: "+id)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "provider lookup failed")
	}
	return provider, nil
}

// Providers lists the configured social providers.
func (v *Verifier) Providers() []string {
	return v.providers.IDs()
}

// countTransactions checks the account exists and counts its transactions.
// A missing account is not found; every collaborator failure, timeouts
// included, is external_unavailable.
func (v *Verifier) countTransactions(ctx context.Context, accountID string) (int, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	exists, err := v.accounts.AccountExists(callCtx, accountID)
	v.metrics.ObserveExternal("horizon_account", err, time.Since(start))
	if err != nil {
		return 0, providers.ToDomain(err)
	}
	if !exists {
		return 0, dErrors.New(dErrors.CodeNotFound, "stellar account not found")
	}

	start = time.Now()
	count, err := v.accounts.TransactionCount(callCtx, accountID)
	v.metrics.ObserveExternal("horizon_transactions", err, time.Since(start))
	if err != nil {
		return 0, providers.ToDomain(err)
	}
	return count, nil
}

// alreadyCompleted short-circuits external calls for a method the ledger
// already holds; points are frozen at completion.
func (v *Verifier) alreadyCompleted(ctx context.Context, identity domain.IdentityKey, methodID string) (bool, *Outcome, error) {
	method, err := verification.LookupMethod(methodID)
	if err != nil {
		return false, nil, err
	}
	outcome, err := v.coordinator.inspect(ctx, identity, method)
	if err != nil {
		return false, nil, err
	}
	if !outcome.AlreadyCompleted {
		return false, nil, nil
	}
	v.metrics.IncrementOutcome(methodID, "already_completed")
	return true, outcome, nil
}

// collapse runs fn once per identity and key at a time. Callers share the
// result; each caller still honours its own context.
func (v *Verifier) collapse(ctx context.Context, identity domain.IdentityKey, key string, fn func(ctx context.Context) (*Outcome, error)) (*Outcome, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := v.group.DoChan(identity.String()+"|"+key, func() (any, error) {
		return fn(flightCtx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		outcome := *res.Val.(*Outcome)
		return &outcome, nil
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "verification abandoned: context cancelled")
	}
}

// Package service turns verification signals into ledger mutations and
// drives the external checks that produce those signals.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"veridion/internal/verification"
	"veridion/internal/verification/metrics"
	"veridion/internal/verification/ports"
	"veridion/pkg/domain"
	dErrors "veridion/pkg/domain-errors"
	"veridion/pkg/requestcontext"
)

// ReasonNoActivity explains a blockchain signal that could not complete.
const ReasonNoActivity = "no activity"

const tracerName = "veridion/verification"

// Outcome reports what a verification signal did to the ledger.
type Outcome struct {
	MethodID         string                 `json:"method_id"`
	Category         verification.Category  `json:"category"`
	Completed        bool                   `json:"completed"`
	AlreadyCompleted bool                   `json:"already_completed"`
	Points           int                    `json:"points"`
	Tier             string                 `json:"tier,omitempty"`
	Reason           string                 `json:"reason,omitempty"`
	Total            int                    `json:"total"`
	Persisted        bool                   `json:"persisted"`
	Record           *verification.Record   `json:"record,omitempty"`
	Account          *ports.ExternalAccount `json:"account,omitempty"`
	Transactions     *int                   `json:"transactions,omitempty"`
}

// ResetResult reports a reset.
type ResetResult struct {
	MethodID  string `json:"method_id,omitempty"`
	Removed   int    `json:"removed"`
	Total     int    `json:"total"`
	Persisted bool   `json:"persisted"`
}

// LedgerView is a read of one identity's ledger.
type LedgerView struct {
	Identity  domain.IdentityKey    `json:"identity"`
	Records   []verification.Record `json:"records"`
	Total     int                   `json:"total"`
	MaxScore  int                   `json:"max_score"`
	Version   int64                 `json:"version"`
	Persisted bool                  `json:"persisted"`
}

// MethodStatus is the state of one catalog method for an identity.
type MethodStatus struct {
	Method    verification.Method  `json:"method"`
	Completed bool                 `json:"completed"`
	Record    *verification.Record `json:"record,omitempty"`
}

// Coordinator applies verification signals to the identity's ledger and
// persists every effective mutation.
type Coordinator struct {
	sessions *Sessions
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewCoordinator creates a coordinator over sessions.
func NewCoordinator(sessions *Sessions, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sessions: sessions,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}
}

// HandleBlockchainSignal scores on-chain activity. One or more transactions
// complete the method; zero never does.
func (c *Coordinator) HandleBlockchainSignal(ctx context.Context, identity domain.IdentityKey, methodID string, txCount int) (*Outcome, error) {
	ctx, span := c.startSpan(ctx, "Coordinator.HandleBlockchainSignal", identity, methodID)
	defer span.End()
	span.SetAttributes(attribute.Int("transactions", txCount))

	method, err := verification.LookupMethodIn(methodID, verification.CategoryBlockchain)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	points, err := verification.PointsForTransactionCount(txCount)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	tier, err := verification.TierLabelForTransactionCount(txCount)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	if txCount == 0 {
		outcome, err := c.inspect(ctx, identity, method)
		if err != nil {
			return nil, recordSpanError(span, err)
		}
		outcome.Tier = tier
		if !outcome.AlreadyCompleted {
			outcome.Reason = ReasonNoActivity
			c.metrics.IncrementOutcome(method.ID, "not_completed")
			c.logger.InfoContext(ctx, "blockchain signal without activity",
				"request_id", requestcontext.RequestID(ctx),
				"identity", identity,
				"method_id", method.ID,
			)
		}
		return outcome, nil
	}

	outcome, err := c.complete(ctx, identity, method, points)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	outcome.Tier = tier
	return outcome, nil
}

// HandleSocialSignal completes a social method with its fixed points.
func (c *Coordinator) HandleSocialSignal(ctx context.Context, identity domain.IdentityKey, methodID string) (*Outcome, error) {
	ctx, span := c.startSpan(ctx, "Coordinator.HandleSocialSignal", identity, methodID)
	defer span.End()

	method, err := verification.LookupMethodIn(methodID, verification.CategorySocial)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	points, err := verification.FixedPointsForSocialMethod(method.ID)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	outcome, err := c.complete(ctx, identity, method, points)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	return outcome, nil
}

// HandlePhysicalSignal completes a physical method with externally supplied
// points.
func (c *Coordinator) HandlePhysicalSignal(ctx context.Context, identity domain.IdentityKey, methodID string, points int) (*Outcome, error) {
	ctx, span := c.startSpan(ctx, "Coordinator.HandlePhysicalSignal", identity, methodID)
	defer span.End()

	method, err := verification.LookupMethodIn(methodID, verification.CategoryPhysical)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if points < 0 {
		return nil, recordSpanError(span, dErrors.New(dErrors.CodeInvalidInput, "points must not be negative"))
	}
	outcome, err := c.complete(ctx, identity, method, points)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	return outcome, nil
}

// ResetMethod removes one completion and persists the ledger.
func (c *Coordinator) ResetMethod(ctx context.Context, identity domain.IdentityKey, methodID string) (*ResetResult, error) {
	ctx, span := c.startSpan(ctx, "Coordinator.ResetMethod", identity, methodID)
	defer span.End()

	if _, err := verification.LookupMethod(methodID); err != nil {
		return nil, recordSpanError(span, err)
	}

	result := &ResetResult{MethodID: methodID}
	err := c.sessions.with(ctx, identity, func(ctx context.Context, sess *session) error {
		if sess.ledger.Reset(methodID) {
			result.Removed = 1
			result.Persisted = c.sessions.persistLocked(ctx, sess)
		} else {
			result.Persisted = !sess.dirty.Load()
		}
		result.Total = sess.ledger.Total()
		return nil
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if result.Removed > 0 {
		c.logger.InfoContext(ctx, "verification method reset",
			"request_id", requestcontext.RequestID(ctx),
			"identity", identity,
			"method_id", methodID,
			"total", result.Total,
			"persisted", result.Persisted,
		)
	}
	return result, nil
}

// ResetAll clears the ledger and persists it.
func (c *Coordinator) ResetAll(ctx context.Context, identity domain.IdentityKey) (*ResetResult, error) {
	ctx, span := c.startSpan(ctx, "Coordinator.ResetAll", identity, "")
	defer span.End()

	result := &ResetResult{}
	err := c.sessions.with(ctx, identity, func(ctx context.Context, sess *session) error {
		result.Removed = sess.ledger.ResetAll()
		if result.Removed > 0 {
			result.Persisted = c.sessions.persistLocked(ctx, sess)
		} else {
			result.Persisted = !sess.dirty.Load()
		}
		result.Total = sess.ledger.Total()
		return nil
	})
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	c.logger.InfoContext(ctx, "verification ledger cleared",
		"request_id", requestcontext.RequestID(ctx),
		"identity", identity,
		"removed", result.Removed,
		"persisted", result.Persisted,
	)
	return result, nil
}

// Ledger returns the identity's records and total.
func (c *Coordinator) Ledger(ctx context.Context, identity domain.IdentityKey) (*LedgerView, error) {
	view := &LedgerView{Identity: identity, MaxScore: verification.MaxScore()}
	err := c.sessions.with(ctx, identity, func(_ context.Context, sess *session) error {
		snap := sess.ledger.Snapshot()
		view.Records = snap.Records
		view.Total = snap.Total
		view.Version = snap.Version
		view.Persisted = !sess.dirty.Load()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if view.Records == nil {
		view.Records = []verification.Record{}
	}
	return view, nil
}

// Status returns the state of one catalog method.
func (c *Coordinator) Status(ctx context.Context, identity domain.IdentityKey, methodID string) (*MethodStatus, error) {
	method, err := verification.LookupMethod(methodID)
	if err != nil {
		return nil, err
	}
	status := &MethodStatus{Method: method}
	err = c.sessions.with(ctx, identity, func(_ context.Context, sess *session) error {
		if rec, ok := sess.ledger.StatusOf(methodID); ok {
			status.Completed = true
			status.Record = &rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// IsCompleted reports whether methodID is already completed for identity.
func (c *Coordinator) IsCompleted(ctx context.Context, identity domain.IdentityKey, methodID string) (bool, error) {
	var completed bool
	err := c.sessions.with(ctx, identity, func(_ context.Context, sess *session) error {
		completed = sess.ledger.IsCompleted(methodID)
		return nil
	})
	return completed, err
}

// complete inserts the record and persists the ledger when it changed.
func (c *Coordinator) complete(ctx context.Context, identity domain.IdentityKey, method verification.Method, points int) (*Outcome, error) {
	outcome := &Outcome{MethodID: method.ID, Category: method.Category}
	err := c.sessions.with(ctx, identity, func(ctx context.Context, sess *session) error {
		rec, inserted, err := sess.ledger.CompleteAt(method.ID, method.Category, points, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		outcome.Completed = true
		outcome.AlreadyCompleted = !inserted
		outcome.Points = rec.Points
		outcome.Record = &rec
		if inserted {
			outcome.Persisted = c.sessions.persistLocked(ctx, sess)
		} else {
			outcome.Persisted = !sess.dirty.Load()
		}
		outcome.Total = sess.ledger.Total()
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := "completed"
	if outcome.AlreadyCompleted {
		result = "already_completed"
	}
	c.metrics.IncrementOutcome(method.ID, result)
	c.logger.InfoContext(ctx, "verification signal applied",
		"request_id", requestcontext.RequestID(ctx),
		"identity", identity,
		"method_id", method.ID,
		"category", method.Category,
		"points", outcome.Points,
		"already_completed", outcome.AlreadyCompleted,
		"total", outcome.Total,
		"persisted", outcome.Persisted,
	)
	return outcome, nil
}

// inspect reports the current state of a method without mutating the ledger.
func (c *Coordinator) inspect(ctx context.Context, identity domain.IdentityKey, method verification.Method) (*Outcome, error) {
	outcome := &Outcome{MethodID: method.ID, Category: method.Category}
	err := c.sessions.with(ctx, identity, func(_ context.Context, sess *session) error {
		if rec, ok := sess.ledger.StatusOf(method.ID); ok {
			outcome.Completed = true
			outcome.AlreadyCompleted = true
			outcome.Points = rec.Points
			outcome.Record = &rec
		}
		outcome.Total = sess.ledger.Total()
		outcome.Persisted = !sess.dirty.Load()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (c *Coordinator) startSpan(ctx context.Context, name string, identity domain.IdentityKey, methodID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("identity", identity.String())}
	if methodID != "" {
		attrs = append(attrs, attribute.String("method_id", methodID))
	}
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
}

// Package events publishes verification ledger changes to downstream sinks.
package events

import (
	"time"

	"github.com/google/uuid"

	"veridion/internal/verification"
	"veridion/pkg/domain"
)

// Type names the ledger change an event reports.
type Type string

const (
	TypeMethodCompleted Type = "verification.method_completed"
	TypeMethodReset     Type = "verification.method_reset"
	TypeLedgerCleared   Type = "verification.ledger_cleared"
)

// Event is the wire shape of a ledger change.
type Event struct {
	ID         uuid.UUID             `json:"id"`
	Type       Type                  `json:"type"`
	Identity   domain.IdentityKey    `json:"identity"`
	MethodID   string                `json:"method_id,omitempty"`
	Category   verification.Category `json:"category,omitempty"`
	Points     int                   `json:"points"`
	Total      int                   `json:"total"`
	Version    int64                 `json:"version"`
	RequestID  string                `json:"request_id,omitempty"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// FromChange converts a ledger change into an event.
func FromChange(c verification.Change) Event {
	var t Type
	switch c.Kind {
	case verification.ChangeCompleted:
		t = TypeMethodCompleted
	case verification.ChangeReset:
		t = TypeMethodReset
	case verification.ChangeResetAll:
		t = TypeLedgerCleared
	}
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Identity:   c.Identity,
		MethodID:   c.MethodID,
		Category:   c.Category,
		Points:     c.Points,
		Total:      c.Total,
		Version:    c.Version,
		OccurredAt: c.OccurredAt,
	}
}

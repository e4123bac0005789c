// Package verification holds the per-identity verification ledger, the
// method catalog and the scoring policy. It has no I/O.
package verification

import (
	"time"

	"veridion/pkg/domain"
)

// Category groups verification methods by how they are proven.
type Category string

const (
	CategorySocial     Category = "social"
	CategoryPhysical   Category = "physical"
	CategoryBlockchain Category = "blockchain"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategorySocial, CategoryPhysical, CategoryBlockchain:
		return true
	}
	return false
}

// Method is a catalog entry. BasePoints is ignored for blockchain methods,
// whose points are computed from on-chain activity.
type Method struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	BasePoints  int      `json:"base_points"`
	MaxPoints   int      `json:"max_points"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

// Record is a completed verification. Points are frozen at completion.
type Record struct {
	MethodID    string    `json:"method_id"`
	Category    Category  `json:"category"`
	Completed   bool      `json:"completed"`
	CompletedAt time.Time `json:"completed_at"`
	Points      int       `json:"points"`
}

// Snapshot is the serialisable state of one identity's ledger.
// Records are sorted by method id. Version increases on every mutation.
type Snapshot struct {
	Identity  domain.IdentityKey `json:"identity"`
	Records   []Record           `json:"records"`
	Total     int                `json:"total"`
	Version   int64              `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ChangeKind names the mutation a Change describes.
type ChangeKind string

const (
	ChangeCompleted ChangeKind = "completed"
	ChangeReset     ChangeKind = "reset"
	ChangeResetAll  ChangeKind = "reset_all"
)

// Change is delivered to ledger subscribers after each effective mutation.
// Points is the delta magnitude: awarded for completed, removed for reset
// and reset_all.
type Change struct {
	Identity   domain.IdentityKey
	Kind       ChangeKind
	MethodID   string
	Category   Category
	Points     int
	Total      int
	Version    int64
	OccurredAt time.Time
}

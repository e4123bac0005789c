package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: a concurrent writer won, or the entity already exists
//   - ErrStale: a write was based on a version other than the stored one
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrStale       = errors.New("stale version")
	ErrUnavailable = errors.New("unavailable")
)

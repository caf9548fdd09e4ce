// Package shared holds cross-cutting domain types used by every vertical.
package shared

import "errors"

// Error taxonomy surfaced by the engine. Services wrap these with
// human-readable context; the HTTP layer maps them to statuses.
var (
	// ErrNotFound indicates a reference that normalized but matched no record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRef indicates a reference that failed normalization.
	ErrInvalidRef = errors.New("invalid reference")
	// ErrConflict indicates an identity conflict (e.g. phone already used by
	// a differently-named record).
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates a malformed or out-of-range request payload.
	ErrValidation = errors.New("validation failed")
)

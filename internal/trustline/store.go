package trustline

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no trustline record exists for the lookup.
var ErrNotFound = errors.New("trustline record not found")

// Store is the persistence contract for trustline records. Upsert
// semantics on the natural key guarantee at most one row per
// (employee, asset code, asset issuer).
type Store interface {
	// Upsert inserts rec, or — when a record with the same natural key
	// exists — overwrites its wallet_address, status, and last_checked_at.
	// The returned record reflects what is now stored.
	Upsert(ctx context.Context, rec *Record) (*Record, error)

	// GetByEmployee returns the employee's most recently checked record,
	// or ErrNotFound.
	GetByEmployee(ctx context.Context, employeeID uuid.UUID) (*Record, error)
}

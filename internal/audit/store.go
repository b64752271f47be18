package audit

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record exists for the requested hash.
var ErrNotFound = errors.New("audit record not found")

// ErrDuplicate is returned by Insert when a record for the same hash
// already exists. The service resolves it by returning the existing
// record; it is never surfaced to callers as an error.
var ErrDuplicate = errors.New("audit record already exists")

// MaxPageLimit caps the page size accepted by List.
const MaxPageLimit = 100

// DefaultPageLimit is applied when the caller does not specify a limit.
const DefaultPageLimit = 20

// ListFilter selects and pages audit records. Page is 1-indexed.
type ListFilter struct {
	Page          int
	Limit         int
	SourceAccount string
}

// normalize clamps the filter into valid bounds.
func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
}

// Store is the persistence contract for audit records. Hash uniqueness is
// the store's responsibility; both implementations enforce it so two
// concurrent inserts of the same hash cannot both succeed.
type Store interface {
	// Insert stores a new record. Returns ErrDuplicate if a record with
	// the same tx_hash already exists.
	Insert(ctx context.Context, rec *Record) error

	// GetByHash returns the record for hash, or ErrNotFound.
	GetByHash(ctx context.Context, hash string) (*Record, error)

	// List returns one page of records ordered by fetched_at descending,
	// newest first, plus the total count matching the filter (ignoring
	// pagination).
	List(ctx context.Context, filter ListFilter) ([]*Record, int, error)
}

package trustline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists trustline records to PostgreSQL. The
// employee_trustlines table carries a unique constraint on the natural
// key (employee_id, asset_code, asset_issuer).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert implements Store. Insert; on natural-key conflict, overwrite the
// mutable fields. Single-row atomicity is all this table needs.
func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) (*Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	q := `
		INSERT INTO employee_trustlines
			(id, employee_id, asset_code, asset_issuer, wallet_address, status, last_checked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, asset_code, asset_issuer) DO UPDATE SET
			wallet_address  = EXCLUDED.wallet_address,
			status          = EXCLUDED.status,
			last_checked_at = EXCLUDED.last_checked_at
		RETURNING id, employee_id, asset_code, asset_issuer, wallet_address, status, last_checked_at, created_at`

	stored := &Record{}
	err := s.db.QueryRow(ctx, q,
		rec.ID, rec.EmployeeID, rec.AssetCode, rec.AssetIssuer,
		rec.WalletAddress, rec.Status, rec.LastCheckedAt, rec.CreatedAt,
	).Scan(
		&stored.ID, &stored.EmployeeID, &stored.AssetCode, &stored.AssetIssuer,
		&stored.WalletAddress, &stored.Status, &stored.LastCheckedAt, &stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert trustline: %w", err)
	}
	return stored, nil
}

// GetByEmployee implements Store.
func (s *PostgresStore) GetByEmployee(ctx context.Context, employeeID uuid.UUID) (*Record, error) {
	q := `
		SELECT id, employee_id, asset_code, asset_issuer, wallet_address, status, last_checked_at, created_at
		FROM employee_trustlines
		WHERE employee_id = $1
		ORDER BY last_checked_at DESC
		LIMIT 1`

	rec := &Record{}
	err := s.db.QueryRow(ctx, q, employeeID).Scan(
		&rec.ID, &rec.EmployeeID, &rec.AssetCode, &rec.AssetIssuer,
		&rec.WalletAddress, &rec.Status, &rec.LastCheckedAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get trustline: %w", err)
	}
	return rec, nil
}

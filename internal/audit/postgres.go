package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit records to PostgreSQL. The audit_records
// table carries a unique constraint on tx_hash, which is what makes
// concurrent inserts of the same hash safe.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert implements Store. A 23505 unique violation maps to ErrDuplicate.
func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	q := `
		INSERT INTO audit_records (id, tx_hash, source_account, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = s.db.Exec(ctx, q, rec.ID, rec.TxHash, rec.SourceAccount, payload, rec.FetchedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// GetByHash implements Store.
func (s *PostgresStore) GetByHash(ctx context.Context, hash string) (*Record, error) {
	q := `
		SELECT id, tx_hash, source_account, payload, fetched_at
		FROM audit_records WHERE tx_hash = $1`
	rec, err := scanRecord(s.db.QueryRow(ctx, q, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get audit record: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Record, int, error) {
	filter.normalize()
	offset := (filter.Page - 1) * filter.Limit

	var total int
	var rows pgx.Rows
	var err error

	if filter.SourceAccount != "" {
		if err = s.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM audit_records WHERE source_account = $1`,
			filter.SourceAccount,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count audit records: %w", err)
		}
		rows, err = s.db.Query(ctx, `
			SELECT id, tx_hash, source_account, payload, fetched_at
			FROM audit_records WHERE source_account = $1
			ORDER BY fetched_at DESC, tx_hash
			LIMIT $2 OFFSET $3`,
			filter.SourceAccount, filter.Limit, offset)
	} else {
		if err = s.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM audit_records`,
		).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count audit records: %w", err)
		}
		rows, err = s.db.Query(ctx, `
			SELECT id, tx_hash, source_account, payload, fetched_at
			FROM audit_records
			ORDER BY fetched_at DESC, tx_hash
			LIMIT $1 OFFSET $2`,
			filter.Limit, offset)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// scanRecord scans one row in column order
// (id, tx_hash, source_account, payload, fetched_at).
func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	var payload []byte
	if err := row.Scan(&rec.ID, &rec.TxHash, &rec.SourceAccount, &payload, &rec.FetchedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return rec, nil
}

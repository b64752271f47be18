package employees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory reads employees from the shared payroll database.
type PostgresDirectory struct {
	db *pgxpool.Pool
}

// NewPostgresDirectory creates a PostgresDirectory backed by the given pool.
func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// GetByID implements Directory.
func (d *PostgresDirectory) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	e := &Employee{}
	err := d.db.QueryRow(ctx,
		`SELECT id, full_name, wallet_address, created_at FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.FullName, &e.WalletAddress, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return e, nil
}

// Create inserts an employee row. Used by seeding and tests; production
// rows are written by the payroll system.
func (d *PostgresDirectory) Create(ctx context.Context, e *Employee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(ctx,
		`INSERT INTO employees (id, full_name, wallet_address, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.FullName, e.WalletAddress, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

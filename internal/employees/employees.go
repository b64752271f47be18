// Package employees is the directory of internal payroll entities. The
// trustline subsystem only needs to map an employee ID to a wallet
// address; everything else about employees lives in the main payroll
// system, which owns this table.
package employees

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no employee exists for the requested ID.
var ErrNotFound = errors.New("employee not found")

// Employee is the minimal view of an employee this service consumes.
// WalletAddress is nil until the employee binds a Stellar wallet.
type Employee struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	WalletAddress *string   `json:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Directory looks up employees by ID.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
}

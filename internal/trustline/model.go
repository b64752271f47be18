// Package trustline tracks whether employee wallets accept the
// organization's Stellar asset.
//
// Each (employee, asset) pair has exactly one record whose status mirrors
// the last-observed network truth. The status is not monotonic: a wallet
// can drop a trustline, moving an established record back to none on the
// next refresh. The pending state is purely local — "a sign prompt was
// issued" — and only a refresh can clear it, by overwriting it with
// whatever the network reports.
package trustline

import (
	"time"

	"github.com/google/uuid"
)

// Status is the trustline reconciliation state for one (employee, asset)
// pair.
type Status string

const (
	// StatusNone means the wallet does not currently trust the asset.
	StatusNone Status = "none"
	// StatusPending means a sign prompt was issued but not yet confirmed
	// on the network. Transient; overwritten by the next refresh.
	StatusPending Status = "pending"
	// StatusEstablished means the wallet trusted the asset at last check.
	StatusEstablished Status = "established"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusPending, StatusEstablished:
		return true
	}
	return false
}

// Record is the trustline status for one (employee, asset) pair.
// Natural key: (EmployeeID, AssetCode, AssetIssuer).
type Record struct {
	ID            uuid.UUID `json:"id"`
	EmployeeID    uuid.UUID `json:"employee_id"`
	AssetCode     string    `json:"asset_code"`
	AssetIssuer   string    `json:"asset_issuer"`
	WalletAddress string    `json:"wallet_address"`
	Status        Status    `json:"status"`
	LastCheckedAt time.Time `json:"last_checked_at"`
	CreatedAt     time.Time `json:"created_at"`
}

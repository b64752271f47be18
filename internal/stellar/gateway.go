// Package stellar talks to the Stellar network through a Horizon server.
//
// The network is the source of truth for accounts, balances, and finalized
// transactions; everything this service stores locally is a cache of what
// Horizon reports. The Gateway interface is the only way the rest of the
// codebase reaches the network, so tests substitute a stub.
package stellar

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/stellar/go/strkey"
)

// ErrNotFound is returned when Horizon has no record of the requested
// account or transaction. An unfunded account and an unknown transaction
// hash are expected outcomes, not failures.
var ErrNotFound = errors.New("not found on ledger")

// ErrUnavailable is returned when the network query failed for a reason
// other than not-found: timeout, non-2xx status, or a malformed response.
// Callers may retry; no judgment about the data was made.
var ErrUnavailable = errors.New("ledger unavailable")

// Gateway queries the Stellar network for current account state and
// finalized transactions. Every call is a blocking round trip bounded by
// the client timeout.
type Gateway interface {
	// LoadAccount returns the current sequence number and balances for a
	// ledger address, or ErrNotFound if the address was never funded.
	LoadAccount(ctx context.Context, address string) (*AccountSnapshot, error)

	// FetchTransaction returns the finalized facts for a transaction hash,
	// or ErrNotFound if no such transaction has been included in a ledger.
	FetchTransaction(ctx context.Context, hash string) (*Transaction, error)
}

// Balance is one entry in an account's balance list. Amount is the
// Horizon-reported decimal string, passed through verbatim — parsing it
// into a float would lose precision.
type Balance struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
	Amount      string `json:"amount"`
}

// AccountSnapshot is the point-in-time view of an account as reported by
// the network.
type AccountSnapshot struct {
	Address  string    `json:"address"`
	Sequence int64     `json:"sequence"`
	Balances []Balance `json:"balances"`
}

// FindTrustline returns the balance entry whose asset code and issuer both
// match exactly. Native XLM balances carry no code/issuer and never match.
func (a *AccountSnapshot) FindTrustline(assetCode, assetIssuer string) (Balance, bool) {
	for _, b := range a.Balances {
		if b.AssetType == "native" {
			continue
		}
		if b.AssetCode == assetCode && b.AssetIssuer == assetIssuer {
			return b, true
		}
	}
	return Balance{}, false
}

// Transaction is the canonical set of facts Horizon reports about a
// finalized transaction. Stored verbatim as an audit payload.
type Transaction struct {
	Hash           string `json:"hash"`
	SourceAccount  string `json:"source_account"`
	Ledger         int32  `json:"ledger"`
	CloseTime      string `json:"close_time"`
	Memo           string `json:"memo"`
	MemoType       string `json:"memo_type"`
	Successful     bool   `json:"successful"`
	OperationCount int32  `json:"operation_count"`
	FeeCharged     int64  `json:"fee_charged"`
	EnvelopeXDR    string `json:"envelope_xdr"`
	ResultXDR      string `json:"result_xdr"`
}

// IsTxHash reports whether s is a syntactically valid transaction hash:
// exactly 64 hex characters.
func IsTxHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(strings.ToLower(s))
	return err == nil
}

// IsAccountID reports whether s is a valid Stellar public account address
// (56-character strkey, "G..." prefix).
func IsAccountID(s string) bool {
	return strkey.IsValidEd25519PublicKey(s)
}

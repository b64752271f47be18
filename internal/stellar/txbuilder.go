package stellar

import (
	"fmt"
	"time"

	"github.com/stellar/go/txnbuild"
)

// DefaultTrustTTL is the validity window applied to built transactions
// when the caller does not configure one. After the window passes the
// network rejects the envelope, so a lost sign prompt cannot be replayed
// much later.
const DefaultTrustTTL = 300 * time.Second

// BuildChangeTrust constructs an unsigned change-trust transaction
// envelope establishing a trustline from address to assetCode/assetIssuer.
//
// The operation is sourced from the account's own address, bids the
// network minimum base fee, increments the supplied sequence number, and
// expires ttl from now. The returned string is the base64 transaction
// envelope XDR ready for any standard Stellar signer; no signature is
// applied here — key custody stays with the client.
func BuildChangeTrust(address string, sequence int64, assetCode, assetIssuer string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTrustTTL
	}

	source := txnbuild.SimpleAccount{AccountID: address, Sequence: sequence}
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(ttl.Seconds())),
		},
		Operations: []txnbuild.Operation{
			&txnbuild.ChangeTrust{
				Line: txnbuild.ChangeTrustAssetWrapper{
					Asset: txnbuild.CreditAsset{Code: assetCode, Issuer: assetIssuer},
				},
				Limit: txnbuild.MaxTrustlineLimit,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("build change-trust transaction: %w", err)
	}

	blob, err := tx.Base64()
	if err != nil {
		return "", fmt.Errorf("encode transaction envelope: %w", err)
	}
	return blob, nil
}

package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/orbitpay/ledgerlink/internal/stellar"
)

// Payload is the canonical set of network-reported facts about a
// transaction, stored verbatim as fetched.
type Payload struct {
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

// PayloadFromTransaction maps a fetched transaction into the stored
// payload shape.
func PayloadFromTransaction(tx *stellar.Transaction) Payload {
	return Payload{
		Ledger:         tx.Ledger,
		CloseTime:      tx.CloseTime,
		Memo:           tx.Memo,
		MemoType:       tx.MemoType,
		Successful:     tx.Successful,
		OperationCount: tx.OperationCount,
		FeeCharged:     tx.FeeCharged,
		EnvelopeXDR:    tx.EnvelopeXDR,
		ResultXDR:      tx.ResultXDR,
	}
}

// Diff compares every payload field against other and returns the names
// of the fields that differ. An empty result means the payloads match
// exactly.
func (p Payload) Diff(other Payload) []string {
	var fields []string
	if p.Ledger != other.Ledger {
		fields = append(fields, "ledger")
	}
	if p.CloseTime != other.CloseTime {
		fields = append(fields, "close_time")
	}
	if p.Memo != other.Memo {
		fields = append(fields, "memo")
	}
	if p.MemoType != other.MemoType {
		fields = append(fields, "memo_type")
	}
	if p.Successful != other.Successful {
		fields = append(fields, "successful")
	}
	if p.OperationCount != other.OperationCount {
		fields = append(fields, "operation_count")
	}
	if p.FeeCharged != other.FeeCharged {
		fields = append(fields, "fee_charged")
	}
	if p.EnvelopeXDR != other.EnvelopeXDR {
		fields = append(fields, "envelope_xdr")
	}
	if p.ResultXDR != other.ResultXDR {
		fields = append(fields, "result_xdr")
	}
	return fields
}

// Record is one immutable audit entry. TxHash is the natural identity;
// the payload is never rewritten after insert.
type Record struct {
	ID            uuid.UUID `json:"id"`
	TxHash        string    `json:"tx_hash"`
	SourceAccount string    `json:"source_account"`
	Payload       Payload   `json:"payload"`
	FetchedAt     time.Time `json:"fetched_at"`
}

package stellar_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/orbitpay/ledgerlink/internal/stellar"
	"go.uber.org/zap"
)

var ctx = context.Background()

const accountJSON = `{
	"account_id": "%s",
	"sequence": "103420918407103888",
	"balances": [
		{"balance": "100.0000000", "asset_type": "native"},
		{"balance": "25.5000000", "asset_type": "credit_alphanum12", "asset_code": "ORGUSD", "asset_issuer": "%s"}
	]
}`

const transactionJSON = `{
	"hash": "%s",
	"source_account": "%s",
	"ledger": 915744,
	"created_at": "2026-08-01T12:30:45Z",
	"memo_type": "text",
	"memo": "payroll-2026-07",
	"successful": true,
	"operation_count": 1,
	"fee_charged": "100",
	"envelope_xdr": "AAAAAgAAAAB=",
	"result_xdr": "AAAAAAAAAGQ="
}`

func TestHorizonGateway_LoadAccount(t *testing.T) {
	wallet := testAddress(t, 0x21)
	issuer := testAddress(t, 0x22)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/"+wallet {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(formatJSON(accountJSON, wallet, issuer))) //nolint:errcheck
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	snapshot, err := g.LoadAccount(ctx, wallet)
	if err != nil {
		t.Fatalf("LoadAccount: %v", err)
	}
	if snapshot.Address != wallet {
		t.Errorf("address: got %q, want %q", snapshot.Address, wallet)
	}
	if snapshot.Sequence != 103420918407103888 {
		t.Errorf("sequence: got %d, want 103420918407103888", snapshot.Sequence)
	}
	if len(snapshot.Balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(snapshot.Balances))
	}

	b, ok := snapshot.FindTrustline("ORGUSD", issuer)
	if !ok {
		t.Fatal("expected ORGUSD trustline")
	}
	if b.Amount != "25.5000000" {
		t.Errorf("balance: got %q, want %q", b.Amount, "25.5000000")
	}
}

func TestHorizonGateway_LoadAccount_notFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	_, err := g.LoadAccount(ctx, testAddress(t, 0x21))
	if !errors.Is(err, stellar.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHorizonGateway_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	_, err := g.LoadAccount(ctx, testAddress(t, 0x21))
	if !errors.Is(err, stellar.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for 500, got %v", err)
	}
	if errors.Is(err, stellar.ErrNotFound) {
		t.Error("server error must never look like not-found")
	}
}

func TestHorizonGateway_malformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json{")) //nolint:errcheck
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	_, err := g.LoadAccount(ctx, testAddress(t, 0x21))
	if !errors.Is(err, stellar.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for malformed body, got %v", err)
	}
}

func TestHorizonGateway_FetchTransaction(t *testing.T) {
	source := testAddress(t, 0x23)
	hash := "17a670bc2d5647eeaba7e944b2e7a8eac510a1731c2bf1a14bda219582a85e29"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions/"+hash {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(formatJSON(transactionJSON, hash, source))) //nolint:errcheck
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	tx, err := g.FetchTransaction(ctx, hash)
	if err != nil {
		t.Fatalf("FetchTransaction: %v", err)
	}
	if tx.Hash != hash {
		t.Errorf("hash: got %q, want %q", tx.Hash, hash)
	}
	if tx.SourceAccount != source {
		t.Errorf("source: got %q, want %q", tx.SourceAccount, source)
	}
	if tx.Ledger != 915744 {
		t.Errorf("ledger: got %d, want 915744", tx.Ledger)
	}
	if tx.FeeCharged != 100 {
		t.Errorf("fee: got %d, want 100", tx.FeeCharged)
	}
	if tx.CloseTime != "2026-08-01T12:30:45Z" {
		t.Errorf("close time: got %q", tx.CloseTime)
	}
	if !tx.Successful {
		t.Error("expected successful=true")
	}
}

func TestHorizonGateway_observerSeesCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	g := stellar.NewHorizonGateway(srv.URL, 5*time.Second, zap.NewNop())

	var gotOp string
	var gotErr error
	g.SetObserver(func(op string, _ time.Duration, err error) {
		gotOp = op
		gotErr = err
	})

	g.LoadAccount(ctx, testAddress(t, 0x21)) //nolint:errcheck
	if gotOp != "load_account" {
		t.Errorf("observer op: got %q, want %q", gotOp, "load_account")
	}
	if !errors.Is(gotErr, stellar.ErrNotFound) {
		t.Errorf("observer err: got %v", gotErr)
	}
}

// formatJSON fills %s placeholders in order.
func formatJSON(tpl string, args ...any) string {
	return fmt.Sprintf(tpl, args...)
}

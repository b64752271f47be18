package stellar_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/orbitpay/ledgerlink/internal/stellar"
	"github.com/stellar/go/strkey"
)

// testAddress returns a structurally valid ledger address derived from a
// repeated seed byte, so tests never depend on real accounts.
func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	addr, err := strkey.Encode(strkey.VersionByteAccountID, bytes.Repeat([]byte{seed}, 32))
	if err != nil {
		t.Fatalf("encode test address: %v", err)
	}
	return addr
}

func TestFindTrustline_exactMatch(t *testing.T) {
	issuer := testAddress(t, 0x01)
	other := testAddress(t, 0x02)

	snapshot := &stellar.AccountSnapshot{
		Address:  testAddress(t, 0x03),
		Sequence: 42,
		Balances: []stellar.Balance{
			{AssetType: "native", Amount: "100.0000000"},
			{AssetType: "credit_alphanum4", AssetCode: "USDC", AssetIssuer: other, Amount: "5.0000000"},
			{AssetType: "credit_alphanum12", AssetCode: "ORGUSD", AssetIssuer: issuer, Amount: "250.1234567"},
		},
	}

	b, ok := snapshot.FindTrustline("ORGUSD", issuer)
	if !ok {
		t.Fatal("expected trustline to be found")
	}
	if b.Amount != "250.1234567" {
		t.Errorf("balance: got %q, want %q", b.Amount, "250.1234567")
	}
}

func TestFindTrustline_issuerMustMatch(t *testing.T) {
	issuer := testAddress(t, 0x01)
	other := testAddress(t, 0x02)

	snapshot := &stellar.AccountSnapshot{
		Balances: []stellar.Balance{
			{AssetType: "credit_alphanum12", AssetCode: "ORGUSD", AssetIssuer: other, Amount: "1.0"},
		},
	}

	if _, ok := snapshot.FindTrustline("ORGUSD", issuer); ok {
		t.Error("trustline matched despite wrong issuer")
	}
}

func TestFindTrustline_nativeNeverMatches(t *testing.T) {
	snapshot := &stellar.AccountSnapshot{
		Balances: []stellar.Balance{
			{AssetType: "native", Amount: "10.0"},
		},
	}
	if _, ok := snapshot.FindTrustline("", ""); ok {
		t.Error("native balance matched an empty asset lookup")
	}
}

func TestIsTxHash(t *testing.T) {
	valid := strings.Repeat("ab", 32)
	if !stellar.IsTxHash(valid) {
		t.Errorf("IsTxHash(%q) = false, want true", valid)
	}

	for _, bad := range []string{
		"",
		"abc",
		strings.Repeat("ab", 31),
		strings.Repeat("ab", 33),
		strings.Repeat("zz", 32), // not hex
	} {
		if stellar.IsTxHash(bad) {
			t.Errorf("IsTxHash(%q) = true, want false", bad)
		}
	}
}

func TestIsAccountID(t *testing.T) {
	if !stellar.IsAccountID(testAddress(t, 0x07)) {
		t.Error("valid strkey address rejected")
	}
	for _, bad := range []string{"", "not-an-address", strings.Repeat("G", 56)} {
		if stellar.IsAccountID(bad) {
			t.Errorf("IsAccountID(%q) = true, want false", bad)
		}
	}
}

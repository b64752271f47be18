package audit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orbitpay/ledgerlink/internal/audit"
)

func memoryRecord(hash, source string, fetchedAt time.Time) *audit.Record {
	return &audit.Record{
		ID:            uuid.New(),
		TxHash:        hash,
		SourceAccount: source,
		Payload:       audit.Payload{Ledger: 1, CloseTime: "2026-08-01T00:00:00Z"},
		FetchedAt:     fetchedAt,
	}
}

func TestMemoryStore_insertAndGet(t *testing.T) {
	store := audit.NewMemoryStore()
	hash := testHash("aa")

	rec := memoryRecord(hash, "SOURCE", time.Now().UTC())
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := store.GetByHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if got.ID != rec.ID {
		t.Error("returned a different record")
	}
}

func TestMemoryStore_duplicateHash(t *testing.T) {
	store := audit.NewMemoryStore()
	hash := testHash("bb")
	now := time.Now().UTC()

	if err := store.Insert(ctx, memoryRecord(hash, "SOURCE", now)); err != nil {
		t.Fatal(err)
	}
	err := store.Insert(ctx, memoryRecord(hash, "OTHER", now))
	if !errors.Is(err, audit.ErrDuplicate) {
		t.Errorf("expected audit.ErrDuplicate, got %v", err)
	}
}

func TestMemoryStore_getMissing(t *testing.T) {
	store := audit.NewMemoryStore()

	_, err := store.GetByHash(ctx, testHash("cc"))
	if !errors.Is(err, audit.ErrNotFound) {
		t.Errorf("expected audit.ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_listNewestFirst(t *testing.T) {
	store := audit.NewMemoryStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	oldest := memoryRecord(testHash("d1"), "SOURCE", base)
	middle := memoryRecord(testHash("e2"), "SOURCE", base.Add(time.Minute))
	newest := memoryRecord(testHash("f3"), "SOURCE", base.Add(2*time.Minute))
	for _, rec := range []*audit.Record{middle, oldest, newest} {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, total, err := store.List(ctx, audit.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Fatalf("total: got %d, want 3", total)
	}
	want := []string{newest.TxHash, middle.TxHash, oldest.TxHash}
	for i, rec := range records {
		if rec.TxHash != want[i] {
			t.Errorf("position %d: got %q, want %q", i, rec.TxHash, want[i])
		}
	}
}

func TestMemoryStore_listFiltersBySource(t *testing.T) {
	store := audit.NewMemoryStore()
	now := time.Now().UTC()

	if err := store.Insert(ctx, memoryRecord(testHash("17"), "ALPHA", now)); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, memoryRecord(testHash("28"), "BETA", now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}

	records, total, err := store.List(ctx, audit.ListFilter{SourceAccount: "ALPHA"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected one match, got total=%d len=%d", total, len(records))
	}
	if records[0].SourceAccount != "ALPHA" {
		t.Errorf("wrong record: %q", records[0].SourceAccount)
	}
}

func TestMemoryStore_listPageBeyondEnd(t *testing.T) {
	store := audit.NewMemoryStore()
	if err := store.Insert(ctx, memoryRecord(testHash("39"), "SOURCE", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}

	records, total, err := store.List(ctx, audit.ListFilter{Page: 5, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("total: got %d, want 1", total)
	}
	if len(records) != 0 {
		t.Errorf("expected empty page, got %d records", len(records))
	}
}

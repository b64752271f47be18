package trustline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type naturalKey struct {
	employeeID uuid.UUID
	code       string
	issuer     string
}

// MemoryStore is an in-memory, thread-safe Store implementation for
// tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[naturalKey]*Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[naturalKey]*Record)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(_ context.Context, rec *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey{rec.EmployeeID, rec.AssetCode, rec.AssetIssuer}
	if existing, ok := s.records[key]; ok {
		existing.WalletAddress = rec.WalletAddress
		existing.Status = rec.Status
		existing.LastCheckedAt = rec.LastCheckedAt
		cp := *existing
		return &cp, nil
	}

	cp := *rec
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.records[key] = &cp
	out := cp
	return &out, nil
}

// GetByEmployee implements Store.
func (s *MemoryStore) GetByEmployee(_ context.Context, employeeID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Record
	for _, rec := range s.records {
		if rec.EmployeeID != employeeID {
			continue
		}
		if latest == nil || rec.LastCheckedAt.After(latest.LastCheckedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

package audit

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store implementation. It is
// primarily useful for testing and for single-process deployments that do
// not require durable persistence across restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	byHash  map[string]*Record
	ordered []*Record // insertion order; sorted on read
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]*Record)}
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[rec.TxHash]; ok {
		return ErrDuplicate
	}
	cp := *rec
	s.byHash[rec.TxHash] = &cp
	s.ordered = append(s.ordered, &cp)
	return nil
}

// GetByHash implements Store.
func (s *MemoryStore) GetByHash(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Record, int, error) {
	filter.normalize()

	s.mu.RLock()
	matched := make([]*Record, 0, len(s.ordered))
	for _, rec := range s.ordered {
		if filter.SourceAccount != "" && rec.SourceAccount != filter.SourceAccount {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	// Same ordering as the SQL store: fetched_at descending, hash as a
	// tie-breaker so pagination is stable.
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].FetchedAt.Equal(matched[j].FetchedAt) {
			return matched[i].TxHash < matched[j].TxHash
		}
		return matched[i].FetchedAt.After(matched[j].FetchedAt)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []*Record{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	page := make([]*Record, 0, end-start)
	for _, rec := range matched[start:end] {
		cp := *rec
		page = append(page, &cp)
	}
	return page, total, nil
}

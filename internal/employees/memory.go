package employees

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-memory, thread-safe Directory implementation
// for tests and local development.
type MemoryDirectory struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Employee
}

// NewMemoryDirectory creates an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{byID: make(map[uuid.UUID]*Employee)}
}

// GetByID implements Directory.
func (d *MemoryDirectory) GetByID(_ context.Context, id uuid.UUID) (*Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	e, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// Put stores an employee, assigning an ID if missing, and returns it.
func (d *MemoryDirectory) Put(e *Employee) *Employee {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cp := *e
	d.byID[e.ID] = &cp
	return e
}

package sessions

import (
	"context"
	"sync"
)

var _ Repo = (*MemoryRepo)(nil)

// MemoryRepo keeps the record for the life of the process. Stores sharing one
// MemoryRepo share one login.
type MemoryRepo struct {
	mu     sync.RWMutex
	record *Record
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Load(_ context.Context) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.record == nil {
		return nil, nil
	}
	record := *r.record
	return &record, nil
}

func (r *MemoryRepo) Save(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record = &record
	return nil
}

func (r *MemoryRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record = nil
	return nil
}

package store

import (
	"context"
	"sync"
)

// MemoryRepository keeps the snapshot in process memory. It backs
// tests and configurations that opt out of durable persistence.
type MemoryRepository struct {
	mu    sync.Mutex
	state State
	saved bool
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns the last saved snapshot, or an empty State if Save has
// never been called.
func (r *MemoryRepository) Load(ctx context.Context) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.saved {
		return State{}, nil
	}
	return r.state, nil
}

// Save replaces the in-memory snapshot.
func (r *MemoryRepository) Save(ctx context.Context, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state
	r.saved = true
	return nil
}

package ppn

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu   sync.RWMutex
	ppns map[string]*PPN
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		ppns: make(map[string]*PPN),
	}
}

// NewInMemoryRepositoryWithPPNs creates a new in-memory repository seeded
// with the given records.
func NewInMemoryRepositoryWithPPNs(ppns []*PPN) *InMemoryRepository {
	repo := NewInMemoryRepository()
	for _, p := range ppns {
		repo.ppns[p.ID] = p
	}
	return repo
}

// Get retrieves a PPN by ID.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*PPN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.ppns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// List retrieves all PPNs ordered by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]*PPN, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*PPN, 0, len(r.ppns))
	for _, p := range r.ppns {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Put creates or replaces a PPN.
func (r *InMemoryRepository) Put(p *PPN) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ppns[p.ID] = p
}

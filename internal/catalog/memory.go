package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the catalog in memory with one mutex per product,
// so stock mutations on different products never contend. Used by
// tests and local runs without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu sync.Mutex
	p  Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*entry{}}
}

// WithProduct runs fn while holding the product's exclusive lock.
// Changes fn makes to the product are retained. The inventory ledger
// builds its check-and-decrement on top of this.
func (s *MemoryStore) WithProduct(id string, fn func(p *Product) error) error {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(&e.p)
}

func (s *MemoryStore) Product(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Product{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Product, error) {
	return s.filter(func(Product) bool { return true }), nil
}

func (s *MemoryStore) SearchByName(_ context.Context, q string) ([]Product, error) {
	q = strings.ToLower(q)
	return s.filter(func(p Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q)
	}), nil
}

func (s *MemoryStore) ByCategory(_ context.Context, category string) ([]Product, error) {
	return s.filter(func(p Product) bool { return p.Category == category }), nil
}

func (s *MemoryStore) Create(_ context.Context, p *Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.entries[p.ID] = &entry{p: *p}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, p *Product) error {
	s.mu.RLock()
	e, ok := s.entries[p.ID]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p.CreatedAt = e.p.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	e.p = *p
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) filter(keep func(Product) bool) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, e := range s.entries {
		e.mu.Lock()
		p := e.p
		e.mu.Unlock()
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

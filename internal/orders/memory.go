package orders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Brocoder07/ShopStream/internal/catalog"
	"github.com/Brocoder07/ShopStream/internal/inventory"
)

// MemoryStore backs the placement service with an in-memory catalog
// ledger. Reservations take effect immediately (that is what makes
// concurrent placements contend realistically); a failed attempt is
// undone through the explicit Release calls the service issues.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Order
	seq    []string
	ledger *inventory.MemoryLedger
	cat    *catalog.MemoryStore

	// test hooks
	FailReserve error
	FailInsert  bool
	FailCommit  bool
	beginCount  int
}

func NewMemoryStore(cat *catalog.MemoryStore) *MemoryStore {
	return &MemoryStore{
		byID:   map[string]Order{},
		ledger: &inventory.MemoryLedger{Catalog: cat},
		cat:    cat,
	}
}

// BeginCount reports how many placement transactions were opened.
func (s *MemoryStore) BeginCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.beginCount
}

func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	s.beginCount++
	s.mu.Unlock()
	return &memTx{store: s}, nil
}

type memTx struct {
	store   *MemoryStore
	pending *Order
	done    bool
}

func (t *memTx) Reserve(ctx context.Context, productID string, qty int) (*inventory.Reservation, error) {
	if t.store.FailReserve != nil {
		return nil, t.store.FailReserve
	}
	return t.store.ledger.Reserve(ctx, productID, qty)
}

func (t *memTx) Release(ctx context.Context, res *inventory.Reservation) error {
	return t.store.ledger.Release(ctx, res)
}

func (t *memTx) Insert(_ context.Context, o *Order) error {
	if t.store.FailInsert {
		return errors.New("injected insert failure")
	}
	t.pending = o
	return nil
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return errors.New("transaction already finished")
	}
	if t.store.FailCommit {
		return errors.New("injected commit failure")
	}
	t.done = true
	if t.pending == nil {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.byID[t.pending.ID] = *t.pending
	t.store.seq = append(t.store.seq, t.pending.ID)
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	t.pending = nil
	return nil
}

func (s *MemoryStore) Order(_ context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *MemoryStore) OrdersForUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Order
	for _, id := range s.seq {
		if o := s.byID[id]; o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *MemoryStore) AllOrders(_ context.Context) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, orderID string, from, to Status, restock bool) error {
	s.mu.Lock()
	o, ok := s.byID[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	if o.Status != from {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	s.byID[orderID] = o
	s.mu.Unlock()

	if restock {
		for _, it := range o.Items {
			err := s.cat.WithProduct(it.ProductID, func(p *catalog.Product) error {
				p.Stock += it.Qty
				return nil
			})
			if err != nil && !errors.Is(err, catalog.ErrNotFound) {
				return err
			}
		}
	}
	return nil
}

// OrderCount reports how many orders were committed.
func (s *MemoryStore) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seq)
}

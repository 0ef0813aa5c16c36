package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ojo-network/cond-matcher/orders"
)

// InMemory is a sync.RWMutex-guarded map implementation of Repository. It is
// the default backing store: sufficient for development and tests, and a
// faithful model of the concurrency contract any real backing store must
// honor.
type InMemory struct {
	mtx   sync.RWMutex
	items map[string]orders.Order
}

var _ Repository = (*InMemory)(nil)

// NewInMemory returns an empty InMemory repository.
func NewInMemory() *InMemory {
	return &InMemory{
		items: make(map[string]orders.Order),
	}
}

// Create builds a new order via orders.New and stores it.
func (m *InMemory) Create(_ context.Context, n orders.NewOrder) (orders.Order, error) {
	o := orders.New(n)

	m.mtx.Lock()
	m.items[o.ID] = o
	m.mtx.Unlock()

	return o, nil
}

// GetByID returns a copy of the stored order, or ErrNotFound.
func (m *InMemory) GetByID(_ context.Context, id string) (orders.Order, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	o, ok := m.items[id]
	if !ok {
		return orders.Order{}, ErrNotFound
	}
	return o, nil
}

// List returns every order matching q, ANDing the Pair and Status filters,
// then slicing [offset:offset+limit). Orders are returned sorted by id for a
// stable, reproducible ordering across calls.
func (m *InMemory) List(_ context.Context, q ListQuery) ([]orders.Order, error) {
	m.mtx.RLock()
	matched := make([]orders.Order, 0, len(m.items))
	for _, o := range m.items {
		if q.Pair != "" && o.Pair != q.Pair {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		matched = append(matched, o)
	}
	m.mtx.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []orders.Order{}, nil
	}

	end := len(matched)
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}

	return matched[offset:end], nil
}

// SetStatus transitions id to status and refreshes updated, or ErrNotFound.
func (m *InMemory) SetStatus(_ context.Context, id string, status orders.Status) (orders.Order, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	o, ok := m.items[id]
	if !ok {
		return orders.Order{}, ErrNotFound
	}

	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	m.items[id] = o

	return o, nil
}

// Delete removes id, or returns ErrNotFound.
func (m *InMemory) Delete(_ context.Context, id string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Seed directly inserts orders, bypassing Create. It exists for tests and
// for backfilling a repository from another store; production code should
// go through Create.
func (m *InMemory) Seed(items ...orders.Order) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for _, o := range items {
		m.items[o.ID] = o
	}
}

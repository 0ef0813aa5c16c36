// Package repository defines the abstract order store the matcher fleet and
// the external HTTP surface consume. Any backing implementation satisfying
// this contract — in-memory, SQL, or KV — is acceptable; the matcher is
// agnostic to which one is wired in.
package repository

import (
	"context"

	"github.com/ojo-network/cond-matcher/orders"
)

// ListQuery filters a List call. Filters are ANDed. Limit <= 0 means no
// limit; a negative Offset is treated as 0; an Offset at or past the size of
// the filtered result yields an empty slice.
type ListQuery struct {
	Pair   string
	Status orders.Status
	Limit  int
	Offset int
}

// Repository is the CRUD and status-mutation contract the matcher fleet and
// the HTTP layer depend on. Implementations must be safe for concurrent use:
// matcher workers call it from multiple goroutines, one per asset.
type Repository interface {
	// Create assigns a fresh id, sets status New, and sets created = updated
	// = now.
	Create(ctx context.Context, n orders.NewOrder) (orders.Order, error)
	// GetByID returns ErrNotFound if id is absent.
	GetByID(ctx context.Context, id string) (orders.Order, error)
	// List returns every order matching q, in whatever stable order the
	// backing store provides.
	List(ctx context.Context, q ListQuery) ([]orders.Order, error)
	// SetStatus transitions the order to status, refreshing updated to now.
	// Returns ErrNotFound if id is absent.
	SetStatus(ctx context.Context, id string, status orders.Status) (orders.Order, error)
	// Delete removes the order. Returns ErrNotFound if id is absent.
	Delete(ctx context.Context, id string) error
}

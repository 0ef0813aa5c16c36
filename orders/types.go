package orders

import (
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
)

// Side is the direction of a conditional order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// String implements fmt.Stringer.
func (s Side) String() string {
	return string(s)
}

// Status is the lifecycle state of an order. Orders start at New; the
// matcher moves them to Open (not crossing) or straight to Filled
// (crossing), and any non-terminal order can be Cancelled.
type Status string

const (
	StatusNew             Status = "new"
	StatusOpen            Status = "open"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCancelled       Status = "cancelled"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// Terminal returns true for statuses an order never leaves once reached.
func (s Status) Terminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Active reports whether the matcher fleet still evaluates this order on
// every tick.
func (s Status) Active() bool {
	return s == StatusNew || s == StatusOpen || s == StatusPartiallyFilled
}

// NewOrder is the input to Create: everything a caller supplies, before the
// repository assigns an id and lifecycle metadata.
type NewOrder struct {
	Pair     string
	Side     Side
	Price    math.LegacyDec
	Quantity math.LegacyDec
}

// Order is a conditional limit order tracked by the matcher.
type Order struct {
	ID        string
	Pair      string
	Side      Side
	Price     math.LegacyDec
	Quantity  math.LegacyDec
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds an Order in the New status from a NewOrder, assigning a fresh id
// and timestamps.
func New(n NewOrder) Order {
	now := time.Now().UTC()
	return Order{
		ID:        uuid.NewString(),
		Pair:      n.Pair,
		Side:      n.Side,
		Price:     n.Price,
		Quantity:  n.Quantity,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Crosses reports whether the oracle price at oraclePx satisfies this order's
// limit price: a Buy crosses when its limit is at or above the oracle price,
// a Sell crosses when its limit is at or below it. Equality counts as
// crossing on both sides.
func (o Order) Crosses(oraclePx math.LegacyDec) bool {
	switch o.Side {
	case SideBuy:
		return o.Price.GTE(oraclePx)
	case SideSell:
		return o.Price.LTE(oraclePx)
	default:
		return false
	}
}

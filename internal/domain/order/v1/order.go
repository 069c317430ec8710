package orderv1

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// Side represents the side of an order.
type Side string

const (
	// SideBuy represents a buy (bid) order.
	SideBuy Side = "buy"
	// SideSell represents a sell (ask) order.
	SideSell Side = "sell"
)

// IsValid checks whether the side is one of the two known values.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Status represents the lifecycle state of an order.
type Status string

const (
	// StatusPending is the initial state of an accepted order.
	StatusPending Status = "pending"
	// StatusPartiallyFilled means some but not all quantity has executed.
	StatusPartiallyFilled Status = "partially_filled"
	// StatusFilled is terminal: the full quantity has executed.
	StatusFilled Status = "filled"
	// StatusCancelled is terminal: the order was withdrawn before filling.
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further executions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusFilled || s == StatusCancelled
}

// Order represents a single limit order. The matching core reads it and
// mutates execution state only through Fill and Cancel.
type Order struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Side             Side            `json:"side"`
	Price            money.Money     `json:"price"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executedQuantity"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Sequence         int64           `json:"sequence"` // arrival order, assigned by the book
}

// NewOrder creates a new pending order with a generated ulid.
func NewOrder(symbol string, side Side, price money.Money, quantity decimal.Decimal) *Order {
	now := time.Now()
	return &Order{
		ID:               ulid.Make().String(),
		Symbol:           symbol,
		Side:             side,
		Price:            price,
		Quantity:         quantity,
		ExecutedQuantity: decimal.Zero,
		Status:           StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RemainingQuantity returns the unexecuted quantity, clamped at zero.
func (o *Order) RemainingQuantity() decimal.Decimal {
	remaining := o.Quantity.Sub(o.ExecutedQuantity)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsActive reports whether the order is in a non-terminal state.
func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// IsBuy reports whether the order is a buy order.
func (o *Order) IsBuy() bool {
	return o.Side == SideBuy
}

// IsSell reports whether the order is a sell order.
func (o *Order) IsSell() bool {
	return o.Side == SideSell
}

// Fill records an execution of the given quantity and advances the status.
// It rejects fills on terminal orders and fills exceeding the remaining quantity.
func (o *Order) Fill(quantity decimal.Decimal) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("order %s is %s and cannot be filled", o.ID, o.Status)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("fill quantity must be positive, got %s", quantity)
	}
	if quantity.GreaterThan(o.RemainingQuantity()) {
		return fmt.Errorf("fill quantity %s exceeds remaining %s on order %s",
			quantity, o.RemainingQuantity(), o.ID)
	}

	o.ExecutedQuantity = o.ExecutedQuantity.Add(quantity)
	o.UpdatedAt = time.Now()

	if o.ExecutedQuantity.GreaterThanOrEqual(o.Quantity) {
		o.Status = StatusFilled
	} else {
		o.Status = StatusPartiallyFilled
	}
	return nil
}

// Cancel moves the order to the cancelled terminal state.
func (o *Order) Cancel() error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("order %s is already %s", o.ID, o.Status)
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

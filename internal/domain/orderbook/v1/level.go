package orderbookv1

import (
	"container/list"
	"fmt"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// PriceLevel aggregates all resting orders of one side at one exact price.
// Arrival order is preserved: the front of the queue has the highest
// matching priority within the level.
type PriceLevel struct {
	price money.Money
	queue *list.List               // of *orderv1.Order
	index map[string]*list.Element // order id -> element, for O(1) removal
}

// NewPriceLevel creates an empty price level at the given price.
func NewPriceLevel(price money.Money) *PriceLevel {
	return &PriceLevel{
		price: price,
		queue: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Price returns the exact price this level is keyed by.
func (l *PriceLevel) Price() money.Money {
	return l.price
}

// AddOrder appends the order to the back of the queue.
// An order priced differently from the level is a programming error.
func (l *PriceLevel) AddOrder(order *orderv1.Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if !order.Price.Equal(l.price) {
		return fmt.Errorf("%w: level %s, order %s", ErrPriceMismatch, l.price, order.Price)
	}
	if _, exists := l.index[order.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ID)
	}

	l.index[order.ID] = l.queue.PushBack(order)
	return nil
}

// RemoveOrder removes the order with the given id.
// It reports whether a removal occurred.
func (l *PriceLevel) RemoveOrder(orderID string) bool {
	elem, exists := l.index[orderID]
	if !exists {
		return false
	}

	l.queue.Remove(elem)
	delete(l.index, orderID)
	return true
}

// FirstActiveOrder returns the earliest order still active, skipping (but
// not removing) entries whose activity flag was flipped externally.
func (l *PriceLevel) FirstActiveOrder() (*orderv1.Order, bool) {
	for e := l.queue.Front(); e != nil; e = e.Next() {
		order := e.Value.(*orderv1.Order)
		if order.IsActive() {
			return order, true
		}
	}
	return nil, false
}

// IsEmpty reports whether no orders remain at this level.
func (l *PriceLevel) IsEmpty() bool {
	return l.queue.Len() == 0
}

// Len returns the number of orders currently held, active or not.
func (l *PriceLevel) Len() int {
	return l.queue.Len()
}

// TotalQuantity sums the remaining quantity over all orders currently held.
// It is not filtered by activity; callers run the book's inactive-order
// sweep upstream to keep this accurate.
func (l *PriceLevel) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for e := l.queue.Front(); e != nil; e = e.Next() {
		order := e.Value.(*orderv1.Order)
		total = total.Add(order.RemainingQuantity())
	}
	return total
}

// Orders returns a snapshot of the held orders in arrival order.
func (l *PriceLevel) Orders() []*orderv1.Order {
	orders := make([]*orderv1.Order, 0, l.queue.Len())
	for e := l.queue.Front(); e != nil; e = e.Next() {
		orders = append(orders, e.Value.(*orderv1.Order))
	}
	return orders
}

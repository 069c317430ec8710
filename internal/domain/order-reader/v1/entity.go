package orderreaderv1

import (
	"fmt"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// Action represents the kind of order request carried on the stream.
type Action string

const (
	// ActionPlace places a new limit order.
	ActionPlace Action = "place"
	// ActionCancel withdraws a resting order.
	ActionCancel Action = "cancel"
)

// OrderRequest is the wire payload consumed from the order topic.
// Amounts travel as strings to keep them exact.
type OrderRequest struct {
	Action        Action `json:"action"`
	OrderID       string `json:"orderID"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	Quantity      string `json:"quantity"`
	CorrelationID string `json:"correlationID"`
	Offset        int64  `json:"-"` // stream offset, set by the reader
}

// ToOrder converts a place request into a pending order.
func (r *OrderRequest) ToOrder() (*orderv1.Order, error) {
	side := orderv1.Side(r.Side)
	if !side.IsValid() {
		return nil, fmt.Errorf("invalid side %q", r.Side)
	}

	price, err := money.FromString(r.Price, r.Currency)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}

	quantity, err := decimal.NewFromString(r.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", r.Quantity, err)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", quantity)
	}

	order := orderv1.NewOrder(r.Symbol, side, price, quantity)
	if r.OrderID != "" {
		order.ID = r.OrderID
	}
	return order, nil
}

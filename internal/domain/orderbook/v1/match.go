package orderbookv1

import (
	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// Match pairs one buy and one sell order with a computed executable
// quantity and price. Matches are transient: the strategy creates them per
// matching pass and downstream settlement consumes them immediately.
type Match struct {
	Buy           *orderv1.Order  `json:"buy"`
	Sell          *orderv1.Order  `json:"sell"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         money.Money     `json:"price"`
	CorrelationID string          `json:"correlationID"`
}

// IsValid checks the candidate before it is handed downstream: both orders
// present, same symbol, strictly positive quantity, and the crossing
// condition (buy price >= sell price). Invalid candidates represent races
// with concurrent cancellation and are dropped, never escalated.
func (m Match) IsValid() bool {
	if m.Buy == nil || m.Sell == nil {
		return false
	}
	if m.Buy.Symbol != m.Sell.Symbol {
		return false
	}
	if !m.Quantity.IsPositive() {
		return false
	}

	crossed, err := m.Buy.Price.GreaterThanOrEqual(m.Sell.Price)
	if err != nil {
		return false
	}
	return crossed
}

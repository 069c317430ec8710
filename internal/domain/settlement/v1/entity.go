package settlementv1

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidMatch is returned when a transaction is constructed from a
	// candidate that fails validation.
	ErrInvalidMatch = errors.New("match candidate is not valid")
	// ErrOrderMismatch is returned when a transaction is applied to orders
	// other than the ones it was built from.
	ErrOrderMismatch = errors.New("transaction does not reference these orders")
)

// Transaction is the pure record of one execution, built from a match
// candidate. Construction has no side effects; the execution is applied to
// the two orders in a separate, explicit step.
type Transaction struct {
	ID            string          `json:"id"`
	BuyOrderID    string          `json:"buyOrderID"`
	SellOrderID   string          `json:"sellOrderID"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         money.Money     `json:"price"`
	Notional      money.Money     `json:"notional"`
	CorrelationID string          `json:"correlationID"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewTransaction validates the candidate and constructs the transaction
// value. Neither order is touched.
func NewTransaction(match orderbookv1.Match) (*Transaction, error) {
	if !match.IsValid() {
		return nil, ErrInvalidMatch
	}

	return &Transaction{
		ID:            ulid.Make().String(),
		BuyOrderID:    match.Buy.ID,
		SellOrderID:   match.Sell.ID,
		Symbol:        match.Buy.Symbol,
		Quantity:      match.Quantity,
		Price:         match.Price,
		Notional:      match.Price.Mul(match.Quantity),
		CorrelationID: match.CorrelationID,
		CreatedAt:     time.Now(),
	}, nil
}

// Apply records the execution on both orders, advancing their executed
// quantity and status. It fails without partial effect when either order
// has gone terminal or cannot absorb the quantity.
func (t *Transaction) Apply(buy, sell *orderv1.Order) error {
	if buy == nil || sell == nil {
		return ErrOrderMismatch
	}
	if buy.ID != t.BuyOrderID || sell.ID != t.SellOrderID {
		return fmt.Errorf("%w: got buy %s, sell %s", ErrOrderMismatch, buy.ID, sell.ID)
	}
	if !buy.IsActive() {
		return fmt.Errorf("buy order %s is %s and cannot be filled", buy.ID, buy.Status)
	}
	if !sell.IsActive() {
		return fmt.Errorf("sell order %s is %s and cannot be filled", sell.ID, sell.Status)
	}
	if buy.RemainingQuantity().LessThan(t.Quantity) {
		return fmt.Errorf("buy order %s cannot absorb quantity %s (remaining %s)",
			buy.ID, t.Quantity, buy.RemainingQuantity())
	}
	if sell.RemainingQuantity().LessThan(t.Quantity) {
		return fmt.Errorf("sell order %s cannot absorb quantity %s (remaining %s)",
			sell.ID, t.Quantity, sell.RemainingQuantity())
	}

	if err := buy.Fill(t.Quantity); err != nil {
		return err
	}
	return sell.Fill(t.Quantity)
}

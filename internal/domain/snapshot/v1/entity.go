package snapshotv1

import (
	"time"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// BookOrder is one resting order captured in a snapshot.
type BookOrder struct {
	OrderID          string          `json:"orderID"`
	Symbol           string          `json:"symbol"`
	Side             orderv1.Side    `json:"side"`
	Price            money.Money     `json:"price"`
	Quantity         decimal.Decimal `json:"quantity"`
	ExecutedQuantity decimal.Decimal `json:"executedQuantity"`
	Status           orderv1.Status  `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	Sequence         int64           `json:"sequence"`
}

// BookSnapshot captures the full resting state of one symbol's book.
type BookSnapshot struct {
	Symbol        string      `json:"symbol"`
	QuoteCurrency string      `json:"quoteCurrency"`
	Orders        []BookOrder `json:"orders"`
}

// Snapshot captures every book managed by the engine at one point in time,
// together with the order-stream offset it corresponds to.
type Snapshot struct {
	TakenAt     time.Time      `json:"takenAt"`
	OrderOffset int64          `json:"orderOffset"`
	Books       []BookSnapshot `json:"books"`
}

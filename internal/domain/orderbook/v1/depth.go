package orderbookv1

import (
	"time"

	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// DepthLevel is one aggregated price level in a market depth snapshot.
type DepthLevel struct {
	Price    money.Money     `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

// MarketDepth is a read-only snapshot of the top-N levels of both sides,
// each ordered by priority (best first).
type MarketDepth struct {
	Symbol     string       `json:"symbol"`
	Bids       []DepthLevel `json:"bids"`
	Asks       []DepthLevel `json:"asks"`
	LastUpdate time.Time    `json:"lastUpdate"`
}

// MarketOverview aggregates read-only statistics across all books.
type MarketOverview struct {
	Symbols        []string                   `json:"symbols"`
	BookCount      int                        `json:"bookCount"`
	TotalOrders    int                        `json:"totalOrders"`
	VolumeBySymbol map[string]decimal.Decimal `json:"volumeBySymbol"` // bid+ask resting quantity
}

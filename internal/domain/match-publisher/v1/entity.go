package matchpublisherv1

import (
	"encoding/json"
	"time"

	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// MatchEvent is the record published per discovered crossing pair. It is
// the sole contract the matching core hands to downstream settlement.
type MatchEvent struct {
	BuyOrderID    string          `json:"buyOrderId"`
	SellOrderID   string          `json:"sellOrderId"`
	Symbol        string          `json:"symbolCode"`
	Quantity      decimal.Decimal `json:"matchedQuantity"`
	Price         money.Money     `json:"executionPrice"`
	CorrelationID string          `json:"correlationId"`
	Timestamp     time.Time       `json:"timestamp"`
}

// CreateFromMatch builds the published event from a match candidate.
func CreateFromMatch(match orderbookv1.Match) *MatchEvent {
	return &MatchEvent{
		BuyOrderID:    match.Buy.ID,
		SellOrderID:   match.Sell.ID,
		Symbol:        match.Buy.Symbol,
		Quantity:      match.Quantity,
		Price:         match.Price,
		CorrelationID: match.CorrelationID,
		Timestamp:     time.Now(),
	}
}

// ToBytes converts the match event to its wire form.
func ToBytes(matchEvent *MatchEvent) []byte {
	buf, err := json.Marshal(matchEvent)
	if err != nil {
		return nil
	}

	return buf
}

// FromBytes converts a byte array back to a match event.
func FromBytes(data []byte) *MatchEvent {
	var matchEvent MatchEvent
	if err := json.Unmarshal(data, &matchEvent); err != nil {
		return nil
	}
	return &matchEvent
}

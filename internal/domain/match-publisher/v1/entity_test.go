package matchpublisherv1

import (
	"testing"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFromMatch(t *testing.T) {
	buy := orderv1.NewOrder("BTC-USD", orderv1.SideBuy, money.FromFloat(45_000, "USD"), decimal.NewFromInt(10))
	sell := orderv1.NewOrder("BTC-USD", orderv1.SideSell, money.FromFloat(44_000, "USD"), decimal.NewFromInt(5))

	match := orderbookv1.Match{
		Buy:           buy,
		Sell:          sell,
		Quantity:      decimal.NewFromInt(5),
		Price:         sell.Price,
		CorrelationID: "corr-1",
	}

	event := CreateFromMatch(match)

	assert.Equal(t, buy.ID, event.BuyOrderID)
	assert.Equal(t, sell.ID, event.SellOrderID)
	assert.Equal(t, "BTC-USD", event.Symbol)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.True(t, event.Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, event.Price.Equal(money.FromFloat(44_000, "USD")))
	assert.False(t, event.Timestamp.IsZero())
}

func TestMatchEvent_WireRoundTrip(t *testing.T) {
	event := &MatchEvent{
		BuyOrderID:  "buy1",
		SellOrderID: "sell1",
		Symbol:      "BTC-USD",
		Quantity:    decimal.NewFromInt(5),
		Price:       money.FromFloat(44_000, "USD"),
	}

	data := ToBytes(event)
	require.NotNil(t, data)

	decoded := FromBytes(data)
	require.NotNil(t, decoded)
	assert.Equal(t, event.BuyOrderID, decoded.BuyOrderID)
	assert.Equal(t, event.SellOrderID, decoded.SellOrderID)
	assert.True(t, decoded.Quantity.Equal(event.Quantity))
	assert.True(t, decoded.Price.Equal(event.Price))

	assert.Nil(t, FromBytes([]byte("not-json")))
}

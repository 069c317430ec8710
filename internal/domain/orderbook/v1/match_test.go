package orderbookv1

import (
	"testing"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMatch_IsValid(t *testing.T) {
	buy := strategyOrder("buy1", orderv1.SideBuy, 100, 10)
	sell := strategyOrder("sell1", orderv1.SideSell, 99, 10)

	valid := Match{Buy: buy, Sell: sell, Quantity: decimal.NewFromInt(5), Price: sell.Price}
	assert.True(t, valid.IsValid())

	missing := Match{Buy: buy, Quantity: decimal.NewFromInt(5)}
	assert.False(t, missing.IsValid())

	zeroQty := Match{Buy: buy, Sell: sell, Quantity: decimal.Zero}
	assert.False(t, zeroQty.IsValid())

	otherSymbol := strategyOrder("sell2", orderv1.SideSell, 99, 10)
	otherSymbol.Symbol = "ETH-USD"
	crossSymbol := Match{Buy: buy, Sell: otherSymbol, Quantity: decimal.NewFromInt(5)}
	assert.False(t, crossSymbol.IsValid())

	cheapBuy := strategyOrder("buy2", orderv1.SideBuy, 90, 10)
	notCrossed := Match{Buy: cheapBuy, Sell: sell, Quantity: decimal.NewFromInt(5)}
	assert.False(t, notCrossed.IsValid())

	eurSell := strategyOrder("sell3", orderv1.SideSell, 99, 10)
	eurSell.Price = money.FromFloat(99, "EUR")
	mixedCurrency := Match{Buy: buy, Sell: eurSell, Quantity: decimal.NewFromInt(5)}
	assert.False(t, mixedCurrency.IsValid())
}

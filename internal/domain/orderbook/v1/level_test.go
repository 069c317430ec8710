package orderbookv1

import (
	"testing"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelOrder(id string, price money.Money, qty int64) *orderv1.Order {
	order := orderv1.NewOrder("BTC-USD", orderv1.SideBuy, price, decimal.NewFromInt(qty))
	order.ID = id
	return order
}

func TestPriceLevel_AddOrder_FIFO(t *testing.T) {
	price := money.FromFloat(100, "USD")
	level := NewPriceLevel(price)

	require.NoError(t, level.AddOrder(levelOrder("first", price, 10)))
	require.NoError(t, level.AddOrder(levelOrder("second", price, 5)))

	assert.Equal(t, 2, level.Len())

	orders := level.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "first", orders[0].ID)
	assert.Equal(t, "second", orders[1].ID)

	front, ok := level.FirstActiveOrder()
	require.True(t, ok)
	assert.Equal(t, "first", front.ID)
}

func TestPriceLevel_AddOrder_Rejections(t *testing.T) {
	price := money.FromFloat(100, "USD")
	level := NewPriceLevel(price)

	assert.ErrorIs(t, level.AddOrder(nil), ErrNilOrder)

	other := levelOrder("o1", money.FromFloat(101, "USD"), 10)
	assert.ErrorIs(t, level.AddOrder(other), ErrPriceMismatch)

	dup := levelOrder("o2", price, 10)
	require.NoError(t, level.AddOrder(dup))
	assert.ErrorIs(t, level.AddOrder(dup), ErrDuplicateOrder)
	assert.Equal(t, 1, level.Len())
}

func TestPriceLevel_RemoveOrder(t *testing.T) {
	price := money.FromFloat(100, "USD")
	level := NewPriceLevel(price)

	require.NoError(t, level.AddOrder(levelOrder("o1", price, 10)))
	require.NoError(t, level.AddOrder(levelOrder("o2", price, 5)))

	assert.True(t, level.RemoveOrder("o1"))
	assert.False(t, level.RemoveOrder("o1"))
	assert.Equal(t, 1, level.Len())

	front, ok := level.FirstActiveOrder()
	require.True(t, ok)
	assert.Equal(t, "o2", front.ID)

	assert.True(t, level.RemoveOrder("o2"))
	assert.True(t, level.IsEmpty())
}

func TestPriceLevel_FirstActiveOrder_SkipsInactive(t *testing.T) {
	price := money.FromFloat(100, "USD")
	level := NewPriceLevel(price)

	cancelled := levelOrder("cancelled", price, 10)
	require.NoError(t, level.AddOrder(cancelled))
	require.NoError(t, level.AddOrder(levelOrder("active", price, 5)))
	require.NoError(t, cancelled.Cancel())

	front, ok := level.FirstActiveOrder()
	require.True(t, ok)
	assert.Equal(t, "active", front.ID)

	// the skipped order still occupies the level until swept
	assert.Equal(t, 2, level.Len())
}

func TestPriceLevel_TotalQuantity(t *testing.T) {
	price := money.FromFloat(100, "USD")
	level := NewPriceLevel(price)

	partial := levelOrder("partial", price, 10)
	require.NoError(t, level.AddOrder(partial))
	require.NoError(t, level.AddOrder(levelOrder("full", price, 5)))
	require.NoError(t, partial.Fill(decimal.NewFromInt(4)))

	assert.True(t, level.TotalQuantity().Equal(decimal.NewFromInt(11)))
}

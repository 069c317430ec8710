package orderbook

import (
	"context"
	"testing"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger()
	require.NoError(t, err)
	return log
}

func newTestBook(t *testing.T) *Book {
	t.Helper()
	return NewBook("BTC-USD", "USD", nil, newTestLogger(t))
}

func bookOrder(id string, side orderv1.Side, priceAmount float64, qty int64) *orderv1.Order {
	order := orderv1.NewOrder("BTC-USD", side, money.FromFloat(priceAmount, "USD"), decimal.NewFromInt(qty))
	order.ID = id
	return order
}

func TestBook_AddOrder(t *testing.T) {
	book := newTestBook(t)

	require.NoError(t, book.AddOrder(bookOrder("buy1", orderv1.SideBuy, 44_000, 10)))
	require.NoError(t, book.AddOrder(bookOrder("sell1", orderv1.SideSell, 45_000, 5)))

	assert.Equal(t, 2, book.OrderCount())
	assert.True(t, book.TotalBidVolume().Equal(decimal.NewFromInt(10)))
	assert.True(t, book.TotalAskVolume().Equal(decimal.NewFromInt(5)))

	order, ok := book.GetOrder("buy1")
	require.True(t, ok)
	assert.Equal(t, int64(1), order.Sequence)
}

func TestBook_AddOrder_Rejections(t *testing.T) {
	book := newTestBook(t)

	assert.ErrorIs(t, book.AddOrder(nil), orderbookv1.ErrNilOrder)

	wrongSymbol := bookOrder("o1", orderv1.SideBuy, 100, 10)
	wrongSymbol.Symbol = "ETH-USD"
	assert.ErrorIs(t, book.AddOrder(wrongSymbol), orderbookv1.ErrSymbolMismatch)

	wrongCurrency := bookOrder("o2", orderv1.SideBuy, 100, 10)
	wrongCurrency.Price = money.FromFloat(100, "EUR")
	assert.ErrorIs(t, book.AddOrder(wrongCurrency), orderbookv1.ErrCurrencyMismatch)

	cancelled := bookOrder("o3", orderv1.SideBuy, 100, 10)
	require.NoError(t, cancelled.Cancel())
	assert.ErrorIs(t, book.AddOrder(cancelled), orderbookv1.ErrInactiveOrder)

	assert.Equal(t, 0, book.OrderCount())
}

func TestBook_AddOrder_DuplicateLeavesBookUnchanged(t *testing.T) {
	book := newTestBook(t)

	original := bookOrder("dup", orderv1.SideBuy, 100, 10)
	require.NoError(t, book.AddOrder(original))

	clone := bookOrder("dup", orderv1.SideBuy, 101, 7)
	assert.ErrorIs(t, book.AddOrder(clone), orderbookv1.ErrDuplicateOrder)

	assert.Equal(t, 1, book.OrderCount())
	assert.True(t, book.TotalBidVolume().Equal(decimal.NewFromInt(10)))

	best, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, best.Equal(money.FromFloat(100, "USD")))
}

func TestBook_RemoveOrder_RoundTrip(t *testing.T) {
	book := newTestBook(t)

	require.NoError(t, book.AddOrder(bookOrder("o1", orderv1.SideBuy, 100, 10)))
	require.True(t, book.RemoveOrder("o1"))

	assert.Equal(t, 0, book.OrderCount())
	assert.True(t, book.TotalBidVolume().IsZero())
	assert.Empty(t, book.BidLevels())

	// removing twice reports false
	assert.False(t, book.RemoveOrder("o1"))
	assert.False(t, book.RemoveOrder("never-added"))
}

func TestBook_BestPrices(t *testing.T) {
	book := newTestBook(t)

	_, ok := book.BestBid()
	assert.False(t, ok)
	_, ok = book.BestAsk()
	assert.False(t, ok)

	require.NoError(t, book.AddOrder(bookOrder("b1", orderv1.SideBuy, 99, 10)))
	require.NoError(t, book.AddOrder(bookOrder("b2", orderv1.SideBuy, 101, 10)))
	require.NoError(t, book.AddOrder(bookOrder("a1", orderv1.SideSell, 105, 10)))
	require.NoError(t, book.AddOrder(bookOrder("a2", orderv1.SideSell, 103, 10)))

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(money.FromFloat(101, "USD")))

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(money.FromFloat(103, "USD")))

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(money.FromFloat(2, "USD")))
}

func TestBook_Spread_NegativeWhenCrossed(t *testing.T) {
	book := newTestBook(t)

	require.NoError(t, book.AddOrder(bookOrder("b1", orderv1.SideBuy, 105, 10)))
	require.NoError(t, book.AddOrder(bookOrder("a1", orderv1.SideSell, 100, 10)))

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.True(t, spread.Amount.Equal(decimal.NewFromInt(-5)))
}

func TestBook_Spread_RequiresBothSides(t *testing.T) {
	book := newTestBook(t)
	require.NoError(t, book.AddOrder(bookOrder("b1", orderv1.SideBuy, 100, 10)))

	_, ok := book.Spread()
	assert.False(t, ok)
}

func TestBook_MarketDepth(t *testing.T) {
	book := newTestBook(t)

	require.NoError(t, book.AddOrder(bookOrder("b1", orderv1.SideBuy, 99, 5)))
	require.NoError(t, book.AddOrder(bookOrder("b2", orderv1.SideBuy, 101, 10)))
	require.NoError(t, book.AddOrder(bookOrder("b3", orderv1.SideBuy, 100, 3)))
	require.NoError(t, book.AddOrder(bookOrder("b4", orderv1.SideBuy, 100, 2)))
	require.NoError(t, book.AddOrder(bookOrder("a1", orderv1.SideSell, 103, 7)))

	depth, err := book.MarketDepth(2)
	require.NoError(t, err)

	require.Len(t, depth.Bids, 2)
	assert.True(t, depth.Bids[0].Price.Equal(money.FromFloat(101, "USD")))
	assert.True(t, depth.Bids[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, depth.Bids[1].Price.Equal(money.FromFloat(100, "USD")))
	assert.True(t, depth.Bids[1].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, 2, depth.Bids[1].Orders)

	require.Len(t, depth.Asks, 1)
	assert.True(t, depth.Asks[0].Price.Equal(money.FromFloat(103, "USD")))
	assert.Equal(t, "BTC-USD", depth.Symbol)
}

func TestBook_MarketDepth_InvalidLevelCount(t *testing.T) {
	book := newTestBook(t)

	_, err := book.MarketDepth(0)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidDepth)

	_, err = book.MarketDepth(-3)
	assert.ErrorIs(t, err, orderbookv1.ErrInvalidDepth)
}

func TestBook_FindMatches_EmptyBookIdempotent(t *testing.T) {
	book := newTestBook(t)
	ctx := context.Background()

	assert.Empty(t, book.FindMatches(ctx))
	assert.Empty(t, book.FindMatches(ctx))
}

func TestBook_FindMatches_CrossingOrders(t *testing.T) {
	book := newTestBook(t)
	ctx := context.Background()

	require.NoError(t, book.AddOrder(bookOrder("buy1", orderv1.SideBuy, 45_000, 10)))
	require.NoError(t, book.AddOrder(bookOrder("sell1", orderv1.SideSell, 44_000, 5)))

	matches := book.FindMatches(ctx)
	require.Len(t, matches, 1)
	assert.Equal(t, "buy1", matches[0].Buy.ID)
	assert.Equal(t, "sell1", matches[0].Sell.ID)
	assert.True(t, matches[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, matches[0].Price.Equal(money.FromFloat(44_000, "USD")))

	// the pass itself does not mutate the book
	assert.Equal(t, 2, book.OrderCount())
}

func TestBook_FindMatches_SweepsInactiveFirst(t *testing.T) {
	book := newTestBook(t)
	ctx := context.Background()

	buy := bookOrder("buy1", orderv1.SideBuy, 100, 5)
	require.NoError(t, book.AddOrder(buy))
	require.NoError(t, book.AddOrder(bookOrder("sell1", orderv1.SideSell, 100, 5)))
	require.NoError(t, buy.Cancel())

	assert.Empty(t, book.FindMatches(ctx))
	assert.Equal(t, 1, book.OrderCount())
	assert.True(t, book.TotalBidVolume().IsZero())
}

func TestBook_SnapshotRestore(t *testing.T) {
	book := newTestBook(t)

	partial := bookOrder("buy1", orderv1.SideBuy, 100, 10)
	require.NoError(t, book.AddOrder(partial))
	require.NoError(t, book.AddOrder(bookOrder("sell1", orderv1.SideSell, 105, 5)))
	require.NoError(t, partial.Fill(decimal.NewFromInt(3)))

	snapshot := book.CreateSnapshot()
	require.Len(t, snapshot.Orders, 2)
	assert.Equal(t, "BTC-USD", snapshot.Symbol)
	assert.Equal(t, "USD", snapshot.QuoteCurrency)

	restored := newTestBook(t)
	require.NoError(t, restored.Restore(snapshot))

	assert.Equal(t, 2, restored.OrderCount())
	order, ok := restored.GetOrder("buy1")
	require.True(t, ok)
	assert.True(t, order.ExecutedQuantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, orderv1.StatusPartiallyFilled, order.Status)
	assert.Equal(t, partial.Sequence, order.Sequence)
	assert.True(t, restored.TotalBidVolume().Equal(decimal.NewFromInt(7)))

	// sequence numbering continues past the restored orders
	next := bookOrder("buy2", orderv1.SideBuy, 99, 1)
	require.NoError(t, restored.AddOrder(next))
	assert.Greater(t, next.Sequence, order.Sequence)
}

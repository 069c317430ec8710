package orderbook

import (
	"context"
	"fmt"
	"time"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	snapshotv1 "github.com/quantfold/exchange-sim/internal/domain/snapshot/v1"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/money"
	"github.com/shopspring/decimal"
)

// Book is the per-symbol limit order book: two price-ordered sides, a flat
// order-id index and derived volume aggregates.
//
// A Book is not safe for concurrent use. The Manager serializes all
// mutation and matching on one book behind a per-symbol lock; unserialized
// concurrent mutation is undefined behavior by contract.
type Book struct {
	symbol        string
	quoteCurrency string
	strategy      orderbookv1.Strategy
	logger        logger.Interface

	bids   *side
	asks   *side
	orders map[string]*orderv1.Order

	totalBidVolume decimal.Decimal
	totalAskVolume decimal.Decimal
	lastUpdate     time.Time
	sequence       int64
}

// NewBook creates an empty book for the symbol. A nil strategy defaults to
// price-time priority.
func NewBook(symbol, quoteCurrency string, strategy orderbookv1.Strategy, log logger.Interface) *Book {
	if strategy == nil {
		strategy = orderbookv1.NewPriceTimePriority(log)
	}
	return &Book{
		symbol:         symbol,
		quoteCurrency:  quoteCurrency,
		strategy:       strategy,
		logger:         log,
		bids:           newSide(true),
		asks:           newSide(false),
		orders:         make(map[string]*orderv1.Order),
		totalBidVolume: decimal.Zero,
		totalAskVolume: decimal.Zero,
		lastUpdate:     time.Now(),
	}
}

// Symbol returns the symbol this book is keyed by.
func (b *Book) Symbol() string {
	return b.symbol
}

// QuoteCurrency returns the currency every price in this book is quoted in.
func (b *Book) QuoteCurrency() string {
	return b.quoteCurrency
}

// AddOrder inserts an active order into the side matching its own side tag,
// creating the price level if absent.
func (b *Book) AddOrder(order *orderv1.Order) error {
	if order == nil {
		return orderbookv1.ErrNilOrder
	}
	if order.Symbol != b.symbol {
		return fmt.Errorf("%w: book %s, order %s", orderbookv1.ErrSymbolMismatch, b.symbol, order.Symbol)
	}
	if order.Price.Currency != b.quoteCurrency {
		return fmt.Errorf("%w: book %s, order %s", orderbookv1.ErrCurrencyMismatch, b.quoteCurrency, order.Price.Currency)
	}
	if !order.IsActive() {
		return fmt.Errorf("%w: %s is %s", orderbookv1.ErrInactiveOrder, order.ID, order.Status)
	}
	if _, exists := b.orders[order.ID]; exists {
		return fmt.Errorf("%w: %s", orderbookv1.ErrDuplicateOrder, order.ID)
	}

	level := b.sideOf(order.Side).getOrCreate(order.Price)
	if err := level.AddOrder(order); err != nil {
		return err
	}

	b.sequence++
	order.Sequence = b.sequence
	b.orders[order.ID] = order
	b.touch()

	return nil
}

// RemoveOrder removes the order with the given id if present, pruning a
// price level left empty. It reports whether a removal occurred.
func (b *Book) RemoveOrder(orderID string) bool {
	order, exists := b.orders[orderID]
	if !exists {
		return false
	}

	bookSide := b.sideOf(order.Side)
	if level, ok := bookSide.get(order.Price); ok {
		level.RemoveOrder(orderID)
		if level.IsEmpty() {
			bookSide.remove(order.Price)
		}
	}

	delete(b.orders, orderID)
	b.touch()
	return true
}

// RemoveInactiveOrders sweeps the order index for orders whose status was
// flipped terminal externally (e.g. after a fill was applied) and removes
// each. It must run before matching so stale entries cannot corrupt
// best-price queries. Returns the number of orders removed.
func (b *Book) RemoveInactiveOrders() int {
	var stale []string
	for id, order := range b.orders {
		if !order.IsActive() {
			stale = append(stale, id)
		}
	}

	for _, id := range stale {
		b.RemoveOrder(id)
	}
	return len(stale)
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (money.Money, bool) {
	level, ok := b.bids.best()
	if !ok {
		return money.Money{}, false
	}
	return level.Price(), true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (money.Money, bool) {
	level, ok := b.asks.best()
	if !ok {
		return money.Money{}, false
	}
	return level.Price(), true
}

// Spread returns bestAsk - bestBid when both sides are non-empty. The
// delta may be negative while the book is in a crossed, not-yet-matched
// state.
func (b *Book) Spread() (money.Money, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return money.Money{}, false
	}

	// both prices carry the book's quote currency by the add invariant
	return money.New(ask.Amount.Sub(bid.Amount), b.quoteCurrency), true
}

// BidLevels returns all bid levels ordered best-first (highest price first).
func (b *Book) BidLevels() []*orderbookv1.PriceLevel {
	return b.bids.levels(0)
}

// AskLevels returns all ask levels ordered best-first (lowest price first).
func (b *Book) AskLevels() []*orderbookv1.PriceLevel {
	return b.asks.levels(0)
}

// MarketDepth returns the top-N price levels per side, each ordered by
// priority. The level count must be positive.
func (b *Book) MarketDepth(levels int) (*orderbookv1.MarketDepth, error) {
	if levels < 1 {
		return nil, fmt.Errorf("%w: got %d", orderbookv1.ErrInvalidDepth, levels)
	}

	depth := &orderbookv1.MarketDepth{
		Symbol:     b.symbol,
		Bids:       make([]orderbookv1.DepthLevel, 0, levels),
		Asks:       make([]orderbookv1.DepthLevel, 0, levels),
		LastUpdate: b.lastUpdate,
	}
	for _, level := range b.bids.levels(levels) {
		depth.Bids = append(depth.Bids, orderbookv1.DepthLevel{
			Price:    level.Price(),
			Quantity: level.TotalQuantity(),
			Orders:   level.Len(),
		})
	}
	for _, level := range b.asks.levels(levels) {
		depth.Asks = append(depth.Asks, orderbookv1.DepthLevel{
			Price:    level.Price(),
			Quantity: level.TotalQuantity(),
			Orders:   level.Len(),
		})
	}
	return depth, nil
}

// FindMatches sweeps out inactive orders, then delegates to the matching
// strategy over the current book snapshot. The returned candidates are not
// applied to the book.
func (b *Book) FindMatches(ctx context.Context) []orderbookv1.Match {
	if removed := b.RemoveInactiveOrders(); removed > 0 {
		b.logger.DebugContext(ctx, "removed inactive orders before matching",
			logger.Field{Key: "symbol", Value: b.symbol},
			logger.Field{Key: "removed", Value: removed},
		)
	}

	return b.strategy.FindMatches(ctx, b.BidLevels(), b.AskLevels())
}

// GetOrder returns the resting order with the given id, if present.
func (b *Book) GetOrder(orderID string) (*orderv1.Order, bool) {
	order, ok := b.orders[orderID]
	return order, ok
}

// OrderCount returns the number of orders currently resting in the book.
func (b *Book) OrderCount() int {
	return len(b.orders)
}

// TotalBidVolume returns the resting quantity aggregated over all bid levels.
func (b *Book) TotalBidVolume() decimal.Decimal {
	return b.totalBidVolume
}

// TotalAskVolume returns the resting quantity aggregated over all ask levels.
func (b *Book) TotalAskVolume() decimal.Decimal {
	return b.totalAskVolume
}

// LastUpdate returns the time of the last structural mutation.
func (b *Book) LastUpdate() time.Time {
	return b.lastUpdate
}

// CreateSnapshot captures every resting order of this book.
func (b *Book) CreateSnapshot() snapshotv1.BookSnapshot {
	snapshot := snapshotv1.BookSnapshot{
		Symbol:        b.symbol,
		QuoteCurrency: b.quoteCurrency,
		Orders:        make([]snapshotv1.BookOrder, 0, len(b.orders)),
	}

	for _, level := range append(b.BidLevels(), b.AskLevels()...) {
		for _, order := range level.Orders() {
			snapshot.Orders = append(snapshot.Orders, snapshotv1.BookOrder{
				OrderID:          order.ID,
				Symbol:           order.Symbol,
				Side:             order.Side,
				Price:            order.Price,
				Quantity:         order.Quantity,
				ExecutedQuantity: order.ExecutedQuantity,
				Status:           order.Status,
				CreatedAt:        order.CreatedAt,
				Sequence:         order.Sequence,
			})
		}
	}
	return snapshot
}

// Restore rebuilds the book's resting state from a snapshot, replacing any
// current contents.
func (b *Book) Restore(snapshot snapshotv1.BookSnapshot) error {
	b.bids = newSide(true)
	b.asks = newSide(false)
	b.orders = make(map[string]*orderv1.Order)
	b.sequence = 0

	for _, bookOrder := range snapshot.Orders {
		order := &orderv1.Order{
			ID:               bookOrder.OrderID,
			Symbol:           bookOrder.Symbol,
			Side:             bookOrder.Side,
			Price:            bookOrder.Price,
			Quantity:         bookOrder.Quantity,
			ExecutedQuantity: bookOrder.ExecutedQuantity,
			Status:           bookOrder.Status,
			CreatedAt:        bookOrder.CreatedAt,
			UpdatedAt:        bookOrder.CreatedAt,
		}
		if err := b.AddOrder(order); err != nil {
			return fmt.Errorf("failed to restore order %s: %w", bookOrder.OrderID, err)
		}
		// keep the captured arrival order rather than the re-add order
		order.Sequence = bookOrder.Sequence
		if bookOrder.Sequence > b.sequence {
			b.sequence = bookOrder.Sequence
		}
	}

	b.touch()
	return nil
}

// touch recomputes the volume aggregates and stamps the book after a
// structural mutation.
func (b *Book) touch() {
	b.totalBidVolume = sumVolume(b.bids)
	b.totalAskVolume = sumVolume(b.asks)
	b.lastUpdate = time.Now()
}

func (b *Book) sideOf(s orderv1.Side) *side {
	if s == orderv1.SideBuy {
		return b.bids
	}
	return b.asks
}

func sumVolume(s *side) decimal.Decimal {
	total := decimal.Zero
	for _, level := range s.levels(0) {
		total = total.Add(level.TotalQuantity())
	}
	return total
}

package orderbook

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	snapshotv1 "github.com/quantfold/exchange-sim/internal/domain/snapshot/v1"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/metrics"
	"github.com/shopspring/decimal"
)

// bookHandle pairs a book with the lock that serializes every mutation and
// matching pass on it. The book itself carries no locking by contract.
type bookHandle struct {
	mu   sync.Mutex
	book *Book
}

// Manager owns the symbol -> book registry and provides manager-level
// atomic operations. Registry lookup/creation is safe for concurrent use;
// per-book operations are serialized behind the book's own lock.
type Manager struct {
	mu       sync.RWMutex
	books    map[string]*bookHandle
	strategy orderbookv1.Strategy
	logger   logger.Interface
}

// NewManager creates an empty registry. The strategy is shared by all books
// it creates; nil defaults to price-time priority.
func NewManager(strategy orderbookv1.Strategy, log logger.Interface) *Manager {
	return &Manager{
		books:    make(map[string]*bookHandle),
		strategy: strategy,
		logger:   log,
	}
}

// GetOrCreateBook returns the existing book for the symbol or lazily
// creates one quoted in the given currency.
func (m *Manager) GetOrCreateBook(symbol, quoteCurrency string) *Book {
	return m.getOrCreateHandle(symbol, quoteCurrency).book
}

func (m *Manager) getOrCreateHandle(symbol, quoteCurrency string) *bookHandle {
	m.mu.RLock()
	handle, exists := m.books[symbol]
	m.mu.RUnlock()
	if exists {
		return handle
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if handle, exists = m.books[symbol]; exists {
		return handle
	}

	handle = &bookHandle{book: NewBook(symbol, quoteCurrency, m.strategy, m.logger)}
	m.books[symbol] = handle

	m.logger.Info("created order book",
		logger.Field{Key: "symbol", Value: symbol},
		logger.Field{Key: "quoteCurrency", Value: quoteCurrency},
	)
	return handle
}

// AddOrder routes the order to its symbol's book, with the side determined
// by the order's own side tag.
func (m *Manager) AddOrder(ctx context.Context, order *orderv1.Order) error {
	if order == nil {
		return orderbookv1.ErrNilOrder
	}

	handle := m.getOrCreateHandle(order.Symbol, order.Price.Currency)
	handle.mu.Lock()
	defer handle.mu.Unlock()

	if err := m.observeRejection(handle.book.AddOrder(order), order); err != nil {
		return err
	}

	metrics.OrdersReceivedTotal.WithLabelValues(order.Symbol, string(order.Side)).Inc()
	m.updateVolumeGauges(handle.book)

	m.logger.DebugContext(ctx, "order added to book",
		logger.Field{Key: "symbol", Value: order.Symbol},
		logger.Field{Key: "orderID", Value: order.ID},
		logger.Field{Key: "side", Value: order.Side},
		logger.Field{Key: "price", Value: order.Price.String()},
		logger.Field{Key: "quantity", Value: order.Quantity},
	)
	return nil
}

// RemoveOrder removes the order from its symbol's book if present.
// It reports whether a removal occurred.
func (m *Manager) RemoveOrder(ctx context.Context, symbol, orderID string) bool {
	handle, exists := m.handle(symbol)
	if !exists {
		return false
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	removed := handle.book.RemoveOrder(orderID)
	if removed {
		m.updateVolumeGauges(handle.book)
		m.logger.DebugContext(ctx, "order removed from book",
			logger.Field{Key: "symbol", Value: symbol},
			logger.Field{Key: "orderID", Value: orderID},
		)
	}
	return removed
}

// FindMatches runs a matching pass over one symbol's book.
func (m *Manager) FindMatches(ctx context.Context, symbol string) []orderbookv1.Match {
	handle, exists := m.handle(symbol)
	if !exists {
		return nil
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	matches := handle.book.FindMatches(ctx)
	if len(matches) > 0 {
		metrics.MatchesFoundTotal.WithLabelValues(symbol).Add(float64(len(matches)))
	}
	return matches
}

// FindAllMatches runs a matching pass on every book and concatenates the
// results. Crossing orders of one symbol can never affect another symbol's
// book.
func (m *Manager) FindAllMatches(ctx context.Context) []orderbookv1.Match {
	var all []orderbookv1.Match
	for _, symbol := range m.Symbols() {
		all = append(all, m.FindMatches(ctx, symbol)...)
	}
	return all
}

// WithBook runs fn with exclusive access to the symbol's book. It is the
// serialization point for callers that need a read-modify sequence larger
// than one manager operation, such as applying settlements.
func (m *Manager) WithBook(symbol string, fn func(book *Book) error) error {
	handle, exists := m.handle(symbol)
	if !exists {
		return nil
	}

	handle.mu.Lock()
	defer handle.mu.Unlock()

	err := fn(handle.book)
	m.updateVolumeGauges(handle.book)
	return err
}

// Symbols returns the symbols with a registered book, sorted for
// deterministic iteration.
func (m *Manager) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.books))
	for symbol := range m.books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// MarketOverview aggregates a read-only snapshot across all books.
func (m *Manager) MarketOverview() *orderbookv1.MarketOverview {
	overview := &orderbookv1.MarketOverview{
		Symbols:        m.Symbols(),
		VolumeBySymbol: make(map[string]decimal.Decimal),
	}

	for _, symbol := range overview.Symbols {
		handle, exists := m.handle(symbol)
		if !exists {
			continue
		}

		handle.mu.Lock()
		overview.BookCount++
		overview.TotalOrders += handle.book.OrderCount()
		overview.VolumeBySymbol[symbol] = handle.book.TotalBidVolume().Add(handle.book.TotalAskVolume())
		handle.mu.Unlock()
	}
	return overview
}

// CreateSnapshot captures the resting state of every book.
func (m *Manager) CreateSnapshot() *snapshotv1.Snapshot {
	snapshot := &snapshotv1.Snapshot{TakenAt: time.Now()}

	for _, symbol := range m.Symbols() {
		handle, exists := m.handle(symbol)
		if !exists {
			continue
		}
		handle.mu.Lock()
		snapshot.Books = append(snapshot.Books, handle.book.CreateSnapshot())
		handle.mu.Unlock()
	}
	return snapshot
}

// Restore rebuilds every book from the snapshot, replacing current state.
func (m *Manager) Restore(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	for _, bookSnapshot := range snapshot.Books {
		handle := m.getOrCreateHandle(bookSnapshot.Symbol, bookSnapshot.QuoteCurrency)
		handle.mu.Lock()
		err := handle.book.Restore(bookSnapshot)
		m.updateVolumeGauges(handle.book)
		handle.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) handle(symbol string) (*bookHandle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	handle, exists := m.books[symbol]
	return handle, exists
}

// observeRejection counts precondition failures before returning them.
func (m *Manager) observeRejection(err error, order *orderv1.Order) error {
	if err == nil {
		return nil
	}

	reason := "invalid"
	switch {
	case errors.Is(err, orderbookv1.ErrDuplicateOrder):
		reason = "duplicate_order"
	case errors.Is(err, orderbookv1.ErrSymbolMismatch):
		reason = "symbol_mismatch"
	case errors.Is(err, orderbookv1.ErrInactiveOrder):
		reason = "inactive_order"
	case errors.Is(err, orderbookv1.ErrCurrencyMismatch):
		reason = "currency_mismatch"
	}
	metrics.OrdersRejectedTotal.WithLabelValues(order.Symbol, reason).Inc()
	return err
}

func (m *Manager) updateVolumeGauges(book *Book) {
	bidVolume, _ := book.TotalBidVolume().Float64()
	askVolume, _ := book.TotalAskVolume().Float64()
	metrics.OrderbookVolume.WithLabelValues(book.Symbol(), string(orderv1.SideBuy)).Set(bidVolume)
	metrics.OrderbookVolume.WithLabelValues(book.Symbol(), string(orderv1.SideSell)).Set(askVolume)
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	matchpublisherv1 "github.com/quantfold/exchange-sim/internal/domain/match-publisher/v1"
	orderreaderv1 "github.com/quantfold/exchange-sim/internal/domain/order-reader/v1"
	snapshotv1 "github.com/quantfold/exchange-sim/internal/domain/snapshot/v1"
	"github.com/quantfold/exchange-sim/internal/usecase/orderbook"
	"github.com/quantfold/exchange-sim/internal/usecase/settlement"
	"github.com/quantfold/exchange-sim/pkg/correlation"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/quantfold/exchange-sim/pkg/metrics"
)

// Engine consumes order requests, runs matching passes, settles the
// resulting transactions and publishes match events downstream. It also
// snapshots the book registry so a restart resumes from the last
// consistent offset.
type Engine struct {
	manager        *orderbook.Manager
	settler        *settlement.Settler
	orderReader    orderreaderv1.OrderReader
	matchPublisher matchpublisherv1.MatchPublisher
	snapshotStore  snapshotv1.Store
	logger         logger.Interface

	mu                 sync.RWMutex
	orderOffset        int64
	lastSnapshotOffset int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	snapshotInterval    time.Duration
	snapshotOffsetDelta int64

	totalMatches int64
	matchesMutex sync.RWMutex
}

// NewEngine creates an engine with default options.
func NewEngine(
	manager *orderbook.Manager,
	settler *settlement.Settler,
	orderReader orderreaderv1.OrderReader,
	matchPublisher matchpublisherv1.MatchPublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
) (*Engine, error) {
	return NewEngineWithOptions(manager, settler, orderReader, matchPublisher, snapshotStore, log, DefaultEngineOptions())
}

// NewEngineWithOptions creates an engine with custom options. The latest
// snapshot, if any, is restored before the engine is returned.
func NewEngineWithOptions(
	manager *orderbook.Manager,
	settler *settlement.Settler,
	orderReader orderreaderv1.OrderReader,
	matchPublisher matchpublisherv1.MatchPublisher,
	snapshotStore snapshotv1.Store,
	log logger.Interface,
	options *Options,
) (*Engine, error) {
	e := &Engine{
		manager:        manager,
		settler:        settler,
		orderReader:    orderReader,
		matchPublisher: matchPublisher,
		snapshotStore:  snapshotStore,
		logger:         log,

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		orderOffset:         -1,
	}

	if err := e.loadSnapshot(context.Background()); err != nil {
		return nil, err
	}

	return e, nil
}

// Start launches the processing routines.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runOrderProcessor()
	go e.runSnapshotManager()

	e.logger.Info("engine started",
		logger.Field{Key: "snapshotInterval", Value: e.snapshotInterval},
		logger.Field{Key: "snapshotOffsetDelta", Value: e.snapshotOffsetDelta},
	)

	return nil
}

// Stop gracefully shuts down the engine.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runOrderProcessor reads and processes order requests in a single goroutine.
func (e *Engine) runOrderProcessor() {
	defer e.wg.Done()

	e.logger.Info("starting order processor")

	currentOffset := e.getOrderOffset()
	if currentOffset > 0 {
		currentOffset++
	}

	if err := e.orderReader.SetOffset(currentOffset); err != nil {
		e.logger.Error(err, logger.Field{
			Key:   "action",
			Value: "set_order_reader_offset",
		})
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("order processor shutting down")
			e.orderReader.Close()
			return
		default:
			msg, orderRequest, err := e.orderReader.ReadMessage(e.ctx)
			if err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_order_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.orderReader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_order_message",
				})
			}

			if err := e.processOrder(orderRequest); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "process_order",
				})
				continue
			}

			e.setOrderOffset(msg.Offset)
		}
	}
}

// runSnapshotManager handles periodic snapshots.
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshot()
			}
		}
	}
}

// processOrder handles a single order request end to end: admission,
// matching pass, settlement and event publication.
func (e *Engine) processOrder(request *orderreaderv1.OrderRequest) error {
	ctx := correlation.WithID(e.ctx, request.CorrelationID)

	start := time.Now()
	defer func() {
		metrics.OrderProcessingSeconds.
			WithLabelValues(request.Symbol, string(request.Action)).
			Observe(time.Since(start).Seconds())
	}()

	e.logger.DebugContext(ctx, "processing order request",
		logger.Field{Key: "action", Value: request.Action},
		logger.Field{Key: "symbol", Value: request.Symbol},
		logger.Field{Key: "orderOffset", Value: request.Offset},
	)

	switch request.Action {
	case orderreaderv1.ActionPlace:
		order, err := request.ToOrder()
		if err != nil {
			metrics.OrdersRejectedTotal.WithLabelValues(request.Symbol, "malformed").Inc()
			return err
		}
		if err := e.manager.AddOrder(ctx, order); err != nil {
			return err
		}
		return e.matchAndSettle(ctx, order.Symbol)

	case orderreaderv1.ActionCancel:
		return e.cancelOrder(ctx, request.Symbol, request.OrderID)

	default:
		return fmt.Errorf("unknown order action %q", request.Action)
	}
}

// cancelOrder withdraws a resting order. Cancelling an unknown order is a
// no-op so replayed cancel requests stay idempotent.
func (e *Engine) cancelOrder(ctx context.Context, symbol, orderID string) error {
	return e.manager.WithBook(symbol, func(book *orderbook.Book) error {
		order, exists := book.GetOrder(orderID)
		if !exists {
			e.logger.DebugContext(ctx, "cancel for unknown order",
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "orderID", Value: orderID},
			)
			return nil
		}

		if err := order.Cancel(); err != nil {
			return err
		}
		book.RemoveOrder(orderID)

		e.logger.InfoContext(ctx, "order cancelled",
			logger.Field{Key: "symbol", Value: symbol},
			logger.Field{Key: "orderID", Value: orderID},
		)
		return nil
	})
}

// matchAndSettle runs one matching pass over the symbol's book, applies the
// resulting transactions and publishes one event per execution.
func (e *Engine) matchAndSettle(ctx context.Context, symbol string) error {
	matches := e.manager.FindMatches(ctx, symbol)
	if len(matches) == 0 {
		return nil
	}

	transactions, err := e.settler.Settle(ctx, symbol, matches)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}

	e.recordMatches(len(transactions))

	for _, tx := range transactions {
		event := &matchpublisherv1.MatchEvent{
			BuyOrderID:    tx.BuyOrderID,
			SellOrderID:   tx.SellOrderID,
			Symbol:        tx.Symbol,
			Quantity:      tx.Quantity,
			Price:         tx.Price,
			CorrelationID: tx.CorrelationID,
			Timestamp:     tx.CreatedAt,
		}
		if err := e.matchPublisher.PublishMatchEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// recordMatches updates match statistics.
func (e *Engine) recordMatches(count int) {
	e.matchesMutex.Lock()
	e.totalMatches += int64(count)
	currentTotal := e.totalMatches
	e.matchesMutex.Unlock()

	e.logger.Info("matches settled",
		logger.Field{Key: "matchCount", Value: count},
		logger.Field{Key: "totalMatches", Value: currentTotal},
	)
}

// shouldCreateSnapshot checks if enough new orders arrived since the last
// snapshot.
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.orderOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	return currentOffset-lastSnapshotOffset >= e.snapshotOffsetDelta
}

// createAndStoreSnapshot captures every book and persists the snapshot.
func (e *Engine) createAndStoreSnapshot() {
	currentOffset := e.getOrderOffset()

	e.logger.Info("creating snapshot", logger.Field{
		Key:   "currentOffset",
		Value: currentOffset,
	})

	snapshot := e.manager.CreateSnapshot()
	snapshot.OrderOffset = currentOffset

	if err := e.snapshotStore.Store(e.ctx, snapshot); err != nil {
		e.logger.ErrorContext(e.ctx, err, logger.Field{
			Key:   "action",
			Value: "store_snapshot",
		})
		return
	}

	e.setLastSnapshotOffset(currentOffset)
}

func (e *Engine) getOrderOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.orderOffset
}

func (e *Engine) setOrderOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderOffset = offset
}

func (e *Engine) getLastSnapshotOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSnapshotOffset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

// loadSnapshot restores the book registry from the latest stored snapshot.
func (e *Engine) loadSnapshot(ctx context.Context) error {
	snapshot, err := e.snapshotStore.Load(ctx)
	if err != nil {
		return err
	}

	if snapshot != nil {
		if err := e.manager.Restore(snapshot); err != nil {
			return err
		}
		e.mu.Lock()
		e.orderOffset = snapshot.OrderOffset
		e.lastSnapshotOffset = snapshot.OrderOffset
		e.mu.Unlock()

		e.logger.Info("books restored from snapshot", logger.Field{
			Key:   "orderOffset",
			Value: snapshot.OrderOffset,
		})
	}

	return nil
}

// GetOrderOffset returns the current order offset.
func (e *Engine) GetOrderOffset() int64 {
	return e.getOrderOffset()
}

// GetLastSnapshotOffset returns the last snapshot offset.
func (e *Engine) GetLastSnapshotOffset() int64 {
	return e.getLastSnapshotOffset()
}

// GetTotalMatches returns the total number of settled matches.
func (e *Engine) GetTotalMatches() int64 {
	e.matchesMutex.RLock()
	defer e.matchesMutex.RUnlock()
	return e.totalMatches
}

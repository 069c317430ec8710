package orderbookv1

import (
	"context"

	orderv1 "github.com/quantfold/exchange-sim/internal/domain/order/v1"
	"github.com/quantfold/exchange-sim/pkg/correlation"
	"github.com/quantfold/exchange-sim/pkg/logger"
	"github.com/shopspring/decimal"
)

// Strategy discovers crossable order pairs over a snapshot of a book's
// sides. Implementations must be pure with respect to the book: they keep
// their own working view of consumed quantities and never mutate orders.
//
//go:generate mockgen -source strategy.go -destination=mock/strategy_mock.go -package=orderbookv1_mock
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// FindMatches walks the bid and ask levels, both ordered best-first,
	// and returns every valid match candidate discoverable in this pass.
	FindMatches(ctx context.Context, bids, asks []*PriceLevel) []Match
}

// PriceTimePriority matches orders by best price first and arrival order
// within a price level. The execution price is always the seller's resting
// price and the matchable quantity is the conservative minimum of both
// sides' remaining quantities.
type PriceTimePriority struct {
	logger logger.Interface
}

// NewPriceTimePriority creates the default matching strategy.
func NewPriceTimePriority(log logger.Interface) *PriceTimePriority {
	return &PriceTimePriority{logger: log}
}

// Name implements Strategy.
func (s *PriceTimePriority) Name() string {
	return "price-time-priority"
}

// FindMatches implements Strategy.
func (s *PriceTimePriority) FindMatches(ctx context.Context, bids, asks []*PriceLevel) []Match {
	correlationID := correlation.FromContext(ctx)

	var matches []Match

	// Working view of remaining quantities consumed by this pass.
	// The book itself is never mutated here.
	working := make(map[string]decimal.Decimal)

	remaining := func(o *orderv1.Order) decimal.Decimal {
		if r, ok := working[o.ID]; ok {
			return r
		}
		return o.RemainingQuantity()
	}

	// firstOpen returns the earliest active order at the level that this
	// pass has not yet consumed. An order whose remaining quantity was
	// already stale on entry is still returned once, so the degenerate
	// candidate can be observed and skipped below.
	firstOpen := func(level *PriceLevel) *orderv1.Order {
		for _, o := range level.Orders() {
			if !o.IsActive() {
				continue
			}
			if r, consumed := working[o.ID]; consumed && !r.IsPositive() {
				continue
			}
			return o
		}
		return nil
	}

	bi, ai := 0, 0
	for bi < len(bids) && ai < len(asks) {
		buy := firstOpen(bids[bi])
		if buy == nil {
			bi++
			continue
		}
		sell := firstOpen(asks[ai])
		if sell == nil {
			ai++
			continue
		}

		crossed, err := buy.Price.GreaterThanOrEqual(sell.Price)
		if err != nil {
			// Prices of mixed currencies cannot be compared; upstream
			// order validation is broken. Stop this pass.
			s.logger.ErrorContext(ctx, err,
				logger.Field{Key: "strategy", Value: s.Name()},
				logger.Field{Key: "buyOrderID", Value: buy.ID},
				logger.Field{Key: "sellOrderID", Value: sell.ID},
			)
			return matches
		}
		if !crossed {
			break
		}

		quantity := decimal.Min(remaining(buy), remaining(sell))
		if quantity.IsPositive() {
			// The seller's resting price sets the trade price.
			match := Match{
				Buy:           buy,
				Sell:          sell,
				Quantity:      quantity,
				Price:         sell.Price,
				CorrelationID: correlationID,
			}
			working[buy.ID] = remaining(buy).Sub(quantity)
			working[sell.ID] = remaining(sell).Sub(quantity)

			if match.IsValid() {
				matches = append(matches, match)
			} else {
				s.logger.DebugContext(ctx, "dropping invalid match candidate",
					logger.Field{Key: "buyOrderID", Value: buy.ID},
					logger.Field{Key: "sellOrderID", Value: sell.ID},
				)
			}
			continue
		}

		// Zero matchable quantity is expected when upstream bookkeeping is
		// momentarily stale. Skip without emitting and move past the
		// exhausted side.
		s.logger.DebugContext(ctx, "skipping zero-quantity match candidate",
			logger.Field{Key: "buyOrderID", Value: buy.ID},
			logger.Field{Key: "sellOrderID", Value: sell.ID},
		)
		if !remaining(buy).IsPositive() {
			working[buy.ID] = decimal.Zero
		}
		if !remaining(sell).IsPositive() {
			working[sell.ID] = decimal.Zero
		}
	}

	return matches
}

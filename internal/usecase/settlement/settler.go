package settlement

import (
	"context"

	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	settlementv1 "github.com/quantfold/exchange-sim/internal/domain/settlement/v1"
	"github.com/quantfold/exchange-sim/internal/usecase/orderbook"
	"github.com/quantfold/exchange-sim/pkg/logger"
)

// Settler turns match candidates into applied transactions. Construction
// and application are two separate steps: a transaction that fails
// validation is skipped without touching either order.
type Settler struct {
	manager *orderbook.Manager
	logger  logger.Interface
}

// NewSettler creates a settler over the given book registry.
func NewSettler(manager *orderbook.Manager, log logger.Interface) *Settler {
	return &Settler{
		manager: manager,
		logger:  log,
	}
}

// Settle applies the matches of one symbol under exclusive book access and
// returns the transactions that were applied. A match whose orders changed
// since the candidate was produced is skipped and logged, not failed.
func (s *Settler) Settle(ctx context.Context, symbol string, matches []orderbookv1.Match) ([]*settlementv1.Transaction, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	var applied []*settlementv1.Transaction

	err := s.manager.WithBook(symbol, func(book *orderbook.Book) error {
		for _, match := range matches {
			tx, err := settlementv1.NewTransaction(match)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping invalid match candidate",
					logger.Field{Key: "symbol", Value: symbol},
					logger.Field{Key: "error", Value: err.Error()},
				)
				continue
			}

			buy, buyOK := book.GetOrder(tx.BuyOrderID)
			sell, sellOK := book.GetOrder(tx.SellOrderID)
			if !buyOK || !sellOK {
				s.logger.WarnContext(ctx, "match references order no longer in book",
					logger.Field{Key: "symbol", Value: symbol},
					logger.Field{Key: "buy_order_id", Value: tx.BuyOrderID},
					logger.Field{Key: "sell_order_id", Value: tx.SellOrderID},
				)
				continue
			}

			if err := tx.Apply(buy, sell); err != nil {
				s.logger.WarnContext(ctx, "transaction could not be applied",
					logger.Field{Key: "symbol", Value: symbol},
					logger.Field{Key: "transaction_id", Value: tx.ID},
					logger.Field{Key: "error", Value: err.Error()},
				)
				continue
			}

			applied = append(applied, tx)

			s.logger.InfoContext(ctx, "transaction applied",
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "transaction_id", Value: tx.ID},
				logger.Field{Key: "buy_order_id", Value: tx.BuyOrderID},
				logger.Field{Key: "sell_order_id", Value: tx.SellOrderID},
				logger.Field{Key: "quantity", Value: tx.Quantity},
				logger.Field{Key: "price", Value: tx.Price.String()},
				logger.Field{Key: "notional", Value: tx.Notional.String()},
			)
		}

		// Filled orders stay inactive in place until pruned here.
		if removed := book.RemoveInactiveOrders(); removed > 0 {
			s.logger.DebugContext(ctx, "pruned settled orders",
				logger.Field{Key: "symbol", Value: symbol},
				logger.Field{Key: "removed", Value: removed},
			)
		}
		return nil
	})
	if err != nil {
		return applied, err
	}

	return applied, nil
}

package orderbook

import (
	"github.com/google/btree"
	orderbookv1 "github.com/quantfold/exchange-sim/internal/domain/orderbook/v1"
	"github.com/quantfold/exchange-sim/pkg/money"
)

// side indexes one side's price levels in a btree keyed by price.
// Bids treat the maximum price as best, asks the minimum.
type side struct {
	tree      *btree.BTreeG[*orderbookv1.PriceLevel]
	bestIsMax bool
}

func newSide(bestIsMax bool) *side {
	return &side{
		tree: btree.NewG(32, func(a, b *orderbookv1.PriceLevel) bool {
			return a.Price().Amount.LessThan(b.Price().Amount)
		}),
		bestIsMax: bestIsMax,
	}
}

func (s *side) getOrCreate(price money.Money) *orderbookv1.PriceLevel {
	if level, ok := s.tree.Get(orderbookv1.NewPriceLevel(price)); ok {
		return level
	}

	level := orderbookv1.NewPriceLevel(price)
	s.tree.ReplaceOrInsert(level)
	return level
}

func (s *side) get(price money.Money) (*orderbookv1.PriceLevel, bool) {
	return s.tree.Get(orderbookv1.NewPriceLevel(price))
}

func (s *side) remove(price money.Money) {
	s.tree.Delete(orderbookv1.NewPriceLevel(price))
}

// best returns the highest-priority level: the maximum price for bids,
// the minimum for asks.
func (s *side) best() (*orderbookv1.PriceLevel, bool) {
	if s.bestIsMax {
		return s.tree.Max()
	}
	return s.tree.Min()
}

// levels returns up to n price levels ordered best-first.
// A non-positive n returns all levels.
func (s *side) levels(n int) []*orderbookv1.PriceLevel {
	capacity := n
	if capacity <= 0 || capacity > s.tree.Len() {
		capacity = s.tree.Len()
	}
	collected := make([]*orderbookv1.PriceLevel, 0, capacity)

	iterator := func(level *orderbookv1.PriceLevel) bool {
		if n > 0 && len(collected) >= n {
			return false
		}
		collected = append(collected, level)
		return true
	}

	if s.bestIsMax {
		s.tree.Descend(iterator)
	} else {
		s.tree.Ascend(iterator)
	}
	return collected
}

package book

import "github.com/tidwall/btree"

// ladder is one side of the book: a balanced ordered map from price to
// PriceLevel (spec §3 "Side ladder"), giving O(log P) insert/remove of
// a level and O(1) access to the best level via the underlying tree's
// cached min/max node. Grounded directly on the teacher's
// internal/engine/orderbook.go, which keys its bid/ask ladders on
// `btree.BTreeG[*PriceLevel]` with a per-side comparator.
type ladder struct {
	tree *btree.BTreeG[*PriceLevel]
	side Side
}

// newBidLadder orders levels with the highest price first (best-bid =
// max price), matching the teacher's `a.priceLevel > b.priceLevel`.
func newBidLadder() *ladder {
	return &ladder{
		side: Bid,
		tree: btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price > b.Price }),
	}
}

// newAskLadder orders levels with the lowest price first (best-ask =
// min price), matching the teacher's `a.priceLevel < b.priceLevel`.
func newAskLadder() *ladder {
	return &ladder{
		side: Ask,
		tree: btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price < b.Price }),
	}
}

// best returns the touch level without copy-on-write semantics.
func (l *ladder) best() (*PriceLevel, bool) { return l.tree.Min() }

// bestMut returns the touch level for in-place mutation.
func (l *ladder) bestMut() (*PriceLevel, bool) { return l.tree.MinMut() }

func (l *ladder) bestPrice() (uint64, bool) {
	lvl, ok := l.tree.Min()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

// getOrCreate returns the level at price, creating an empty one (and
// inserting it into the tree) if it did not already exist.
func (l *ladder) getOrCreate(price uint64) *PriceLevel {
	key := &PriceLevel{Price: price}
	if lvl, ok := l.tree.GetMut(key); ok {
		return lvl
	}
	lvl := newPriceLevel(price, l.side)
	l.tree.Set(lvl)
	return lvl
}

// removeIfEmpty drops a level from the ladder once it has no resident
// orders left (spec §3 PriceLevel invariant: empty levels are removed).
func (l *ladder) removeIfEmpty(lvl *PriceLevel) {
	if lvl.empty() {
		l.tree.Delete(lvl)
	}
}

// topN walks up to n levels from the touch outward, in ladder order,
// for the OrderBook.Level2 accessor.
func (l *ladder) topN(n int) []*PriceLevel {
	out := make([]*PriceLevel, 0, n)
	l.tree.Scan(func(lvl *PriceLevel) bool {
		out = append(out, lvl)
		return len(out) < n
	})
	return out
}

// totalOrderCount sums OrderCount across every level in the ladder,
// for OrderBook.RestingOrderCount.
func (l *ladder) totalOrderCount() int {
	total := 0
	l.tree.Scan(func(lvl *PriceLevel) bool {
		total += lvl.OrderCount()
		return true
	})
	return total
}

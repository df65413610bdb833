package book

import "container/list"

// PriceLevel holds the resident orders at one price, in strict
// arrival-time (FIFO) order (spec §3 PriceLevel).
//
// The teacher's own ladder (internal/engine/orderbook.go) keeps a
// plain []*Order per level and achieves O(1) removal only from the
// front of the slice (`bestAsk.orders = bestAsk.orders[aIdx:]`). §9
// requires O(1) cancel-by-id from *any* queue position, so the FIFO
// here is a container/list, with each Order holding the *list.Element
// that is its own back-handle.
type PriceLevel struct {
	Price uint64
	Side  Side

	queue       *list.List
	totalVolume uint64
}

func newPriceLevel(price uint64, side Side) *PriceLevel {
	return &PriceLevel{Price: price, Side: side, queue: list.New()}
}

// TotalVolume is the sum of remaining_volume across resident orders
// at this level (spec §3 PriceLevel derived field).
func (pl *PriceLevel) TotalVolume() uint64 { return pl.totalVolume }

// OrderCount is the number of resident orders at this level.
func (pl *PriceLevel) OrderCount() int { return pl.queue.Len() }

func (pl *PriceLevel) empty() bool { return pl.queue.Len() == 0 }

func (pl *PriceLevel) frontElement() *list.Element { return pl.queue.Front() }

// push appends a newly-admitted resting order to the back of the FIFO.
func (pl *PriceLevel) push(o *Order) *list.Element {
	el := pl.queue.PushBack(o)
	pl.totalVolume += o.RemainingVolume
	return el
}

// remove unlinks el in O(1), regardless of its position in the queue.
func (pl *PriceLevel) remove(el *list.Element) {
	o := el.Value.(*Order)
	pl.totalVolume -= o.RemainingVolume
	pl.queue.Remove(el)
}

// decrementVolume adjusts the cached total when a resident order at
// this level is partially consumed (or voluntarily reduced by a
// downward modify) without leaving the queue.
func (pl *PriceLevel) decrementVolume(by uint64) {
	pl.totalVolume -= by
}

package metrics

import "glassbook/internal/book"

// TraderExecutionMetrics holds computed execution-quality metrics for
// a single trader (SPEC_FULL.md §5, supplemented feature). Grounded
// on akshitanchan-execution-fairness-simulator's internal/metrics/
// collector.go TraderMetrics, trimmed to what this book's event/trade
// log can actually support (no decision-time or signal model exists
// in this spec, so slippage/adverse-selection fields are dropped).
type TraderExecutionMetrics struct {
	TraderID           uint32
	Fills              int
	TotalVolumeFilled  uint64
	CancelsBeforeFill  int
	AvgFillLatencyTick float64
}

// ExecutionCollector accumulates per-trader execution-quality metrics
// from a book's event and trade logs. It is a read path layered over
// the same logs §4.3 already records; it changes no book behaviour.
type ExecutionCollector struct {
	accum map[uint32]*execAccum
}

type execAccum struct {
	fills             int
	totalVolume       uint64
	totalLatencyTicks uint64
	arrivalByOrder    map[uint64]uint64
	filledOrders      map[uint64]bool
	cancelledOrders   map[uint64]bool
}

// NewExecutionCollector creates an empty collector.
func NewExecutionCollector() *ExecutionCollector {
	return &ExecutionCollector{accum: make(map[uint32]*execAccum)}
}

func (c *ExecutionCollector) getAccum(trader uint32) *execAccum {
	a, ok := c.accum[trader]
	if !ok {
		a = &execAccum{
			arrivalByOrder:  make(map[uint64]uint64),
			filledOrders:    make(map[uint64]bool),
			cancelledOrders: make(map[uint64]bool),
		}
		c.accum[trader] = a
	}
	return a
}

// Ingest walks a book's current order arena plus its trade log and
// folds them into the running per-trader accumulators. Safe to call
// repeatedly on a growing log; it recomputes from scratch each time.
func (c *ExecutionCollector) Ingest(b *book.OrderBook) {
	c.accum = make(map[uint32]*execAccum)

	ordersByID := make(map[uint64]book.Order)
	for _, ev := range b.Events() {
		if ev.Kind != book.EventAccepted {
			continue
		}
		if o, ok := b.OrderByID(ev.OrderID); ok {
			ordersByID[ev.OrderID] = o
			a := c.getAccum(o.TraderID)
			a.arrivalByOrder[ev.OrderID] = o.ArrivalTime
		}
	}

	for _, ev := range b.Events() {
		if ev.Kind == book.EventCancelled {
			if o, ok := ordersByID[ev.OrderID]; ok {
				c.getAccum(o.TraderID).cancelledOrders[ev.OrderID] = true
			}
		}
	}

	for _, t := range b.Trades() {
		if resting, ok := ordersByID[t.RestingOrderID]; ok {
			a := c.getAccum(resting.TraderID)
			a.fills++
			a.totalVolume += t.Volume
			a.filledOrders[t.RestingOrderID] = true
			if arrival, ok := a.arrivalByOrder[t.RestingOrderID]; ok && t.Time >= arrival {
				a.totalLatencyTicks += t.Time - arrival
			}
		}
		if aggressor, ok := ordersByID[t.AggressorOrderID]; ok {
			a := c.getAccum(aggressor.TraderID)
			a.fills++
			a.totalVolume += t.Volume
			a.filledOrders[t.AggressorOrderID] = true
		}
	}
}

// Compute finalizes metrics for every trader observed so far.
func (c *ExecutionCollector) Compute() map[uint32]TraderExecutionMetrics {
	out := make(map[uint32]TraderExecutionMetrics, len(c.accum))
	for trader, a := range c.accum {
		m := TraderExecutionMetrics{
			TraderID:          trader,
			Fills:             a.fills,
			TotalVolumeFilled: a.totalVolume,
		}
		if a.fills > 0 {
			m.AvgFillLatencyTick = float64(a.totalLatencyTicks) / float64(a.fills)
		}
		for orderID := range a.cancelledOrders {
			if !a.filledOrders[orderID] {
				m.CancelsBeforeFill++
			}
		}
		out[trader] = m
	}
	return out
}

// Package stepenv implements the discrete-event step driver (spec
// §4.3 StepEnv): agents enqueue instructions against a shared clock,
// and each Step shuffles the queued instructions before applying them
// in that shuffled order, so no agent's instruction has a structural
// ordering advantage within a step.
//
// Grounded on the teacher's worker-pool dispatch loop
// (internal/worker.go) for the enqueue/drain shape, generalized from
// a goroutine-fed channel to a single-threaded per-step slice since
// §5 requires strictly synchronous, cooperative stepping.
package stepenv

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"glassbook/internal/book"
	"glassbook/internal/metrics"
	"glassbook/internal/rng"
)

// instrKind tags a queued instruction (spec §4.3 "Instruction queue").
type instrKind int

const (
	instrPlaceLimit instrKind = iota
	instrPlaceMarket
	instrCancel
	instrModify
)

// instruction is a single queued, not-yet-applied action. OrderID is
// reserved at enqueue time so a later instruction in the same step
// (e.g. a cancel of an order placed earlier in the same step) can
// name it before it executes. If the shuffle applies such a cancel
// before the placement, the book reports the id as unknown, the cancel
// is logged and dropped, and the order is then placed as usual.
type instruction struct {
	kind     instrKind
	orderID  uint64
	side     book.Side
	volume   uint64
	trader   uint32
	price    uint64
	newVol   *uint64
	newPrice *uint64
}

// StepRecord is the per-step market-data summary (spec §4.3
// "Per-step recording"): touch prices/volumes at step end, the full
// level-2 vector, and trade activity observed during the step. This
// is the literal time series Runner.Run returns for RL training, so
// every field level_1/level_2 tabulate belongs here, not just prices.
type StepRecord struct {
	StepIndex      uint64
	EndTime        uint64
	BestBidPrice   uint64
	BestBidVolume  uint64
	BestBidOrders  int
	BestBidExists  bool
	BestAskPrice   uint64
	BestAskVolume  uint64
	BestAskOrders  int
	BestAskExists  bool
	Bids           [10]book.LevelEntry
	Asks           [10]book.LevelEntry
	TradeVolume    uint64
	MeanTradePrice float64
	TradeCount     int
}

// StepEnv drives a book through fixed-length steps: agents enqueue
// instructions via the Enqueue* methods, then Step shuffles and
// applies the queue and advances the clock to the step boundary.
type StepEnv struct {
	b        *book.OrderBook
	stepSize uint64
	queue    []instruction
	step     uint64

	collector *metrics.Collector
	logger    zerolog.Logger
}

// New constructs a StepEnv over an existing book. step_size must be
// positive (spec §4.3 constructor validation).
func New(b *book.OrderBook, stepSize uint64) (*StepEnv, error) {
	if stepSize == 0 {
		return nil, fmt.Errorf("%w: step_size must be positive", book.ErrConfigError)
	}
	return &StepEnv{
		b:        b,
		stepSize: stepSize,
		logger:   log.With().Str("component", "stepenv").Logger(),
	}, nil
}

// Book exposes the underlying order book for read-only queries.
func (e *StepEnv) Book() *book.OrderBook { return e.b }

// WithMetrics attaches a passive metrics collector: every Step, once
// applied, reports its trade count, resting order count, duration in
// ticks, and touch prices to c (SPEC_FULL.md §4.3). Returns e for
// chaining at construction time.
func (e *StepEnv) WithMetrics(c *metrics.Collector) *StepEnv {
	e.collector = c
	return e
}

// EnqueueLimit reserves an order id and queues a limit instruction
// for the next Step (spec §4.3 "Reserved ids").
func (e *StepEnv) EnqueueLimit(side book.Side, volume uint64, trader uint32, price uint64) uint64 {
	id := e.b.ReserveOrderID()
	e.queue = append(e.queue, instruction{kind: instrPlaceLimit, orderID: id, side: side, volume: volume, trader: trader, price: price})
	return id
}

// EnqueueMarket reserves an order id and queues a market instruction.
func (e *StepEnv) EnqueueMarket(side book.Side, volume uint64, trader uint32) uint64 {
	id := e.b.ReserveOrderID()
	e.queue = append(e.queue, instruction{kind: instrPlaceMarket, orderID: id, side: side, volume: volume, trader: trader})
	return id
}

// EnqueueCancel queues a cancel of a previously issued order id,
// including one reserved earlier in the same step.
func (e *StepEnv) EnqueueCancel(orderID uint64) {
	e.queue = append(e.queue, instruction{kind: instrCancel, orderID: orderID})
}

// EnqueueModify queues a volume/price modify of a previously issued
// order id.
func (e *StepEnv) EnqueueModify(orderID uint64, newVolume, newPrice *uint64) {
	e.queue = append(e.queue, instruction{kind: instrModify, orderID: orderID, newVol: newVolume, newPrice: newPrice})
}

// QueueLen reports the number of instructions queued for the next Step.
func (e *StepEnv) QueueLen() int { return len(e.queue) }

// Step shuffles the queued instructions with src, applies each in the
// shuffled order (advancing the clock by one tick per instruction),
// then jumps the clock to the step boundary and returns the per-step
// market-data summary (spec §4.3).
func (e *StepEnv) Step(src *rng.Source) (StepRecord, error) {
	src.Shuffle(len(e.queue), func(i, j int) {
		e.queue[i], e.queue[j] = e.queue[j], e.queue[i]
	})

	startTime := e.b.Now()
	tradesBefore := len(e.b.Trades())

	for _, ins := range e.queue {
		if err := e.b.SetTime(e.b.Now() + 1); err != nil {
			return StepRecord{}, err
		}
		if err := e.apply(ins); err != nil {
			e.logger.Warn().Err(err).Uint64("order_id", ins.orderID).Msg("instruction rejected")
		}
	}
	e.queue = e.queue[:0]

	boundary := e.stepBoundary(startTime)
	if err := e.b.SetTime(boundary); err != nil {
		return StepRecord{}, err
	}

	rec := e.summarize(tradesBefore)
	if e.collector != nil {
		e.collector.ObserveStep(rec.TradeCount, e.b.RestingOrderCount(), boundary-startTime, rec.BestBidPrice, rec.BestAskPrice)
	}
	e.step++
	return rec, nil
}

// stepBoundary returns the first multiple of step_size strictly after
// the step's opening time start, or, when the step's instructions ran
// the clock past that, the first multiple at or after the current time.
func (e *StepEnv) stepBoundary(start uint64) uint64 {
	n := e.b.Now()
	if n <= start {
		n = start + 1
	}
	rem := n % e.stepSize
	if rem == 0 {
		return n
	}
	return n + (e.stepSize - rem)
}

func (e *StepEnv) apply(ins instruction) error {
	switch ins.kind {
	case instrPlaceLimit:
		return e.b.AdmitLimit(ins.orderID, ins.side, ins.volume, ins.trader, ins.price)
	case instrPlaceMarket:
		return e.b.AdmitMarket(ins.orderID, ins.side, ins.volume, ins.trader)
	case instrCancel:
		return e.b.Cancel(ins.orderID)
	case instrModify:
		return e.b.Modify(ins.orderID, ins.newVol, ins.newPrice)
	default:
		return fmt.Errorf("stepenv: unknown instruction kind %d", ins.kind)
	}
}

func (e *StepEnv) summarize(tradesBefore int) StepRecord {
	rec := StepRecord{
		StepIndex: e.step,
		EndTime:   e.b.Now(),
	}

	bidPrice, bidVol, bidOrders, askPrice, askVol, askOrders := e.b.Level1()
	if bidOrders > 0 {
		rec.BestBidPrice, rec.BestBidVolume, rec.BestBidOrders, rec.BestBidExists = bidPrice, bidVol, bidOrders, true
	}
	if askOrders > 0 {
		rec.BestAskPrice, rec.BestAskVolume, rec.BestAskOrders, rec.BestAskExists = askPrice, askVol, askOrders, true
	}

	rec.Bids, rec.Asks = e.b.Level2()

	trades := e.b.Trades()
	stepTrades := trades[tradesBefore:]
	rec.TradeCount = len(stepTrades)
	var volSum uint64
	var priceVolSum float64
	for _, t := range stepTrades {
		volSum += t.Volume
		priceVolSum += float64(t.Price) * float64(t.Volume)
	}
	rec.TradeVolume = volSum
	if volSum > 0 {
		rec.MeanTradePrice = priceVolSum / float64(volSum)
	}
	return rec
}

// Level1Data returns the touch price, volume and order count for both
// sides (spec §4.3 level_1_data pass-through to §4.2 level_1).
func (e *StepEnv) Level1Data() (bidPrice, bidVol uint64, bidOrders int, askPrice, askVol uint64, askOrders int) {
	return e.b.Level1()
}

// Level2Data returns the top 10 levels per side as a fixed-width,
// zero-padded vector (spec §4.3 level_2_data pass-through to §4.2
// level_2).
func (e *StepEnv) Level2Data() (bids, asks [10]book.LevelEntry) {
	return e.b.Level2()
}

// OrderByID exposes the book's order-by-id query to agents without
// handing them the book itself.
func (e *StepEnv) OrderByID(id uint64) (book.Order, bool) {
	return e.b.OrderByID(id)
}

// GetPrices returns the sequence of trade prices recorded so far
// (spec §4.3 get_prices pass-through).
func (e *StepEnv) GetPrices() []uint64 {
	trades := e.b.Trades()
	out := make([]uint64, len(trades))
	for i, t := range trades {
		out[i] = t.Price
	}
	return out
}

// Package agent defines the contract between a StepEnv and the
// decision-making participants driving it (spec §4.4 Agent).
//
// An agent never touches the book directly: it only sees a restricted
// EnvView and only mutates the book by calling the view's enqueue
// methods, keeping every book mutation routed through the env's
// per-step shuffle. Grounded on the teacher's worker-pool dispatch
// (internal/worker.go), which hands each connection a narrow view of
// shared state rather than the engine itself.
package agent

import (
	"glassbook/internal/book"
	"glassbook/internal/rng"
)

// EnvView is the read/enqueue surface an agent is allowed: read-only
// book queries plus write-only instruction enqueueing. It never
// exposes Step itself — only the runner drives steps.
type EnvView interface {
	Level1Data() (bidPrice, bidVol uint64, bidOrders int, askPrice, askVol uint64, askOrders int)
	Level2Data() (bids, asks [10]book.LevelEntry)
	GetPrices() []uint64
	OrderByID(id uint64) (book.Order, bool)

	EnqueueLimit(side book.Side, volume uint64, trader uint32, price uint64) uint64
	EnqueueMarket(side book.Side, volume uint64, trader uint32) uint64
	EnqueueCancel(orderID uint64)
	EnqueueModify(orderID uint64, newVolume, newPrice *uint64)
}

// Agent is the scalar per-step decision contract (spec §4.4
// "Agent: update(rng, env_view)"). Update is called once per step
// per agent with a sub-seeded RNG unique to that (step, agent) pair.
type Agent interface {
	TraderID() uint32
	Update(src *rng.Source, env EnvView)
}

// ActionTag encodes the numeric-array batch variant of an agent
// action (spec §4.4 "numeric-array batch variant"): a fixed-width
// row an external caller can produce without binding to Go types.
type ActionTag int

const (
	// ActionNoop: a no-op row, ignored by the batch applier.
	ActionNoop ActionTag = iota
	// ActionNewLimit: [tag, side, volume, price].
	ActionNewLimit
	// ActionCancel: [tag, order_id, 0, 0].
	ActionCancel
)

// BatchAction is one decoded row of a numeric-array agent batch.
type BatchAction struct {
	Tag     ActionTag
	Side    book.Side
	Volume  uint64
	Price   uint64
	OrderID uint64
}

// DecodeBatchRow decodes a fixed 4-element numeric row into a
// BatchAction. row is [tag, a, b, c]; the meaning of a/b/c depends on
// tag, matching the layout an external numeric-array caller would
// produce without any Go-side type binding (spec §4.4).
func DecodeBatchRow(row [4]uint64) BatchAction {
	switch ActionTag(row[0]) {
	case ActionNewLimit:
		return BatchAction{Tag: ActionNewLimit, Side: row[1] != 0, Volume: row[2], Price: row[3]}
	case ActionCancel:
		return BatchAction{Tag: ActionCancel, OrderID: row[1]}
	default:
		return BatchAction{Tag: ActionNoop}
	}
}

// ApplyBatch decodes and enqueues every non-noop row in rows against
// env, for the batch numeric-array agent variant (spec §4.4).
func ApplyBatch(env EnvView, trader uint32, rows [][4]uint64) {
	for _, row := range rows {
		act := DecodeBatchRow(row)
		switch act.Tag {
		case ActionNewLimit:
			env.EnqueueLimit(act.Side, act.Volume, trader, act.Price)
		case ActionCancel:
			env.EnqueueCancel(act.OrderID)
		}
	}
}

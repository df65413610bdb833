package book

import (
	"encoding/json"
	"fmt"

	"glassbook/internal/clock"
)

// OrderSnapshot is the JSON-serializable form of an arena order (spec
// §6 snapshot format, "orders[]"). nil entries (reserved but never
// admitted ids) serialize as null and are skipped on restore.
type OrderSnapshot struct {
	OrderID         uint64 `json:"order_id"`
	Side            Side   `json:"side"`
	Kind            Kind   `json:"kind"`
	Price           uint64 `json:"price"`
	OriginalVolume  uint64 `json:"original_volume"`
	RemainingVolume uint64 `json:"remaining_volume"`
	TraderID        uint32 `json:"trader_id"`
	Status          Status `json:"status"`
	ArrivalTime     uint64 `json:"arrival_time"`
}

// LadderLevelSnapshot is one price level's resident order ids, in
// FIFO order (spec §6, "bid_ladder[]"/"ask_ladder[]").
type LadderLevelSnapshot struct {
	Price    uint64   `json:"price"`
	OrderIDs []uint64 `json:"order_ids"`
}

// Snapshot is the complete, restorable state of a book (spec §6).
type Snapshot struct {
	StartTime   uint64                `json:"start_time"`
	TickSize    uint64                `json:"tick_size"`
	Clock       uint64                `json:"clock"`
	NextOrderID uint64                `json:"next_order_id"`
	Orders      []*OrderSnapshot      `json:"orders"`
	BidLadder   []LadderLevelSnapshot `json:"bid_ladder"`
	AskLadder   []LadderLevelSnapshot `json:"ask_ladder"`
	Trades      []Trade               `json:"trades"`
	Events      []Event               `json:"events"`
}

// Snapshot captures the book's full state as a value type (spec §6).
func (b *OrderBook) Snapshot() Snapshot {
	orders := make([]*OrderSnapshot, len(b.arena))
	for i, o := range b.arena {
		if o == nil {
			continue
		}
		orders[i] = &OrderSnapshot{
			OrderID:         o.OrderID,
			Side:            o.Side,
			Kind:            o.Kind,
			Price:           o.Price,
			OriginalVolume:  o.OriginalVolume,
			RemainingVolume: o.RemainingVolume,
			TraderID:        o.TraderID,
			Status:          o.Status,
			ArrivalTime:     o.ArrivalTime,
		}
	}

	return Snapshot{
		StartTime:   b.startTime,
		TickSize:    b.tickSize,
		Clock:       b.clk.Now(),
		NextOrderID: b.nextOrderID,
		Orders:      orders,
		BidLadder:   snapshotLadder(b.bids),
		AskLadder:   snapshotLadder(b.asks),
		Trades:      b.Trades(),
		Events:      b.Events(),
	}
}

func snapshotLadder(l *ladder) []LadderLevelSnapshot {
	var out []LadderLevelSnapshot
	l.tree.Scan(func(lvl *PriceLevel) bool {
		ids := make([]uint64, 0, lvl.OrderCount())
		for el := lvl.frontElement(); el != nil; el = el.Next() {
			ids = append(ids, el.Value.(*Order).OrderID)
		}
		out = append(out, LadderLevelSnapshot{Price: lvl.Price, OrderIDs: ids})
		return true
	})
	return out
}

// Marshal renders a snapshot to JSON (spec §6).
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot parses a snapshot previously produced by Marshal.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("book: unmarshal snapshot: %w", err)
	}
	return s, nil
}

// Restore rebuilds a live book from a snapshot, re-threading arena
// orders into fresh ladders and FIFOs in the exact order recorded
// (spec §8 round-trip law: Restore(Snapshot(b)) must reproduce b's
// externally observable state, including FIFO order within a level).
func Restore(s Snapshot) (*OrderBook, error) {
	b, err := New(s.StartTime, s.TickSize)
	if err != nil {
		return nil, err
	}
	b.clk = clock.New(s.Clock)
	b.nextOrderID = s.NextOrderID
	b.tradeLog = append([]Trade(nil), s.Trades...)
	b.eventLog = append([]Event(nil), s.Events...)

	b.arena = make([]*Order, len(s.Orders))
	for i, os := range s.Orders {
		if os == nil {
			continue
		}
		b.arena[i] = &Order{
			OrderID:         os.OrderID,
			Side:            os.Side,
			Kind:            os.Kind,
			Price:           os.Price,
			OriginalVolume:  os.OriginalVolume,
			RemainingVolume: os.RemainingVolume,
			TraderID:        os.TraderID,
			Status:          os.Status,
			ArrivalTime:     os.ArrivalTime,
		}
	}

	if err := restoreLadder(b, b.bids, s.BidLadder); err != nil {
		return nil, err
	}
	if err := restoreLadder(b, b.asks, s.AskLadder); err != nil {
		return nil, err
	}
	return b, nil
}

func restoreLadder(b *OrderBook, l *ladder, levels []LadderLevelSnapshot) error {
	for _, lvlSnap := range levels {
		lvl := l.getOrCreate(lvlSnap.Price)
		for _, id := range lvlSnap.OrderIDs {
			o, ok := b.orderAt(id)
			if !ok {
				return fmt.Errorf("book: snapshot references unknown order id %d in ladder", id)
			}
			el := lvl.push(o)
			o.level, o.elem = lvl, el
		}
	}
	return nil
}

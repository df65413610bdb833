package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T) *OrderBook {
	t.Helper()
	b, err := New(0, 1)
	require.NoError(t, err)
	return b
}

func TestPlaceLimit_RestsWhenNonCrossing(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceLimit(Bid, 10, 1, 100)
	require.NoError(t, err)

	o, ok := b.OrderByID(id)
	require.True(t, ok)
	assert.Equal(t, StatusActive, o.Status)
	assert.Equal(t, uint64(10), o.RemainingVolume)

	bp, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(100), bp)
	assert.Empty(t, b.Trades())
}

func TestPlaceLimit_CrossingProducesTrade(t *testing.T) {
	b := newTestBook(t)

	restID, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)

	aggID, err := b.PlaceLimit(Bid, 5, 2, 100)
	require.NoError(t, err)

	trades := b.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(100), trades[0].Price)
	assert.Equal(t, uint64(5), trades[0].Volume)
	assert.Equal(t, aggID, trades[0].AggressorOrderID)
	assert.Equal(t, restID, trades[0].RestingOrderID)

	resting, _ := b.OrderByID(restID)
	aggressor, _ := b.OrderByID(aggID)
	assert.Equal(t, StatusFilled, resting.Status)
	assert.Equal(t, StatusFilled, aggressor.Status)

	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}

func TestPlaceLimit_PartialFillLeavesRemainderResting(t *testing.T) {
	b := newTestBook(t)

	_, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)

	aggID, err := b.PlaceLimit(Bid, 8, 2, 100)
	require.NoError(t, err)

	agg, _ := b.OrderByID(aggID)
	assert.Equal(t, StatusPartiallyFilled, agg.Status)
	assert.Equal(t, uint64(3), agg.RemainingVolume)

	bp, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(100), bp)
}

func TestPlaceMarket_NoLiquidityCancelsImmediately(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceMarket(Bid, 10, 1)
	require.NoError(t, err)

	o, _ := b.OrderByID(id)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, uint64(10), o.RemainingVolume)
}

func TestPlaceMarket_SweepsAcrossLevels(t *testing.T) {
	b := newTestBook(t)

	_, err := b.PlaceLimit(Ask, 3, 1, 100)
	require.NoError(t, err)
	_, err = b.PlaceLimit(Ask, 3, 1, 101)
	require.NoError(t, err)

	id, err := b.PlaceMarket(Bid, 5, 2)
	require.NoError(t, err)

	o, _ := b.OrderByID(id)
	assert.Equal(t, StatusFilled, o.Status)

	trades := b.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(100), trades[0].Price)
	assert.Equal(t, uint64(3), trades[0].Volume)
	assert.Equal(t, uint64(101), trades[1].Price)
	assert.Equal(t, uint64(2), trades[1].Volume)
}

func TestFIFOPriority_SamePriceFillsArrivalOrder(t *testing.T) {
	b := newTestBook(t)

	first, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)
	second, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)

	_, err = b.PlaceLimit(Bid, 5, 2, 100)
	require.NoError(t, err)

	firstOrder, _ := b.OrderByID(first)
	secondOrder, _ := b.OrderByID(second)
	assert.Equal(t, StatusFilled, firstOrder.Status)
	assert.Equal(t, StatusActive, secondOrder.Status)
}

func TestAdmitLimit_RejectsOffTickPrice(t *testing.T) {
	b, err := New(0, 5)
	require.NoError(t, err)

	id, err := b.PlaceLimit(Bid, 10, 1, 102)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	o, ok := b.OrderByID(id)
	require.True(t, ok)
	assert.Equal(t, StatusRejected, o.Status)

	events := b.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, EventRejected, events[len(events)-1].Kind)
}

func TestAdmitLimit_RejectsZeroVolume(t *testing.T) {
	b := newTestBook(t)
	_, err := b.PlaceLimit(Bid, 0, 1, 100)
	assert.ErrorIs(t, err, ErrInvalidVolume)
}

func TestCancel_RemovesRestingOrder(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceLimit(Bid, 10, 1, 100)
	require.NoError(t, err)

	require.NoError(t, b.Cancel(id))

	o, _ := b.OrderByID(id)
	assert.Equal(t, StatusCancelled, o.Status)
	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancel_IsIdempotentNoopOnTerminalOrder(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceLimit(Bid, 10, 1, 100)
	require.NoError(t, err)
	require.NoError(t, b.Cancel(id))

	require.NoError(t, b.Cancel(id))

	events := b.Events()
	assert.Equal(t, EventCancelNoop, events[len(events)-1].Kind)
}

func TestCancel_UnknownIDIsError(t *testing.T) {
	b := newTestBook(t)
	err := b.Cancel(999)
	assert.ErrorIs(t, err, ErrUnknownOrderID)
}

func TestModify_DownwardVolumePreservesQueuePosition(t *testing.T) {
	b := newTestBook(t)

	first, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)
	second, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)

	newVol := uint64(2)
	require.NoError(t, b.Modify(first, &newVol, nil))

	_, err = b.PlaceLimit(Bid, 2, 2, 100)
	require.NoError(t, err)

	firstOrder, _ := b.OrderByID(first)
	secondOrder, _ := b.OrderByID(second)
	assert.Equal(t, StatusFilled, firstOrder.Status)
	assert.Equal(t, StatusActive, secondOrder.Status)
}

func TestModify_PriceChangeLosesTimePriority(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)

	newPrice := uint64(101)
	require.NoError(t, b.Modify(id, nil, &newPrice))

	original, _ := b.OrderByID(id)
	assert.Equal(t, StatusCancelled, original.Status)

	ap, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(101), ap)
}

func TestModify_StaleOrderIDFails(t *testing.T) {
	b := newTestBook(t)

	id, err := b.PlaceLimit(Bid, 10, 1, 100)
	require.NoError(t, err)
	require.NoError(t, b.Cancel(id))

	newVol := uint64(1)
	err = b.Modify(id, &newVol, nil)
	assert.ErrorIs(t, err, ErrStaleOrderID)
}

func TestSelfTradePrevention_SkipsOwnRestingOrder(t *testing.T) {
	b := newTestBook(t)
	b = b.WithSelfTradePolicy(STPSkipOpposing)

	restID, err := b.PlaceLimit(Ask, 5, 7, 100)
	require.NoError(t, err)

	_, err = b.PlaceLimit(Bid, 5, 7, 100)
	require.NoError(t, err)

	resting, _ := b.OrderByID(restID)
	assert.Equal(t, StatusActive, resting.Status)
	assert.Empty(t, b.Trades())
}

func TestSnapshotRestore_RoundTripPreservesObservableState(t *testing.T) {
	b := newTestBook(t)

	_, err := b.PlaceLimit(Ask, 5, 1, 100)
	require.NoError(t, err)
	_, err = b.PlaceLimit(Ask, 5, 1, 101)
	require.NoError(t, err)
	_, err = b.PlaceLimit(Bid, 3, 2, 100)
	require.NoError(t, err)

	snap := b.Snapshot()
	data, err := snap.Marshal()
	require.NoError(t, err)

	parsed, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	restored, err := Restore(parsed)
	require.NoError(t, err)

	origBid, origOk := b.BestBid()
	restBid, restOk := restored.BestBid()
	assert.Equal(t, origOk, restOk)
	assert.Equal(t, origBid, restBid)

	origAsk, _ := b.BestAsk()
	restAsk, _ := restored.BestAsk()
	assert.Equal(t, origAsk, restAsk)

	assert.Equal(t, b.Trades(), restored.Trades())
	assert.Equal(t, b.Now(), restored.Now())
}

func TestAssertInvariants_PassesOnConsistentBook(t *testing.T) {
	b := newTestBook(t)

	_, err := b.PlaceLimit(Bid, 10, 1, 99)
	require.NoError(t, err)
	_, err = b.PlaceLimit(Ask, 10, 2, 101)
	require.NoError(t, err)

	assert.NoError(t, b.AssertInvariants())
}

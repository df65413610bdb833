package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"glassbook/internal/book"
)

func TestCollector_ObserveStepUpdatesGauges(t *testing.T) {
	c := NewCollector()
	c.ObserveStep(2, 5, 10, 99, 101)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.tradesProcessed))
	assert.Equal(t, float64(5), testutil.ToFloat64(c.restingOrders))
	assert.Equal(t, float64(99), testutil.ToFloat64(c.bestBidPrice))
	assert.Equal(t, float64(101), testutil.ToFloat64(c.bestAskPrice))
}

func TestExecutionCollector_TracksFillsAndCancels(t *testing.T) {
	b, err := book.New(0, 1)
	require.NoError(t, err)

	_, err = b.PlaceLimit(book.Ask, 5, 1, 100)
	require.NoError(t, err)
	_, err = b.PlaceLimit(book.Bid, 5, 2, 100)
	require.NoError(t, err)

	cancelID, err := b.PlaceLimit(book.Bid, 3, 3, 90)
	require.NoError(t, err)
	require.NoError(t, b.Cancel(cancelID))

	ec := NewExecutionCollector()
	ec.Ingest(b)
	result := ec.Compute()

	assert.Equal(t, 1, result[1].Fills)
	assert.Equal(t, uint64(5), result[1].TotalVolumeFilled)
	assert.Equal(t, 1, result[3].CancelsBeforeFill)
}

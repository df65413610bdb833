package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassbook/internal/book"
	"glassbook/internal/stepenv"
)

func newTestEnv(t *testing.T) *stepenv.StepEnv {
	t.Helper()
	b, err := book.New(0, 1)
	require.NoError(t, err)
	e, err := stepenv.New(b, 10)
	require.NoError(t, err)
	return e
}

func TestDecodeBatchRow_NewLimit(t *testing.T) {
	act := DecodeBatchRow([4]uint64{uint64(ActionNewLimit), 1, 5, 100})
	assert.Equal(t, ActionNewLimit, act.Tag)
	assert.Equal(t, book.Bid, act.Side)
	assert.Equal(t, uint64(5), act.Volume)
	assert.Equal(t, uint64(100), act.Price)
}

func TestDecodeBatchRow_Cancel(t *testing.T) {
	act := DecodeBatchRow([4]uint64{uint64(ActionCancel), 42, 0, 0})
	assert.Equal(t, ActionCancel, act.Tag)
	assert.Equal(t, uint64(42), act.OrderID)
}

func TestDecodeBatchRow_UnknownTagIsNoop(t *testing.T) {
	act := DecodeBatchRow([4]uint64{99, 0, 0, 0})
	assert.Equal(t, ActionNoop, act.Tag)
}

func TestApplyBatch_EnqueuesDecodedActions(t *testing.T) {
	e := newTestEnv(t)

	rows := [][4]uint64{
		{uint64(ActionNewLimit), 1, 5, 100},
		{uint64(ActionNoop), 0, 0, 0},
	}
	ApplyBatch(e, 7, rows)

	assert.Equal(t, 1, e.QueueLen())
}

package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassbook/internal/agent"
	"glassbook/internal/book"
	"glassbook/internal/rng"
	"glassbook/internal/stepenv"
)

// postOnceAgent posts a single resting limit order on its first
// update and never acts again.
type postOnceAgent struct {
	trader uint32
	side   book.Side
	price  uint64
	done   bool
}

func (a *postOnceAgent) TraderID() uint32 { return a.trader }

func (a *postOnceAgent) Update(src *rng.Source, env agent.EnvView) {
	if a.done {
		return
	}
	env.EnqueueLimit(a.side, 5, a.trader, a.price)
	a.done = true
}

func newTestEnv(t *testing.T) *stepenv.StepEnv {
	t.Helper()
	b, err := book.New(0, 1)
	require.NoError(t, err)
	e, err := stepenv.New(b, 5)
	require.NoError(t, err)
	return e
}

func TestRun_DrivesFixedStepsAndRecordsCrossingTrade(t *testing.T) {
	e := newTestEnv(t)
	agents := []agent.Agent{
		&postOnceAgent{trader: 1, side: book.Bid, price: 100},
		&postOnceAgent{trader: 2, side: book.Ask, price: 100},
	}

	result, err := Run(e, agents, 3, 1234)
	require.NoError(t, err)
	require.Len(t, result.Steps, 3)

	var totalVolume uint64
	for _, rec := range result.Steps {
		totalVolume += rec.TradeVolume
	}
	assert.Equal(t, uint64(5), totalVolume)
}

func TestRun_IsDeterministicForFixedSeed(t *testing.T) {
	e1 := newTestEnv(t)
	e2 := newTestEnv(t)

	mk := func() []agent.Agent {
		return []agent.Agent{
			&postOnceAgent{trader: 1, side: book.Bid, price: 100},
			&postOnceAgent{trader: 2, side: book.Ask, price: 100},
		}
	}

	r1, err := Run(e1, mk(), 4, 99)
	require.NoError(t, err)
	r2, err := Run(e2, mk(), 4, 99)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
}

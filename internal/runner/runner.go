// Package runner drives a fixed number of simulation steps over a
// StepEnv and a set of agents (spec §4.5 Runner).
//
// Grounded on the pack's own simulation-harness runner
// (akshitanchan-execution-fairness-simulator's internal/sim/runner.go
// Runner/RunResult), adapted from its priority-queue event loop to
// the spec's fixed-length outer step loop, since §4.3 defines StepEnv
// around discrete steps rather than scheduled timestamps.
package runner

import (
	"glassbook/internal/agent"
	"glassbook/internal/rng"
	"glassbook/internal/stepenv"
)

// RunResult is the output of a completed run: one StepRecord per step,
// in order (spec §4.5 "returning recorded time series").
type RunResult struct {
	Steps []stepenv.StepRecord
}

// Run seeds a master RNG from seed, then for each of nSteps steps:
// derives an independent sub-seed per agent (keyed by step index and
// agent position), calls that agent's Update, and finally steps the
// environment with the master stream (spec §4.5). Agent iteration
// order is the order of the agents slice; only the instructions each
// agent enqueues are shuffled by Step, not the agents themselves.
func Run(env *stepenv.StepEnv, agents []agent.Agent, nSteps int, seed uint64) (RunResult, error) {
	master := rng.New(seed)
	result := RunResult{Steps: make([]stepenv.StepRecord, 0, nSteps)}

	for step := 0; step < nSteps; step++ {
		for i, a := range agents {
			tag := agentStepTag(uint64(step), uint64(i))
			a.Update(master.Derive(tag), env)
		}

		rec, err := env.Step(master)
		if err != nil {
			return result, err
		}
		result.Steps = append(result.Steps, rec)
	}

	return result, nil
}

// agentStepTag packs (step, agentIndex) into one uint64 so Derive
// produces a distinct, reproducible sub-seed per agent per step
// (spec §4.1, §4.5).
func agentStepTag(step, agentIndex uint64) uint64 {
	return step<<32 | (agentIndex & 0xFFFFFFFF)
}

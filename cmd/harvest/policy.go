package main

import (
	"fmt"
	"math/rand"

	"harvest.world/internal/sim/engine"
)

// policy picks one joint action per step. Built-in policies are scripted
// stand-ins for a learner; the engine does not know which one is driving.
type policy func(rng *rand.Rand, n int) []engine.Action

func policyFunc(name string) (policy, error) {
	switch name {
	case "random":
		all := engine.Actions()
		return func(rng *rand.Rand, n int) []engine.Action {
			out := make([]engine.Action, n)
			for i := range out {
				out[i] = all[rng.Intn(len(all))]
			}
			return out
		}, nil
	case "forward":
		// Mostly walk, sometimes turn; enough to sweep a map for smoke runs.
		return func(rng *rand.Rand, n int) []engine.Action {
			out := make([]engine.Action, n)
			for i := range out {
				switch r := rng.Float64(); {
				case r < 0.7:
					out[i] = engine.Forward
				case r < 0.85:
					out[i] = engine.TurnLeft
				default:
					out[i] = engine.TurnRight
				}
			}
			return out
		}, nil
	case "noop":
		return func(_ *rand.Rand, n int) []engine.Action {
			return make([]engine.Action, n)
		}, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (want random, forward or noop)", name)
	}
}

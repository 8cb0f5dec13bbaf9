// Package engine implements the harvest commons-dilemma environment: a
// fixed grid of walls and resource sites, a set of agents that move, turn
// and zap, density-driven stochastic resource regrowth, and egocentric RGB
// observations. One Simulation owns one episode; instances share nothing,
// so independent episodes can run on as many goroutines as the caller
// likes — each with its own seed.
package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"

	"harvest.world/internal/sim/layout"
)

type simState uint8

const (
	stateUninitialized simState = iota
	stateReady
	stateTerminated
)

type Simulation struct {
	cfg Config

	state     simState
	grid      *Grid
	agents    []*Agent
	rng       *rand.Rand
	stepCount int

	taxCollected float64
}

// StepResult is everything a policy gets back from one step.
type StepResult struct {
	Obs     []Observation
	Rewards []float64
	Done    bool
	Info    StepInfo
}

type StepInfo struct {
	Step      int
	Collected []int // apples collected this step, per agent
	Regrown   int
	Zaps      []ZapEvent
	Tax       float64 // tax withheld this step across all agents
}

// New validates cfg (after filling defaults) and returns an Uninitialized
// simulation. Call Reset to build the episode.
func New(cfg Config) (*Simulation, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Simulation{cfg: cfg}, nil
}

// Config returns the effective configuration, defaults applied. The caller
// persists this verbatim next to run outputs for reproducibility.
func (s *Simulation) Config() Config { return s.cfg }

// Reset builds grid, agents and the random stream from the configured seed
// and returns the initial per-agent observations. It is valid in any state
// and is the only way out of Terminated.
func (s *Simulation) Reset() ([]Observation, error) {
	return s.ResetSeed(s.cfg.Seed)
}

// ResetSeed is Reset with a different reproducibility key, used by runners
// that derive one seed per episode.
func (s *Simulation) ResetSeed(seed int64) ([]Observation, error) {
	parsed, err := layout.Parse(s.cfg.Layout, seed)
	if err != nil {
		return nil, configErrf("initial_layout", "%v", err)
	}
	if err := s.cfg.validateLayout(parsed); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	agents := make([]*Agent, s.cfg.NumAgents)
	for i := range agents {
		sp := parsed.Spawns[i]
		agents[i] = &Agent{
			Index:  i,
			Row:    sp[0],
			Col:    sp[1],
			Facing: Orientation(rng.Intn(4)),
		}
	}

	// Nothing failed; commit the new episode atomically.
	s.cfg.Seed = seed
	s.grid = newGrid(parsed, s.cfg.RegrowthRadius)
	s.agents = agents
	s.rng = rng
	s.stepCount = 0
	s.taxCollected = 0
	s.state = stateReady
	return s.renderAll(), nil
}

// Step advances the episode by one joint action. Phase order is fixed:
// freeze bookkeeping, turns, movement, zaps, collection, regrowth,
// termination. On an ActionError no state has been touched.
func (s *Simulation) Step(actions []Action) (StepResult, error) {
	switch s.state {
	case stateUninitialized:
		return StepResult{}, ErrNotReady
	case stateTerminated:
		return StepResult{}, ErrTerminated
	}
	if len(actions) != len(s.agents) {
		return StepResult{}, &ActionError{Agent: -1, Reason: fmt.Sprintf("got %d actions for %d agents", len(actions), len(s.agents))}
	}
	for i, a := range actions {
		if !a.Valid() {
			return StepResult{}, &ActionError{Agent: i, Reason: fmt.Sprintf("out-of-range action %d", uint8(a))}
		}
	}

	// Frozen agents are coerced to NoOp, then thaw by one. Ordering matters:
	// an agent zapped later this same step must keep the full duration.
	effective := make([]Action, len(actions))
	copy(effective, actions)
	for i, a := range s.agents {
		if a.FrozenRemaining > 0 {
			effective[i] = NoOp
			a.FrozenRemaining--
		}
	}

	s.resolveMoves(effective)
	zaps := s.resolveZaps(effective)

	rewards := make([]float64, len(s.agents))
	collected := make([]int, len(s.agents))
	var stepTax float64
	for i, a := range s.agents {
		ci := s.grid.Index(a.Row, a.Col)
		if s.grid.cells[ci] == siteCell && s.grid.occupied[ci] {
			s.grid.setOccupied(ci, false)
			a.Apples++
			collected[i]++
			reward := 1.0
			if tax := s.taxOn(a); tax > 0 {
				reward -= tax
				stepTax += tax
			}
			rewards[i] += reward
		}
	}
	for _, z := range zaps {
		rewards[z.Zapper] -= s.cfg.ZapPenalty
	}

	regrown := s.regrow()

	for i, a := range s.agents {
		a.CumulativeReward += rewards[i]
	}
	s.taxCollected += stepTax

	s.stepCount++
	done := s.stepCount == s.cfg.Horizon
	if done {
		s.state = stateTerminated
	}

	return StepResult{
		Obs:     s.renderAll(),
		Rewards: rewards,
		Done:    done,
		Info: StepInfo{
			Step:      s.stepCount,
			Collected: collected,
			Regrown:   regrown,
			Zaps:      zaps,
			Tax:       stepTax,
		},
	}, nil
}

// taxOn returns the principal's cut of one freshly collected apple.
func (s *Simulation) taxOn(a *Agent) float64 {
	t := s.cfg.Tax
	if t == nil || t.Objective != ObjectiveEgalitarian {
		return 0
	}
	if a.Apples > t.Threshold {
		return t.Rate
	}
	return 0
}

func (s *Simulation) StepCount() int       { return s.stepCount }
func (s *Simulation) Done() bool           { return s.state == stateTerminated }
func (s *Simulation) TaxCollected() float64 { return s.taxCollected }

// Agents exposes the live agent states, for tests and observers. Callers
// must not mutate.
func (s *Simulation) Agents() []*Agent { return s.agents }

// Grid exposes the live grid, same caveat as Agents.
func (s *Simulation) Grid() *Grid { return s.grid }

// Digest is a sha256 over the canonical engine state: step count, site
// occupancy and agent tuples. Two runs with the same config, seed and action
// history produce identical digests at every step.
func (s *Simulation) Digest() string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(s.stepCount))
	put(uint64(s.grid.H))
	put(uint64(s.grid.W))
	for i, occ := range s.grid.occupied {
		if occ {
			put(uint64(i))
		}
	}
	for _, a := range s.agents {
		put(uint64(a.Row))
		put(uint64(a.Col))
		put(uint64(a.Facing))
		put(uint64(a.FrozenRemaining))
		put(uint64(a.Apples))
		put(math.Float64bits(a.CumulativeReward))
	}
	return hex.EncodeToString(h.Sum(nil))
}

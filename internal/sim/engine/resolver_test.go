package engine

import (
	"testing"

	"harvest.world/internal/sim/layout"
)

func newTestSim(t *testing.T, rows []string, agents int, mod func(*Config)) *Simulation {
	t.Helper()
	cfg := Config{
		NumAgents:      agents,
		ViewHeight:     5,
		ViewWidth:      5,
		RegrowthRadius: 1,
		RegrowthTable:  []float64{0, 0},
		Horizon:        1000,
		Seed:           7,
		Layout:         layout.Spec{AsciiMap: rows},
	}
	if mod != nil {
		mod(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return s
}

func at(t *testing.T, a *Agent, r, c int) {
	t.Helper()
	if a.Row != r || a.Col != c {
		t.Fatalf("agent %d at (%d,%d), want (%d,%d)", a.Index, a.Row, a.Col, r, c)
	}
}

func TestMoves_ChainSucceeds(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWW",
		"WPP.W",
		"WWWWW",
	}, 2, nil)
	s.agents[0].Facing = East // at (1,1)
	s.agents[1].Facing = East // at (1,2)

	if _, err := s.Step([]Action{Forward, Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, s.agents[0], 1, 2)
	at(t, s.agents[1], 1, 3)
}

func TestMoves_SwapDenied(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWW",
		"WPPW",
		"WWWW",
	}, 2, nil)
	s.agents[0].Facing = East
	s.agents[1].Facing = West

	if _, err := s.Step([]Action{Forward, Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, s.agents[0], 1, 1)
	at(t, s.agents[1], 1, 2)
}

func TestMoves_SharedDestinationDenied(t *testing.T) {
	// Scenario: both agents request the empty cell between them; both stay,
	// no error.
	s := newTestSim(t, []string{
		"WWWWW",
		"WP.PW",
		"WWWWW",
	}, 2, nil)
	s.agents[0].Facing = East
	s.agents[1].Facing = West

	if _, err := s.Step([]Action{Forward, Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, s.agents[0], 1, 1)
	at(t, s.agents[1], 1, 3)
}

func TestMoves_StationaryBlocksAndCascades(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWWW",
		"WPPP.W",
		"WWWWWW",
	}, 3, nil)
	for _, a := range s.agents {
		a.Facing = East
	}

	// Agent 2 stays put; agents 1 and 0 pile up behind it.
	if _, err := s.Step([]Action{Forward, Forward, NoOp}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, s.agents[0], 1, 1)
	at(t, s.agents[1], 1, 2)
	at(t, s.agents[2], 1, 3)
}

func TestMoves_WallAndBoundsDenied(t *testing.T) {
	s := newTestSim(t, []string{
		"P.W",
	}, 1, nil)
	a := s.agents[0]
	a.Facing = West // off the left edge
	if _, err := s.Step([]Action{Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, a, 0, 0)

	a.Facing = East
	if _, err := s.Step([]Action{Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, a, 0, 1)
	// Next cell is a wall.
	if _, err := s.Step([]Action{Forward}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, a, 0, 1)
}

func TestMoves_StrafeKeepsFacing(t *testing.T) {
	s := newTestSim(t, []string{
		"...",
		".P.",
		"...",
	}, 1, nil)
	a := s.agents[0]
	a.Facing = North

	if _, err := s.Step([]Action{StepRight}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, a, 1, 2)
	if a.Facing != North {
		t.Fatalf("strafe changed facing to %v", a.Facing)
	}

	if _, err := s.Step([]Action{TurnLeft}); err != nil {
		t.Fatalf("step: %v", err)
	}
	at(t, a, 1, 2)
	if a.Facing != West {
		t.Fatalf("turn left from north gave %v", a.Facing)
	}
}

func TestZap_HitsNearestAndFreezes(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWWWWW",
		"WP.PP..W",
		"WWWWWWWW",
	}, 3, func(c *Config) {
		c.ZapLength = 5
		c.FreezeDuration = 4
	})
	s.agents[0].Facing = East

	res, err := s.Step([]Action{Zap, NoOp, NoOp})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(res.Info.Zaps) != 1 {
		t.Fatalf("zap events %v, want one", res.Info.Zaps)
	}
	if z := res.Info.Zaps[0]; z.Zapper != 0 || z.Target != 1 {
		t.Fatalf("zap %+v, want zapper 0 target 1 (the nearer)", z)
	}
	if got := s.agents[1].FrozenRemaining; got != 4 {
		t.Fatalf("target frozen %d, want 4", got)
	}
	if got := s.agents[2].FrozenRemaining; got != 0 {
		t.Fatalf("far agent frozen %d, want 0", got)
	}
}

func TestZap_WallBlocks(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWWW",
		"WPW.PW",
		"WWWWWW",
	}, 2, nil)
	s.agents[0].Facing = East

	res, err := s.Step([]Action{Zap, NoOp})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(res.Info.Zaps) != 0 {
		t.Fatalf("beam passed through a wall: %v", res.Info.Zaps)
	}
}

func TestZap_WideBeam(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWWW",
		"WP...W",
		"W...PW",
		"WWWWWW",
	}, 2, func(c *Config) {
		c.ZapWidth = 3
		c.ZapLength = 4
	})
	s.agents[0].Facing = East // at (1,1); target at (2,4), one cell right of the beam axis

	res, err := s.Step([]Action{Zap, NoOp})
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(res.Info.Zaps) != 1 || res.Info.Zaps[0].Target != 1 {
		t.Fatalf("wide beam missed: %v", res.Info.Zaps)
	}
}

func TestZap_RefreezeResets(t *testing.T) {
	s := newTestSim(t, []string{
		"WWWWW",
		"WP.PW",
		"WWWWW",
	}, 2, func(c *Config) { c.FreezeDuration = 5 })
	s.agents[0].Facing = East

	if _, err := s.Step([]Action{Zap, NoOp}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := s.agents[1].FrozenRemaining; got != 5 {
		t.Fatalf("frozen %d, want 5", got)
	}
	// Two steps later the counter has thawed to 3; a second zap resets it to
	// 5 — it does not stack to 8.
	if _, err := s.Step([]Action{NoOp, NoOp}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if _, err := s.Step([]Action{Zap, NoOp}); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := s.agents[1].FrozenRemaining; got != 5 {
		t.Fatalf("re-freeze gave %d, want 5", got)
	}
}

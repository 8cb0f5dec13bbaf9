package engine

import "harvest.world/internal/sim/layout"

// Observation is an egocentric RGB view: Height*Width*3 bytes, row-major,
// with the agent's facing rotated to point up the window. Produced fresh on
// every call; never cached by the engine.
type Observation struct {
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Pix    []byte `json:"pix"`
}

type rgb [3]byte

// Fixed palette. Every distinguishable cell state gets its own color.
var (
	colorEmpty    = rgb{0, 0, 0}
	colorWall     = rgb{115, 115, 115}
	colorSite     = rgb{40, 64, 40} // site without a resource
	colorResource = rgb{0, 255, 0}
	colorSelf     = rgb{50, 100, 200}
	colorOther    = rgb{200, 40, 40}
	colorOOB      = rgb{24, 24, 48}
)

// renderView draws agent's egocentric window. View coordinates are mapped
// onto the grid by the rotation table implied by Facing: view-up is always
// the agent's forward direction, view-right its right hand.
func (s *Simulation) renderView(agent *Agent) Observation {
	vh, vw := s.cfg.ViewHeight, s.cfg.ViewWidth

	anchorRow := vh / 2
	if s.cfg.ViewAnchor == AnchorForward {
		anchorRow = vh - 1
	}
	anchorCol := vw / 2

	fr, fc := agent.Facing.Delta()
	rr, rc := agent.Facing.Right().Delta()

	obs := Observation{Height: vh, Width: vw, Pix: make([]byte, vh*vw*3)}
	for vr := 0; vr < vh; vr++ {
		for vc := 0; vc < vw; vc++ {
			ahead := anchorRow - vr  // cells in front of the agent
			side := vc - anchorCol   // cells to the agent's right
			r := agent.Row + fr*ahead + rr*side
			c := agent.Col + fc*ahead + rc*side
			col := s.cellColor(r, c, agent.Index)
			o := (vr*vw + vc) * 3
			obs.Pix[o], obs.Pix[o+1], obs.Pix[o+2] = col[0], col[1], col[2]
		}
	}
	return obs
}

func (s *Simulation) cellColor(r, c, selfIdx int) rgb {
	if !s.grid.InBounds(r, c) {
		return colorOOB
	}
	if o, ok := s.occupantAt(r, c); ok {
		if o == selfIdx {
			return colorSelf
		}
		return colorOther
	}
	switch s.grid.CellAt(r, c) {
	case layout.CellWall:
		return colorWall
	case layout.CellSite:
		if s.grid.OccupiedAt(r, c) {
			return colorResource
		}
		return colorSite
	default:
		return colorEmpty
	}
}

// RenderFrame draws the whole grid in the absolute frame (no rotation, no
// self highlight). This is the "RGB" observation flavor used by observers
// and the runner; it reads the same state as the egocentric views and has
// no effect on simulation semantics.
func (s *Simulation) RenderFrame() (Observation, error) {
	if s.state == stateUninitialized {
		return Observation{}, ErrNotReady
	}
	obs := Observation{Height: s.grid.H, Width: s.grid.W, Pix: make([]byte, s.grid.H*s.grid.W*3)}
	for r := 0; r < s.grid.H; r++ {
		for c := 0; c < s.grid.W; c++ {
			col := s.cellColor(r, c, -1)
			o := (r*s.grid.W + c) * 3
			obs.Pix[o], obs.Pix[o+1], obs.Pix[o+2] = col[0], col[1], col[2]
		}
	}
	return obs, nil
}

func (s *Simulation) occupantAt(r, c int) (int, bool) {
	for i, a := range s.agents {
		if a.Row == r && a.Col == c {
			return i, true
		}
	}
	return 0, false
}

func (s *Simulation) renderAll() []Observation {
	out := make([]Observation, len(s.agents))
	for i, a := range s.agents {
		out[i] = s.renderView(a)
	}
	return out
}

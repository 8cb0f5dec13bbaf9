package engine

// regrow runs one step of the stochastic respawn dynamics. Every unoccupied
// site gets exactly one uniform draw, in row-major cell order, so the RNG
// stream consumed by a step depends only on grid state — never on map
// iteration order. Decisions are made against neighbor counts frozen at the
// start of the phase: a respawn this step does not feed its neighbors until
// the next step.
func (s *Simulation) regrow() int {
	table := s.cfg.RegrowthTable
	var grown []int
	for i := 0; i < s.grid.H*s.grid.W; i++ {
		if s.grid.cells[i] != siteCell || s.grid.occupied[i] {
			continue
		}
		n := s.grid.NeighborCount(i)
		if n >= len(table) {
			n = len(table) - 1
		}
		if s.rng.Float64() < table[n] {
			grown = append(grown, i)
		}
	}
	for _, i := range grown {
		s.grid.setOccupied(i, true)
	}
	return len(grown)
}

package engine

// ZapEvent records one successful beam hit.
type ZapEvent struct {
	Zapper int `json:"zapper"`
	Target int `json:"target"`
}

// resolveMoves applies turn actions and computes conflict-free movement for
// the whole joint action at once. Arbitration is order-independent:
//
//   - a destination requested by more than one agent is denied for all of
//     them (no id priority);
//   - a move into the cell of an agent that stays put is denied, and the
//     denial cascades to anyone moving into the denied agent's cell;
//   - chains (B vacates a cell, A enters it) succeed together;
//   - cycles (swaps, rotations) cannot be proven vacated and are denied.
//
// actions must already be validated and frozen agents coerced to NoOp.
func (s *Simulation) resolveMoves(actions []Action) {
	n := len(s.agents)

	// Turns never conflict.
	for i, a := range s.agents {
		switch actions[i] {
		case TurnLeft:
			a.Facing = a.Facing.Left()
		case TurnRight:
			a.Facing = a.Facing.Right()
		}
	}

	// Requested destination cell index per agent; -1 means staying.
	dest := make([]int, n)
	wanted := make(map[int]int, n) // cell -> number of requesters
	for i, a := range s.agents {
		dest[i] = -1
		dr, dc, ok := moveDelta(actions[i], a.Facing)
		if !ok {
			continue
		}
		r, c := a.Row+dr, a.Col+dc
		if !s.grid.walkable(r, c) {
			continue
		}
		d := s.grid.Index(r, c)
		dest[i] = d
		wanted[d]++
	}
	for i := range dest {
		if dest[i] >= 0 && wanted[dest[i]] > 1 {
			dest[i] = -1
		}
	}

	// occupant[cell] = agent index + 1.
	occupant := make(map[int]int, n)
	for i, a := range s.agents {
		occupant[s.grid.Index(a.Row, a.Col)] = i + 1
	}

	const (
		pending = iota
		approved
		denied
	)
	status := make([]int, n)
	for i := range status {
		if dest[i] < 0 {
			status[i] = denied
		}
	}

	// Fixpoint: approve moves into free (or provably vacated) cells, deny
	// moves into cells whose occupant is not leaving. Whatever is still
	// pending afterwards sits on a cycle and is denied.
	for changed := true; changed; {
		changed = false
		for i := range s.agents {
			if status[i] != pending {
				continue
			}
			o := occupant[dest[i]]
			switch {
			case o == 0 || o == i+1:
				// Free cell (or a move onto the agent's own cell, which
				// cannot happen with unit deltas but is harmless).
				status[i] = approved
				changed = true
			case status[o-1] == approved:
				status[i] = approved
				changed = true
			case status[o-1] == denied:
				status[i] = denied
				changed = true
			}
		}
	}

	for i, a := range s.agents {
		if status[i] == approved {
			a.Row, a.Col = dest[i]/s.grid.W, dest[i]%s.grid.W
		}
	}
}

// resolveZaps traces beams from post-move positions. The beam advances one
// cell of range at a time across its full width, checking lateral offsets
// center-out so the nearest target wins and ties break toward the beam
// axis. A wall blocks its own beam column from that range onward.
func (s *Simulation) resolveZaps(actions []Action) []ZapEvent {
	occupant := make(map[int]int, len(s.agents))
	for i, a := range s.agents {
		occupant[s.grid.Index(a.Row, a.Col)] = i + 1
	}

	half := s.cfg.ZapWidth / 2
	offsets := make([]int, 0, s.cfg.ZapWidth)
	offsets = append(offsets, 0)
	for k := 1; k <= half; k++ {
		offsets = append(offsets, -k, k)
	}

	var events []ZapEvent
	for i, a := range s.agents {
		if actions[i] != Zap {
			continue
		}
		fr, fc := a.Facing.Delta()
		rr, rc := a.Facing.Right().Delta()

		blocked := make(map[int]bool, len(offsets))
		target := -1
	beam:
		for dist := 1; dist <= s.cfg.ZapLength; dist++ {
			for _, off := range offsets {
				if blocked[off] {
					continue
				}
				r := a.Row + fr*dist + rr*off
				c := a.Col + fc*dist + rc*off
				if !s.grid.walkable(r, c) {
					blocked[off] = true
					continue
				}
				if o := occupant[s.grid.Index(r, c)]; o != 0 && o != i+1 {
					target = o - 1
					break beam
				}
			}
		}
		if target < 0 {
			continue
		}
		// Re-zapping resets the counter; it never stacks.
		s.agents[target].FrozenRemaining = s.cfg.FreezeDuration
		events = append(events, ZapEvent{Zapper: i, Target: target})
	}
	return events
}

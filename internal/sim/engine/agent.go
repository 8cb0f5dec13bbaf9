package engine

// Orientation is a cardinal facing direction. Movement and observation
// rotation use fixed delta tables rather than trigonometry so results are
// exact and branch-free.
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

var orientationNames = [4]string{"NORTH", "EAST", "SOUTH", "WEST"}

func (o Orientation) String() string { return orientationNames[o&3] }

// Forward unit vector in (row, col); row grows downward.
var forwardDelta = [4][2]int{
	North: {-1, 0},
	East:  {0, 1},
	South: {1, 0},
	West:  {0, -1},
}

func (o Orientation) Delta() (dr, dc int) {
	d := forwardDelta[o&3]
	return d[0], d[1]
}

func (o Orientation) Left() Orientation  { return (o + 3) & 3 }
func (o Orientation) Right() Orientation { return (o + 1) & 3 }

// Agent is one participant's mutable episode state. Agents are owned by the
// Simulation; indices are stable for the episode.
type Agent struct {
	Index            int
	Row, Col         int
	Facing           Orientation
	FrozenRemaining  int
	CumulativeReward float64

	// Apples collected so far, kept separately from reward because taxation
	// can make the two diverge.
	Apples int
}

// moveDelta maps a movement action onto a world offset relative to the
// agent's facing. Strafing does not change orientation.
func moveDelta(a Action, o Orientation) (dr, dc int, ok bool) {
	switch a {
	case Forward:
		dr, dc = o.Delta()
	case Backward:
		dr, dc = o.Delta()
		dr, dc = -dr, -dc
	case StepLeft:
		dr, dc = o.Left().Delta()
	case StepRight:
		dr, dc = o.Right().Delta()
	default:
		return 0, 0, false
	}
	return dr, dc, true
}

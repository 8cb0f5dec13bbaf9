package engine

import "harvest.world/internal/sim/layout"

const siteCell = layout.CellSite

// Grid is the spatial state of one episode: immutable cell kinds and wall
// layout, mutable resource-site occupancy. It also maintains, per site, the
// number of occupied sites within the regrowth radius; counts are updated
// incrementally on every occupancy flip so regrowth never rescans the map.
type Grid struct {
	H, W int

	cells    []layout.Cell
	occupied []bool

	// siteNeighbors[i] lists the site cells within Euclidean distance
	// `radius` of site i (self excluded); nil for non-site cells.
	siteNeighbors [][]int32
	neighborCount []int16

	numOccupied int
}

func newGrid(p *layout.Parsed, radius int) *Grid {
	g := &Grid{
		H:             p.Height,
		W:             p.Width,
		cells:         make([]layout.Cell, len(p.Cells)),
		occupied:      make([]bool, len(p.Cells)),
		siteNeighbors: make([][]int32, len(p.Cells)),
		neighborCount: make([]int16, len(p.Cells)),
	}
	copy(g.cells, p.Cells)

	// Neighborhood membership uses the Euclidean disc: dr^2+dc^2 <= r^2.
	r2 := radius * radius
	for i, c := range g.cells {
		if c != layout.CellSite {
			continue
		}
		ir, ic := i/g.W, i%g.W
		for dr := -radius; dr <= radius; dr++ {
			for dc := -radius; dc <= radius; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				if dr*dr+dc*dc > r2 {
					continue
				}
				nr, nc := ir+dr, ic+dc
				if nr < 0 || nr >= g.H || nc < 0 || nc >= g.W {
					continue
				}
				j := nr*g.W + nc
				if g.cells[j] == layout.CellSite {
					g.siteNeighbors[i] = append(g.siteNeighbors[i], int32(j))
				}
			}
		}
	}

	for i, occ := range p.Occupied {
		if occ {
			g.setOccupied(i, true)
		}
	}
	return g
}

func (g *Grid) Index(r, c int) int { return r*g.W + c }

func (g *Grid) InBounds(r, c int) bool {
	return r >= 0 && r < g.H && c >= 0 && c < g.W
}

func (g *Grid) CellAt(r, c int) layout.Cell { return g.cells[g.Index(r, c)] }

// OccupiedAt reports whether the site at (r, c) currently holds a resource.
func (g *Grid) OccupiedAt(r, c int) bool { return g.occupied[g.Index(r, c)] }

// NumOccupied is the current count of occupied resource sites.
func (g *Grid) NumOccupied() int { return g.numOccupied }

// NeighborCount returns the occupied-site count within the regrowth radius
// of cell i. Zero for non-site cells.
func (g *Grid) NeighborCount(i int) int { return int(g.neighborCount[i]) }

func (g *Grid) setOccupied(i int, occ bool) {
	if g.occupied[i] == occ {
		return
	}
	g.occupied[i] = occ
	d := int16(1)
	if occ {
		g.numOccupied++
	} else {
		g.numOccupied--
		d = -1
	}
	for _, j := range g.siteNeighbors[i] {
		g.neighborCount[j] += d
	}
}

// walkable reports whether an agent may stand on (r, c).
func (g *Grid) walkable(r, c int) bool {
	return g.InBounds(r, c) && g.cells[g.Index(r, c)] != layout.CellWall
}

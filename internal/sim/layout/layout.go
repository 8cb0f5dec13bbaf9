// Package layout turns a map specification (an explicit ASCII grid or
// generator parameters) into the initial cell layout of a harvest world.
package layout

import (
	"fmt"
	"math/rand"
)

type Cell uint8

const (
	CellEmpty Cell = iota
	CellWall
	CellSite
)

// Spec is the initial_layout block of an experiment config. Exactly one of
// AsciiMap and Generator must be set.
type Spec struct {
	AsciiMap  []string   `json:"ascii_map,omitempty" yaml:"ascii_map,omitempty"`
	Generator *Generator `json:"generator,omitempty" yaml:"generator,omitempty"`
}

// Generator describes a procedurally built layout. Site and spawn placement
// is drawn from the seed passed to Parse, so the same seed always yields the
// same map.
type Generator struct {
	Height      int     `json:"height" yaml:"height"`
	Width       int     `json:"width" yaml:"width"`
	WallBorder  bool    `json:"wall_border" yaml:"wall_border"`
	SiteDensity float64 `json:"site_density" yaml:"site_density"`
	Spawns      int     `json:"spawns" yaml:"spawns"`
}

// Parsed is the materialized layout. Occupied is parallel to Cells and only
// meaningful for CellSite entries.
type Parsed struct {
	Height   int
	Width    int
	Cells    []Cell
	Occupied []bool
	Spawns   [][2]int // (row, col), in map order
}

// Map characters:
//
//	'W' '#'  wall
//	'A'      resource site, initially occupied
//	'a'      resource site, initially unoccupied
//	'P'      spawn point (empty cell)
//	' ' '.'  empty
const mapChars = "W#AaP ."

func Parse(s Spec, seed int64) (*Parsed, error) {
	switch {
	case len(s.AsciiMap) > 0 && s.Generator != nil:
		return nil, fmt.Errorf("ascii_map and generator are mutually exclusive")
	case len(s.AsciiMap) > 0:
		return parseAscii(s.AsciiMap)
	case s.Generator != nil:
		return generate(*s.Generator, seed)
	default:
		return nil, fmt.Errorf("ascii_map or generator required")
	}
}

func parseAscii(rows []string) (*Parsed, error) {
	h := len(rows)
	w := len(rows[0])
	if w == 0 {
		return nil, fmt.Errorf("empty first row")
	}
	p := &Parsed{
		Height:   h,
		Width:    w,
		Cells:    make([]Cell, h*w),
		Occupied: make([]bool, h*w),
	}
	for r, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("row %d has width %d, want %d", r, len(row), w)
		}
		for c := 0; c < w; c++ {
			i := r*w + c
			switch row[c] {
			case 'W', '#':
				p.Cells[i] = CellWall
			case 'A':
				p.Cells[i] = CellSite
				p.Occupied[i] = true
			case 'a':
				p.Cells[i] = CellSite
			case 'P':
				p.Cells[i] = CellEmpty
				p.Spawns = append(p.Spawns, [2]int{r, c})
			case ' ', '.':
				p.Cells[i] = CellEmpty
			default:
				return nil, fmt.Errorf("row %d col %d: unknown char %q (allowed: %q)", r, c, row[c], mapChars)
			}
		}
	}
	if len(p.Spawns) == 0 {
		return nil, fmt.Errorf("no spawn points ('P')")
	}
	return p, nil
}

func generate(g Generator, seed int64) (*Parsed, error) {
	if g.Height <= 0 || g.Width <= 0 {
		return nil, fmt.Errorf("generator dimensions must be positive (got %dx%d)", g.Height, g.Width)
	}
	if g.SiteDensity < 0 || g.SiteDensity > 1 {
		return nil, fmt.Errorf("site_density %v out of [0,1]", g.SiteDensity)
	}
	if g.Spawns <= 0 {
		return nil, fmt.Errorf("generator spawns must be positive")
	}

	p := &Parsed{
		Height:   g.Height,
		Width:    g.Width,
		Cells:    make([]Cell, g.Height*g.Width),
		Occupied: make([]bool, g.Height*g.Width),
	}
	rng := rand.New(rand.NewSource(seed))

	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			i := r*g.Width + c
			border := r == 0 || c == 0 || r == g.Height-1 || c == g.Width-1
			if g.WallBorder && border {
				p.Cells[i] = CellWall
				continue
			}
			if rng.Float64() < g.SiteDensity {
				p.Cells[i] = CellSite
				p.Occupied[i] = true
			}
		}
	}

	// Spawns go on empty cells, sampled without replacement; the shuffle is
	// driven by the seeded rng so placement is stable for a given seed.
	var empty []int
	for i, c := range p.Cells {
		if c == CellEmpty {
			empty = append(empty, i)
		}
	}
	if len(empty) < g.Spawns {
		return nil, fmt.Errorf("%d spawn points requested but only %d empty cells", g.Spawns, len(empty))
	}
	rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	for _, i := range empty[:g.Spawns] {
		p.Spawns = append(p.Spawns, [2]int{i / g.Width, i % g.Width})
	}
	return p, nil
}

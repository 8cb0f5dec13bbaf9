package layout

import (
	"reflect"
	"testing"
)

func TestParse_AsciiMap(t *testing.T) {
	p, err := Parse(Spec{AsciiMap: []string{
		"WWWWW",
		"WPAaW",
		"W . W",
		"WWWWW",
	}}, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Height != 4 || p.Width != 5 {
		t.Fatalf("dims %dx%d, want 4x5", p.Height, p.Width)
	}
	if got := p.Cells[1*5+2]; got != CellSite {
		t.Fatalf("cell (1,2) = %d, want site", got)
	}
	if !p.Occupied[1*5+2] {
		t.Fatalf("'A' should start occupied")
	}
	if got := p.Cells[1*5+3]; got != CellSite || p.Occupied[1*5+3] {
		t.Fatalf("'a' should be an unoccupied site")
	}
	if got := p.Cells[0]; got != CellWall {
		t.Fatalf("cell (0,0) = %d, want wall", got)
	}
	if want := [][2]int{{1, 1}}; !reflect.DeepEqual(p.Spawns, want) {
		t.Fatalf("spawns = %v, want %v", p.Spawns, want)
	}
}

func TestParse_AsciiErrors(t *testing.T) {
	cases := []struct {
		name string
		rows []string
	}{
		{"ragged", []string{"WWW", "WW"}},
		{"unknown char", []string{"WXW", "WPW"}},
		{"no spawns", []string{"WWW", "WAW"}},
	}
	for _, tc := range cases {
		if _, err := Parse(Spec{AsciiMap: tc.rows}, 0); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestParse_SpecShape(t *testing.T) {
	if _, err := Parse(Spec{}, 0); err == nil {
		t.Fatalf("empty spec should fail")
	}
	both := Spec{
		AsciiMap:  []string{"P"},
		Generator: &Generator{Height: 3, Width: 3, Spawns: 1},
	}
	if _, err := Parse(both, 0); err == nil {
		t.Fatalf("ascii_map+generator should fail")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g := Spec{Generator: &Generator{Height: 12, Width: 16, WallBorder: true, SiteDensity: 0.2, Spawns: 4}}
	a, err := Parse(g, 99)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := Parse(g, 99)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different layouts")
	}
	c, err := Parse(g, 100)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reflect.DeepEqual(a.Cells, c.Cells) && reflect.DeepEqual(a.Spawns, c.Spawns) {
		t.Fatalf("different seeds produced identical layouts")
	}
}

func TestGenerate_Validation(t *testing.T) {
	bad := []Generator{
		{Height: 0, Width: 5, Spawns: 1},
		{Height: 5, Width: 5, SiteDensity: 1.5, Spawns: 1},
		{Height: 5, Width: 5, Spawns: 0},
		// Density 1 leaves no empty cell for spawns.
		{Height: 4, Width: 4, SiteDensity: 1, Spawns: 1},
	}
	for i, g := range bad {
		if _, err := Parse(Spec{Generator: &g}, 1); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

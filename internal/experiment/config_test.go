package experiment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
name: smoke
episodes: 3
policy: forward
engine:
  num_agents: 2
  seed: 17
  initial_layout:
    ascii_map:
      - "WWWWW"
      - "WPPAW"
      - "WWWWW"
`

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "smoke" || cfg.Episodes != 3 || cfg.Policy != "forward" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	// Runner defaults for the omitted fields.
	if cfg.Observation != "ego" || cfg.TickRateHz != 10 {
		t.Fatalf("defaults not applied: obs=%q tick=%d", cfg.Observation, cfg.TickRateHz)
	}
	if cfg.Engine.NumAgents != 2 || cfg.Engine.Seed != 17 {
		t.Fatalf("engine block lost: %+v", cfg.Engine)
	}
}

func TestParse_JSON(t *testing.T) {
	raw := []byte(`{
		"episodes": 2,
		"engine": {
			"num_agents": 1,
			"initial_layout": {
				"generator": {"height": 8, "width": 8, "wall_border": true, "site_density": 0.2, "spawns": 2}
			}
		}
	}`)
	cfg, err := Parse(raw, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Engine.Layout.Generator == nil || cfg.Engine.Layout.Generator.Spawns != 2 {
		t.Fatalf("generator block lost: %+v", cfg.Engine.Layout)
	}
}

func TestParse_SchemaRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing engine", `{"episodes": 1}`},
		{"missing layout", `{"engine": {"num_agents": 1}}`},
		{"unknown field", `{"engine": {"num_agents": 1, "apples": 3, "initial_layout": {"ascii_map": ["P."]}}}`},
		{"bad policy", `{"policy": "genius", "engine": {"num_agents": 1, "initial_layout": {"ascii_map": ["P."]}}}`},
		{"zero agents", `{"engine": {"num_agents": 0, "initial_layout": {"ascii_map": ["P."]}}}`},
		{"table above one", `{"engine": {"num_agents": 1, "regrowth_table": [0, 2], "initial_layout": {"ascii_map": ["P."]}}}`},
		{"bad tax objective", `{"engine": {"num_agents": 1, "tax": {"objective": "feudal"}, "initial_layout": {"ascii_map": ["P."]}}}`},
	}
	for _, tc := range cases {
		if _, err := Parse([]byte(tc.raw), false); err == nil {
			t.Errorf("%s: expected schema error", tc.name)
		} else if !strings.Contains(err.Error(), "schema") {
			t.Errorf("%s: err %v, want schema violation", tc.name, err)
		}
	}
}

func TestResolvedJSON_BakesEngineDefaults(t *testing.T) {
	cfg, err := Parse([]byte(validYAML), true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := cfg.ResolvedJSON()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	var round Config
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	if round.Engine.ViewHeight != 15 || round.Engine.Horizon != 1000 {
		t.Fatalf("engine defaults not baked: %+v", round.Engine)
	}
	if len(round.Engine.RegrowthTable) == 0 {
		t.Fatalf("regrowth table not baked")
	}
	// The resolved document must itself pass the schema, so a run directory
	// config can be re-loaded by the replayer.
	if _, err := Parse(out, false); err != nil {
		t.Fatalf("resolved config rejected: %v", err)
	}
}

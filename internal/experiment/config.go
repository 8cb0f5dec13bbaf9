// Package experiment loads and validates runner configurations. A config is
// JSON or YAML; either way it is checked against the embedded JSON Schema
// before the engine sees it, so schema violations surface with field paths
// instead of zero-value surprises.
package experiment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"harvest.world/internal/sim/engine"
	"harvest.world/schemas"
)

type Config struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Episodes    int    `json:"episodes" yaml:"episodes"`
	Policy      string `json:"policy" yaml:"policy"`           // "random", "forward" or "noop"
	Observation string `json:"observation" yaml:"observation"` // "ego" or "rgb"
	TickRateHz  int    `json:"tick_rate_hz" yaml:"tick_rate_hz"`

	Engine engine.Config `json:"engine" yaml:"engine"`
}

func (c *Config) applyDefaults() {
	if c.Episodes <= 0 {
		c.Episodes = 1
	}
	if c.Policy == "" {
		c.Policy = "random"
	}
	if c.Observation == "" {
		c.Observation = "ego"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 10
	}
}

var schema = mustCompile("experiment.schema.json")

func mustCompile(name string) *jsonschema.Schema {
	raw, err := schemas.FS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return s
}

// Load reads path (extension decides JSON vs YAML), validates it against the
// schema and returns the config with runner defaults applied. Engine
// defaults and semantic checks happen later in engine.New.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(raw, strings.EqualFold(filepath.Ext(path), ".yaml") || strings.EqualFold(filepath.Ext(path), ".yml"))
}

func Parse(raw []byte, isYAML bool) (Config, error) {
	var doc any
	var cfg Config
	if isYAML {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := schema.Validate(doc); err != nil {
			return Config{}, fmt.Errorf("config schema: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := schema.Validate(doc); err != nil {
			return Config{}, fmt.Errorf("config schema: %w", err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// ResolvedJSON renders the fully resolved config (runner and engine defaults
// applied) as the JSON document persisted verbatim next to run outputs.
func (c Config) ResolvedJSON() ([]byte, error) {
	sim, err := engine.New(c.Engine)
	if err != nil {
		return nil, err
	}
	resolved := c
	resolved.Engine = sim.Config()
	return json.MarshalIndent(resolved, "", "  ")
}

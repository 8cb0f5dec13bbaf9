package engine

import "harvest.world/internal/sim/layout"

// Config holds everything needed to construct an episode. Zero values get
// defaults via applyDefaults; Validate runs afterwards and rejects anything
// the engine cannot honor.
type Config struct {
	GridHeight int `json:"grid_height,omitempty" yaml:"grid_height,omitempty"`
	GridWidth  int `json:"grid_width,omitempty" yaml:"grid_width,omitempty"`

	NumAgents int `json:"num_agents" yaml:"num_agents"`

	ViewHeight int    `json:"view_height" yaml:"view_height"`
	ViewWidth  int    `json:"view_width" yaml:"view_width"`
	ViewAnchor string `json:"view_anchor" yaml:"view_anchor"` // "center" or "forward"

	RegrowthRadius int       `json:"regrowth_radius" yaml:"regrowth_radius"`
	RegrowthTable  []float64 `json:"regrowth_table" yaml:"regrowth_table"`

	FreezeDuration int     `json:"freeze_duration" yaml:"freeze_duration"`
	ZapLength      int     `json:"zap_length" yaml:"zap_length"`
	ZapWidth       int     `json:"zap_width" yaml:"zap_width"`
	ZapPenalty     float64 `json:"zap_penalty" yaml:"zap_penalty"`

	Horizon int   `json:"horizon" yaml:"horizon"`
	Seed    int64 `json:"seed" yaml:"seed"`

	Tax *TaxConfig `json:"tax,omitempty" yaml:"tax,omitempty"`

	Layout layout.Spec `json:"initial_layout" yaml:"initial_layout"`
}

// TaxConfig is the universal-mechanism-design principal: under the
// egalitarian objective every apple collected past Threshold is taxed at
// Rate (1.5 means the agent nets -0.5 per apple). The utilitarian objective
// never taxes.
type TaxConfig struct {
	Objective string  `json:"objective" yaml:"objective"` // "utilitarian" or "egalitarian"
	Rate      float64 `json:"rate" yaml:"rate"`
	Threshold int     `json:"threshold" yaml:"threshold"`
}

const (
	ObjectiveUtilitarian = "utilitarian"
	ObjectiveEgalitarian = "egalitarian"

	AnchorCenter  = "center"
	AnchorForward = "forward"
)

func (c *Config) applyDefaults() {
	if c.NumAgents <= 0 {
		c.NumAgents = 1
	}
	if c.ViewHeight <= 0 {
		c.ViewHeight = 15
	}
	if c.ViewWidth <= 0 {
		c.ViewWidth = 15
	}
	if c.ViewAnchor == "" {
		c.ViewAnchor = AnchorCenter
	}
	if c.RegrowthTable == nil {
		// Classic harvest densities: nothing at 0 neighbors, then slow,
		// medium, fast.
		c.RegrowthTable = []float64{0, 0.0025, 0.005, 0.025}
		if c.RegrowthRadius <= 0 {
			c.RegrowthRadius = 2
		}
	}
	if c.ZapLength <= 0 {
		c.ZapLength = 5
	}
	if c.ZapWidth <= 0 {
		c.ZapWidth = 1
	}
	if c.FreezeDuration <= 0 {
		c.FreezeDuration = 25
	}
	if c.Horizon <= 0 {
		c.Horizon = 1000
	}
	if c.Tax != nil {
		if c.Tax.Objective == "" {
			c.Tax.Objective = ObjectiveUtilitarian
		}
		if c.Tax.Rate == 0 {
			c.Tax.Rate = 1.5
		}
		if c.Tax.Threshold == 0 {
			c.Tax.Threshold = 10
		}
	}
}

func (c *Config) validate() error {
	if c.NumAgents <= 0 {
		return configErrf("num_agents", "must be positive (got %d)", c.NumAgents)
	}
	if c.ViewHeight <= 0 || c.ViewWidth <= 0 {
		return configErrf("view_height/view_width", "must be positive (got %dx%d)", c.ViewHeight, c.ViewWidth)
	}
	if c.ViewAnchor != AnchorCenter && c.ViewAnchor != AnchorForward {
		return configErrf("view_anchor", "must be %q or %q (got %q)", AnchorCenter, AnchorForward, c.ViewAnchor)
	}
	if c.RegrowthRadius < 0 {
		return configErrf("regrowth_radius", "must be non-negative (got %d)", c.RegrowthRadius)
	}
	if len(c.RegrowthTable) == 0 {
		return configErrf("regrowth_table", "must have at least one entry")
	}
	if c.RegrowthTable[0] != 0 {
		return configErrf("regrowth_table", "entry for 0 neighbors must be 0 (got %v); depletion must be permanent", c.RegrowthTable[0])
	}
	prev := 0.0
	for i, p := range c.RegrowthTable {
		if p < 0 || p > 1 {
			return configErrf("regrowth_table", "entry %d is %v, want [0,1]", i, p)
		}
		if p < prev {
			return configErrf("regrowth_table", "entry %d (%v) breaks non-decreasing order", i, p)
		}
		prev = p
	}
	if c.FreezeDuration < 0 {
		return configErrf("freeze_duration", "must be non-negative (got %d)", c.FreezeDuration)
	}
	if c.ZapLength < 1 {
		return configErrf("zap_length", "must be positive (got %d)", c.ZapLength)
	}
	if c.ZapWidth < 1 || c.ZapWidth%2 == 0 {
		return configErrf("zap_width", "must be odd and positive (got %d)", c.ZapWidth)
	}
	if c.ZapPenalty < 0 {
		return configErrf("zap_penalty", "must be non-negative (got %v)", c.ZapPenalty)
	}
	if c.Horizon <= 0 {
		return configErrf("horizon", "must be positive (got %d)", c.Horizon)
	}
	if t := c.Tax; t != nil {
		if t.Objective != ObjectiveUtilitarian && t.Objective != ObjectiveEgalitarian {
			return configErrf("tax.objective", "must be %q or %q (got %q)", ObjectiveUtilitarian, ObjectiveEgalitarian, t.Objective)
		}
		if t.Rate < 0 {
			return configErrf("tax.rate", "must be non-negative (got %v)", t.Rate)
		}
		if t.Threshold < 0 {
			return configErrf("tax.threshold", "must be non-negative (got %d)", t.Threshold)
		}
	}
	return nil
}

// validateLayout runs the checks that need the materialized map.
func (c *Config) validateLayout(p *layout.Parsed) error {
	if c.GridHeight != 0 && c.GridHeight != p.Height {
		return configErrf("grid_height", "is %d but layout has height %d", c.GridHeight, p.Height)
	}
	if c.GridWidth != 0 && c.GridWidth != p.Width {
		return configErrf("grid_width", "is %d but layout has width %d", c.GridWidth, p.Width)
	}
	if c.NumAgents > len(p.Spawns) {
		return configErrf("num_agents", "%d agents but only %d spawn points", c.NumAgents, len(p.Spawns))
	}
	seen := make(map[[2]int]bool, len(p.Spawns))
	for _, sp := range p.Spawns {
		if seen[sp] {
			return configErrf("initial_layout", "duplicate spawn point at (%d,%d)", sp[0], sp[1])
		}
		seen[sp] = true
	}
	return nil
}

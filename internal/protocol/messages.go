package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	AgentID         string      `json:"agent_id"`
	Slot            int         `json:"slot"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz int      `json:"tick_rate_hz"`
	NumAgents  int      `json:"num_agents"`
	ViewHeight int      `json:"view_height"`
	ViewWidth  int      `json:"view_width"`
	Horizon    int      `json:"horizon"`
	Seed       int64    `json:"seed"`
	Actions    []string `json:"actions"`
}

// OBS (server -> client): one egocentric view per tick. Pix is the raw
// Height*Width*3 RGB tensor; encoding/json base64s it on the wire.
type ObsMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Episode         int     `json:"episode"`
	AgentID         string  `json:"agent_id"`
	Slot            int     `json:"slot"`
	ViewHeight      int     `json:"view_height"`
	ViewWidth       int     `json:"view_width"`
	Pix             []byte  `json:"pix"`
	Reward          float64 `json:"reward"`
	TotalReward     float64 `json:"total_reward"`
	Frozen          int     `json:"frozen"`
	Done            bool    `json:"done"`
}

// ACT (client -> server): the agent's action for the next tick. The latest
// ACT received before the tick boundary wins; absent one, the agent no-ops.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AgentID         string `json:"agent_id"`
	Action          string `json:"action"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

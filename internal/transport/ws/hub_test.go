package ws

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"harvest.world/internal/protocol"
	"harvest.world/internal/sim/engine"
	"harvest.world/internal/sim/layout"
)

func newTestHub(t *testing.T, agents int) *Hub {
	t.Helper()
	rows := []string{
		"WWWWWW",
		"WPP.aW",
		"WP.aaW",
		"WWWWWW",
	}
	sim, err := engine.New(engine.Config{
		NumAgents:     agents,
		ViewHeight:    3,
		ViewWidth:     3,
		RegrowthTable: []float64{0, 0.1},
		Horizon:       5,
		Seed:          21,
		Layout:        layout.Spec{AsciiMap: rows},
	})
	if err != nil {
		t.Fatalf("new sim: %v", err)
	}
	if _, err := sim.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	return NewHub(sim, 10, log.New(io.Discard, "", 0))
}

func TestHandleJoin_AssignsSlotsUntilFull(t *testing.T) {
	h := newTestHub(t, 2)

	a := h.handleJoin(joinReq{name: "alice", out: make(chan []byte, 1)})
	if a.Slot != 0 || a.ErrCode != "" {
		t.Fatalf("first join: %+v", a)
	}
	if a.Welcome.AgentID != "A1" || a.Welcome.WorldParams.NumAgents != 2 {
		t.Fatalf("welcome: %+v", a.Welcome)
	}
	if len(a.Welcome.WorldParams.Actions) != len(engine.Actions()) {
		t.Fatalf("action list: %v", a.Welcome.WorldParams.Actions)
	}

	b := h.handleJoin(joinReq{name: "bob", out: make(chan []byte, 1)})
	if b.Slot != 1 {
		t.Fatalf("second join slot = %d", b.Slot)
	}

	c := h.handleJoin(joinReq{name: "carol", out: make(chan []byte, 1)})
	if c.Slot != -1 || c.ErrCode != protocol.ErrWorldFull {
		t.Fatalf("overfull join: %+v", c)
	}

	// A freed slot is handed out again, lowest first.
	h.slots[0].connected = false
	h.slots[0].out = nil
	d := h.handleJoin(joinReq{name: "dave", out: make(chan []byte, 1)})
	if d.Slot != 0 {
		t.Fatalf("rejoin slot = %d", d.Slot)
	}
}

func TestStepOnce_BroadcastsObservations(t *testing.T) {
	h := newTestHub(t, 2)
	out := make(chan []byte, 4)
	resp := h.handleJoin(joinReq{name: "alice", out: out})
	if resp.Slot != 0 {
		t.Fatalf("join: %+v", resp)
	}

	h.slots[0].pending = engine.TurnLeft
	h.stepOnce()

	var obs protocol.ObsMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &obs); err != nil {
			t.Fatalf("decode obs: %v", err)
		}
	default:
		t.Fatalf("no observation broadcast")
	}
	if obs.Type != protocol.TypeObs || obs.Tick != 1 || obs.AgentID != "A1" {
		t.Fatalf("obs: %+v", obs)
	}
	if obs.ViewHeight != 3 || obs.ViewWidth != 3 || len(obs.Pix) != 3*3*3 {
		t.Fatalf("obs window: %dx%d, %d bytes", obs.ViewHeight, obs.ViewWidth, len(obs.Pix))
	}
	// Pending actions are one-shot.
	if h.slots[0].pending != engine.NoOp {
		t.Fatalf("pending action survived the tick")
	}
}

func TestStepOnce_ResetsAfterHorizon(t *testing.T) {
	h := newTestHub(t, 1)
	out := make(chan []byte, 8)
	h.handleJoin(joinReq{name: "alice", out: out})

	// Horizon is 5; the fifth tick finishes the episode and the hub reseeds.
	for i := 0; i < 5; i++ {
		h.stepOnce()
	}
	if h.episode != 1 {
		t.Fatalf("episode = %d, want 1 after horizon", h.episode)
	}
	if h.sim.Done() || h.sim.StepCount() != 0 {
		t.Fatalf("simulation not reset after horizon")
	}
	// The hub keeps ticking into the next episode.
	h.stepOnce()
	if h.sim.StepCount() != 1 {
		t.Fatalf("step count = %d after reset", h.sim.StepCount())
	}
}

func TestSendLatest_DropsOldestWhenFull(t *testing.T) {
	out := make(chan []byte, 1)
	sendLatest(out, []byte("old"))
	sendLatest(out, []byte("new"))
	select {
	case b := <-out:
		if string(b) != "new" {
			t.Fatalf("got %q, want the newest frame", b)
		}
	default:
		t.Fatalf("channel empty")
	}
	// A nil channel is a disconnected slot; must not panic or block.
	sendLatest(nil, []byte("x"))
}

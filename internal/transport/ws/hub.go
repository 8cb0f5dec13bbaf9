package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"harvest.world/internal/protocol"
	"harvest.world/internal/sim/engine"
)

// Hub owns the simulation and steps it at a fixed tick rate. All engine
// access happens on the Run goroutine; sessions talk to it over channels.
// Slots map 1:1 onto engine agent indices; a slot without a connected
// client no-ops. When an episode terminates the hub resets with the next
// derived seed and keeps ticking.
type Hub struct {
	log      *log.Logger
	sim      *engine.Simulation
	tickRate int
	baseSeed int64

	episode int
	tick    uint64
	slots   []slotState

	join  chan joinReq
	leave chan int
	inbox chan actEnvelope
	stop  chan struct{}
}

type slotState struct {
	connected bool
	name      string
	out       chan []byte
	pending   engine.Action
}

type joinReq struct {
	name string
	out  chan []byte
	resp chan JoinResp
}

type JoinResp struct {
	Slot    int
	ErrCode string
	Welcome protocol.WelcomeMsg
}

type actEnvelope struct {
	slot   int
	action engine.Action
}

func NewHub(sim *engine.Simulation, tickRateHz int, logger *log.Logger) *Hub {
	if tickRateHz <= 0 {
		tickRateHz = 10
	}
	cfg := sim.Config()
	return &Hub{
		log:      logger,
		sim:      sim,
		tickRate: tickRateHz,
		baseSeed: cfg.Seed,
		slots:    make([]slotState, cfg.NumAgents),
		join:     make(chan joinReq),
		leave:    make(chan int),
		inbox:    make(chan actEnvelope, 256),
		stop:     make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	if _, err := h.sim.ResetSeed(h.baseSeed); err != nil {
		return err
	}
	interval := time.Second / time.Duration(h.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case req := <-h.join:
			req.resp <- h.handleJoin(req)
		case slot := <-h.leave:
			h.slots[slot].connected = false
			h.slots[slot].out = nil
			h.slots[slot].pending = engine.NoOp
		case env := <-h.inbox:
			if env.slot >= 0 && env.slot < len(h.slots) {
				// Latest ACT before the tick boundary wins.
				h.slots[env.slot].pending = env.action
			}
		case <-ticker.C:
			h.stepOnce()
		}
	}
}

func (h *Hub) Stop() { close(h.stop) }

// JoinAgent is the session-side entry point.
func (h *Hub) JoinAgent(name string, out chan []byte) JoinResp {
	resp := make(chan JoinResp, 1)
	h.join <- joinReq{name: name, out: out, resp: resp}
	return <-resp
}

func (h *Hub) SubmitAction(slot int, a engine.Action) {
	h.inbox <- actEnvelope{slot: slot, action: a}
}

func (h *Hub) LeaveAgent(slot int) { h.leave <- slot }

func (h *Hub) handleJoin(req joinReq) JoinResp {
	for i := range h.slots {
		if h.slots[i].connected {
			continue
		}
		h.slots[i] = slotState{connected: true, name: req.name, out: req.out}
		cfg := h.sim.Config()
		return JoinResp{
			Slot: i,
			Welcome: protocol.WelcomeMsg{
				Type:            protocol.TypeWelcome,
				ProtocolVersion: protocol.Version,
				AgentID:         agentID(i),
				Slot:            i,
				WorldParams: protocol.WorldParams{
					TickRateHz: h.tickRate,
					NumAgents:  cfg.NumAgents,
					ViewHeight: cfg.ViewHeight,
					ViewWidth:  cfg.ViewWidth,
					Horizon:    cfg.Horizon,
					Seed:       h.baseSeed,
					Actions:    actionNames(),
				},
			},
		}
	}
	return JoinResp{Slot: -1, ErrCode: protocol.ErrWorldFull}
}

func (h *Hub) stepOnce() {
	actions := make([]engine.Action, len(h.slots))
	for i := range h.slots {
		actions[i] = h.slots[i].pending
		h.slots[i].pending = engine.NoOp
	}

	res, err := h.sim.Step(actions)
	if err != nil {
		// Cannot happen with validated slot actions; log and keep serving.
		h.log.Printf("step: %v", err)
		return
	}
	h.tick++

	agents := h.sim.Agents()
	for i := range h.slots {
		if !h.slots[i].connected {
			continue
		}
		obs := protocol.ObsMsg{
			Type:            protocol.TypeObs,
			ProtocolVersion: protocol.Version,
			Tick:            h.tick,
			Episode:         h.episode,
			AgentID:         agentID(i),
			Slot:            i,
			ViewHeight:      res.Obs[i].Height,
			ViewWidth:       res.Obs[i].Width,
			Pix:             res.Obs[i].Pix,
			Reward:          res.Rewards[i],
			TotalReward:     agents[i].CumulativeReward,
			Frozen:          agents[i].FrozenRemaining,
			Done:            res.Done,
		}
		b, err := json.Marshal(obs)
		if err != nil {
			continue
		}
		sendLatest(h.slots[i].out, b)
	}

	if res.Done {
		h.episode++
		if _, err := h.sim.ResetSeed(h.baseSeed + int64(h.episode)); err != nil {
			h.log.Printf("reset after episode %d: %v", h.episode, err)
			h.Stop()
		}
	}
}

func agentID(slot int) string { return fmt.Sprintf("A%d", slot+1) }

func actionNames() []string {
	acts := engine.Actions()
	out := make([]string, len(acts))
	for i, a := range acts {
		out[i] = a.String()
	}
	return out
}

// sendLatest delivers b without ever blocking the tick loop: if the client
// buffer is full, the oldest queued frame is dropped in its favor.
func sendLatest(out chan []byte, b []byte) {
	if out == nil {
		return
	}
	select {
	case out <- b:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- b:
	default:
	}
}

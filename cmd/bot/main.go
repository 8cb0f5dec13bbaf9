// Command bot is a scripted websocket client: it joins a server, walks
// mostly forward and occasionally zaps. Useful as a connection smoke test
// and as a filler opponent while training policies occupy other slots.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"harvest.world/internal/protocol"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "bot", "agent name")
		zapP = flag.Float64("zap", 0.02, "probability of zapping per tick")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentName:       *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME agent_id=%s slot=%d view=%dx%d seed=%d",
				w.AgentID, w.Slot, w.WorldParams.ViewHeight, w.WorldParams.ViewWidth, w.WorldParams.Seed)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			act := protocol.ActMsg{
				Type:            protocol.TypeAct,
				ProtocolVersion: protocol.Version,
				Tick:            obs.Tick,
				AgentID:         obs.AgentID,
				Action:          pick(rng, *zapP),
			}
			_ = conn.WriteJSON(act)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err != nil {
				continue
			}
			logger.Printf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

func pick(rng *rand.Rand, zapP float64) string {
	r := rng.Float64()
	switch {
	case r < zapP:
		return "ZAP"
	case r < 0.65:
		return "FORWARD"
	case r < 0.8:
		return "TURN_LEFT"
	case r < 0.95:
		return "TURN_RIGHT"
	default:
		return "NOOP"
	}
}

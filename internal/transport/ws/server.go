package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"harvest.world/internal/protocol"
	"harvest.world/internal/sim/engine"
)

type Server struct {
	hub *Hub
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(hub *Hub, logger *log.Logger) *Server {
	return &Server{
		hub: hub,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		slot, out := s.handshake(conn)
		if slot < 0 {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			a, err := engine.ParseAction(act.Action)
			if err != nil {
				sendError(out, protocol.ErrBadAction, err.Error())
				continue
			}
			s.hub.SubmitAction(slot, a)
		}

		s.hub.LeaveAgent(slot)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (slot int, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return -1, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return -1, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return -1, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return -1, nil
	}
	name := strings.TrimSpace(hello.AgentName)
	if name == "" {
		name = "agent"
	}

	out = make(chan []byte, 8)
	resp := s.hub.JoinAgent(name, out)
	if resp.Slot < 0 {
		b, _ := json.Marshal(protocol.ErrorMsg{Type: protocol.TypeError, Code: resp.ErrCode, Message: "no free agent slot"})
		_ = conn.WriteMessage(websocket.TextMessage, b)
		return -1, nil
	}

	b, err := json.Marshal(resp.Welcome)
	if err != nil {
		s.hub.LeaveAgent(resp.Slot)
		return -1, nil
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		s.hub.LeaveAgent(resp.Slot)
		return -1, nil
	}
	s.log.Printf("agent %s joined slot %d", name, resp.Slot)
	return resp.Slot, out
}

func sendError(out chan []byte, code, msg string) {
	b, err := json.Marshal(protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Message: msg})
	if err != nil {
		return
	}
	sendLatest(out, b)
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type streamMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleStream pushes the session state on connect and every committed
// change after that. Client messages are read only to notice disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.game.State(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("stream upgrade failed", "session", id, "err", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.game.Subscribe(id)
	defer unsubscribe()

	ping := s.cfg.StreamPing
	if ping <= 0 {
		ping = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reader loop.
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(2 * ping))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(2 * ping))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeStream(conn, streamMessage{Type: "state", Data: state}); err != nil {
		return
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session deleted"))
				return
			}
			if err := writeStream(conn, streamMessage{Type: "update", Data: u}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, msg streamMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sugawarayuuta/sonnet"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamInterval paces snapshot pushes; clients see at most one frame per
// interval regardless of sweep rate.
const streamInterval = 250 * time.Millisecond

// handleStream pushes grid snapshots over a websocket until the client goes
// away. Only snapshots that advanced the sweep counter are sent.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Reader goroutine: discard client messages, detect close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	lastSweep := -1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			snap, ok := s.snapshot()
			if !ok || snap.Sweep == lastSweep {
				continue
			}
			b, err := sonnet.Marshal(snap)
			if err != nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
			lastSweep = snap.Sweep
		}
	}
}

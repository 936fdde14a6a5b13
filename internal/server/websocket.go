package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"zentrio/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = 54 * time.Second
)

// handleWebSocket upgrades the connection and relays every progress/status
// event from the Bus to this client until it disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch, unsubscribe := s.bus.Subscribe(256)
	defer unsubscribe()

	logger.Log.Info().Str("remoteAddr", r.RemoteAddr).Msg("websocket client connected")

	done := make(chan struct{})
	go readLoop(conn, done)

	writeLoop(conn, ch, done)
}

// readLoop drains and discards client frames, closing done on any read
// error (including a clean client-initiated close) so writeLoop exits.
func readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLoop(conn *websocket.Conn, ch <-chan any, done chan struct{}) {
	ticker := time.NewTicker(wsPingEvery)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

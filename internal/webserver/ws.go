package webserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zsprackett/claude-viz/internal/hub"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS upgrades the connection and streams the history frame followed
// by live event frames until either side goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		return
	}

	sub := s.hub.Subscribe()
	s.logger.Info("client connected", "remote", r.RemoteAddr, "clients", s.hub.Subscribers())

	done := make(chan struct{})
	go s.writeLoop(conn, sub, done)

	// Clients never send anything meaningful; reading only detects close.
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	sub.Close()
	<-done
	s.logger.Info("client disconnected", "remote", r.RemoteAddr, "clients", s.hub.Subscribers())
}

// writeLoop is the only writer on conn. It ends when the subscription is
// closed or a write fails, and closes the connection either way.
func (s *Server) writeLoop(conn *websocket.Conn, sub *hub.Subscription, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write", "err", err)
				sub.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.Close()
				return
			}
		}
	}
}

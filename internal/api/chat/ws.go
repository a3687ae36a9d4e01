package chat

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dexter/internal/agent"
	"dexter/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const writeDeadline = 10 * time.Second

// HandleWS upgrades the connection and serves one chat session per
// received frame. Each event goes out as its own JSON text frame; the
// [DONE] sentinel frame closes a completed session.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	caller := callerID(r)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debugf("WebSocket read ended: %v", err)
			}
			return
		}

		if req.Model == "" {
			req.Model = h.defaultModel
		}

		q := agent.Query{
			Text:     req.Query,
			ModelID:  req.Model,
			Stream:   true,
			CallerID: caller,
		}

		session, err := h.orchestrator.Run(r.Context(), q)
		if err != nil {
			_, reason := admissionStatus(err)
			metrics.RequestRejected(reason)
			if writeErr := h.writeFrame(conn, agent.Event{
				Type: agent.EventError,
				Data: map[string]string{"message": err.Error()},
			}); writeErr != nil {
				return
			}
			continue
		}

		if !h.streamToConn(conn, session) {
			return
		}
	}
}

// streamToConn relays one session; returns false when the connection is
// no longer usable.
func (h *Handler) streamToConn(conn *websocket.Conn, s *agent.Session) bool {
	for ev := range s.Events() {
		if err := h.writeFrame(conn, ev); err != nil {
			h.log.Debugf("WebSocket write failed for query %s: %v", s.Query.ID, err)
			// Drain so the session goroutine can finish.
			for range s.Events() {
			}
			return false
		}
	}

	if s.State() != agent.StateFailed {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(doneSentinel)); err != nil {
			return false
		}
	}
	return true
}

func (h *Handler) writeFrame(conn *websocket.Conn, ev agent.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(ev)
}

package httpapi

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/idleduelist/server/internal/combat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // origin already enforced by cors() on the HTTP upgrade request
}

// wsConn wraps a gorilla connection with its own write lock: gorilla
// forbids concurrent writers on one *websocket.Conn, and broadcastCombat
// may race a connection's own read-loop goroutine (which only reads, so
// no lock needed there) against another combat action's broadcast.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// handleCombatStream upgrades the request to a WebSocket and streams
// combat.ActionLogEvents as they are produced, so a client animates
// from the pushed event stream instead of polling GET /combat/{id}.
// Per spec Design Note 3 the server never sleeps between turns; pacing
// is entirely the client's concern.
func (s *Server) handleCombatStream(c *gin.Context) {
	combatID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn}
	s.registerConn(combatID, ws)
	defer s.unregisterConn(combatID, ws)

	if state, err := s.combatMgr.GetCombat(c.Request.Context(), combatID); err == nil {
		_ = ws.writeJSON(toCombatStatePayload(state))
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).WithField("combat_id", combatID).Error("websocket unexpected close")
			}
			return
		}
		// Clients only push keepalive pings on this stream; all state
		// changes flow one-way from broadcastCombat.
	}
}

func (s *Server) registerConn(combatID string, ws *wsConn) {
	s.hubMu.Lock()
	defer s.hubMu.Unlock()
	conns, ok := s.hub[combatID]
	if !ok {
		conns = make(map[*wsConn]struct{})
		s.hub[combatID] = conns
	}
	conns[ws] = struct{}{}
}

func (s *Server) unregisterConn(combatID string, ws *wsConn) {
	s.hubMu.Lock()
	defer s.hubMu.Unlock()
	conns, ok := s.hub[combatID]
	if !ok {
		return
	}
	delete(conns, ws)
	if len(conns) == 0 {
		delete(s.hub, combatID)
	}
}

// broadcastCombat pushes state to every socket currently streaming
// combatID. A dead socket's write error is logged and left for its own
// read-loop to unregister; broadcast never blocks waiting on one slow
// client at the expense of the others.
func (s *Server) broadcastCombat(combatID string, state *combat.CombatState) {
	s.hubMu.RLock()
	conns := make([]*wsConn, 0, len(s.hub[combatID]))
	for ws := range s.hub[combatID] {
		conns = append(conns, ws)
	}
	s.hubMu.RUnlock()

	payload := toCombatStatePayload(state)
	for _, ws := range conns {
		if err := ws.writeJSON(payload); err != nil {
			logrus.WithError(err).WithField("combat_id", combatID).Warn("websocket broadcast failed")
		}
	}
}

package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/neuramaint/pumpml/internal/metrics"
	"github.com/neuramaint/pumpml/internal/predictor"
)

// scoreEvent is one completed prediction pushed to dashboard clients.
type scoreEvent struct {
	SensorID  int                   `json:"sensor_id"`
	Result    predictor.ScoreResult `json:"result"`
	Timestamp time.Time             `json:"timestamp"`
}

// scoreHub fans each completed prediction out to connected websocket
// clients. Slow or dead clients are dropped rather than back-pressuring the
// scoring path.
type scoreHub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newScoreHub(log *zap.Logger, allowedOrigins []string) *scoreHub {
	h := &scoreHub{
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// originChecker allows same-origin requests plus the configured dashboard
// origins; "*" allows anything.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// handleConnect upgrades the connection and keeps it registered until the
// client goes away. Clients only receive; inbound frames are drained to
// process control messages.
func (h *scoreHub) handleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	metrics.WSClientsConnected.Inc()
	h.log.Info("score feed client connected", zap.String("remote", conn.RemoteAddr().String()))

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast sends an event to every connected client.
func (h *scoreHub) broadcast(ev scoreEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encoding score event", zap.Error(err))
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(c)
		}
	}
}

func (h *scoreHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if present {
		metrics.WSClientsConnected.Dec()
		conn.Close()
	}
}

// closeAll disconnects every client during shutdown.
func (h *scoreHub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.drop(c)
	}
}

package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/service/pipeline"
)

// ProgressHub fans pipeline stage events out to connected WebSocket
// clients. Writes never block the pipeline: a slow client just misses
// events.
type ProgressHub struct {
	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]chan pipeline.ProgressEvent
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewProgressHub(allowedOrigins []string, logger *zap.Logger) *ProgressHub {
	h := &ProgressHub{
		clients: make(map[*websocket.Conn]chan pipeline.ProgressEvent),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// HandleWS upgrades the connection and streams events until the client
// disconnects.
func (h *ProgressHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	events := make(chan pipeline.ProgressEvent, 64)

	h.mu.Lock()
	h.clients[conn] = events
	h.mu.Unlock()

	h.logger.Info("Progress client connected",
		zap.String("remote", conn.RemoteAddr().String()),
	)

	go h.writeLoop(conn, events)
	h.readLoop(conn)
}

// Notify implements pipeline.Notifier.
func (h *ProgressHub) Notify(event pipeline.ProgressEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, events := range h.clients {
		select {
		case events <- event:
		default:
			// client buffer full, drop the event
		}
	}
}

func (h *ProgressHub) writeLoop(conn *websocket.Conn, events chan pipeline.ProgressEvent) {
	for event := range events {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug("Progress write failed", zap.Error(err))
			conn.Close()
			return
		}
	}
}

// readLoop drains the connection so close frames are processed; clients
// send nothing meaningful.
func (h *ProgressHub) readLoop(conn *websocket.Conn) {
	defer h.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ProgressHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if events, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(events)
	}
	h.mu.Unlock()

	conn.Close()
	h.logger.Info("Progress client disconnected")
}

// Close disconnects every client.
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, events := range h.clients {
		delete(h.clients, conn)
		close(events)
		conn.Close()
	}
}

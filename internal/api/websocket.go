package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// MaxWSConnectionsTotal caps WebSocket connections across all clients
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	writeWait = 5 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
}

// WebSocketHub fans match state out to connected clients
type WebSocketHub struct {
	mu        sync.RWMutex
	clients   map[*wsClient]struct{}
	wsLimiter *WebSocketRateLimiter
	upgrader  websocket.Upgrader
	log       *zap.SugaredLogger
}

// NewWebSocketHub creates a hub accepting the given origins
func NewWebSocketHub(origins *OriginChecker, logger *zap.Logger) *WebSocketHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if origins == nil {
		origins = NewOriginChecker(nil)
	}
	h := &WebSocketHub{
		clients:   make(map[*wsClient]struct{}),
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		log:       logger.Sugar().Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origins.Allowed(origin) {
				return true
			}
			h.log.Warnw("WebSocket origin rejected", "origin", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Broadcast queues an event for every client. Slow clients drop messages.
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		h.log.Errorw("Broadcast encode failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	IncrementWSMessages()
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RunBroadcastLoop pushes state() as "match:state" every interval until
// ctx is done
func (h *WebSocketHub) RunBroadcastLoop(ctx context.Context, interval time.Duration, state func() interface{}) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast("match:state", state())
		}
	}
}

// HandleWebSocket upgrades a connection and registers it with the hub
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if h.ClientCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debugw("WebSocket upgrade failed", "ip", ip, "error", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{conn: conn, ip: ip, send: make(chan []byte, 16)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	UpdateWSConnections(count)
	h.log.Debugw("Client connected", "ip", ip, "clients", count)

	go h.writeLoop(c)
	go h.readLoop(c)
}

// readLoop drains client frames so control messages are processed
func (h *WebSocketHub) readLoop(c *wsClient) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHub) writeLoop(c *wsClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
	c.conn.Close()
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.wsLimiter.Release(c.ip)
	UpdateWSConnections(count)
	h.log.Debugw("Client disconnected", "ip", c.ip, "clients", count)
}

func (h *WebSocketHub) closeAll() {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"snake-duel/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	// Server-pushed events
	EventSnapshot = "game:snapshot"
	EventGameOver = "game:over"
	EventError    = "error"
)

var (
	errUnauthorized   = errors.New("control token required")
	errUnknownMessage = errors.New("unknown message type")
	errRateLimited    = errors.New("rate limited")
)

// wsClient tracks a WebSocket connection with its source IP.
// control is true when the client presented the control token on upgrade.
type wsClient struct {
	conn    *websocket.Conn
	ip      string
	control bool
	writeMu sync.Mutex
}

func (c *wsClient) write(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// ClientMessage is a command sent by a WebSocket client
type ClientMessage struct {
	Type      string `json:"type"` // "direction", "start" or "stop"
	Player    int    `json:"player,omitempty"`
	Direction string `json:"direction,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// HubOptions configures a WebSocketHub. Every field is optional.
type HubOptions struct {
	Guard   *ControlGuard  // nil leaves start/stop open
	Limiter *ClientLimiter // charges direction and control messages; nil is unlimited
	Origins *OriginPolicy  // nil allows loopback only
}

// WebSocketHub manages all WebSocket connections with DoS protection.
// It pushes snapshots and game-over events and forwards client commands to the engine.
type WebSocketHub struct {
	engine   EngineInterface
	guard    *ControlGuard
	limiter  *ClientLimiter
	upgrader websocket.Upgrader

	clients    map[*websocket.Conn]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	slots *connSlots
}

// NewWebSocketHub creates a new hub with connection limiting
func NewWebSocketHub(engine EngineInterface, opts HubOptions) *WebSocketHub {
	origins := opts.Origins
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}

	return &WebSocketHub{
		engine:  engine,
		guard:   opts.Guard,
		limiter: opts.Limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origins.Allows(origin) {
					return true
				}
				log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
				RecordConnectionRejected("origin")
				return false
			},
		},
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		slots:      newConnSlots(MaxWSConnectionsPerIP, MaxWSConnectionsTotal),
	}
}

// Run starts the hub; it returns after Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.slots.release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

		case conn := <-h.unregister:
			h.mu.Lock()
			if client, ok := h.clients[conn]; ok {
				// Release the connection slot for this IP
				h.slots.release(client.ip)
				delete(h.clients, conn)
				conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.RLock()
			var failed []*websocket.Conn
			for conn, client := range h.clients {
				if err := client.write(message); err != nil {
					failed = append(failed, conn)
				}
			}
			h.mu.RUnlock()

			if len(failed) > 0 {
				h.mu.Lock()
				for _, conn := range failed {
					if client, ok := h.clients[conn]; ok {
						h.slots.release(client.ip)
						delete(h.clients, conn)
						conn.Close()
					}
				}
				h.mu.Unlock()
			}
			IncrementWSMessages()
		}
	}
}

// Stop closes every connection and ends Run and the broadcast loop
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	jsonBytes, err := encodeEvent(event, data)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- jsonBytes:
	default:
		// Channel full, skip (backpressure)
	}
}

func encodeEvent(event string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop pushes a snapshot every interval while clients are connected.
// Unchanged snapshots are skipped.
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-h.stopChan:
				return
			case <-ticker.C:
			}

			if h.ClientCount() == 0 {
				continue
			}

			snap := h.engine.GetSnapshot().Clone()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			h.Broadcast(EventSnapshot, snap)
		}
	}()
}

// BroadcastGameOver pushes a game-over event; register it with Engine.OnGameOver
func (h *WebSocketHub) BroadcastGameOver(ev game.GameOverEvent) {
	h.Broadcast(EventGameOver, ev)
}

// HandleWebSocket handles incoming WebSocket connections with DoS protection
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)

	switch reason := h.slots.acquire(ip); reason {
	case "":
	case "ws_total_limit":
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", MaxWSConnectionsTotal)
		RecordConnectionRejected(reason)
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	default:
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected(reason)
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.slots.release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip, control: h.guard.Authorized(r)}
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.slots.release(ip)
		conn.Close()
		return
	}

	// Greet with the current state so clients can draw immediately
	if msg, err := encodeEvent(EventSnapshot, h.engine.GetSnapshot().Clone()); err == nil {
		client.write(msg)
	}

	// Read commands from the client
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.stopChan:
			}
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			var msg ClientMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				h.reply(client, "invalid message")
				continue
			}
			if err := h.dispatch(client, msg); err != nil {
				h.reply(client, err.Error())
			}
		}
	}()
}

// dispatch applies one client command to the engine
func (h *WebSocketHub) dispatch(client *wsClient, msg ClientMessage) error {
	switch msg.Type {
	case "direction":
		if !h.allow(client, LaneInput) {
			return errRateLimited
		}
		dir, err := game.ParseDirection(msg.Direction)
		if err != nil {
			return err
		}
		player := msg.Player
		if player == 0 {
			player = 1
		}
		return h.engine.SetIntendedDirection(player, dir)

	case "start":
		if !h.allow(client, LaneControl) {
			return errRateLimited
		}
		if !client.control {
			RecordConnectionRejected("unauthorized")
			return errUnauthorized
		}
		mode, err := game.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		log.Printf("🎮 Session start requested via WebSocket from %s: %s", client.ip, mode)
		return h.engine.Start(mode)

	case "stop":
		if !h.allow(client, LaneControl) {
			return errRateLimited
		}
		if !client.control {
			RecordConnectionRejected("unauthorized")
			return errUnauthorized
		}
		h.engine.Stop()
		return nil

	default:
		return errUnknownMessage
	}
}

func (h *WebSocketHub) allow(client *wsClient, lane Lane) bool {
	return h.limiter == nil || h.limiter.Allow(client.ip, lane)
}

func (h *WebSocketHub) reply(client *wsClient, message string) {
	if data, err := encodeEvent(EventError, map[string]string{"error": message}); err == nil {
		client.write(data)
	}
}

package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"snake-duel/internal/api"
	"snake-duel/internal/game"
)

// Backend is the session the client drives. *game.Engine satisfies it for local play.
type Backend interface {
	Start(mode game.Mode) error
	Stop()
	SetIntendedDirection(player int, dir game.Direction) error
	GetSnapshot() *game.GameSnapshot
}

// RemoteBackend drives a session hosted by the API server over its /ws endpoint.
// Commands are fire-and-forget; server-side rejections arrive as error events and are logged.
type RemoteBackend struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	latest  atomic.Pointer[game.GameSnapshot]
	done    chan struct{}
}

// DialRemote connects to a server WebSocket URL such as ws://localhost:3000/ws.
// token is the control token needed for start/stop, if the server sets one.
func DialRemote(ctx context.Context, rawURL, token string) (*RemoteBackend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set(api.ControlTokenQuery, token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	r := &RemoteBackend{
		conn: conn,
		done: make(chan struct{}),
	}
	r.latest.Store(&game.GameSnapshot{})
	go r.readLoop()
	return r, nil
}

func (r *RemoteBackend) readLoop() {
	defer close(r.done)

	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := r.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Event {
		case api.EventSnapshot:
			snap := &game.GameSnapshot{}
			if err := json.Unmarshal(env.Data, snap); err != nil {
				log.Printf("⚠️ Bad snapshot from server: %v", err)
				continue
			}
			r.latest.Store(snap)
		case api.EventError:
			log.Printf("⚠️ Server rejected command: %s", env.Data)
		}
	}
}

func (r *RemoteBackend) send(msg api.ClientMessage) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.conn.SetWriteDeadline(time.Now().Add(time.Second))
	return r.conn.WriteJSON(msg)
}

// Start asks the server to begin a session
func (r *RemoteBackend) Start(mode game.Mode) error {
	return r.send(api.ClientMessage{Type: "start", Mode: mode.String()})
}

// Stop asks the server to end the session
func (r *RemoteBackend) Stop() {
	if err := r.send(api.ClientMessage{Type: "stop"}); err != nil {
		log.Printf("⚠️ Stop not sent: %v", err)
	}
}

// SetIntendedDirection sends a direction request
func (r *RemoteBackend) SetIntendedDirection(player int, dir game.Direction) error {
	return r.send(api.ClientMessage{Type: "direction", Player: player, Direction: dir.String()})
}

// GetSnapshot returns the latest snapshot pushed by the server
func (r *RemoteBackend) GetSnapshot() *game.GameSnapshot {
	return r.latest.Load()
}

// Done is closed when the connection drops
func (r *RemoteBackend) Done() <-chan struct{} {
	return r.done
}

// Close ends the connection
func (r *RemoteBackend) Close() error {
	r.writeMu.Lock()
	r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	r.writeMu.Unlock()
	return r.conn.Close()
}

package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	livesync "back2me/internal/infrastructure/sync"
	"back2me/pkg/logger"
)

// Client is one connected view: a WebSocket connection plus the SyncSession
// that owns its live store subscriptions.
type Client struct {
	UserID  string
	Conn    *websocket.Conn
	Send    chan []byte
	Session *livesync.Session
}

// Manager tracks all active sync connections so teardown is centralized:
// unregistering a client closes its session (stopping every live
// subscription) before its send channel.
type Manager struct {
	clients    map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = struct{}{}
				m.mutex.Unlock()
				logger.Info("Sync client connected: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				_, ok := m.clients[client]
				if ok {
					delete(m.clients, client)
				}
				m.mutex.Unlock()
				if ok {
					client.Session.Close()
					close(client.Send)
					logger.Info("Sync client disconnected: %s", client.UserID)
				}

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Enqueue hands a frame to the client's write pump without blocking the
// snapshot pipeline. A full buffer drops the frame; the next snapshot
// carries the full state anyway.
func (c *Client) Enqueue(message []byte) bool {
	select {
	case c.Send <- message:
		return true
	default:
		logger.Warn("Dropping frame for slow sync client %s", c.UserID)
		return false
	}
}

// EnqueueJSON marshals v and enqueues it.
func (c *Client) EnqueueJSON(v interface{}) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal frame for %s: %v", c.UserID, err)
		return false
	}
	return c.Enqueue(payload)
}

// ReadPump reads commands from the connection until it closes, handing each
// to onMessage, then unregisters the client.
func (c *Client) ReadPump(m *Manager, onMessage func([]byte)) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Sync client %s read error: %v", c.UserID, err)
			}
			break
		}
		onMessage(message)
	}
}

// WritePump sends queued frames to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Warn("Sync client %s write error: %v", c.UserID, err)
			return
		}
	}
}

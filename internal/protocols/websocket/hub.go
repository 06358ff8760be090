// Package websocket - Mission Notification Hub
// Pushes mission completion events to connected users in real time. The
// hub implements the engine's Notifier interface and is injected into it,
// so the engine never touches connection state directly.
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"missionhub/pkg/logger"
	"missionhub/pkg/models"
)

// Constants for connection limits and keepalive
const (
	writeWait       = 10 * time.Second    // Time allowed to write a message
	pongWait        = 60 * time.Second    // Time allowed to read the next pong
	pingPeriod      = (pongWait * 9) / 10 // Send pings to client
	sendBufferSize  = 16                  // Per-connection outbound buffer
	maxConnsPerUser = 8                   // Two browser tabs is normal, eight is abuse
)

// Envelope is the wire format for pushed notifications
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub tracks connected clients per user and fans completion events out
// to every connection that user holds
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // user_id -> connections
	stop    chan struct{}
	stopped bool
}

// NewHub creates a notification hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
		stop:    make(chan struct{}),
	}
}

// MissionCompleted pushes a completion event to the user's connections.
// Never blocks the engine: slow consumers get dropped, not waited on.
func (h *Hub) MissionCompleted(event *models.MissionCompletedEvent) {
	h.broadcast(event.UserID, &Envelope{
		Type:      "mission_completed",
		Payload:   event,
		Timestamp: time.Now(),
	})
}

func (h *Hub) broadcast(userID string, envelope *Envelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		logger.Errorf("failed to marshal notification: %v", err)
		return
	}

	// Sends happen under the read lock: unregister closes the send
	// channel under the write lock, so a close can never land between
	// membership check and send. Full-buffer clients are collected and
	// dropped after the lock is released.
	var dropped []*Client
	h.mu.RLock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			// Buffer full: the consumer stopped reading. Drop it.
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dropped {
		h.unregister(client)
	}
}

// register attaches a connection, enforcing the per-user cap
func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return false
	}
	conns := h.clients[client.userID]
	if len(conns) >= maxConnsPerUser {
		return false
	}
	if conns == nil {
		conns = make(map[*Client]bool)
		h.clients[client.userID] = conns
	}
	conns[client] = true
	logger.WebSocket("connected", client.userID)
	return true
}

// unregister detaches a connection and closes its send channel once
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	close(client.send)
	logger.WebSocket("disconnected", client.userID)
}

// ConnectedUsers reports how many distinct users are connected
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and refuses new ones
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	var all []*Client
	for _, conns := range h.clients {
		for client := range conns {
			all = append(all, client)
		}
	}
	h.mu.Unlock()

	for _, client := range all {
		h.unregister(client)
		client.conn.Close()
	}
	close(h.stop)
}

// Client is one websocket connection belonging to a user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// writePump pushes queued notifications and pings to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.hub.stop:
			return
		}
	}
}

// readPump drains the connection (clients don't send anything we act on)
// and keeps the pong deadline fresh
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

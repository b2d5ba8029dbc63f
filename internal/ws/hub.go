package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	FrameTypePresence     = "presence"
	FrameTypeTyping       = "typing"
	FrameTypeChat         = "chat"
	FrameTypeNotification = "notification"
)

// Frame is the single message shape on the WebSocket channel, both
// directions. Unused fields stay absent on the wire.
type Frame struct {
	Type        string      `json:"type"`
	SenderID    int         `json:"sender_id,omitempty"`
	ProjectID   int         `json:"project_id,omitempty"`
	RecipientID int         `json:"recipient_id,omitempty"`
	Body        string      `json:"body,omitempty"`
	Data        interface{} `json:"data,omitempty"`
	At          time.Time   `json:"at,omitempty"`
}

// Hub is the process-scoped registry of live WebSocket connections, keyed by
// user. Register on connect, Unregister on disconnect; a user may hold
// several connections (multiple tabs, phone plus desktop). Nothing here
// persists; delivery to offline users is the notification store's job.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*Client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds the client and announces presence when this is the user's
// first connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	conns, ok := h.clients[c.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[c.userID] = conns
	}
	first := len(conns) == 0
	conns[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("WebSocket client registered", zap.Int("user_id", c.userID))
	if first {
		h.Broadcast(Frame{Type: FrameTypePresence, SenderID: c.userID, Body: "online", At: time.Now()})
	}
}

// Unregister removes the client, closes its send queue, and announces
// offline presence when the user's last connection is gone. Safe to call
// more than once for the same client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	conns, ok := h.clients[c.userID]
	if ok {
		if _, present := conns[c]; present {
			delete(conns, c)
			close(c.send)
		}
		if len(conns) == 0 {
			delete(h.clients, c.userID)
		}
	}
	last := !ok || len(conns) == 0
	h.mu.Unlock()

	h.logger.Debug("WebSocket client unregistered", zap.Int("user_id", c.userID))
	if ok && last {
		h.Broadcast(Frame{Type: FrameTypePresence, SenderID: c.userID, Body: "offline", At: time.Now()})
	}
}

// SendToUser delivers a frame to every live connection of userID. Returns
// false when the user has none.
func (h *Hub) SendToUser(userID int, f Frame) bool {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("Failed to marshal frame", zap.Error(err))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[userID]
	if !ok || len(conns) == 0 {
		return false
	}
	for c := range conns {
		c.enqueue(data)
	}
	return true
}

// Broadcast fans a frame out to every connected client.
func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("Failed to marshal frame", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.enqueue(data)
		}
	}
}

// Online lists the user ids with at least one live connection.
func (h *Hub) Online() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

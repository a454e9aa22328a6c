package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"elearning_go/internal/domain"
	"elearning_go/internal/service"
)

const writeWait = 10 * time.Second

// Client is one upgraded connection. Writes are serialized because gorilla
// connections allow a single concurrent writer.
type Client struct {
	conn   *websocket.Conn
	userID int64
	mu     sync.Mutex
}

func newClient(conn *websocket.Conn, userID int64) *Client {
	return &Client{conn: conn, userID: userID}
}

// WriteJSON sends v to the peer.
func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks inbox connections per user and legacy per-conversation rooms.
type Hub struct {
	mu    sync.RWMutex
	users map[int64]map[*Client]struct{}
	rooms map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[int64]map[*Client]struct{}),
		rooms: make(map[int64]map[*Client]struct{}),
	}
}

// Register adds an inbox connection for the client's user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.users, c.userID, c)
}

// Unregister removes an inbox connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.users, c.userID, c)
}

// Join adds a legacy connection to a conversation room.
func (h *Hub) Join(conversationID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	add(h.rooms, conversationID, c)
}

// Leave removes a legacy connection from a conversation room.
func (h *Hub) Leave(conversationID int64, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	remove(h.rooms, conversationID, c)
}

// Connections reports how many inbox sockets userID has open.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// BroadcastToUsers sends payload to every inbox connection of the given users.
// A failed write closes that connection; its reader then unregisters it.
func (h *Hub) BroadcastToUsers(userIDs []int64, payload any) {
	for _, uid := range userIDs {
		for _, c := range h.snapshot(h.users, uid) {
			if err := c.WriteJSON(payload); err != nil {
				c.conn.Close()
			}
		}
	}
}

// BroadcastToRoom sends payload to every legacy connection of a conversation.
func (h *Hub) BroadcastToRoom(conversationID int64, payload any) {
	for _, c := range h.snapshot(h.rooms, conversationID) {
		if err := c.WriteJSON(payload); err != nil {
			c.conn.Close()
		}
	}
}

// Deliver pushes a stored message to the inbox sockets of its participants
// and to the legacy sockets open on its conversation.
func (h *Hub) Deliver(d *service.Delivery) {
	h.BroadcastToUsers(d.ParticipantIDs, d.Frame)
	h.BroadcastToRoom(int64(d.Frame.ConversationID), domain.ChatEvent{Message: d.Frame.Message, SenderID: d.Frame.SenderID})
}

func (h *Hub) snapshot(m map[int64]map[*Client]struct{}, key int64) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(m[key]))
	for c := range m[key] {
		out = append(out, c)
	}
	return out
}

func add(m map[int64]map[*Client]struct{}, key int64, c *Client) {
	if m[key] == nil {
		m[key] = make(map[*Client]struct{})
	}
	m[key][c] = struct{}{}
}

func remove(m map[int64]map[*Client]struct{}, key int64, c *Client) {
	if set, ok := m[key]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}

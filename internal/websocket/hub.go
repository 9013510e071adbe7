package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one connection with a write lock. gorilla/websocket permits a
// single concurrent writer per connection, and writes arrive from two sides:
// the handler's read-loop replies and engine hooks publishing through the
// Hub. Every write goes through Send so the two can never interleave.
type Client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

// NewClient wraps an upgraded connection.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Send writes a typed payload, serialized against all other writers.
func (c *Client) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteTyped(c.conn, v)
}

// SendError sends a typed ErrorResponse.
func (c *Client) SendError(errMsg string) error {
	return c.Send(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// Read decodes the next message from the connection.
func (c *Client) Read(v interface{}) error {
	return ReadJSON(c.conn, v)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Hub tracks the live client per attempt so engine-originated events
// (section expiry, completion) can be pushed without the candidate polling.
// One client per attempt; a newer connection replaces the older one.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register binds a client to an attempt, closing any previous one.
func (h *Hub) Register(attemptID string, client *Client) {
	h.mu.Lock()
	if old, ok := h.clients[attemptID]; ok && old != client {
		old.Close()
	}
	h.clients[attemptID] = client
	h.mu.Unlock()
}

// Unregister removes a client if it is still the registered one.
func (h *Hub) Unregister(attemptID string, client *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[attemptID]; ok && cur == client {
		delete(h.clients, attemptID)
	}
	h.mu.Unlock()
}

// Publish sends a typed event to the attempt's client, if any. Write
// failures drop the client; the candidate is expected to reconnect.
func (h *Hub) Publish(attemptID string, v interface{}) {
	h.mu.RLock()
	client, ok := h.clients[attemptID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := client.Send(v); err != nil {
		h.mu.Lock()
		if cur, stillOk := h.clients[attemptID]; stillOk && cur == client {
			delete(h.clients, attemptID)
		}
		h.mu.Unlock()
		client.Close()
	}
}

// Package hub is the session registry: it maps transport connections to the
// number they are signed in as and owns their outbound writers.
package hub

import "sync"

type Writer interface {
	Write(message []byte) error
	Close() error
}

type Connection struct {
	ID     string
	Writer Writer

	userID string
}

type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	bound       int
}

func New() *Hub {
	return &Hub{connections: make(map[string]*Connection)}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.connections[conn.ID]; ok && old.userID != "" {
		h.bound--
	}
	conn.userID = ""
	h.connections[conn.ID] = conn
}

// Unregister drops the connection and returns the number it was bound to.
func (h *Hub) Unregister(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.connections[id]
	if !ok {
		return "", false
	}
	delete(h.connections, id)
	if conn.userID == "" {
		return "", false
	}
	h.bound--
	return conn.userID, true
}

// Bind records that connection id is signed in as userID, replacing any
// previous binding of that connection.
func (h *Hub) Bind(id, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.connections[id]
	if !ok || userID == "" {
		return false
	}
	if conn.userID == "" {
		h.bound++
	}
	conn.userID = userID
	return true
}

func (h *Hub) Unbind(id string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.connections[id]
	if !ok || conn.userID == "" {
		return "", false
	}
	userID := conn.userID
	conn.userID = ""
	h.bound--
	return userID, true
}

func (h *Hub) UserFor(id string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conn, ok := h.connections[id]
	if !ok || conn.userID == "" {
		return "", false
	}
	return conn.userID, true
}

func (h *Hub) Connected(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.connections[id]
	return ok
}

// Send writes message to a single connection. A failed write closes the
// connection; its reader then reports the disconnect, which performs the
// registry cleanup.
func (h *Hub) Send(id string, message []byte) bool {
	h.mu.RLock()
	conn, ok := h.connections[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	if err := conn.Writer.Write(message); err != nil {
		_ = conn.Writer.Close()
		return false
	}
	return true
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Bound counts connections signed in as some number.
func (h *Hub) Bound() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bound
}

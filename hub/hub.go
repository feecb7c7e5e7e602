package hub

import (
	"log/slog"
	"sync"

	"freightlink-realtime-server/domain"
)

type room struct {
	clients map[string]domain.Connection // session id -> connection
	mu      sync.RWMutex
}

// Hub routes frames to rooms keyed by user id. Every connection a user
// has open joins the room named after that user, so emitting to a room
// reaches all of the user's tabs and devices. Connections without a
// user id join no room and only receive Broadcast frames.
type Hub struct {
	rooms map[string]*room
	conns map[string]domain.Connection // session id -> every live connection
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
		conns: make(map[string]domain.Connection),
	}
}

func (h *Hub) Join(conn domain.Connection) {
	userID := conn.UserID()

	h.mu.Lock()
	h.conns[conn.ID()] = conn
	total := len(h.conns)
	var r *room
	if userID != "" {
		var exists bool
		r, exists = h.rooms[userID]
		if !exists {
			r = &room{clients: make(map[string]domain.Connection)}
			h.rooms[userID] = r
		}
	}
	h.mu.Unlock()

	if r != nil {
		r.mu.Lock()
		r.clients[conn.ID()] = conn
		r.mu.Unlock()
	}

	slog.Info("client connected", "sessionId", conn.ID(), "userId", userID, "clients", total)
}

func (h *Hub) Leave(conn domain.Connection) {
	userID := conn.UserID()

	h.mu.Lock()
	delete(h.conns, conn.ID())
	total := len(h.conns)
	h.mu.Unlock()

	slog.Info("client disconnected", "sessionId", conn.ID(), "userId", userID, "clients", total)

	if userID == "" {
		return
	}

	h.mu.RLock()
	r, exists := h.rooms[userID]
	h.mu.RUnlock()
	if !exists {
		return
	}

	r.mu.Lock()
	delete(r.clients, conn.ID())
	count := len(r.clients)
	r.mu.Unlock()

	if count == 0 {
		h.mu.Lock()
		delete(h.rooms, userID)
		h.mu.Unlock()
		slog.Debug("room removed", "userId", userID)
	}
}

// EmitToUser delivers data to every open connection of userID. A user
// with no open connections is a no-op: delivery is best-effort, the
// durable record lives upstream.
func (h *Hub) EmitToUser(userID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[userID]
	h.mu.RUnlock()
	if !exists {
		return
	}

	r.mu.RLock()
	members := make([]domain.Connection, 0, len(r.clients))
	for _, c := range r.clients {
		members = append(members, c)
	}
	r.mu.RUnlock()

	h.send(members, data)
}

// Broadcast delivers data to every live connection, including those
// that belong to no room.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	conns := make([]domain.Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	h.send(conns, data)
}

func (h *Hub) send(conns []domain.Connection, data []byte) {
	for _, c := range conns {
		if err := c.Send(data); err != nil {
			// Connection can no longer accept writes; drop it and let
			// its own close path settle presence.
			c.Close()
			go h.Leave(c)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms), len(h.conns)
}

package hub

import (
	"log/slog"
	"sync"

	"github.com/Swatijha060/chatly/domain"
)

type room struct {
	clients map[string]domain.Connection
	mu      sync.RWMutex
}

// Hub is the transport-level room subscription index: roomId -> the live
// connections subscribed to it. Rooms come and go with their subscribers;
// any string is accepted as a room id.
type Hub struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]*room),
	}
}

// Subscribe adds conn to roomID, creating the room on first use.
func (h *Hub) Subscribe(roomID string, conn domain.Connection) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		r = &room{clients: make(map[string]domain.Connection)}
		h.rooms[roomID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.clients[conn.ID()] = conn
	count := len(r.clients)
	r.mu.Unlock()

	slog.Debug("subscribed", "roomId", roomID, "connId", conn.ID(), "clients", count)
}

// Unsubscribe removes connID from roomID. Empty rooms are deleted.
func (h *Hub) Unsubscribe(roomID, connID string) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	delete(r.clients, connID)
	count := len(r.clients)
	r.mu.Unlock()

	if count == 0 {
		h.mu.Lock()
		delete(h.rooms, roomID)
		h.mu.Unlock()
		slog.Debug("room removed", "roomId", roomID)
	}
}

// RemoveConn removes connID from every room it is subscribed to. This is
// the disconnect path; a connection may sit in more than one transport room
// when it joined again without leaving first.
func (h *Hub) RemoveConn(connID string) {
	h.mu.RLock()
	roomIDs := make([]string, 0, len(h.rooms))
	for roomID, r := range h.rooms {
		r.mu.RLock()
		_, in := r.clients[connID]
		r.mu.RUnlock()
		if in {
			roomIDs = append(roomIDs, roomID)
		}
	}
	h.mu.RUnlock()

	for _, roomID := range roomIDs {
		h.Unsubscribe(roomID, connID)
	}
}

// InRoom reports whether connID is currently subscribed to roomID.
func (h *Hub) InRoom(roomID, connID string) bool {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, in := r.clients[connID]
	return in
}

// Send delivers data to every connection in roomID, sender included.
func (h *Hub) Send(roomID string, data []byte) {
	h.fanout(roomID, "", data)
}

// Relay delivers data to every connection in roomID except senderID.
func (h *Hub) Relay(roomID, senderID string, data []byte) {
	h.fanout(roomID, senderID, data)
}

func (h *Hub) fanout(roomID, excludeID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.clients {
		if excludeID != "" && id == excludeID {
			continue
		}
		if err := conn.Send(data); err != nil {
			go func(roomID, connID string) {
				h.Unsubscribe(roomID, connID)
			}(roomID, id)
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.clients)
		r.mu.RUnlock()
	}
	return rooms, clients
}

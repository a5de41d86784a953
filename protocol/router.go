// Package protocol implements the realtime event router: it owns the
// user/connection registry and the room membership tracker, dispatches
// inbound client events, and fans the resulting broadcasts out through the
// hub.
package protocol

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Swatijha060/chatly/domain"
	"github.com/Swatijha060/chatly/hub"
	"github.com/Swatijha060/chatly/presence"
)

// Event is the wire envelope for every realtime frame, inbound and outbound.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventRegisterUser = "register user"
	EventJoinRoom     = "join room"
	EventLeaveRoom    = "leave room"
	EventNewMessage   = "new message"
	EventTyping       = "typing"
	EventStopTyping   = "stop typing"
)

// Outbound event names.
const (
	EventRoomUsers       = "room users"
	EventMessageReceived = "message received"
	EventUserTyping      = "user typing"
	EventUserStopTyping  = "user stop typing"
)

// userRef is how the client protocol addresses a user. Username is only set
// on registration payloads; presence lists carry the id alone.
type userRef struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
}

// Router handles the connection lifecycle: identity registration, room
// join/leave, message and typing relay, and disconnect cleanup. A single
// mutex serializes every event, so each handler observes and mutates a
// consistent snapshot and the sequence of presence broadcasts for a room
// matches the arrival order of the events that changed it.
//
// The router never fails across this boundary: malformed payloads are
// dropped and anomalies degrade to no-ops.
type Router struct {
	mu       sync.Mutex
	registry *presence.Registry
	rooms    *presence.Rooms
	hub      *hub.Hub
}

func NewRouter(h *hub.Hub) *Router {
	return &Router{
		registry: presence.NewRegistry(),
		rooms:    presence.NewRooms(),
		hub:      h,
	}
}

// Handle dispatches one inbound frame from conn.
func (rt *Router) Handle(conn domain.Connection, data []byte) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		slog.Warn("invalid frame", "connId", conn.ID(), "error", err)
		return
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	switch evt.Event {
	case EventRegisterUser:
		rt.handleRegister(conn, evt.Data)
	case EventJoinRoom:
		rt.handleJoin(conn, evt.Data)
	case EventLeaveRoom:
		rt.handleLeave(conn, evt.Data)
	case EventNewMessage:
		rt.handleMessage(conn, evt.Data)
	case EventTyping:
		rt.handleTyping(conn, evt.Data)
	case EventStopTyping:
		rt.handleStopTyping(conn, evt.Data)
	default:
		slog.Debug("unknown event", "event", evt.Event, "connId", conn.ID())
	}
}

// Disconnect clears all state held for conn and rebroadcasts presence to the
// room it occupied, if any. It does not synthesize a "user stop typing" for
// rooms the user was typing in; clients recover via their own typing timeout.
func (rt *Router) Disconnect(conn domain.Connection) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.registry.UnregisterConn(conn.ID())
	roomID, hadRoom := rt.rooms.RoomOf(conn.ID())
	rt.rooms.Leave(conn.ID())
	rt.hub.RemoveConn(conn.ID())

	if hadRoom {
		rt.broadcastRoomUsers(roomID)
	}
	slog.Info("connection closed", "connId", conn.ID())
}

func (rt *Router) handleRegister(conn domain.Connection, data json.RawMessage) {
	var user userRef
	if err := json.Unmarshal(data, &user); err != nil || user.ID == "" {
		return
	}
	if bound := conn.UserID(); bound != "" && bound != user.ID {
		slog.Warn("registration rejected: claimed id does not match authenticated user",
			"connId", conn.ID(), "claimed", user.ID, "authenticated", bound)
		return
	}
	rt.registry.Register(user.ID, conn.ID())
	slog.Info("user registered", "userId", user.ID, "username", user.Username, "connId", conn.ID())
}

func (rt *Router) handleJoin(conn domain.Connection, data json.RawMessage) {
	roomID, ok := roomFrom(data)
	if !ok {
		return
	}
	rt.hub.Subscribe(roomID, conn)
	rt.rooms.Join(conn.ID(), roomID)
	rt.broadcastRoomUsers(roomID)
	slog.Info("joined room", "roomId", roomID, "connId", conn.ID())
}

func (rt *Router) handleLeave(conn domain.Connection, data json.RawMessage) {
	roomID, ok := roomFrom(data)
	if !ok {
		return
	}
	rt.hub.Unsubscribe(roomID, conn.ID())
	rt.rooms.Leave(conn.ID())
	rt.broadcastRoomUsers(roomID)
	slog.Info("left room", "roomId", roomID, "connId", conn.ID())
}

// handleMessage relays the payload as-is to everyone else in the room named
// by its groupId. Persistence happened on the HTTP path before this event
// fires; payloads without a groupId are dropped.
func (rt *Router) handleMessage(conn domain.Connection, data json.RawMessage) {
	var msg struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.GroupID == "" {
		return
	}
	out, err := encode(EventMessageReceived, data)
	if err != nil {
		return
	}
	rt.hub.Relay(msg.GroupID, conn.ID(), out)
}

func (rt *Router) handleTyping(conn domain.Connection, data json.RawMessage) {
	var t struct {
		GroupID string          `json:"groupId"`
		User    json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(data, &t); err != nil || t.GroupID == "" {
		return
	}
	out, err := encode(EventUserTyping, t.User)
	if err != nil {
		return
	}
	rt.hub.Relay(t.GroupID, conn.ID(), out)
}

func (rt *Router) handleStopTyping(conn domain.Connection, data json.RawMessage) {
	var t struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(data, &t); err != nil || t.GroupID == "" {
		return
	}
	out, err := encode(EventUserStopTyping, nil)
	if err != nil {
		return
	}
	rt.hub.Relay(t.GroupID, conn.ID(), out)
}

// broadcastRoomUsers recomputes the presence snapshot for roomID and sends
// it to every live connection in the room. Callers must hold rt.mu.
func (rt *Router) broadcastRoomUsers(roomID string) {
	userIDs := rt.rooms.Snapshot(roomID, rt.registry, func(connID string) bool {
		return rt.hub.InRoom(roomID, connID)
	})

	refs := make([]userRef, 0, len(userIDs))
	for _, id := range userIDs {
		refs = append(refs, userRef{ID: id})
	}
	payload, err := json.Marshal(refs)
	if err != nil {
		return
	}
	out, err := encode(EventRoomUsers, payload)
	if err != nil {
		return
	}
	rt.hub.Send(roomID, out)
}

func roomFrom(data json.RawMessage) (string, bool) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil || roomID == "" {
		return "", false
	}
	return roomID, true
}

func encode(event string, data json.RawMessage) ([]byte, error) {
	return json.Marshal(Event{Event: event, Data: data})
}

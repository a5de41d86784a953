package domain

import "time"

// Connection is one live duplex channel to a client. The realtime layer only
// ever holds this handle; the transport adapter owns the underlying socket.
type Connection interface {
	ID() string
	// UserID returns the principal authenticated at upgrade time, or ""
	// when the connection carries none.
	UserID() string
	Send(data []byte) error
	Close() error
}

// EventHandler consumes inbound frames and connection lifecycle events.
type EventHandler interface {
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}

// User is a registered account. The json field names follow the client
// protocol, which addresses users by "_id".
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Group is a named chat group. Its id doubles as the realtime room id.
type Group struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AdminID     string    `json:"admin"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message is one persisted chat message with its sender resolved.
type Message struct {
	ID        string    `json:"_id"`
	Sender    User      `json:"sender"`
	GroupID   string    `json:"group"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

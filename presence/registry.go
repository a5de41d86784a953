// Package presence tracks which users are connected and which room each
// connection currently occupies. Both containers are plain in-memory maps
// owned by the event router, which serializes all access; they carry no
// locking of their own.
package presence

// Registry maps a user id to its current live connection. A later
// registration for the same user overwrites the earlier one; the reverse
// index lets the overwrite clear the orphaned entry in O(1) instead of
// leaving it for the next liveness scan.
type Registry struct {
	byUser map[string]string // user id -> conn id
	byConn map[string]string // conn id -> user id
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Register binds userID to connID. Last write wins; duplicate calls are
// idempotent and there are no error conditions.
func (r *Registry) Register(userID, connID string) {
	if old, ok := r.byUser[userID]; ok && old != connID {
		delete(r.byConn, old)
	}
	if oldUser, ok := r.byConn[connID]; ok && oldUser != userID {
		delete(r.byUser, oldUser)
	}
	r.byUser[userID] = connID
	r.byConn[connID] = userID
}

// UnregisterConn removes the entry registered on connID, if any.
func (r *Registry) UnregisterConn(connID string) {
	userID, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	if r.byUser[userID] == connID {
		delete(r.byUser, userID)
	}
}

// Lookup returns the connection most recently registered for userID.
func (r *Registry) Lookup(userID string) (string, bool) {
	connID, ok := r.byUser[userID]
	return connID, ok
}

// UserOf returns the user registered on connID.
func (r *Registry) UserOf(connID string) (string, bool) {
	userID, ok := r.byConn[connID]
	return userID, ok
}

// Each calls fn for every (userID, connID) pair in no particular order.
func (r *Registry) Each(fn func(userID, connID string)) {
	for userID, connID := range r.byUser {
		fn(userID, connID)
	}
}

func (r *Registry) Len() int {
	return len(r.byUser)
}

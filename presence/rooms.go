package presence

// Rooms tracks the single room each connection currently occupies. Joining
// a new room overwrites the record without any side effect on the old room;
// the caller decides whether the old room gets a fresh presence broadcast.
type Rooms struct {
	byConn map[string]string // conn id -> room id
}

func NewRooms() *Rooms {
	return &Rooms{byConn: make(map[string]string)}
}

func (m *Rooms) Join(connID, roomID string) {
	m.byConn[connID] = roomID
}

// Leave removes the membership entry. Absent entries are a no-op.
func (m *Rooms) Leave(connID string) {
	delete(m.byConn, connID)
}

func (m *Rooms) RoomOf(connID string) (string, bool) {
	roomID, ok := m.byConn[connID]
	return roomID, ok
}

// Snapshot returns the ids of users whose registered connection is live in
// roomID right now. Registry and membership entries can go stale between a
// disconnect and their cleanup, so liveness is re-checked against the
// transport via live instead of trusting the stored state.
func (m *Rooms) Snapshot(roomID string, reg *Registry, live func(connID string) bool) []string {
	var users []string
	reg.Each(func(userID, connID string) {
		if !live(connID) {
			return
		}
		if room, ok := m.byConn[connID]; ok && room == roomID {
			users = append(users, userID)
		}
	})
	return users
}

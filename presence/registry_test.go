package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LastWriteWins(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "c1")
	r.Register("u1", "c2")

	connID, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)

	// The overwritten connection must not linger in the reverse index.
	_, ok = r.UserOf("c1")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConnReuseByAnotherUser(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "c1")
	r.Register("u2", "c1")

	_, ok := r.Lookup("u1")
	assert.False(t, ok)

	connID, ok := r.Lookup("u2")
	require.True(t, ok)
	assert.Equal(t, "c1", connID)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UnregisterConn(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "c1")
	r.UnregisterConn("c1")

	_, ok := r.Lookup("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())

	// Unknown connections are a no-op.
	r.UnregisterConn("c9")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Each(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "c1")
	r.Register("u2", "c2")

	seen := map[string]string{}
	r.Each(func(userID, connID string) {
		seen[userID] = connID
	})

	assert.Equal(t, map[string]string{"u1": "c1", "u2": "c2"}, seen)
}

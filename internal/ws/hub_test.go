package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubRegistry(t *testing.T) {
	h := NewHub()
	a1, a2, b := newClient(nil, 1), newClient(nil, 1), newClient(nil, 2)

	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	assert.Equal(t, 2, h.Connections(1))
	assert.Equal(t, 1, h.Connections(2))

	h.Unregister(a1)
	h.Unregister(a1)
	assert.Equal(t, 1, h.Connections(1))

	h.Unregister(a2)
	assert.Zero(t, h.Connections(1))
	assert.NotContains(t, h.users, int64(1))
}

func TestHubRooms(t *testing.T) {
	h := NewHub()
	c := newClient(nil, 1)

	h.Join(7, c)
	assert.Len(t, h.snapshot(h.rooms, 7), 1)
	assert.Empty(t, h.snapshot(h.rooms, 8))

	h.Leave(7, c)
	assert.Empty(t, h.snapshot(h.rooms, 7))
	assert.NotContains(t, h.rooms, int64(7))
}

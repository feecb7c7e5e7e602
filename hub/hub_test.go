package hub

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	userID   string
	received [][]byte
	closed   bool
	mu       sync.Mutex
	sendErr  error
}

func (m *mockConn) ID() string     { return m.id }
func (m *mockConn) UserID() string { return m.userID }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.received
}

func TestHub_EmitToUser(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*Hub) []*mockConn
		target       string
		wantReceived map[string]int
	}{
		{
			name: "fan-out to every tab of the user",
			setup: func(h *Hub) []*mockConn {
				tab1 := &mockConn{id: "s1", userID: "alice"}
				tab2 := &mockConn{id: "s2", userID: "alice"}
				h.Join(tab1)
				h.Join(tab2)
				return []*mockConn{tab1, tab2}
			},
			target:       "alice",
			wantReceived: map[string]int{"s1": 1, "s2": 1},
		},
		{
			name: "no cross-user delivery",
			setup: func(h *Hub) []*mockConn {
				alice := &mockConn{id: "s1", userID: "alice"}
				bob := &mockConn{id: "s2", userID: "bob"}
				h.Join(alice)
				h.Join(bob)
				return []*mockConn{alice, bob}
			},
			target:       "alice",
			wantReceived: map[string]int{"s1": 1, "s2": 0},
		},
		{
			name: "absent recipient is a no-op",
			setup: func(h *Hub) []*mockConn {
				alice := &mockConn{id: "s1", userID: "alice"}
				h.Join(alice)
				return []*mockConn{alice}
			},
			target:       "nobody",
			wantReceived: map[string]int{"s1": 0},
		},
		{
			name: "anonymous connections never receive targeted frames",
			setup: func(h *Hub) []*mockConn {
				anon := &mockConn{id: "s1"}
				alice := &mockConn{id: "s2", userID: "alice"}
				h.Join(anon)
				h.Join(alice)
				return []*mockConn{anon, alice}
			},
			target:       "alice",
			wantReceived: map[string]int{"s1": 0, "s2": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			conns := tt.setup(h)

			h.EmitToUser(tt.target, []byte("payload"))

			for _, c := range conns {
				assert.Len(t, c.getReceived(), tt.wantReceived[c.id], "conn %s", c.id)
			}
		})
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := New()
	alice := &mockConn{id: "s1", userID: "alice"}
	bob := &mockConn{id: "s2", userID: "bob"}
	anon := &mockConn{id: "s3"}
	h.Join(alice)
	h.Join(bob)
	h.Join(anon)

	h.Broadcast([]byte("status"))

	assert.Len(t, alice.getReceived(), 1)
	assert.Len(t, bob.getReceived(), 1)
	assert.Len(t, anon.getReceived(), 1, "roomless connections still see broadcasts")
}

func TestHub_LeaveCleansRoom(t *testing.T) {
	h := New()
	tab1 := &mockConn{id: "s1", userID: "alice"}
	tab2 := &mockConn{id: "s2", userID: "alice"}
	h.Join(tab1)
	h.Join(tab2)

	rooms, clients := h.Stats()
	require.Equal(t, 1, rooms)
	require.Equal(t, 2, clients)

	h.Leave(tab1)
	rooms, clients = h.Stats()
	assert.Equal(t, 1, rooms, "room survives while a tab remains")
	assert.Equal(t, 1, clients)

	h.EmitToUser("alice", []byte("still here"))
	assert.Len(t, tab2.getReceived(), 1)
	assert.Empty(t, tab1.getReceived())

	h.Leave(tab2)
	rooms, clients = h.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, clients)
}

func TestHub_EvictsDeadConnections(t *testing.T) {
	h := New()
	dead := &mockConn{id: "s1", userID: "alice", sendErr: errors.New("buffer full")}
	h.Join(dead)

	h.EmitToUser("alice", []byte("payload"))

	dead.mu.Lock()
	closed := dead.closed
	dead.mu.Unlock()
	assert.True(t, closed)
}

func TestHub_Stats(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Hub)
		wantRooms   int
		wantClients int
	}{
		{
			name:        "empty hub",
			setup:       func(h *Hub) {},
			wantRooms:   0,
			wantClients: 0,
		},
		{
			name: "two tabs share one room",
			setup: func(h *Hub) {
				h.Join(&mockConn{id: "s1", userID: "alice"})
				h.Join(&mockConn{id: "s2", userID: "alice"})
			},
			wantRooms:   1,
			wantClients: 2,
		},
		{
			name: "anonymous connection counts as client only",
			setup: func(h *Hub) {
				h.Join(&mockConn{id: "s1", userID: "alice"})
				h.Join(&mockConn{id: "s2"})
			},
			wantRooms:   1,
			wantClients: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			tt.setup(h)

			rooms, clients := h.Stats()

			assert.Equal(t, tt.wantRooms, rooms)
			assert.Equal(t, tt.wantClients, clients)
		})
	}
}

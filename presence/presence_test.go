package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	op         string // "connect" or "disconnect"
	userID     string
	transition bool // expected return value
}

func TestRegistry_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		steps      []step
		wantOnline []string
	}{
		{
			name: "single tab connect and disconnect",
			steps: []step{
				{"connect", "u1", true},
				{"disconnect", "u1", true},
			},
			wantOnline: []string{},
		},
		{
			name: "two tabs stay online until last closes",
			steps: []step{
				{"connect", "u1", true},
				{"connect", "u1", false},
				{"disconnect", "u1", false},
				{"disconnect", "u1", true},
			},
			wantOnline: []string{},
		},
		{
			name: "reconnect after full disconnect is a fresh transition",
			steps: []step{
				{"connect", "u1", true},
				{"disconnect", "u1", true},
				{"connect", "u1", true},
			},
			wantOnline: []string{"u1"},
		},
		{
			name: "disconnect of unknown user is a no-op",
			steps: []step{
				{"disconnect", "ghost", false},
			},
			wantOnline: []string{},
		},
		{
			name: "independent users do not interfere",
			steps: []step{
				{"connect", "u1", true},
				{"connect", "u2", true},
				{"connect", "u1", false},
				{"disconnect", "u2", true},
			},
			wantOnline: []string{"u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			for i, s := range tt.steps {
				var got bool
				switch s.op {
				case "connect":
					got = r.Connect(s.userID)
				case "disconnect":
					got = r.Disconnect(s.userID)
				}
				assert.Equal(t, s.transition, got, "step %d (%s %s)", i, s.op, s.userID)
			}
			assert.ElementsMatch(t, tt.wantOnline, r.Online())
		})
	}
}

func TestRegistry_ExactlyOneTransitionPerEdge(t *testing.T) {
	r := New()

	const tabs = 5
	transitions := 0
	for i := 0; i < tabs; i++ {
		if r.Connect("u1") {
			transitions++
		}
	}
	require.Equal(t, 1, transitions, "online broadcast per actual transition")
	assert.True(t, r.IsOnline("u1"))

	transitions = 0
	for i := 0; i < tabs; i++ {
		if r.Disconnect("u1") {
			transitions++
		}
	}
	require.Equal(t, 1, transitions, "offline broadcast per actual transition")
	assert.False(t, r.IsOnline("u1"))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_OnlineIsReadOnly(t *testing.T) {
	r := New()
	r.Connect("u1")
	r.Connect("u2")

	first := r.Online()
	second := r.Online()

	assert.ElementsMatch(t, first, second)
	assert.Equal(t, 2, r.Count())
}

package presence

import "sync"

// Registry tracks which user ids currently hold at least one live
// connection. Connections are reference-counted per user so a user with
// several tabs open stays online until the last one closes.
//
// State is process-local and rebuilt empty on restart. Running multiple
// relay processes requires an external shared registry; this one does
// not coordinate across processes.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]int
}

func New() *Registry {
	return &Registry{conns: make(map[string]int)}
}

// Connect records one more live connection for userID and reports
// whether this was the user's first, i.e. whether the user just came
// online. Additional tabs never re-announce the user.
func (r *Registry) Connect(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[userID]++
	return r.conns[userID] == 1
}

// Disconnect records one closed connection for userID and reports
// whether it was the user's last, i.e. whether the user just went
// offline. Calling it for a user with no recorded connections is a
// no-op returning false.
func (r *Registry) Disconnect(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.conns[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(r.conns, userID)
		return true
	}
	r.conns[userID] = n - 1
	return false
}

// Online returns a snapshot of the current presence set.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.conns[userID] > 0
}

// Count returns the number of distinct users online.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

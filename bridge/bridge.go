package bridge

import (
	"log/slog"
	"sync"

	"freightlink-realtime-server/domain"
)

// Bridge hands payloads from the request-handling layer to the live
// socket layer. The caller persists first and publishes second: by the
// time Publish runs the durable write has already committed, so a
// failed or dropped relay costs liveness only, never data.
type Bridge struct {
	mu         sync.RWMutex
	dispatcher domain.Deliverer
}

func New() *Bridge {
	return &Bridge{}
}

// Attach late-binds the dispatcher. Publish calls before Attach are
// dropped with a warning; the socket layer may not exist yet in this
// process when the first HTTP request lands.
func (b *Bridge) Attach(d domain.Deliverer) {
	b.mu.Lock()
	b.dispatcher = d
	b.mu.Unlock()
}

// Publish relays payload to targetUserID's room. Fire-and-forget: it
// never returns an error and never panics, so it can sit after a
// committed write without risking the request.
func (b *Bridge) Publish(targetUserID string, kind domain.EventKind, payload any) {
	b.mu.RLock()
	d := b.dispatcher
	b.mu.RUnlock()

	if d == nil {
		slog.Warn("relay publish dropped, no dispatcher attached",
			"targetUserId", targetUserID, "event", string(kind))
		return
	}
	d.Deliver(targetUserID, kind, payload)
}

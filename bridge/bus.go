package bridge

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"freightlink-realtime-server/domain"
)

const subject = "freightlink.relay"

// Bus fans bridge publishes out across relay processes over NATS.
// Each process attaches the bus to its Bridge and subscribes its own
// dispatcher, so a publish on any node reaches the target user's
// connections wherever they are. Presence stays process-local; only
// delivery traverses the bus.
type Bus struct {
	nc *nats.Conn
}

type busEnvelope struct {
	TargetUserID string           `json:"targetUserId"`
	Event        domain.EventKind `json:"event"`
	Payload      json.RawMessage  `json:"payload,omitempty"`
}

func Connect(url string) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("freightlink-relay"))
	if err != nil {
		return nil, err
	}
	return &Bus{nc: nc}, nil
}

// Deliver implements domain.Deliverer by publishing to the shared
// subject instead of the local hub. Same fire-and-forget contract as
// the in-process path.
func (b *Bus) Deliver(targetUserID string, kind domain.EventKind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("bus payload encode failed", "event", string(kind), "error", err)
		return
	}
	data, err := json.Marshal(busEnvelope{TargetUserID: targetUserID, Event: kind, Payload: raw})
	if err != nil {
		slog.Warn("bus envelope encode failed", "event", string(kind), "error", err)
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		slog.Warn("bus publish failed", "targetUserId", targetUserID, "event", string(kind), "error", err)
	}
}

// Subscribe relays every bus envelope into this process's dispatcher.
func (b *Bus) Subscribe(local domain.Deliverer) (*nats.Subscription, error) {
	return b.nc.Subscribe(subject, func(msg *nats.Msg) {
		var env busEnvelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Warn("bus envelope decode failed", "error", err)
			return
		}
		local.Deliver(env.TargetUserID, env.Event, env.Payload)
	})
}

func (b *Bus) Close() {
	if err := b.nc.Drain(); err != nil {
		slog.Warn("bus drain failed", "error", err)
	}
}

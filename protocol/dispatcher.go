package protocol

import (
	"encoding/json"
	"log/slog"

	"freightlink-realtime-server/domain"
	"freightlink-realtime-server/presence"
)

// Dispatcher routes typed events between connections, the presence
// registry and the room hub. All routing is best-effort: a recipient
// with no open connection simply misses the live update and re-fetches
// from the data store later.
type Dispatcher struct {
	hub      domain.Broadcaster
	registry *presence.Registry

	// remote, when set, carries client-originated events across relay
	// processes. Set once during wiring, before any connection exists.
	remote domain.Deliverer
}

func NewDispatcher(b domain.Broadcaster, registry *presence.Registry) *Dispatcher {
	return &Dispatcher{hub: b, registry: registry}
}

// HandleOpen joins the connection to its user's room and, on the user's
// first connection, announces the online transition to everyone.
func (d *Dispatcher) HandleOpen(conn domain.Connection) {
	d.hub.Join(conn)

	userID := conn.UserID()
	if userID == "" {
		return
	}
	if d.registry.Connect(userID) {
		d.broadcastStatus(userID, domain.StatusOnline)
	}
}

// HandleClose removes the connection and, if it was the user's last,
// announces the offline transition. Closing one of several tabs emits
// nothing.
func (d *Dispatcher) HandleClose(conn domain.Connection) {
	d.hub.Leave(conn)

	userID := conn.UserID()
	if userID == "" {
		return
	}
	if d.registry.Disconnect(userID) {
		d.broadcastStatus(userID, domain.StatusOffline)
	}
}

// Handle decodes one inbound frame and routes it. Unknown kinds are
// rejected with a warning; payloads missing their recipient are
// dropped silently.
func (d *Dispatcher) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid event envelope", "sessionId", conn.ID(), "error", err)
		return
	}

	switch env.Event {
	case domain.EventSendMessage:
		d.handleSendMessage(env.Payload)
	case domain.EventTypingStart:
		d.handleTyping(conn, env.Payload, true)
	case domain.EventTypingStop:
		d.handleTyping(conn, env.Payload, false)
	case domain.EventSendNotification:
		d.handleSendNotification(env.Payload)
	case domain.EventGetOnlineUsers:
		d.handleGetOnlineUsers(conn)
	default:
		slog.Warn("unrecognized event kind", "sessionId", conn.ID(), "event", string(env.Event))
	}
}

// SetRemote routes client-originated events over a shared bus so they
// reach users connected to other relay processes. Presence status
// broadcasts stay process-local regardless.
func (d *Dispatcher) SetRemote(remote domain.Deliverer) {
	d.remote = remote
}

func (d *Dispatcher) route(targetUserID string, kind domain.EventKind, payload any) {
	if d.remote != nil {
		d.remote.Deliver(targetUserID, kind, payload)
		return
	}
	d.Deliver(targetUserID, kind, payload)
}

// Deliver pushes an event to the target user's room on behalf of a
// caller that is not a connected client (the delivery bridge).
func (d *Dispatcher) Deliver(targetUserID string, kind domain.EventKind, payload any) {
	if targetUserID == "" {
		return
	}
	data, err := encode(kind, payload)
	if err != nil {
		slog.Warn("event encode failed", "event", string(kind), "error", err)
		return
	}
	d.hub.EmitToUser(targetUserID, data)
}

func (d *Dispatcher) handleSendMessage(raw json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RecipientID == "" {
		return
	}
	d.route(p.RecipientID, domain.EventNewMessage, p.Message)
}

func (d *Dispatcher) handleTyping(conn domain.Connection, raw json.RawMessage, isTyping bool) {
	var p typingPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.RecipientID == "" {
		return
	}
	d.route(p.RecipientID, domain.EventUserTyping, domain.Typing{
		UserID:         conn.UserID(),
		ConversationID: p.ConversationID,
		IsTyping:       isTyping,
	})
}

func (d *Dispatcher) handleSendNotification(raw json.RawMessage) {
	var p sendNotificationPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.TargetUserID == "" {
		return
	}
	d.route(p.TargetUserID, domain.EventNewNotification, p.Notification)
}

// handleGetOnlineUsers replies to the requesting connection only.
func (d *Dispatcher) handleGetOnlineUsers(conn domain.Connection) {
	data, err := encode(domain.EventOnlineUsersList, d.registry.Online())
	if err != nil {
		slog.Warn("event encode failed", "event", string(domain.EventOnlineUsersList), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("online users reply dropped", "sessionId", conn.ID(), "error", err)
	}
}

func (d *Dispatcher) broadcastStatus(userID, status string) {
	data, err := encode(domain.EventUserStatus, domain.UserStatus{UserID: userID, Status: status})
	if err != nil {
		slog.Warn("event encode failed", "event", string(domain.EventUserStatus), "error", err)
		return
	}
	d.hub.Broadcast(data)
}

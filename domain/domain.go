package domain

import "encoding/json"

// EventKind is the closed set of event names carried over the wire.
// Anything outside this set is rejected at the protocol boundary.
type EventKind string

// Client to server.
const (
	EventSendMessage      EventKind = "send_message"
	EventTypingStart      EventKind = "typing_start"
	EventTypingStop       EventKind = "typing_stop"
	EventSendNotification EventKind = "send_notification"
	EventGetOnlineUsers   EventKind = "get_online_users"
)

// Server to client.
const (
	EventNewMessage      EventKind = "new_message"
	EventNewNotification EventKind = "new_notification"
	EventUserTyping      EventKind = "user_typing"
	EventUserStatus      EventKind = "user_status"
	EventOnlineUsersList EventKind = "online_users_list"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Event   EventKind       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserStatus announces a presence transition to all connected clients.
type UserStatus struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Typing is relayed to the recipient while the sender is composing.
type Typing struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// Connection is one live transport session. UserID is empty for
// connections admitted without an authenticated identity; such
// connections belong to no room and only see broadcast events.
type Connection interface {
	ID() string
	UserID() string
	Send(data []byte) error
	Close() error
}

// Broadcaster routes raw frames to connections by user id or to everyone.
type Broadcaster interface {
	Join(conn Connection)
	Leave(conn Connection)
	EmitToUser(userID string, data []byte)
	Broadcast(data []byte)
	Stats() (rooms, clients int)
}

// Deliverer is the outbound entry point used by code that is not itself
// a connected client, such as HTTP handlers after a durable write.
type Deliverer interface {
	Deliver(targetUserID string, kind EventKind, payload any)
}

// EventHandler receives connection lifecycle hooks and inbound frames
// from the transport layer.
type EventHandler interface {
	HandleOpen(conn Connection)
	Handle(conn Connection, data []byte)
	HandleClose(conn Connection)
}

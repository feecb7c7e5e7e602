package protocol

import (
	"encoding/json"

	"freightlink-realtime-server/domain"
)

// Inbound payload schemas, checked at the boundary. Message and
// notification bodies pass through opaque: the relay never interprets
// durable content, it only routes copies of it.

type sendMessagePayload struct {
	RecipientID string          `json:"recipientId"`
	Message     json.RawMessage `json:"message"`
}

type typingPayload struct {
	RecipientID    string `json:"recipientId"`
	ConversationID string `json:"conversationId"`
}

type sendNotificationPayload struct {
	TargetUserID string          `json:"targetUserId"`
	Notification json.RawMessage `json:"notification"`
}

func encode(kind domain.EventKind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(domain.Envelope{Event: kind, Payload: raw})
}

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"freightlink-realtime-server/domain"
	"freightlink-realtime-server/presence"
	"freightlink-realtime-server/store"
)

// Store is the slice of the data store client the handlers need.
type Store interface {
	CreateMessage(ctx context.Context, m store.Message) (store.Message, error)
	CreateNotification(ctx context.Context, n store.Notification) (store.Notification, error)
}

// Publisher is the delivery bridge as the handlers see it.
type Publisher interface {
	Publish(targetUserID string, kind domain.EventKind, payload any)
}

// Handler serves the REST surface of the relay. Writes go to the data
// store first; only after the store confirms does the handler publish
// the live copy. A relay problem never fails a request whose write
// already committed.
type Handler struct {
	store    Store
	bridge   Publisher
	registry *presence.Registry
	hub      domain.Broadcaster
}

func New(s Store, b Publisher, registry *presence.Registry, hub domain.Broadcaster) *Handler {
	return &Handler{store: s, bridge: b, registry: registry, hub: hub}
}

// Router wires all REST routes. The websocket endpoint is attached by
// the caller on the same router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/messages", h.CreateMessage).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications", h.CreateNotification).Methods(http.MethodPost)
	r.HandleFunc("/api/online", h.OnlineUsers).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	return r
}

type createMessageRequest struct {
	SenderID       string `json:"senderId"`
	RecipientID    string `json:"recipientId"`
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// CreateMessage handles POST /api/messages.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SenderID == "" || req.RecipientID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "senderId, recipientId and content are required")
		return
	}

	stored, err := h.store.CreateMessage(r.Context(), store.Message{
		SenderID:       req.SenderID,
		RecipientID:    req.RecipientID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	})
	if err != nil {
		slog.Error("message write failed", "senderId", req.SenderID, "error", err)
		writeError(w, http.StatusBadGateway, "data store unavailable")
		return
	}

	// Persist first, relay second. The publish cannot fail the request.
	h.bridge.Publish(stored.RecipientID, domain.EventNewMessage, stored)

	writeJSON(w, http.StatusCreated, stored)
}

type createNotificationRequest struct {
	TargetUserID string `json:"targetUserId"`
	Kind         string `json:"kind"`
	Body         string `json:"body"`
}

// CreateNotification handles POST /api/notifications.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TargetUserID == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "targetUserId and body are required")
		return
	}

	stored, err := h.store.CreateNotification(r.Context(), store.Notification{
		TargetUserID: req.TargetUserID,
		Kind:         req.Kind,
		Body:         req.Body,
	})
	if err != nil {
		slog.Error("notification write failed", "targetUserId", req.TargetUserID, "error", err)
		writeError(w, http.StatusBadGateway, "data store unavailable")
		return
	}

	h.bridge.Publish(stored.TargetUserID, domain.EventNewNotification, stored)

	writeJSON(w, http.StatusCreated, stored)
}

// OnlineUsers handles GET /api/online.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": h.registry.Online()})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, clients := h.hub.Stats()
	writeJSON(w, http.StatusOK, map[string]int{
		"rooms":   rooms,
		"clients": clients,
		"online":  h.registry.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

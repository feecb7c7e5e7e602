package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the durable data store service over HTTP. The relay
// never owns durable state: records are created here first, and only a
// confirmed write is relayed to live connections.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// StoreError represents a non-2xx reply from the data store.
type StoreError struct {
	StatusCode int
	Body       []byte
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("data store error %d: %s", e.StatusCode, e.Body)
}

// Message is a direct message record as the data store shapes it.
type Message struct {
	ID             string `json:"id,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	SenderID       string `json:"senderId"`
	RecipientID    string `json:"recipientId"`
	Content        string `json:"content"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// Notification is a notification record as the data store shapes it.
type Notification struct {
	ID           string `json:"id,omitempty"`
	TargetUserID string `json:"targetUserId"`
	Kind         string `json:"kind,omitempty"`
	Body         string `json:"body"`
	CreatedAt    string `json:"createdAt,omitempty"`
}

// CreateMessage durably stores a message and returns the stored record
// including its assigned id.
func (c *Client) CreateMessage(ctx context.Context, m Message) (Message, error) {
	var stored Message
	if err := c.post(ctx, "/messages", m, &stored); err != nil {
		return Message{}, err
	}
	return stored, nil
}

// CreateNotification durably stores a notification and returns the
// stored record.
func (c *Client) CreateNotification(ctx context.Context, n Notification) (Notification, error) {
	var stored Notification
	if err := c.post(ctx, "/notifications", n, &stored); err != nil {
		return Notification{}, err
	}
	return stored, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StoreError{StatusCode: resp.StatusCode, Body: data}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

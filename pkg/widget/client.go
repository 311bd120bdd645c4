package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"CareDesk/models"
)

// Client talks to the chat endpoints on behalf of the widget.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for the given server base URL. token may be
// empty (guest) or a bearer token for a member/staff session.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SendRequest is the POST /messages payload.
type SendRequest struct {
	ConversationID string `json:"conversationId"`
	SenderRole     string `json:"senderRole"`
	SenderName     string `json:"senderName,omitempty"`
	Content        string `json:"content"`
}

// ListMessages fetches one conversation's messages oldest first.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	u := c.baseURL + "/messages?conversationId=" + url.QueryEscape(conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list messages: server returned %d", resp.StatusCode)
	}

	var msgs []models.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage posts a message and returns the server's authoritative record.
func (c *Client) SendMessage(ctx context.Context, sr SendRequest) (models.Message, error) {
	var msg models.Message

	body, err := json.Marshal(sr)
	if err != nil {
		return msg, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return msg, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return msg, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return msg, fmt.Errorf("send message: server returned %d: %s", resp.StatusCode, b)
	}

	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return msg, err
	}
	return msg, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

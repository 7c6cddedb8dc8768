package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"
	defaultTimeout = 10 * time.Second
)

// Client talks to the messaging API with a bot token.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

func New(token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
		token:   token,
	}
}

// NewWithBaseURL targets a non-default endpoint. Used by tests.
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

// ErrorResponse is the error body the API returns on non-2xx statuses.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type messageBody struct {
	Content string `json:"content"`
}

// SendMessage posts a plain-content message to one channel.
func (c *Client) SendMessage(ctx context.Context, channelID string, content string) error {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return c.post(ctx, http.MethodPost, path, messageBody{Content: content})
}

// Command describes a slash command for registration.
type Command struct {
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	NameLocalizations map[string]string `json:"name_localizations,omitempty"`
}

// RegisterCommands replaces the application's global slash commands.
func (c *Client) RegisterCommands(ctx context.Context, applicationID string, commands []Command) error {
	path := fmt.Sprintf("/applications/%s/commands", applicationID)
	return c.post(ctx, http.MethodPut, path, commands)
}

func (c *Client) post(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			return fmt.Errorf("discord api error: %d", resp.StatusCode)
		}
		return fmt.Errorf("discord api error: %d - %s", resp.StatusCode, errBody.Message)
	}

	return nil
}

package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/line-ec-lea/influ-discord-bot"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
	defaultTimeout = 10 * time.Second
)

// Client talks to the record-store API.
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

// QueryRequest is the body of a database query call.
type QueryRequest struct {
	PageSize int     `json:"page_size,omitempty"`
	Filter   *Filter `json:"filter,omitempty"`
}

// Filter narrows a query to pages matching one property condition.
type Filter struct {
	Property string          `json:"property"`
	People   *ContainsFilter `json:"people,omitempty"`
	RichText *ContainsFilter `json:"rich_text,omitempty"`
}

type ContainsFilter struct {
	Contains string `json:"contains"`
}

// QueryResponse is one page of query results.
type QueryResponse struct {
	Object  string       `json:"object"`
	Results []influ.Page `json:"results"`
	HasMore bool         `json:"has_more"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryDatabase runs a filtered query against one database.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, query QueryRequest) (*QueryResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %v", err)
	}

	url := c.baseURL + "/v1/databases/" + databaseID + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr apiError
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("notion api error: %d - %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result QueryResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	return &result, nil
}

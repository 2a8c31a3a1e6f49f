package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// APIError is a structured rejection from the server. Anything else returned
// by the client is a transport failure and may be queued for replay.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func SessionPath(id string, parts ...string) string {
	p := "/v1/sessions/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *Client) Sectors(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/sectors", nil, &out, "")
	return out, err
}

func (c *Client) CreateSession(ctx context.Context, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sessions", body, &out, "")
	return out, err
}

func (c *Client) ListSessions(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/sessions", nil, &out, "")
	return out, err
}

func (c *Client) State(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, SessionPath(id), nil, &out, "")
	return out, err
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.jsonRequest(ctx, http.MethodDelete, SessionPath(id), nil, nil, "")
}

func (c *Client) Transactions(ctx context.Context, id string, limit int) (map[string]any, error) {
	var out map[string]any
	path := SessionPath(id, "transactions") + "?limit=" + strconv.Itoa(limit)
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out, err
}

// Snapshot returns the raw snapshot document so it can be written to disk
// unchanged.
func (c *Client) Snapshot(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.jsonRequest(ctx, http.MethodGet, SessionPath(id, "snapshot"), nil, &out, "")
	return out, err
}

func (c *Client) RestoreSnapshot(ctx context.Context, id string, snapshot json.RawMessage, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPut, SessionPath(id, "snapshot"), snapshot, &out, idem)
	return out, err
}

func (c *Client) SyncReplay(ctx context.Context, commands any) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sync/replay", map[string]any{
		"commands": commands,
	}, &out, "")
	return out, err
}

// Do sends a keyed write. Session actions all go through here so the CLI can
// queue the exact same request when the server is unreachable.
func (c *Client) Do(ctx context.Context, method, path string, body any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, body, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

package erpnext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mahmodDAHOL/remote-fingerprint-erpnext/internal/config"
)

// Client talks to the ERPNext Shift Type resource API.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewClient creates an ERPNext API client.
func NewClient(cfg config.ERPNextConfig) *Client {
	return &Client{
		baseURL:   cfg.URL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// APIError represents a non-2xx ERPNext API response. It is retryable:
// the caller keeps its local state and tries again next cycle.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("erpnext API error [%d]: %s", e.StatusCode, e.Body)
}

type shiftSyncPayload struct {
	LastSyncOfCheckin string `json:"last_sync_of_checkin"`
}

// PushShiftSync implements device.ShiftSyncPusher. It PUTs the new sync
// point onto the named Shift Type resource.
func (c *Client) PushShiftSync(ctx context.Context, shiftName string, syncTimestamp time.Time) error {
	endpoint := fmt.Sprintf("%s/api/resource/Shift Type/%s", c.baseURL, url.PathEscape(shiftName))

	body, err := json.Marshal(shiftSyncPayload{
		LastSyncOfCheckin: syncTimestamp.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return fmt.Errorf("failed to encode shift sync payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build shift sync request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.apiKey+":"+c.apiSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shift sync request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: string(detail)}
	}

	return nil
}

package capi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

// Client posts conversion events to the ad platform's ingestion endpoint.
// Delivery is strictly best-effort: Send reports success as a boolean and
// never fails the caller.
type Client struct {
	baseURL     string
	pixelID     string
	accessToken string
	httpc       *http.Client
}

func New(baseURL, pixelID, accessToken string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		pixelID:     pixelID,
		accessToken: accessToken,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a credential is present. Without one Send
// degrades to a no-op failure instead of crashing.
func (c *Client) Configured() bool {
	return c.pixelID != "" && c.accessToken != ""
}

func (c *Client) Send(ctx context.Context, eventsBody []byte) bool {
	if !c.Configured() {
		slog.Warn("capi not configured, dropping event")
		return false
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s/events", c.baseURL, c.pixelID))
	if err != nil {
		slog.Error("capi url", "error", err.Error())
		return false
	}
	q := u.Query()
	q.Set("access_token", c.accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(eventsBody))
	if err != nil {
		slog.Error("capi new request", "error", err.Error())
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Error("capi send", "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("capi send", "status", resp.StatusCode, "body", string(body))
		return false
	}
	return true
}

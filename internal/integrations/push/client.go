package push

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ZenGummies/ShopBox/internal/broker/messages"
)

// Client posts operator notifications to an ntfy-style pub/sub topic.
// Same best-effort contract as the ad-platform client: boolean result,
// never fatal.
type Client struct {
	serverURL string
	topic     string
	httpc     *http.Client
}

func New(serverURL, topic string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		topic:     topic,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Configured() bool {
	return c.serverURL != "" && c.topic != ""
}

func (c *Client) Send(ctx context.Context, n *messages.PushNotification) bool {
	if !c.Configured() {
		slog.Warn("push not configured, dropping notification")
		return false
	}
	if n == nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.serverURL+"/"+c.topic, strings.NewReader(n.Body))
	if err != nil {
		slog.Error("push new request", "error", err.Error())
		return false
	}
	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	if len(n.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(n.Tags, ","))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		slog.Error("push send", "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("push send", "status", resp.StatusCode, "body", string(body))
		return false
	}
	return true
}

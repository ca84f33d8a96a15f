package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const userAgent = "hlsbot/0.1.0"

// Ntfy posts updates to an ntfy topic. The daemon uses it for operator alerts
// on job failures.
type Ntfy struct {
	endpoint string
	title    string
	client   *http.Client
}

// NewNtfy builds a client for the given topic URL. It returns nil when no
// topic is configured.
func NewNtfy(topic string, timeout time.Duration) *Ntfy {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Ntfy{endpoint: topic, title: "hlsbot", client: &http.Client{Timeout: timeout}}
}

// Update implements Notifier.
func (n *Ntfy) Update(ctx context.Context, text string) error {
	return n.send(ctx, text, nil)
}

// Alert posts a message tagged for attention.
func (n *Ntfy) Alert(ctx context.Context, text string, tags ...string) error {
	return n.send(ctx, text, tags)
}

func (n *Ntfy) send(ctx context.Context, message string, tags []string) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", n.title)
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

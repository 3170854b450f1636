package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	colorRed   = 16711680
	colorGreen = 65280
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Notifier posts run outcomes to a Discord-compatible webhook. A Notifier
// without URL does nothing.
type Notifier struct {
	url    string
	client *http.Client
}

func NewNotifier(url string, client *http.Client) *Notifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &Notifier{url: url, client: client}
}

func (n *Notifier) Enabled() bool { return n != nil && n.url != "" }

func (n *Notifier) Success(ctx context.Context, message string) error {
	return n.send(ctx, DiscordEmbed{
		Title:       "✅ ETL run succeeded",
		Description: message,
		Color:       colorGreen,
	})
}

func (n *Notifier) Failure(ctx context.Context, message string) error {
	return n.send(ctx, DiscordEmbed{
		Title:       "🚨 ETL run failed",
		Description: message,
		Color:       colorRed,
	})
}

func (n *Notifier) send(ctx context.Context, embed DiscordEmbed) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send notification, status code: %d", resp.StatusCode)
	}
	return nil
}

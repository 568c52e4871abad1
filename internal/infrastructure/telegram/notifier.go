package telegram

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"ChannelPublisher/internal/ports"
)

// Notifier posts messages to the configured channel.
type Notifier struct {
	client    *Client
	channelID string
	timeout   time.Duration
}

var _ ports.Sender = (*Notifier)(nil)

// NewNotifier registers the bot client and target channel.
func NewNotifier(client *Client, channelID string, timeout time.Duration) *Notifier {
	return &Notifier{
		client:    client,
		channelID: channelID,
		timeout:   timeout,
	}
}

// Send posts text as plain text; links get a preview.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if n.channelID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	return n.client.SendMessage(ctx, n.channelID, text)
}

// SendMessage sends plain text to any chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("disable_web_page_preview", "false")

	return c.call(ctx, "sendMessage", form, nil)
}

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ChannelPublisher/internal/ports"
)

const (
	pollInitialBackoff = 5 * time.Second
	pollMaxBackoff     = 5 * time.Minute
	notAllowedText     = "⛔ This bot only answers its administrators."
)

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	From      *struct {
		ID int64 `json:"id"`
	} `json:"from"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// Poller long-polls getUpdates and answers operator commands.
type Poller struct {
	client      *Client
	handler     ports.CommandHandler
	admins      map[int64]struct{}
	pollTimeout time.Duration
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// NewPoller builds a command front end. An empty admin list allows everyone.
func NewPoller(client *Client, handler ports.CommandHandler, adminIDs []int64, pollTimeout time.Duration, log *slog.Logger) *Poller {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Poller{
		client:      client,
		handler:     handler,
		admins:      admins,
		pollTimeout: pollTimeout,
		newBackOff:  newPollBackOff,
		logger:      log,
	}
}

// Run polls until ctx is cancelled. Commands sent while the bot was offline
// are skipped. Poll failures are retried with exponential backoff, or after
// the delay Telegram asks for.
func (p *Poller) Run(ctx context.Context) error {
	offset, err := p.skipBacklog(ctx)
	if err != nil {
		return nil
	}

	for {
		updates, err := p.poll(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			p.dispatch(ctx, u)
		}
	}
}

// skipBacklog asks for the newest pending update only and returns the offset
// just past it, so older updates are acknowledged without being dispatched.
func (p *Poller) skipBacklog(ctx context.Context) (int64, error) {
	for {
		latest, err := p.poll(ctx, -1, 0)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			continue
		}

		var offset int64
		for _, u := range latest {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
		}
		if offset > 0 {
			p.log().Info("skipped commands sent while offline", "next_offset", offset)
		}
		return offset, nil
	}
}

// poll calls getUpdates until it succeeds, ctx ends or the retry budget runs out.
func (p *Poller) poll(ctx context.Context, offset int64, timeout time.Duration) ([]update, error) {
	return backoff.Retry(ctx, func() ([]update, error) {
		updates, err := p.fetch(ctx, offset, timeout)
		if err == nil {
			return updates, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			p.log().Warn("poll updates throttled", "error", err)
			return nil, backoff.RetryAfter(int(apiErr.RetryAfter / time.Second))
		}
		return nil, err
	},
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.log().Warn("poll updates failed", "error", err, "retry_in", next)
		}),
	)
}

func (p *Poller) fetch(ctx context.Context, offset int64, timeout time.Duration) ([]update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	form.Set("allowed_updates", `["message"]`)

	var updates []update
	if err := p.client.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (p *Poller) dispatch(ctx context.Context, u update) {
	msg := u.Message
	if msg == nil {
		return
	}
	name, args, ok := ParseCommand(msg.Text)
	if !ok {
		return
	}

	var reply string
	if p.allowed(msg) {
		reply = p.handler.Handle(ctx, name, args)
	} else {
		reply = notAllowedText
	}
	if reply == "" {
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := p.client.SendMessage(ctx, chatID, reply); err != nil {
		p.log().Warn("reply failed", "command", name, "error", err)
	}
}

func (p *Poller) allowed(msg *message) bool {
	if len(p.admins) == 0 {
		return true
	}
	if msg.From == nil {
		return false
	}
	_, ok := p.admins[msg.From.ID]
	return ok
}

func newPollBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pollInitialBackoff
	bo.MaxInterval = pollMaxBackoff
	bo.Multiplier = 2
	return bo
}

func (p *Poller) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

// ParseCommand splits "/name@bot arg1 arg2" into a lower-case name and args.
func ParseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

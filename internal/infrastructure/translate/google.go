package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ChannelPublisher/internal/config"
	"ChannelPublisher/internal/ports"
)

// ErrEmptyTranslation is returned when the service answers without any text.
var ErrEmptyTranslation = errors.New("empty translation")

// GoogleClient uses the keyless gtx endpoint of Google Translate.
type GoogleClient struct {
	endpoint   string
	target     string
	httpClient *http.Client
}

var _ ports.Translator = (*GoogleClient)(nil)

// NewGoogleClient builds a client from configuration.
func NewGoogleClient(cfg config.TranslateConfig) *GoogleClient {
	return &GoogleClient{
		endpoint:   cfg.Endpoint,
		target:     cfg.TargetLanguage,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Translate returns text in the target language with source auto-detection.
func (c *GoogleClient) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", c.target)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("translate error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("decode translation: %w", err)
	}
	return joinSegments(raw)
}

// joinSegments concatenates the translated part of each [translated, original, ...] segment.
func joinSegments(raw []json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyTranslation
	}

	var segments [][]any
	if err := json.Unmarshal(raw[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		if s, ok := seg[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyTranslation
	}
	return b.String(), nil
}

// Noop returns text unchanged; used when translation is disabled.
type Noop struct{}

var _ ports.Translator = Noop{}

func (Noop) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}

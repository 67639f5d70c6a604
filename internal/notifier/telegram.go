package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string

	client     *resty.Client
	pollClient *resty.Client
	logger     *slog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// An empty bot token yields a notifier that only logs.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger *slog.Logger) *TelegramNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	newClient := func(timeout time.Duration) *resty.Client {
		c := resty.New().SetBaseURL(telegramAPIBase).SetTimeout(timeout)
		if proxyURL != "" {
			c.SetProxy(proxyURL)
		}
		return c
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		client:     newClient(30 * time.Second),
		pollClient: newClient(35 * time.Second),
		logger:     logger,
	}
}

// SetAPIBase points the notifier at another Bot API server.
func (t *TelegramNotifier) SetAPIBase(base string) {
	t.client.SetBaseURL(base)
	t.pollClient.SetBaseURL(base)
}

// Enabled reports whether a bot token is configured.
func (t *TelegramNotifier) Enabled() bool { return t.BotToken != "" }

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	if !t.Enabled() {
		t.logger.Debug("telegram disabled, message dropped", "length", len(text))
		return nil
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post("/bot" + t.BotToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.Send(ctx, text); err != nil {
			lastErr = err
			if i == maxRetries {
				break
			}
			backoff := time.Duration(1<<uint(i)) * time.Second
			t.logger.Warn("telegram send failed, retrying", "attempt", i+1, "of", maxRetries+1, "backoff", backoff, "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

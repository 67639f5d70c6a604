package notifier

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	if !t.Enabled() {
		t.logger.Info("telegram disabled, polling not started")
		return
	}
	offset := 0
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram polling stopped")
			return
		default:
		}

		resp, err := t.pollClient.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"offset":  strconv.Itoa(offset),
				"timeout": "30",
			}).
			Get("/bot" + t.BotToken + "/getUpdates")
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn("polling request failed", "err", err)
			t.pause(ctx, 5*time.Second)
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(resp.Body(), &result); err != nil {
			t.logger.Warn("decode polling response", "err", err)
			t.pause(ctx, 5*time.Second)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			t.logger.Info("received command", "command", text)
			if reply := handler(ctx, text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.logger.Error("send reply", "err", err)
				}
			}
		}
	}
}

func (t *TelegramNotifier) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

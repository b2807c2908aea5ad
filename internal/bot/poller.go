package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// UpdateSource is the long polling part of *tgbotapi.BotAPI.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poll receives updates by long polling until ctx is cancelled, then waits
// for in-flight events to finish.
func Poll(ctx context.Context, src UpdateSource, d *Dispatcher, timeoutSec int, logger *slog.Logger) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSec
	updates := src.GetUpdatesChan(cfg)

	logger.InfoContext(ctx, "telegram polling started", slog.Int("timeout_sec", timeoutSec))
	defer d.Wait()

	for {
		select {
		case <-ctx.Done():
			src.StopReceivingUpdates()
			logger.InfoContext(ctx, "telegram polling stopped")
			return nil
		case u, ok := <-updates:
			if !ok {
				return fmt.Errorf("bot: update channel closed")
			}
			d.Dispatch(context.WithoutCancel(ctx), u)
		}
	}
}

// Requester issues Bot API calls that return no message.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// SetWebhook registers url as the bot's webhook.
func SetWebhook(r Requester, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("bot: webhook url: %w", err)
	}
	if _, err := r.Request(wh); err != nil {
		return fmt.Errorf("bot: set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes any registered webhook so long polling can be used.
func DeleteWebhook(r Requester) error {
	if _, err := r.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("bot: delete webhook: %w", err)
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChattableSender is the part of *tgbotapi.BotAPI used to deliver messages.
type ChattableSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender delivers notifications to the operator's Telegram chat
// through the bot's own API client. Messages are Telegram HTML.
type TelegramSender struct {
	bot    ChattableSender
	chatID int64
}

// NewTelegramSender creates a TelegramSender that posts to chatID.
func NewTelegramSender(bot ChattableSender, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

// Send posts the notification with the title rendered in bold. The message
// body is passed through unchanged and may carry HTML markup.
func (t *TelegramSender) Send(ctx context.Context, n Notice) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(n.Title), n.Message))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send to operator chat %d: %w", t.chatID, err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

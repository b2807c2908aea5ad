package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/vexorbot/internal/session"
)

// Client is the subset of *tgbotapi.BotAPI the bot needs.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger implements session.Messenger on top of the Bot API. All
// messages use HTML parse mode.
type Messenger struct {
	client Client
}

// NewMessenger creates a Messenger.
func NewMessenger(client Client) *Messenger {
	return &Messenger{client: client}
}

// Send posts a new message to chatID.
func (m *Messenger) Send(ctx context.Context, chatID int64, r session.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = r.DisablePreview
	if kb := inlineKeyboard(r.Keyboard); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := m.client.Send(msg); err != nil {
		return fmt.Errorf("bot: send message to %d: %w", chatID, err)
	}
	return nil
}

// Edit replaces the text and keyboard of an existing message. Without a
// message id it falls back to Send.
func (m *Messenger) Edit(ctx context.Context, chatID int64, messageID int, r session.Reply) error {
	if messageID == 0 {
		return m.Send(ctx, chatID, r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var edit tgbotapi.EditMessageTextConfig
	if kb := inlineKeyboard(r.Keyboard); kb != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, r.Text, *kb)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, r.Text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = r.DisablePreview

	if _, err := m.client.Send(edit); err != nil {
		return fmt.Errorf("bot: edit message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query so the client stops its
// loading indicator.
func (m *Messenger) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("bot: answer callback: %w", err)
	}
	return nil
}

func inlineKeyboard(rows [][]session.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(out...)
	return &kb
}

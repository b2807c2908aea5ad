// Package bot adapts the Telegram Bot API to the session engine: it maps
// updates to engine events, orders them per user, and delivers replies.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/vexorbot/internal/session"
)

// ToEvent maps a Telegram update to an engine event. callbackID is set for
// callback queries, which must be answered even when ok is false.
func ToEvent(u tgbotapi.Update) (ev session.Event, callbackID string, ok bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return session.Event{}, cq.ID, false
		}
		return session.Event{
			Kind:      session.EventCallback,
			UserID:    cq.From.ID,
			ChatID:    cq.Message.Chat.ID,
			Username:  cq.From.UserName,
			MessageID: cq.Message.MessageID,
			Data:      cq.Data,
		}, cq.ID, true
	}

	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return session.Event{}, "", false
	}
	ev = session.Event{
		Kind:      session.EventText,
		UserID:    m.From.ID,
		ChatID:    m.Chat.ID,
		Username:  m.From.UserName,
		MessageID: m.MessageID,
		Data:      m.Text,
	}
	if m.IsCommand() {
		ev.Kind = session.EventCommand
		ev.Data = m.Command()
	}
	return ev, "", true
}

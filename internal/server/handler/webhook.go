package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxUpdateBytes caps the size of a webhook body.
const maxUpdateBytes = 1 << 20

// UpdateDispatcher accepts decoded Telegram updates.
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, u tgbotapi.Update)
}

// WebhookHandler receives Telegram webhook deliveries.
type WebhookHandler struct {
	dispatcher UpdateDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(d UpdateDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: d, logger: logHandler(logger, "webhook")}
}

// Receive decodes one update and hands it to the dispatcher. Processing
// continues after the response is written.
// POST /webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "expected application/json")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		h.logger.WarnContext(r.Context(), "invalid update body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	h.dispatcher.Dispatch(context.WithoutCancel(r.Context()), update)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

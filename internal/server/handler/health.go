package handler

import (
	"net/http"
	"time"
)

// SessionCounter reports the number of live conversations.
type SessionCounter interface {
	Len() int
}

// HealthHandler serves the liveness endpoints.
type HealthHandler struct {
	sessions SessionCounter
	now      func() time.Time
}

// NewHealthHandler creates a HealthHandler. sessions may be nil.
func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{sessions: sessions, now: time.Now}
}

// Alive answers the platform's root probe.
// GET /
func (h *HealthHandler) Alive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthCheck responds with a JSON status and the current time.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}
	writeJSON(w, http.StatusOK, body)
}

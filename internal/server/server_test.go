package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/vexorbot/internal/domain"
	"github.com/alanyoungcy/vexorbot/internal/server/handler"
	"github.com/alanyoungcy/vexorbot/internal/server/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingDispatcher struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
	ctxErr  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, u tgbotapi.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, u)
	d.ctxErr = ctx.Err()
}

type countingSessions int

func (c countingSessions) Len() int { return int(c) }

type memAudit struct {
	opts domain.ListOpts
	err  error
}

func (m *memAudit) Log(context.Context, string, map[string]any) error { return nil }

func (m *memAudit) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return []domain.AuditEntry{{
		ID:        1,
		Event:     "wallet_generated",
		Detail:    map[string]any{"title": "Generated"},
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}}, nil
}

func newTestServer(t *testing.T, cfg Config, limiter domain.RateLimiter) (*httptest.Server, *recordingDispatcher, *memAudit) {
	t.Helper()
	disp := &recordingDispatcher{}
	audit := &memAudit{}
	srv := NewServer(cfg, Handlers{
		Health:  handler.NewHealthHandler(countingSessions(3)),
		Webhook: handler.NewWebhookHandler(disp, discardLogger()),
		Audit:   handler.NewAuditHandler(audit, discardLogger()),
	}, limiter, discardLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, disp, audit
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestAlive(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "alive" {
		t.Fatalf("body = %v", body)
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", resp.StatusCode)
	}
}

func TestHealthCheck(t *testing.T) {
	ts, _, _ := newTestServer(t, Config{}, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	decodeBody(t, resp, &body)
	if body["status"] != "ok" || body["sessions"] != float64(3) {
		t.Fatalf("body = %v", body)
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Fatalf("timestamp: %v", err)
	}
}

func TestWebhook(t *testing.T) {
	ts, disp, _ := newTestServer(t, Config{}, nil)

	update := `{"update_id":10,"message":{"message_id":1,"from":{"id":5,"is_bot":false,"first_name":"A"},"chat":{"id":5,"type":"private"},"date":0,"text":"hi"}}`

	resp, err := http.Post(ts.URL+"/webhook", "application/json; charset=utf-8", strings.NewReader(update))
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]bool
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || !body["ok"] {
		t.Fatalf("status=%d body=%v", resp.StatusCode, body)
	}

	disp.mu.Lock()
	defer disp.mu.Unlock()
	if len(disp.updates) != 1 || disp.updates[0].UpdateID != 10 || disp.updates[0].Message.Text != "hi" {
		t.Fatalf("updates = %+v", disp.updates)
	}
	if disp.ctxErr != nil {
		t.Fatalf("dispatch context already done: %v", disp.ctxErr)
	}
}

func TestWebhook_Rejects(t *testing.T) {
	ts, disp, _ := newTestServer(t, Config{}, nil)

	tests := []struct {
		name        string
		contentType string
		body        string
		method      string
		want        int
	}{
		{"form content type", "application/x-www-form-urlencoded", "a=b", http.MethodPost, http.StatusBadRequest},
		{"missing content type", "", "{}", http.MethodPost, http.StatusBadRequest},
		{"malformed json", "application/json", "{", http.MethodPost, http.StatusBadRequest},
		{"wrong method", "application/json", "{}", http.MethodGet, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, ts.URL+"/webhook", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
	if len(disp.updates) != 0 {
		t.Fatalf("rejected requests were dispatched: %+v", disp.updates)
	}
}

func TestAuditEndpoint(t *testing.T) {
	t.Run("disabled without key", func(t *testing.T) {
		ts, _, _ := newTestServer(t, Config{}, nil)
		resp, err := http.Get(ts.URL + "/api/audit")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		ts, _, _ := newTestServer(t, Config{APIKey: "k"}, nil)
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/audit", nil)
		req.Header.Set("X-API-Key", "nope")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})

	t.Run("lists entries", func(t *testing.T) {
		ts, _, audit := newTestServer(t, Config{APIKey: "k"}, nil)
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/audit?limit=1000&offset=5&since=2025-03-01T00:00:00Z", nil)
		req.Header.Set("Authorization", "Bearer k")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		var entries []map[string]any
		decodeBody(t, resp, &entries)
		if resp.StatusCode != http.StatusOK || len(entries) != 1 || entries[0]["event"] != "wallet_generated" {
			t.Fatalf("status=%d entries=%v", resp.StatusCode, entries)
		}
		if audit.opts.Limit != 500 || audit.opts.Offset != 5 || audit.opts.Since == nil {
			t.Fatalf("opts = %+v", audit.opts)
		}
	})

	t.Run("store error", func(t *testing.T) {
		ts, _, audit := newTestServer(t, Config{APIKey: "k"}, nil)
		audit.err = errors.New("db down")
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/audit", nil)
		req.Header.Set("X-API-Key", "k")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d", resp.StatusCode)
		}
	})
}

type denyAfter struct {
	mu   sync.Mutex
	left int
	err  error
	seen []string
}

func (d *denyAfter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, key)
	if d.err != nil {
		return false, d.err
	}
	if d.left == 0 {
		return false, nil
	}
	d.left--
	return true, nil
}

func TestRateLimit(t *testing.T) {
	lim := &denyAfter{left: 1}
	ts, _, _ := newTestServer(t, Config{RateLimit: 1, RateWindow: time.Second, TrustProxyHeaders: true}, lim)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
		if want == http.StatusTooManyRequests && resp.Header.Get("Retry-After") != "1" {
			t.Fatalf("Retry-After = %q", resp.Header.Get("Retry-After"))
		}
	}
	if lim.seen[0] != "http:203.0.113.7" {
		t.Fatalf("key = %q", lim.seen[0])
	}
}

func TestRateLimit_IgnoresForwardedForUnlessTrusted(t *testing.T) {
	lim := &denyAfter{left: 1}
	ts, _, _ := newTestServer(t, Config{RateLimit: 1, RateWindow: time.Second}, lim)

	for i, spoof := range []string{"198.51.100.1", "198.51.100.2"} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/health", nil)
		req.Header.Set("X-Forwarded-For", spoof)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if i == 1 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("rotating X-Forwarded-For bypassed the limit: status = %d", resp.StatusCode)
		}
	}
	if lim.seen[0] != "http:127.0.0.1" || lim.seen[1] != "http:127.0.0.1" {
		t.Fatalf("keys = %v", lim.seen)
	}
}

func TestRateLimit_WebhookNotThrottled(t *testing.T) {
	lim := &denyAfter{left: 2}
	ts, disp, _ := newTestServer(t, Config{RateLimit: 2, RateWindow: time.Minute}, lim)

	// Every delivery arrives from the same Telegram address.
	for userID := 1; userID <= 5; userID++ {
		update := fmt.Sprintf(`{"update_id":%d,"message":{"message_id":1,"from":{"id":%d,"is_bot":false,"first_name":"U"},"chat":{"id":%d,"type":"private"},"date":0,"text":"hi"}}`, userID, userID, userID)
		resp, err := http.Post(ts.URL+"/webhook", "application/json", strings.NewReader(update))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("user %d: status = %d", userID, resp.StatusCode)
		}
	}

	disp.mu.Lock()
	delivered := len(disp.updates)
	disp.mu.Unlock()
	if delivered != 5 {
		t.Fatalf("delivered %d updates, want 5", delivered)
	}
	if len(lim.seen) != 0 {
		t.Fatalf("webhook consulted the HTTP limiter: %v", lim.seen)
	}

	// Other routes are still limited.
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		resp, err := http.Get(ts.URL + "/")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("alive request %d: status = %d, want %d", i, resp.StatusCode, want)
		}
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	lim := &denyAfter{err: errors.New("redis down")}
	ts, _, _ := newTestServer(t, Config{RateLimit: 1, RateWindow: time.Second}, lim)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

package bot

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/vexorbot/internal/domain"
	"github.com/alanyoungcy/vexorbot/internal/session"
)

// Handler consumes engine events. *session.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, ev session.Event) domain.State
}

// CallbackAnswerer acknowledges callback queries.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// RateLimit bounds the number of updates accepted per user and window.
// A zero Limit disables limiting.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Dispatcher feeds Telegram updates into the engine. Events of one user are
// handled strictly in arrival order by a single goroutine; different users
// are handled concurrently.
type Dispatcher struct {
	handler  Handler
	answerer CallbackAnswerer
	limiter  domain.RateLimiter
	rate     RateLimit
	logger   *slog.Logger

	mu     sync.Mutex
	queues map[int64][]session.Event // pending events per user with an active worker
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. limiter may be nil.
func NewDispatcher(h Handler, answerer CallbackAnswerer, limiter domain.RateLimiter, rate RateLimit, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handler:  h,
		answerer: answerer,
		limiter:  limiter,
		rate:     rate,
		logger:   logger.With(slog.String("component", "dispatcher")),
		queues:   make(map[int64][]session.Event),
	}
}

// Dispatch accepts one update. It answers callback queries immediately and
// queues the resulting event; it does not wait for the engine. ctx must
// outlive the update's processing.
func (d *Dispatcher) Dispatch(ctx context.Context, u tgbotapi.Update) {
	ev, callbackID, ok := ToEvent(u)
	if callbackID != "" && d.answerer != nil {
		if err := d.answerer.AnswerCallback(ctx, callbackID); err != nil {
			d.logger.WarnContext(ctx, "answer callback failed",
				slog.Int("update_id", u.UpdateID),
				slog.String("error", err.Error()),
			)
		}
	}
	if !ok {
		d.logger.DebugContext(ctx, "update ignored", slog.Int("update_id", u.UpdateID))
		return
	}
	// Ending or restarting a session is never throttled.
	if !ev.IsCancel() && !ev.IsStart() && !d.allow(ctx, ev.UserID) {
		d.logger.WarnContext(ctx, "update rate limited",
			slog.Int64("user_id", ev.UserID),
			slog.String("kind", ev.Kind.String()),
		)
		return
	}
	d.enqueue(ctx, ev)
}

// Wait blocks until all queued events have been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(ctx context.Context, ev session.Event) {
	d.mu.Lock()
	if pending, busy := d.queues[ev.UserID]; busy {
		d.queues[ev.UserID] = append(pending, ev)
		d.mu.Unlock()
		return
	}
	d.queues[ev.UserID] = nil
	d.wg.Add(1)
	d.mu.Unlock()

	go d.drain(ctx, ev)
}

// drain handles ev and then every event queued for the same user meanwhile.
func (d *Dispatcher) drain(ctx context.Context, ev session.Event) {
	defer d.wg.Done()
	for {
		d.handle(ctx, ev)

		d.mu.Lock()
		pending := d.queues[ev.UserID]
		if len(pending) == 0 {
			delete(d.queues, ev.UserID)
			d.mu.Unlock()
			return
		}
		next := pending[0]
		d.queues[ev.UserID] = pending[1:]
		d.mu.Unlock()
		ev = next
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev session.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "panic handling event",
				slog.Int64("user_id", ev.UserID),
				slog.Any("panic", r),
			)
		}
	}()
	d.handler.Handle(ctx, ev)
}

// allow applies the per-user rate limit. Limiter errors fail open.
func (d *Dispatcher) allow(ctx context.Context, userID int64) bool {
	if d.limiter == nil || d.rate.Limit <= 0 {
		return true
	}
	ok, err := d.limiter.Allow(ctx, "user:"+strconv.FormatInt(userID, 10), d.rate.Limit, d.rate.Window)
	if err != nil {
		d.logger.WarnContext(ctx, "rate limiter unavailable",
			slog.String("error", err.Error()),
		)
		return true
	}
	return ok
}

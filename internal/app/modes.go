package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/vexorbot/internal/bot"
)

const shutdownTimeout = 10 * time.Second

// WebhookMode registers the public webhook URL (when configured) and serves
// Telegram deliveries over HTTP.
func (a *App) WebhookMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting webhook mode")

	if url := a.cfg.Bot.WebhookURL(); url != "" {
		if err := bot.SetWebhook(deps.Bot, url); err != nil {
			return err
		}
		a.logger.InfoContext(ctx, "webhook registered", slog.String("url", url))
	} else {
		a.logger.WarnContext(ctx, "no public url configured; webhook not registered")
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	err := g.Wait()
	deps.Dispatcher.Wait()
	return err
}

// PollingMode removes any registered webhook and long-polls for updates. The
// HTTP server still runs for health checks.
func (a *App) PollingMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting polling mode")

	if err := bot.DeleteWebhook(deps.Bot); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Poll(ctx, deps.Bot, deps.Dispatcher, a.cfg.Bot.PollTimeoutSec, a.logger)
	})
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// startHTTPServer runs the server in g and shuts it down when ctx is done.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		return deps.Server.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return deps.Server.Shutdown(shutCtx)
	})
}

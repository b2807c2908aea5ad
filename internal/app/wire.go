package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alanyoungcy/vexorbot/internal/bot"
	"github.com/alanyoungcy/vexorbot/internal/cache/redis"
	"github.com/alanyoungcy/vexorbot/internal/config"
	"github.com/alanyoungcy/vexorbot/internal/crypto"
	"github.com/alanyoungcy/vexorbot/internal/domain"
	"github.com/alanyoungcy/vexorbot/internal/market"
	"github.com/alanyoungcy/vexorbot/internal/notify"
	"github.com/alanyoungcy/vexorbot/internal/platform/polymarket"
	"github.com/alanyoungcy/vexorbot/internal/server"
	"github.com/alanyoungcy/vexorbot/internal/server/handler"
	"github.com/alanyoungcy/vexorbot/internal/session"
	"github.com/alanyoungcy/vexorbot/internal/store/postgres"
	"github.com/alanyoungcy/vexorbot/internal/wallet"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Bot        *tgbotapi.BotAPI
	Engine     *session.Engine
	Dispatcher *bot.Dispatcher
	Server     *server.Server
	Notifier   *notify.Notifier

	// Optional backends; nil when disabled.
	AuditStore  domain.AuditStore
	RateLimiter domain.RateLimiter
}

// Wire constructs all concrete dependency implementations from cfg and
// returns them together with a cleanup function that should be called on
// shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{}

	// --- Wallet pool ---
	raw, err := crypto.LoadPool(crypto.PoolSource{
		Inline:        cfg.Wallets.Pairs,
		EncryptedPath: cfg.Wallets.EncryptedPath,
		Password:      cfg.Wallets.Password,
	})
	if err != nil {
		return fail(fmt.Errorf("wire: wallet pool: %w", err))
	}
	creds, err := wallet.ParsePairs(raw)
	if err != nil {
		return fail(fmt.Errorf("wire: wallet pool: %w", err))
	}
	pool, err := wallet.NewPool(creds, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	if err != nil {
		return fail(fmt.Errorf("wire: wallet pool: %w", err))
	}
	logger.InfoContext(ctx, "wallet pool loaded", slog.Int("wallets", pool.Len()))

	// --- PostgreSQL (audit log) ---
	if cfg.Supabase.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Supabase.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}
		deps.AuditStore = postgres.NewAuditStore(pgClient.Pool())
	}

	// --- Redis (shared rate limiter) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- Telegram ---
	botAPI, err := newBotAPI(cfg.Bot)
	if err != nil {
		return fail(fmt.Errorf("wire: telegram: %w", err))
	}
	deps.Bot = botAPI
	logger.InfoContext(ctx, "telegram bot authorized", slog.String("username", botAPI.Self.UserName))
	messenger := bot.NewMessenger(botAPI)

	// --- Notifications ---
	senders := []notify.Sender{notify.NewTelegramSender(botAPI, cfg.Bot.AdminID)}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Notify.Audit && deps.AuditStore != nil {
		senders = append(senders, notify.NewAuditSender(deps.AuditStore))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Market data ---
	resolver := market.NewResolver(
		market.ResolverConfig{Symbol: cfg.Market.Symbol, EventBaseURL: cfg.Market.EventBaseURL},
		polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
		polymarket.NewClobClient(cfg.Polymarket.ClobHost),
		logger,
	)

	// --- Conversation ---
	deps.Engine = session.NewEngine(session.Deps{
		Messenger:   messenger,
		Notifier:    deps.Notifier,
		Resolver:    resolver,
		Credentials: pool,
		Symbol:      cfg.Market.Symbol,
		Logger:      logger,
	})
	deps.Dispatcher = bot.NewDispatcher(deps.Engine, messenger, deps.RateLimiter, bot.RateLimit{
		Limit:  cfg.Bot.RateLimit,
		Window: cfg.Bot.RateWindow.Duration,
	}, logger)

	// --- HTTP server ---
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.Engine.Store()),
	}
	if strings.EqualFold(cfg.Mode, config.ModeWebhook) {
		handlers.Webhook = handler.NewWebhookHandler(deps.Dispatcher, logger)
	}
	if deps.AuditStore != nil {
		handlers.Audit = handler.NewAuditHandler(deps.AuditStore, logger)
	}
	deps.Server = server.NewServer(server.Config{
		Port:              cfg.Server.Port,
		APIKey:            cfg.Server.APIKey,
		RateLimit:         cfg.Server.RateLimit,
		RateWindow:        cfg.Server.RateWindow.Duration,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, handlers, deps.RateLimiter, logger)

	return deps, cleanup, nil
}

func newBotAPI(cfg config.BotConfig) (*tgbotapi.BotAPI, error) {
	if cfg.APIEndpoint == "" {
		return tgbotapi.NewBotAPI(cfg.Token)
	}
	return tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, cfg.APIEndpoint)
}

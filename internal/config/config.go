// Package config defines the top-level configuration for vexorbot and
// provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from an
// optional TOML file and then overridden by environment variables.
type Config struct {
	Bot        BotConfig        `toml:"bot"`
	Wallets    WalletsConfig    `toml:"wallets"`
	Market     MarketConfig     `toml:"market"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Supabase   SupabaseConfig   `toml:"supabase"`
	Redis      RedisConfig      `toml:"redis"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// BotConfig holds the Telegram bot identity and update intake settings.
type BotConfig struct {
	Token string `toml:"token"`
	// AdminID is the operator chat that receives wallet notices.
	AdminID int64 `toml:"admin_id"`
	// PublicURL is the externally reachable base URL; the webhook is
	// registered at PublicURL + "/webhook". Empty skips registration.
	PublicURL string `toml:"public_url"`
	// APIEndpoint is a Bot API URL format with two %s verbs (token,
	// method), for a self-hosted Bot API server. Empty uses api.telegram.org.
	APIEndpoint    string   `toml:"api_endpoint"`
	PollTimeoutSec int      `toml:"poll_timeout_sec"`
	RateLimit      int      `toml:"rate_limit"` // updates per user per window; 0 disables
	RateWindow     duration `toml:"rate_window"`
}

// WebhookURL returns the URL Telegram should deliver updates to.
func (b BotConfig) WebhookURL() string {
	if b.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(b.PublicURL, "/") + "/webhook"
}

// WalletsConfig locates the simulation wallet pool: either inline
// "address:secret" pairs or a file written by poolcrypt.
type WalletsConfig struct {
	Pairs         string `toml:"pairs"`
	EncryptedPath string `toml:"encrypted_path"`
	Password      string `toml:"password"`
}

// MarketConfig selects the up/down market series shown to users.
type MarketConfig struct {
	Symbol       string `toml:"symbol"`
	EventBaseURL string `toml:"event_base_url"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	ClobHost  string `toml:"clob_host"`
	GammaHost string `toml:"gamma_host"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters for the
// audit log.
type SupabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the shared rate limiter.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port       int      `toml:"port"`
	APIKey     string   `toml:"api_key"`
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
	// TrustProxyHeaders keys the HTTP limiter on X-Forwarded-For. Set it
	// only behind a proxy that rewrites the header (Render does).
	TrustProxyHeaders bool `toml:"trust_proxy_headers"`
}

// NotifyConfig selects the operator notice channels. The operator Telegram
// chat (bot.admin_id) is always used.
type NotifyConfig struct {
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	Audit             bool     `toml:"audit"`
}

// Run modes.
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Bot: BotConfig{
			PollTimeoutSec: 30,
			RateLimit:      30,
			RateWindow:     duration{time.Minute},
		},
		Market: MarketConfig{
			Symbol:       "btc",
			EventBaseURL: "https://polymarket.com/event",
		},
		Polymarket: PolymarketConfig{
			ClobHost:  "https://clob.polymarket.com",
			GammaHost: "https://gamma-api.polymarket.com",
		},
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  5,
			PoolMinConns:  0,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Port:       10000,
			RateLimit:  120,
			RateWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: append([]string(nil), requiredNotifyEvents...),
			Audit:  true,
		},
		Mode:     ModeWebhook,
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	ModeWebhook: true,
	ModePolling: true,
}

// requiredNotifyEvents must pass the notify.events filter.
var requiredNotifyEvents = []string{"wallet_generated", "wallet_imported"}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: webhook, polling)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Bot
	if c.Bot.Token == "" {
		errs = append(errs, "bot: token must be set (BOT_TOKEN)")
	}
	if c.Bot.AdminID == 0 {
		errs = append(errs, "bot: admin_id must be set (ADMIN_ID)")
	}
	if c.Bot.PublicURL != "" {
		if u, err := url.Parse(c.Bot.PublicURL); err != nil || u.Scheme != "https" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("bot: public_url must be an https URL, got %q", c.Bot.PublicURL))
		}
	}
	if c.Bot.APIEndpoint != "" && strings.Count(c.Bot.APIEndpoint, "%s") != 2 {
		errs = append(errs, fmt.Sprintf("bot: api_endpoint must contain two %%s verbs (token, method), got %q", c.Bot.APIEndpoint))
	}
	if c.Bot.PollTimeoutSec < 0 {
		errs = append(errs, "bot: poll_timeout_sec must be >= 0")
	}
	if c.Bot.RateLimit > 0 && c.Bot.RateWindow.Duration <= 0 {
		errs = append(errs, "bot: rate_window must be positive when rate_limit is set")
	}

	// Wallets
	if strings.TrimSpace(c.Wallets.Pairs) == "" && c.Wallets.EncryptedPath == "" {
		errs = append(errs, "wallets: either pairs (FAKE_WALLETS) or encrypted_path must be set")
	}
	if c.Wallets.EncryptedPath != "" && c.Wallets.Password == "" {
		errs = append(errs, "wallets: password is required when encrypted_path is set")
	}

	// Market
	if strings.TrimSpace(c.Market.Symbol) == "" {
		errs = append(errs, "market: symbol must not be empty")
	}
	if c.Market.EventBaseURL == "" {
		errs = append(errs, "market: event_base_url must not be empty")
	}

	// Polymarket
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	// Supabase
	if c.Supabase.Enabled {
		if strings.TrimSpace(c.Supabase.DSN) == "" {
			if c.Supabase.Host == "" {
				errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
			}
			if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
				errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
			}
			if c.Supabase.Database == "" {
				errs = append(errs, "supabase: database must not be empty")
			}
		}
		if c.Supabase.PoolMaxConns < 1 {
			errs = append(errs, "supabase: pool_max_conns must be >= 1")
		}
		if c.Supabase.PoolMinConns < 0 || c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
			errs = append(errs, "supabase: pool_min_conns must be between 0 and pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Notify: wallet notices to the operator are mandatory.
	if len(c.Notify.Events) > 0 {
		listed := make(map[string]bool, len(c.Notify.Events))
		for _, e := range c.Notify.Events {
			listed[strings.TrimSpace(e)] = true
		}
		for _, required := range requiredNotifyEvents {
			if !listed[required] {
				errs = append(errs, fmt.Sprintf("notify: events must include %q (or be empty to allow all)", required))
			}
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be positive when rate_limit is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

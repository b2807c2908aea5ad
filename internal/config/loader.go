package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load merges the TOML file at path (optional: empty or missing is fine)
// over Defaults, loads .env if present, and applies environment overrides.
// The result is not validated; call Config.Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// .env is optional; a real environment variable always wins over it.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides applies the plain deployment variables first and then
// the VEXOR_* variables, so the namespaced form wins when both are set.
func applyEnvOverrides(cfg *Config) {
	applyDeploymentEnv(cfg)

	// ── Bot ──
	setStr(&cfg.Bot.Token, "VEXOR_BOT_TOKEN")
	setInt64(&cfg.Bot.AdminID, "VEXOR_BOT_ADMIN_ID")
	setStr(&cfg.Bot.PublicURL, "VEXOR_BOT_PUBLIC_URL")
	setStr(&cfg.Bot.APIEndpoint, "VEXOR_BOT_API_ENDPOINT")
	setInt(&cfg.Bot.PollTimeoutSec, "VEXOR_BOT_POLL_TIMEOUT_SEC")
	setInt(&cfg.Bot.RateLimit, "VEXOR_BOT_RATE_LIMIT")
	setDuration(&cfg.Bot.RateWindow, "VEXOR_BOT_RATE_WINDOW")

	// ── Wallets ──
	setStr(&cfg.Wallets.Pairs, "VEXOR_WALLETS_PAIRS")
	setStr(&cfg.Wallets.EncryptedPath, "VEXOR_WALLETS_ENCRYPTED_PATH")
	setStr(&cfg.Wallets.Password, "VEXOR_WALLETS_PASSWORD")

	// ── Market ──
	setStr(&cfg.Market.Symbol, "VEXOR_MARKET_SYMBOL")
	setStr(&cfg.Market.EventBaseURL, "VEXOR_MARKET_EVENT_BASE_URL")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "VEXOR_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "VEXOR_POLYMARKET_GAMMA_HOST")

	// ── Supabase ──
	setBool(&cfg.Supabase.Enabled, "VEXOR_SUPABASE_ENABLED")
	setStr(&cfg.Supabase.DSN, "VEXOR_SUPABASE_DSN")
	setStr(&cfg.Supabase.Host, "VEXOR_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "VEXOR_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "VEXOR_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "VEXOR_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "VEXOR_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "VEXOR_SUPABASE_SSL_MODE")
	setInt(&cfg.Supabase.PoolMaxConns, "VEXOR_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "VEXOR_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "VEXOR_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "VEXOR_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "VEXOR_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "VEXOR_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "VEXOR_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "VEXOR_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "VEXOR_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "VEXOR_REDIS_TLS_ENABLED")

	// ── Server ──
	setInt(&cfg.Server.Port, "VEXOR_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "VEXOR_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "VEXOR_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "VEXOR_SERVER_RATE_WINDOW")
	setBool(&cfg.Server.TrustProxyHeaders, "VEXOR_SERVER_TRUST_PROXY_HEADERS")

	// ── Notify ──
	setStr(&cfg.Notify.DiscordWebhookURL, "VEXOR_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "VEXOR_NOTIFY_EVENTS")
	setBool(&cfg.Notify.Audit, "VEXOR_NOTIFY_AUDIT")

	// ── Top-level ──
	setStr(&cfg.Mode, "VEXOR_MODE")
	setStr(&cfg.LogLevel, "VEXOR_LOG_LEVEL")
}

// applyDeploymentEnv maps the variable names used by existing deployments.
func applyDeploymentEnv(cfg *Config) {
	setStr(&cfg.Bot.Token, "BOT_TOKEN")
	setInt64(&cfg.Bot.AdminID, "ADMIN_ID")
	setStr(&cfg.Wallets.Pairs, "FAKE_WALLETS")
	setInt(&cfg.Server.Port, "PORT")
	if host := strings.TrimSpace(os.Getenv("RENDER_EXTERNAL_HOSTNAME")); host != "" {
		cfg.Bot.PublicURL = "https://" + host
	}
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and parses.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// MarketFetcher looks up a market by slug. Unknown slugs must be reported
// with an error wrapping domain.ErrNotFound.
type MarketFetcher interface {
	MarketBySlug(ctx context.Context, slug string) (domain.Market, error)
}

// QuoteFetcher returns the live buy-side price of an outcome token.
type QuoteFetcher interface {
	BuyPrice(ctx context.Context, tokenID string) (float64, error)
}

// Outcome classifies the result of a resolve.
type Outcome int

const (
	OutcomeSnapshot Outcome = iota
	OutcomeNoMarket
	OutcomeInvalidData
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSnapshot:
		return "snapshot"
	case OutcomeNoMarket:
		return "no_market"
	case OutcomeInvalidData:
		return "invalid_data"
	default:
		return "unknown"
	}
}

// Result is the outcome of Resolve. Snapshot is only set for OutcomeSnapshot.
type Result struct {
	Outcome  Outcome
	Symbol   string
	Snapshot domain.MarketSnapshot
}

// ResolverConfig holds the resolver parameters.
type ResolverConfig struct {
	Symbol       string // e.g. "btc"
	EventBaseURL string // e.g. "https://polymarket.com/event"
}

// Resolver finds the active up/down market for a symbol and quotes it.
type Resolver struct {
	markets      MarketFetcher
	quotes       QuoteFetcher
	symbol       string
	eventBaseURL string
	logger       *slog.Logger
}

// NewResolver creates a Resolver backed by the given fetchers.
func NewResolver(cfg ResolverConfig, markets MarketFetcher, quotes QuoteFetcher, logger *slog.Logger) *Resolver {
	symbol := strings.ToLower(strings.TrimSpace(cfg.Symbol))
	if symbol == "" {
		symbol = "btc"
	}
	return &Resolver{
		markets:      markets,
		quotes:       quotes,
		symbol:       symbol,
		eventBaseURL: strings.TrimRight(cfg.EventBaseURL, "/"),
		logger:       logger.With(slog.String("component", "market_resolver")),
	}
}

// Resolve finds the market for the window containing now, falling forward to
// the next windows when it is missing. A missing market and malformed market
// data are normal outcomes; only an unexpected failure of the market lookup
// is returned as an error. Quote failures degrade that side to 0.
func (r *Resolver) Resolve(ctx context.Context, now time.Time) (Result, error) {
	res := Result{Symbol: r.symbol}

	m, slug, found, err := r.lookup(ctx, now)
	if errors.Is(err, domain.ErrInvalidData) {
		r.logger.WarnContext(ctx, "market payload malformed",
			slog.String("error", err.Error()),
		)
		res.Outcome = OutcomeInvalidData
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if !found {
		res.Outcome = OutcomeNoMarket
		return res, nil
	}

	if len(m.TokenIDs) < 2 {
		r.logger.WarnContext(ctx, "market has fewer than two outcome tokens",
			slog.String("slug", slug),
			slog.Int("tokens", len(m.TokenIDs)),
		)
		res.Outcome = OutcomeInvalidData
		return res, nil
	}

	up, down := r.quotePair(ctx, m.TokenIDs[0], m.TokenIDs[1])

	if up == 0 && m.OutcomePrices != nil {
		if embUp, embDown, ok := parsePricePair(m.OutcomePrices); ok {
			up, down = embUp, embDown
		}
	}

	if m.Slug != "" {
		slug = m.Slug
	}
	question := m.Question
	if question == "" {
		question = "Unknown"
	}
	closesAt := m.EndDate
	if closesAt == "" {
		closesAt = "N/A"
	}

	res.Outcome = OutcomeSnapshot
	res.Snapshot = domain.MarketSnapshot{
		Question:  question,
		Slug:      slug,
		ClosesAt:  closesAt,
		URL:       r.eventBaseURL + "/" + slug,
		UpPrice:   up,
		DownPrice: down,
	}
	return res, nil
}

// lookup probes the candidate windows in order and returns the first market
// found together with the slug it was found under.
func (r *Resolver) lookup(ctx context.Context, now time.Time) (domain.Market, string, bool, error) {
	for window := range Windows(now, MaxLookupAttempts) {
		slug := Slug(r.symbol, window)

		m, err := r.markets.MarketBySlug(ctx, slug)
		if err == nil {
			return m, slug, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Market{}, slug, false, fmt.Errorf("market: lookup %s: %w", slug, err)
		}

		r.logger.DebugContext(ctx, "market not published for window",
			slog.String("slug", slug),
		)
	}
	return domain.Market{}, "", false, nil
}

// quotePair fetches both sides concurrently. Each side is independent; a
// failed fetch yields 0 for that side only.
func (r *Resolver) quotePair(ctx context.Context, upToken, downToken string) (up, down float64) {
	var g errgroup.Group
	g.Go(func() error {
		up = r.quote(ctx, upToken)
		return nil
	})
	g.Go(func() error {
		down = r.quote(ctx, downToken)
		return nil
	})
	_ = g.Wait()
	return up, down
}

func (r *Resolver) quote(ctx context.Context, tokenID string) float64 {
	price, err := r.quotes.BuyPrice(ctx, tokenID)
	if err != nil {
		r.logger.WarnContext(ctx, "price quote failed, using 0",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return price
}

// parsePricePair parses the first two entries of an embedded outcome price
// list. Both must parse for the pair to be used.
func parsePricePair(prices []string) (float64, float64, bool) {
	if len(prices) < 2 {
		return 0, 0, false
	}
	up, err := strconv.ParseFloat(strings.TrimSpace(prices[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	down, err := strconv.ParseFloat(strings.TrimSpace(prices[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return up, down, true
}

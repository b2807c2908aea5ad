package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMarkets struct {
	markets map[string]domain.Market
	err     error // returned for unknown slugs instead of ErrNotFound
	calls   []string
}

func (f *fakeMarkets) MarketBySlug(_ context.Context, slug string) (domain.Market, error) {
	f.calls = append(f.calls, slug)
	if m, ok := f.markets[slug]; ok {
		return m, nil
	}
	if f.err != nil {
		return domain.Market{}, f.err
	}
	return domain.Market{}, fmt.Errorf("gamma: %w", domain.ErrNotFound)
}

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  int
}

func (f *fakeQuotes) BuyPrice(_ context.Context, tokenID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[tokenID]; err != nil {
		return 0, err
	}
	return f.prices[tokenID], nil
}

var testNow = time.Date(2025, 3, 1, 10, 22, 0, 0, time.UTC)

func newTestResolver(m *fakeMarkets, q *fakeQuotes) *Resolver {
	return NewResolver(ResolverConfig{Symbol: "btc", EventBaseURL: "https://polymarket.com/event/"}, m, q, testLogger())
}

func slugAt(offset int) string {
	return Slug("btc", CurrentWindowStart(testNow).Add(time.Duration(offset)*WindowSize))
}

func TestResolve_CurrentWindow(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {Question: "BTC up?", Slug: slugAt(0), EndDate: "2025-03-01T10:30:00Z", TokenIDs: []string{"u", "d"}},
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"u": 0.55, "d": 0.46}}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeSnapshot {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	s := res.Snapshot
	if s.UpPrice != 0.55 || s.DownPrice != 0.46 {
		t.Errorf("prices = %v/%v", s.UpPrice, s.DownPrice)
	}
	if s.URL != "https://polymarket.com/event/"+slugAt(0) {
		t.Errorf("url = %q", s.URL)
	}
	if s.Prediction() != domain.PredictionUp {
		t.Errorf("prediction = %v", s.Prediction())
	}
	if len(markets.calls) != 1 {
		t.Errorf("expected 1 lookup, got %d", len(markets.calls))
	}
}

func TestResolve_AdvancesToNextWindow(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(2): {TokenIDs: []string{"u", "d"}},
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"u": 0.3, "d": 0.7}}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeSnapshot {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	want := []string{slugAt(0), slugAt(1), slugAt(2)}
	if strings.Join(markets.calls, ",") != strings.Join(want, ",") {
		t.Errorf("lookups = %v, want %v", markets.calls, want)
	}
	// Slug falls back to the requested one when the payload has none.
	if res.Snapshot.Slug != slugAt(2) {
		t.Errorf("slug = %q", res.Snapshot.Slug)
	}
	if res.Snapshot.Question != "Unknown" || res.Snapshot.ClosesAt != "N/A" {
		t.Errorf("defaults not applied: %+v", res.Snapshot)
	}
}

func TestResolve_NoActiveMarket(t *testing.T) {
	markets := &fakeMarkets{}
	quotes := &fakeQuotes{}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeNoMarket {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if len(markets.calls) != MaxLookupAttempts {
		t.Errorf("expected %d lookups, got %d", MaxLookupAttempts, len(markets.calls))
	}
	if quotes.calls != 0 {
		t.Errorf("no quotes should be fetched, got %d", quotes.calls)
	}
}

func TestResolve_TransportErrorPropagates(t *testing.T) {
	boom := errors.New("HTTP 500: boom")
	markets := &fakeMarkets{err: boom}

	_, err := newTestResolver(markets, &fakeQuotes{}).Resolve(context.Background(), testNow)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
	if len(markets.calls) != 1 {
		t.Errorf("hard failure should stop the loop, got %d lookups", len(markets.calls))
	}
}

func TestResolve_InvalidData(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {TokenIDs: []string{"only-one"}},
	}}
	quotes := &fakeQuotes{}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeInvalidData {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if quotes.calls != 0 {
		t.Errorf("no quotes should be fetched, got %d", quotes.calls)
	}
}

func TestResolve_MalformedPayloadIsInvalidData(t *testing.T) {
	markets := &fakeMarkets{err: fmt.Errorf("gamma: decode: %w", domain.ErrInvalidData)}
	quotes := &fakeQuotes{}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Outcome != OutcomeInvalidData {
		t.Fatalf("outcome = %v, want invalid data", res.Outcome)
	}
	if got := Render(res); got != "Invalid market data." {
		t.Errorf("rendered %q", got)
	}
	if len(markets.calls) != 1 || quotes.calls != 0 {
		t.Errorf("lookups=%d quotes=%d, want 1 and 0", len(markets.calls), quotes.calls)
	}
}

func TestResolve_QuoteFailureDegradesToZero(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {TokenIDs: []string{"u", "d"}},
	}}
	quotes := &fakeQuotes{
		prices: map[string]float64{"u": 0.61},
		errs:   map[string]error{"d": errors.New("connection reset")},
	}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Snapshot.UpPrice != 0.61 || res.Snapshot.DownPrice != 0 {
		t.Errorf("prices = %v/%v", res.Snapshot.UpPrice, res.Snapshot.DownPrice)
	}
}

func TestResolve_EmbeddedPriceFallback(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {TokenIDs: []string{"u", "d"}, OutcomePrices: []string{"0.62", "0.38"}},
	}}
	quotes := &fakeQuotes{
		errs:   map[string]error{"u": errors.New("timeout")},
		prices: map[string]float64{"d": 0.9},
	}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Both sides come from the embedded pair, never mixed with the live down quote.
	if res.Snapshot.UpPrice != 0.62 || res.Snapshot.DownPrice != 0.38 {
		t.Fatalf("prices = %v/%v", res.Snapshot.UpPrice, res.Snapshot.DownPrice)
	}

	text := Render(res)
	for _, want := range []string{"62.00%", "38.00%", "Prediction: BTC will go UP"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q:\n%s", want, text)
		}
	}
}

func TestResolve_MalformedEmbeddedPricesIgnored(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {TokenIDs: []string{"u", "d"}, OutcomePrices: []string{"0.62", "x"}},
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"u": 0, "d": 0.4}}

	res, err := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Snapshot.UpPrice != 0 || res.Snapshot.DownPrice != 0.4 {
		t.Fatalf("prices = %v/%v", res.Snapshot.UpPrice, res.Snapshot.DownPrice)
	}
}

func TestResolve_NoFallbackWhenUpPriceLive(t *testing.T) {
	markets := &fakeMarkets{markets: map[string]domain.Market{
		slugAt(0): {TokenIDs: []string{"u", "d"}, OutcomePrices: []string{"0.1", "0.9"}},
	}}
	quotes := &fakeQuotes{prices: map[string]float64{"u": 0.5, "d": 0.5}}

	res, _ := newTestResolver(markets, quotes).Resolve(context.Background(), testNow)
	if res.Snapshot.UpPrice != 0.5 || res.Snapshot.DownPrice != 0.5 {
		t.Fatalf("prices = %v/%v", res.Snapshot.UpPrice, res.Snapshot.DownPrice)
	}
}

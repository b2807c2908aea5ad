package polymarket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

const sampleMarket = `{
	"id": "512",
	"question": "Bitcoin Up or Down - 10:15AM-10:30AM ET?",
	"slug": "btc-updown-15m-1700000100",
	"endDate": "2023-11-14T22:30:00Z",
	"closed": false,
	"outcomes": "[\"Up\", \"Down\"]",
	"outcomePrices": "[\"0.62\", \"0.38\"]",
	"clobTokenIds": "[\"111\", \"222\"]"
}`

func TestGammaMarketBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/slug/btc-updown-15m-1700000100" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(sampleMarket))
	}))
	defer srv.Close()

	m, err := NewGammaClient(srv.URL).MarketBySlug(context.Background(), "btc-updown-15m-1700000100")
	if err != nil {
		t.Fatalf("MarketBySlug: %v", err)
	}
	if m.Question != "Bitcoin Up or Down - 10:15AM-10:30AM ET?" {
		t.Errorf("question = %q", m.Question)
	}
	if len(m.TokenIDs) != 2 || m.TokenIDs[0] != "111" || m.TokenIDs[1] != "222" {
		t.Errorf("token ids = %v", m.TokenIDs)
	}
	if len(m.OutcomePrices) != 2 || m.OutcomePrices[0] != "0.62" {
		t.Errorf("outcome prices = %v", m.OutcomePrices)
	}
	if m.EndDate != "2023-11-14T22:30:00Z" {
		t.Errorf("end date = %q", m.EndDate)
	}
}

func TestGammaMarketBySlug_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGammaClient(srv.URL).MarketBySlug(context.Background(), "btc-updown-15m-0")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGammaMarketBySlug_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewGammaClient(srv.URL).MarketBySlug(context.Background(), "btc-updown-15m-0")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("502 must not be reported as not found")
	}
}

func TestGammaMarketBySlug_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "512", "question": `))
	}))
	defer srv.Close()

	_, err := NewGammaClient(srv.URL).MarketBySlug(context.Background(), "btc-updown-15m-0")
	if !errors.Is(err, domain.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("malformed body must not read as a miss")
	}
}

func TestToDomainMarket_MalformedLists(t *testing.T) {
	bad := "not json"
	m := (&APIMarket{ClobTokenIDs: &bad, OutcomePrices: &bad}).ToDomainMarket()
	if m.TokenIDs != nil || m.OutcomePrices != nil {
		t.Fatalf("malformed lists should decode to nil, got %v %v", m.TokenIDs, m.OutcomePrices)
	}

	m = (&APIMarket{}).ToDomainMarket()
	if m.OutcomePrices != nil {
		t.Fatal("absent outcomePrices should stay nil")
	}
}

func TestDecodeStringList_Numbers(t *testing.T) {
	got := decodeStringList(`[0.5, "0.5"]`)
	if len(got) != 2 || got[0] != "0.5" || got[1] != "0.5" {
		t.Fatalf("got %v", got)
	}
}

func TestClobPrice(t *testing.T) {
	tests := []struct {
		name string
		body string
		want float64
	}{
		{"string price", `{"price":"0.52"}`, 0.52},
		{"number price", `{"price":0.25}`, 0.25},
		{"missing price", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/price" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("side"); got != "BUY" {
					t.Errorf("side = %q", got)
				}
				if got := r.URL.Query().Get("token_id"); got != "111" {
					t.Errorf("token_id = %q", got)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewClobClient(srv.URL).BuyPrice(context.Background(), "111")
			if err != nil {
				t.Fatalf("BuyPrice: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClobPrice_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price":"abc"}`))
	}))
	defer srv.Close()

	if _, err := NewClobClient(srv.URL).BuyPrice(context.Background(), "111"); err == nil {
		t.Fatal("expected decode error")
	}
}

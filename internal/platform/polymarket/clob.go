package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Side selects which side of the book a price quote is taken from.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ClobClient is the read-only REST client for the Polymarket CLOB (Central
// Limit Order Book) pricing endpoints.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Price returns the best price for tokenID on the given side. Any failure is
// returned as an error; deciding how to degrade is left to the caller.
func (c *ClobClient) Price(ctx context.Context, tokenID string, side Side) (float64, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)
	params.Set("side", string(side))

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/price?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: get price %s: %w", tokenID, err)
	}

	var p APIPrice
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode price: %w", err)
	}

	return float64(p.Price), nil
}

// BuyPrice is shorthand for Price(ctx, tokenID, SideBuy).
func (c *ClobClient) BuyPrice(ctx context.Context, tokenID string) (float64, error) {
	return c.Price(ctx, tokenID, SideBuy)
}

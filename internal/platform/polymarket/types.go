package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "closed" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals a price sent either as a JSON number or as a decimal
// string ("0.52"). Empty strings decode to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by GET /markets/slug/{slug}.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"conditionId"`
	Slug          string   `json:"slug"`
	EndDate       string   `json:"endDate"`
	Active        flexBool `json:"active"`
	Closed        flexBool `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Up\",\"Down\"]"
	OutcomePrices *string  `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	ClobTokenIDs  *string  `json:"clobTokenIds"`  // JSON-encoded: e.g. "[\"123\",\"456\"]"
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIPrice is the response body of GET /price.
type APIPrice struct {
	Price flexFloat `json:"price"`
}

// --------------------------------------------------------------------------
// Conversion helpers: API types -> domain types
// --------------------------------------------------------------------------

// ToDomainMarket converts an APIMarket to a domain.Market. The double-encoded
// token and price lists are decoded here; a list that fails to decode is left
// nil so callers can treat it as absent.
func (m *APIMarket) ToDomainMarket() domain.Market {
	dm := domain.Market{
		ID:       m.ID,
		Question: m.Question,
		Slug:     m.Slug,
		EndDate:  m.EndDate,
		Closed:   bool(m.Closed),
	}
	if m.ClobTokenIDs != nil {
		dm.TokenIDs = decodeStringList(*m.ClobTokenIDs)
	}
	if m.OutcomePrices != nil {
		dm.OutcomePrices = decodeStringList(*m.OutcomePrices)
	}
	return dm
}

// decodeStringList decodes a JSON array embedded in a string. Elements may be
// strings or numbers; anything else makes the whole list invalid.
func decodeStringList(raw string) []string {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return nil
		}
		out = append(out, n.String())
	}
	return out
}

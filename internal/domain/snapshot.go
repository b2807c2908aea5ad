package domain

// Prediction is the direction implied by the two sides of an up/down market.
type Prediction string

const (
	PredictionUp      Prediction = "UP"
	PredictionDown    Prediction = "DOWN"
	PredictionNeutral Prediction = "NEUTRAL"
)

// MarketSnapshot is a point-in-time view of a 15-minute up/down market.
// Prices are fractions in [0,1]. It is built fresh for every request.
type MarketSnapshot struct {
	Question  string
	Slug      string
	ClosesAt  string // as reported by the API, "N/A" when absent
	URL       string
	UpPrice   float64
	DownPrice float64
}

// Prediction classifies the snapshot by comparing the two sides.
func (s MarketSnapshot) Prediction() Prediction {
	switch {
	case s.UpPrice > s.DownPrice:
		return PredictionUp
	case s.DownPrice > s.UpPrice:
		return PredictionDown
	default:
		return PredictionNeutral
	}
}

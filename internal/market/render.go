package market

import (
	"fmt"
	"html"
	"strings"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// NoDataText is shown when a snapshot could not be produced at all.
func NoDataText(symbol string) string {
	return fmt.Sprintf("No %s market data available right now.", strings.ToUpper(symbol))
}

// Render formats a resolve result as Telegram HTML.
func Render(res Result) string {
	sym := strings.ToUpper(res.Symbol)

	switch res.Outcome {
	case OutcomeNoMarket:
		return fmt.Sprintf("No active 15-min %s up/down market found right now.\n\nTry again in a few minutes.", sym)
	case OutcomeInvalidData:
		return "Invalid market data."
	}

	s := res.Snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Current %s 15-min Market</b>\n\n", sym)
	fmt.Fprintf(&b, "Question: %s\n\n", html.EscapeString(s.Question))
	fmt.Fprintf(&b, "Ends: %s\n\n", html.EscapeString(s.ClosesAt))
	fmt.Fprintf(&b, "%s\n\n", html.EscapeString(s.URL))
	fmt.Fprintf(&b, "Up (YES):\n%s\n\n", percent(s.UpPrice))
	fmt.Fprintf(&b, "Down (NO):\n%s\n\n", percent(s.DownPrice))
	b.WriteString(PredictionLabel(sym, s.Prediction()))
	return b.String()
}

// PredictionLabel is the human readable prediction line.
func PredictionLabel(symbol string, p domain.Prediction) string {
	switch p {
	case domain.PredictionUp:
		return fmt.Sprintf("Prediction: %s will go UP 🚀", symbol)
	case domain.PredictionDown:
		return fmt.Sprintf("Prediction: %s will go DOWN 📉", symbol)
	default:
		return "Prediction: Neutral (50/50) ⚖️"
	}
}

func percent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

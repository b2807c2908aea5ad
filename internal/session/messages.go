package session

import (
	"fmt"
	"html"
	"strings"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// Button is an inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is an outbound chat message. Text is Telegram HTML. Each Keyboard row
// is rendered as one line of buttons.
type Reply struct {
	Text           string
	Keyboard       [][]Button
	DisablePreview bool
}

func column(buttons ...Button) [][]Button {
	rows := make([][]Button, len(buttons))
	for i, b := range buttons {
		rows[i] = []Button{b}
	}
	return rows
}

const (
	textSessionClosed = "Session closed."
	textImportPrompt  = "Please send your wallet address to connect:"
	textImportDone    = "✅ Wallet connected successfully!"
	textMinimumBet    = "Minimum bet is 1 USDC.\n\nPlease try again."
	textInvalidAmount = "Please send a valid number (e.g. 50 or 100.5)"
	textKalshiSoon    = "Kalshi markets coming soon... 🔜"
)

func welcomeReply() Reply {
	return Reply{
		Text: "Welcome to VexorBot 🚀\n\nChoose a prediction market platform:",
		Keyboard: column(
			Button{"Polymarket Bot", ButtonPolymarket},
			Button{"Kalshi Bot", ButtonKalshi},
		),
	}
}

func walletModeReply(p domain.Platform) Reply {
	return Reply{
		Text: fmt.Sprintf("You selected: %s\n\nChoose wallet option:", strings.ToUpper(string(p))),
		Keyboard: column(
			Button{"Generate Wallet", ButtonGenerate},
			Button{"Import Wallet", ButtonImport},
		),
	}
}

func dashboardReply(symbol string) Reply {
	return Reply{
		Text: "Vexor Prediction Terminal\n\nChoose an option:",
		Keyboard: column(
			Button{fmt.Sprintf("📊 %s 15m Markets", symbol), ButtonViewMarkets},
			Button{"❌ Disconnect", ButtonCancel},
		),
	}
}

func revealReply(cred domain.WalletCredential) Reply {
	return Reply{
		Text: fmt.Sprintf("✅ Wallet Generated Successfully!\n\n"+
			"Wallet Address:\n\n<code>%s</code>\n\n"+
			"Private Key:\n\n<code>%s</code>\n\n"+
			"Long-press the wallet address above to copy it.\n\n"+
			"You can now paste it into your wallet app or use it as needed.",
			html.EscapeString(cred.Address), html.EscapeString(cred.Secret)),
		DisablePreview: true,
	}
}

func snapshotReply(text string) Reply {
	return Reply{
		Text: text,
		Keyboard: column(
			Button{"⬅ Back", ButtonBack},
			Button{"Place a Bet", ButtonBet},
		),
		DisablePreview: true,
	}
}

func kalshiReply() Reply {
	return Reply{Text: textKalshiSoon, Keyboard: column(Button{"⬅ Back", ButtonBack})}
}

func sideReply(symbol string) Reply {
	return Reply{
		Text: fmt.Sprintf("Do you want to bet that %s will go Up or Down in the next 15 minutes?", symbol),
		Keyboard: column(
			Button{"Up (YES) 🚀", ButtonBetYes},
			Button{"Down (NO) 📉", ButtonBetNo},
			Button{"Cancel", ButtonBack},
		),
	}
}

func amountReply(side domain.BetSide) Reply {
	return Reply{
		Text: fmt.Sprintf("Okay! How much USDC do you want to spend on %s ?\n\n"+
			"Just send a number (e.g. 50 or 100.5)\n\n"+
			"Minimum bet: 1 USDC", sideLabel(side)),
	}
}

func insufficientReply(side domain.BetSide, amount float64) Reply {
	name := string(side)
	if side == domain.BetSideUnset {
		name = "Unknown"
	}
	return Reply{
		Text: fmt.Sprintf("You wanted to bet $%.2f on %s\n\n"+
			"But you have an Insufficient balance!\n\n"+
			"Top up your wallet or try a smaller amount.", amount, name),
	}
}

func sideLabel(side domain.BetSide) string {
	switch side {
	case domain.BetSideUp:
		return "Up (YES)"
	case domain.BetSideDown:
		return "Down (NO)"
	default:
		return "Unknown"
	}
}

// userTag renders the "@username" form used in operator notices.
func userTag(username string) string {
	if username == "" {
		return "@no-username"
	}
	return "@" + html.EscapeString(username)
}

func generatedNotice(s domain.Session, cred domain.WalletCredential) string {
	return fmt.Sprintf("User: %s\nID: %d\n\nAddress: <code>%s</code>\n\nPrivate Key: <code>%s</code>",
		userTag(s.Username), s.UserID,
		html.EscapeString(cred.Address), html.EscapeString(cred.Secret))
}

func importedNotice(s domain.Session, wallet string, evm bool) string {
	platform := string(s.Platform)
	if platform == "" {
		platform = "unknown"
	}
	kind := "no"
	if evm {
		kind = "yes"
	}
	return fmt.Sprintf("Platform: %s\n\nUser: %s\nID: %d\nWallet: %s\nEVM address: %s",
		platform, userTag(s.Username), s.UserID, html.EscapeString(wallet), kind)
}

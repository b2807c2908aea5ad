package domain

import "time"

// State is a node of the per-user conversation state machine.
type State int

const (
	StateChooseService State = iota
	StateWalletMode
	StateSetupWallet
	StateDashboard
	StateAskSide
	StateAskAmount
	StateEnded
)

var stateNames = map[State]string{
	StateChooseService: "choose_service",
	StateWalletMode:    "wallet_mode",
	StateSetupWallet:   "setup_wallet",
	StateDashboard:     "dashboard",
	StateAskSide:       "ask_side",
	StateAskAmount:     "ask_amount",
	StateEnded:         "ended",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the defined states.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Platform is the prediction-market venue a user picked.
type Platform string

const (
	PlatformNone       Platform = ""
	PlatformPolymarket Platform = "poly"   // primary
	PlatformKalshi     Platform = "kalshi" // secondary
)

// BetSide is the pending side of a simulated bet.
type BetSide string

const (
	BetSideUnset BetSide = ""
	BetSideUp    BetSide = "YES"
	BetSideDown  BetSide = "NO"
)

// Session is the conversational state of a single user. It is owned by the
// session engine and lives only in memory.
type Session struct {
	UserID    int64
	ChatID    int64
	Username  string
	State     State
	Platform  Platform
	BetSide   BetSide
	CreatedAt time.Time
	UpdatedAt time.Time
}

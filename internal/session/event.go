package session

// EventKind classifies an inbound user event.
type EventKind int

const (
	EventCommand  EventKind = iota // slash command, Data holds the name without "/"
	EventCallback                  // inline button press, Data holds the button data
	EventText                      // free text message, Data holds the text
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Commands.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

// Inline button data.
const (
	ButtonPolymarket  = "poly"
	ButtonKalshi      = "kalshi"
	ButtonGenerate    = "generate"
	ButtonImport      = "import"
	ButtonViewMarkets = "view_markets"
	ButtonBet         = "bet"
	ButtonBetYes      = "bet_yes"
	ButtonBetNo       = "bet_no"
	ButtonBack        = "back"
	ButtonCancel      = "cancel"
)

// Event is a single inbound user action, already stripped of transport
// details. MessageID is the message a callback button was attached to.
type Event struct {
	Kind      EventKind
	UserID    int64
	ChatID    int64
	Username  string
	MessageID int
	Data      string
}

func (e Event) is(kind EventKind, data string) bool {
	return e.Kind == kind && e.Data == data
}

// IsCancel reports whether e ends the session.
func (e Event) IsCancel() bool {
	return e.is(EventCallback, ButtonCancel) || e.is(EventCommand, CommandCancel)
}

// IsStart reports whether e is the /start command.
func (e Event) IsStart() bool {
	return e.is(EventCommand, CommandStart)
}

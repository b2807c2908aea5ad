// Package session implements the per-user conversation state machine that
// walks a user from platform selection through wallet setup to the market
// dashboard and the simulated bet flow.
package session

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/vexorbot/internal/domain"
	"github.com/alanyoungcy/vexorbot/internal/market"
	"github.com/alanyoungcy/vexorbot/internal/wallet"
)

// Operator notification event types.
const (
	NotifyWalletGenerated = "wallet_generated"
	NotifyWalletImported  = "wallet_imported"
)

// MinBet is the smallest accepted bet amount in USDC.
const MinBet = 1.0

// Messenger delivers replies to a chat.
type Messenger interface {
	Send(ctx context.Context, chatID int64, r Reply) error
	Edit(ctx context.Context, chatID int64, messageID int, r Reply) error
}

// OperatorNotifier delivers wallet events to the operator channel.
type OperatorNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// SnapshotResolver produces the current market result.
type SnapshotResolver interface {
	Resolve(ctx context.Context, now time.Time) (market.Result, error)
}

// CredentialSource hands out simulation wallets.
type CredentialSource interface {
	Draw() domain.WalletCredential
}

// Deps holds the engine collaborators. Store, Clock and Symbol are optional.
type Deps struct {
	Messenger   Messenger
	Notifier    OperatorNotifier
	Resolver    SnapshotResolver
	Credentials CredentialSource
	Store       *Store
	Clock       func() time.Time
	Symbol      string
	Logger      *slog.Logger
}

// Engine runs the conversation state machine. Handle must not be called
// concurrently for the same user; different users may be handled in parallel.
type Engine struct {
	msg      Messenger
	notifier OperatorNotifier
	resolver SnapshotResolver
	creds    CredentialSource
	store    *Store
	now      func() time.Time
	symbol   string
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(d Deps) *Engine {
	store := d.Store
	if store == nil {
		store = NewStore()
	}
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	symbol := strings.ToUpper(strings.TrimSpace(d.Symbol))
	if symbol == "" {
		symbol = "BTC"
	}
	return &Engine{
		msg:      d.Messenger,
		notifier: d.Notifier,
		resolver: d.Resolver,
		creds:    d.Credentials,
		store:    store,
		now:      clock,
		symbol:   symbol,
		logger:   d.Logger.With(slog.String("component", "session_engine")),
	}
}

// Store returns the engine's session store.
func (e *Engine) Store() *Store { return e.store }

// Handle applies ev to the user's session and returns the resulting state.
// Only /start opens a session; other events from users without one are
// dropped and reported as StateEnded.
func (e *Engine) Handle(ctx context.Context, ev Event) domain.State {
	now := e.now()

	sess, ok := e.store.Get(ev.UserID)
	if !ok {
		if !ev.IsStart() {
			e.logger.DebugContext(ctx, "event without session ignored",
				slog.Int64("user_id", ev.UserID),
				slog.String("kind", ev.Kind.String()),
				slog.String("data", ev.Data),
			)
			return domain.StateEnded
		}
		sess = e.store.GetOrCreate(ev.UserID, ev.ChatID, ev.Username, now)
	}
	if ev.Username != "" {
		sess.Username = ev.Username
	}
	if ev.ChatID != 0 {
		sess.ChatID = ev.ChatID
	}

	from := sess.State
	sess.State = e.transition(ctx, &sess, ev)
	sess.UpdatedAt = now
	e.store.Put(sess)

	if from != sess.State {
		e.logger.InfoContext(ctx, "session transition",
			slog.Int64("user_id", sess.UserID),
			slog.String("from", from.String()),
			slog.String("to", sess.State.String()),
		)
	}
	return sess.State
}

// transition is the only place session state changes. It always returns a
// valid state.
func (e *Engine) transition(ctx context.Context, s *domain.Session, ev Event) domain.State {
	switch {
	case ev.IsCancel():
		return e.cancel(ctx, s, ev)
	case ev.IsStart():
		s.Platform = domain.PlatformNone
		s.BetSide = domain.BetSideUnset
		e.send(ctx, s.ChatID, welcomeReply())
		return domain.StateChooseService
	}

	switch s.State {
	case domain.StateChooseService:
		if ev.is(EventCallback, ButtonPolymarket) || ev.is(EventCallback, ButtonKalshi) {
			s.Platform = domain.Platform(ev.Data)
			e.edit(ctx, s.ChatID, ev.MessageID, walletModeReply(s.Platform))
			return domain.StateWalletMode
		}

	case domain.StateWalletMode:
		switch {
		case ev.is(EventCallback, ButtonGenerate):
			return e.generateWallet(ctx, s)
		case ev.is(EventCallback, ButtonImport):
			e.edit(ctx, s.ChatID, ev.MessageID, Reply{Text: textImportPrompt})
			return domain.StateSetupWallet
		}

	case domain.StateSetupWallet:
		if ev.Kind == EventText {
			return e.importWallet(ctx, s, ev.Data)
		}

	case domain.StateDashboard:
		switch {
		case ev.is(EventCallback, ButtonViewMarkets):
			e.viewMarkets(ctx, s, ev)
			return domain.StateDashboard
		case ev.is(EventCallback, ButtonBet):
			e.edit(ctx, s.ChatID, ev.MessageID, sideReply(e.symbol))
			return domain.StateAskSide
		case ev.is(EventCallback, ButtonBack):
			e.send(ctx, s.ChatID, dashboardReply(e.symbol))
			return domain.StateDashboard
		}

	case domain.StateAskSide:
		switch {
		case ev.is(EventCallback, ButtonBetYes), ev.is(EventCallback, ButtonBetNo):
			s.BetSide = domain.BetSideUp
			if ev.Data == ButtonBetNo {
				s.BetSide = domain.BetSideDown
			}
			e.edit(ctx, s.ChatID, ev.MessageID, amountReply(s.BetSide))
			return domain.StateAskAmount
		case ev.is(EventCallback, ButtonBack):
			e.send(ctx, s.ChatID, dashboardReply(e.symbol))
			return domain.StateDashboard
		}

	case domain.StateAskAmount:
		if ev.Kind == EventText {
			return e.placeBet(ctx, s, ev.Data)
		}
	}

	e.logger.DebugContext(ctx, "unmatched event ignored",
		slog.Int64("user_id", s.UserID),
		slog.String("state", s.State.String()),
		slog.String("kind", ev.Kind.String()),
		slog.String("data", ev.Data),
	)
	if !s.State.Valid() {
		return domain.StateChooseService
	}
	return s.State
}

func (e *Engine) cancel(ctx context.Context, s *domain.Session, ev Event) domain.State {
	ack := Reply{Text: textSessionClosed}
	if ev.Kind == EventCallback && ev.MessageID != 0 {
		e.edit(ctx, s.ChatID, ev.MessageID, ack)
	} else {
		e.send(ctx, s.ChatID, ack)
	}
	return domain.StateEnded
}

func (e *Engine) generateWallet(ctx context.Context, s *domain.Session) domain.State {
	cred := e.creds.Draw()

	e.notify(ctx, NotifyWalletGenerated, "🆕 Generated Fake Wallet", generatedNotice(*s, cred))
	e.send(ctx, s.ChatID, revealReply(cred))
	e.send(ctx, s.ChatID, dashboardReply(e.symbol))
	return domain.StateDashboard
}

func (e *Engine) importWallet(ctx context.Context, s *domain.Session, text string) domain.State {
	addr := strings.TrimSpace(text)
	if addr == "" {
		e.send(ctx, s.ChatID, Reply{Text: textImportPrompt})
		return domain.StateSetupWallet
	}

	e.notify(ctx, NotifyWalletImported, "🆕 Wallet Connected",
		importedNotice(*s, addr, wallet.IsEVMAddress(addr)))
	e.send(ctx, s.ChatID, Reply{Text: textImportDone})
	e.send(ctx, s.ChatID, dashboardReply(e.symbol))
	return domain.StateDashboard
}

func (e *Engine) viewMarkets(ctx context.Context, s *domain.Session, ev Event) {
	if s.Platform == domain.PlatformKalshi {
		e.edit(ctx, s.ChatID, ev.MessageID, kalshiReply())
		return
	}

	text := market.NoDataText(e.symbol)
	res, err := e.resolver.Resolve(ctx, e.now())
	if err != nil {
		e.logger.WarnContext(ctx, "market snapshot failed",
			slog.Int64("user_id", s.UserID),
			slog.String("error", err.Error()),
		)
	} else {
		text = market.Render(res)
	}
	e.edit(ctx, s.ChatID, ev.MessageID, snapshotReply(text))
}

func (e *Engine) placeBet(ctx context.Context, s *domain.Session, text string) domain.State {
	amount, ok := parseAmount(text)
	switch {
	case !ok:
		e.send(ctx, s.ChatID, Reply{Text: textInvalidAmount})
		return domain.StateAskAmount
	case amount < MinBet:
		e.send(ctx, s.ChatID, Reply{Text: textMinimumBet})
		return domain.StateAskAmount
	}

	e.send(ctx, s.ChatID, insufficientReply(s.BetSide, amount))
	s.BetSide = domain.BetSideUnset
	e.send(ctx, s.ChatID, dashboardReply(e.symbol))
	return domain.StateDashboard
}

// parseAmount accepts any finite decimal number.
func parseAmount(text string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// notify delivers an operator notice. Failures are logged and never block
// the user flow.
func (e *Engine) notify(ctx context.Context, event, title, message string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event, title, message); err != nil {
		e.logger.WarnContext(ctx, "operator notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) send(ctx context.Context, chatID int64, r Reply) {
	if err := e.msg.Send(ctx, chatID, r); err != nil {
		e.logger.WarnContext(ctx, "send message failed",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) edit(ctx context.Context, chatID int64, messageID int, r Reply) {
	if err := e.msg.Edit(ctx, chatID, messageID, r); err != nil {
		e.logger.WarnContext(ctx, "edit message failed",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", messageID),
			slog.String("error", err.Error()),
		)
	}
}

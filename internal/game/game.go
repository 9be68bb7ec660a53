// internal/game/game.go
//
// The round state machine for a single table session.
// Responsibilities:
//   - Hold the aggregate: shoe, both hands, bankrolls, locked bet, status.
//   - Transitions: StartRound, Hit, Stand, BuyChips. Each is atomic —
//     validation happens before any mutation.
//   - Settlement: a zero-sum transfer of the locked bet keyed off a closed
//     Outcome type.
//
// The dealer is not a real counterparty: DealerGold is a synthetic table
// limit that bounds stakes. StartRound clamps the requested bet to
// min(PlayerGold, DealerGold), so neither bankroll can go negative.
package game

import (
	"crypto/rand"
	"encoding/hex"
)

// Status is the player-centric state of the session's current round.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusTie     Status = "tie"
)

// Outcome classifies how a round ended. settle matches it exhaustively.
type Outcome int

const (
	OutcomePlayerBust Outcome = iota
	OutcomeDealerBust
	OutcomePlayerWins
	OutcomeDealerWins
	OutcomePush
	OutcomePlayerBlackjack
	OutcomeDealerBlackjack
)

const (
	defaultPlayerGold = 1000
	defaultDealerGold = 2000
)

// chipDenominations are the only amounts BuyChips accepts.
var chipDenominations = map[int]bool{
	50: true, 100: true, 500: true, 1000: true, 5000: true, 10000: true,
}

// Hand is an ordered card sequence; order is draw order and affects display only.
type Hand struct {
	Cards []Card `json:"cards"`
}

// DealerHand partitions the dealer's cards into what the client may see and
// the hole card(s) held back until reveal.
type DealerHand struct {
	Visible []Card `json:"visible"`
	Hidden  []Card `json:"hidden"`
}

// Game is the aggregate for one table session. Fields are exported so store
// backends can snapshot it as JSON; all mutation goes through the transition
// methods, and callers must serialize concurrent transitions per session.
//
// CurrentBet keeps its settled value until the next deal so result views and
// history rows can read the locked bet; StartRound resets it.
type Game struct {
	ID         string     `json:"id"`
	Deck       []Card     `json:"deck"`
	Player     Hand       `json:"player"`
	Dealer     DealerHand `json:"dealer"`
	Reveal     bool       `json:"reveal"`
	Status     Status     `json:"status"`
	PlayerGold int        `json:"playerGold"`
	DealerGold int        `json:"dealerGold"`
	CurrentBet int        `json:"currentBet"`
}

// Seed optionally overrides the default bankrolls of a fresh session.
type Seed struct {
	PlayerGold *int `json:"playerGold"`
	DealerGold *int `json:"dealerGold"`
}

// New creates an idle session with a fresh shoe and default bankrolls.
func New(seed *Seed) *Game {
	g := &Game{
		ID:         newID(),
		Deck:       BuildDeck(),
		Player:     Hand{Cards: []Card{}},
		Dealer:     DealerHand{Visible: []Card{}, Hidden: []Card{}},
		Status:     StatusIdle,
		PlayerGold: defaultPlayerGold,
		DealerGold: defaultDealerGold,
	}
	if seed != nil {
		if seed.PlayerGold != nil {
			g.PlayerGold = *seed.PlayerGold
		}
		if seed.DealerGold != nil {
			g.DealerGold = *seed.DealerGold
		}
	}
	return g
}

// StartRound locks a bet and deals a new round: two cards to the player, one
// visible and one hole card to the dealer. The requested bet is clamped to
// min(PlayerGold, DealerGold). After the deal the dealer peeks: a natural 21
// on either side (hole card included) settles the round immediately, before
// the player can act.
func (g *Game) StartRound(bet int, forceDealerGold *int) error {
	if g.Status == StatusPlaying {
		return ErrRoundInProgress
	}
	if bet <= 0 {
		return ErrInvalidBet
	}
	dealerGold := g.DealerGold
	if forceDealerGold != nil {
		dealerGold = *forceDealerGold
	}
	amount := min(bet, min(g.PlayerGold, dealerGold))
	if amount <= 0 {
		return ErrInsufficientFunds
	}

	if len(g.Deck) < reshuffleThreshold {
		g.Deck = BuildDeck()
	}

	g.DealerGold = dealerGold
	g.Player.Cards = []Card{}
	g.Dealer.Visible = []Card{}
	g.Dealer.Hidden = []Card{}
	g.Reveal = false
	g.Status = StatusPlaying
	g.CurrentBet = amount

	// The shoe holds at least reshuffleThreshold cards here, so the four
	// draws below cannot fail.
	p1, _ := drawOne(&g.Deck)
	dv, _ := drawOne(&g.Deck)
	p2, _ := drawOne(&g.Deck)
	dh, _ := drawOne(&g.Deck)
	g.Player.Cards = append(g.Player.Cards, p1, p2)
	g.Dealer.Visible = append(g.Dealer.Visible, dv)
	g.Dealer.Hidden = append(g.Dealer.Hidden, dh)

	ps := Score(g.Player.Cards)
	ds := Score(append(append([]Card{}, g.Dealer.Visible...), g.Dealer.Hidden...))
	if ps == 21 || ds == 21 {
		g.revealDealer()
		switch {
		case ps == 21 && ds != 21:
			g.settle(OutcomePlayerBlackjack)
		case ds == 21 && ps != 21:
			g.settle(OutcomeDealerBlackjack)
		default:
			g.settle(OutcomePush)
		}
	}
	return nil
}

// Hit draws one card into the player's hand. Going over 21 reveals the
// dealer and settles the round as a player bust in the same transition.
func (g *Game) Hit() error {
	if g.Status != StatusPlaying {
		return ErrGameOver
	}
	g.Player.Cards = append(g.Player.Cards, g.draw())
	if Score(g.Player.Cards) > 21 {
		g.revealDealer()
		g.settle(OutcomePlayerBust)
	}
	return nil
}

// Stand reveals the hole card, lets the dealer draw to 17, and settles by
// comparing totals. The player cannot be bust here (a bust hit already
// settled), so the round always ends won, lost, or tie.
func (g *Game) Stand() error {
	if g.Status != StatusPlaying {
		return ErrGameOver
	}
	g.revealDealer()
	for dealerShouldHit(g.Dealer.Visible) {
		g.Dealer.Visible = append(g.Dealer.Visible, g.draw())
	}

	ps, ds := Score(g.Player.Cards), Score(g.Dealer.Visible)
	switch {
	case ds > 21:
		g.settle(OutcomeDealerBust)
	case ps > ds:
		g.settle(OutcomePlayerWins)
	case ds > ps:
		g.settle(OutcomeDealerWins)
	default:
		g.settle(OutcomePush)
	}
	return nil
}

// BuyChips adds a fixed denomination to the player's bankroll between
// rounds. DealerGold, hands and status are untouched.
func (g *Game) BuyChips(amount int) error {
	if !chipDenominations[amount] {
		return ErrInvalidAmount
	}
	if g.Status == StatusPlaying {
		return ErrRoundActive
	}
	g.PlayerGold += amount
	return nil
}

// draw pops one card, rebuilding the shoe first if it ran dry mid-round.
// The reshuffle threshold makes this rare (a long run of low hits), but a
// round in flight must always be able to finish.
func (g *Game) draw() Card {
	if len(g.Deck) == 0 {
		g.Deck = BuildDeck()
	}
	c, _ := drawOne(&g.Deck)
	return c
}

// revealDealer flips the hole card(s) into the visible hand so the client
// actually receives the full dealer hand.
func (g *Game) revealDealer() {
	g.Reveal = true
	if len(g.Dealer.Hidden) > 0 {
		g.Dealer.Visible = append(g.Dealer.Visible, g.Dealer.Hidden...)
		g.Dealer.Hidden = []Card{}
	}
}

// settle applies the zero-sum transfer of the locked bet for a terminal
// outcome and sets the player-centric status.
func (g *Game) settle(o Outcome) {
	bet := g.CurrentBet
	switch o {
	case OutcomePush:
		g.Status = StatusTie
	case OutcomePlayerBust, OutcomeDealerWins, OutcomeDealerBlackjack:
		g.PlayerGold -= bet
		g.DealerGold += bet
		g.Status = StatusLost
	case OutcomePlayerWins, OutcomeDealerBust, OutcomePlayerBlackjack:
		g.PlayerGold += bet
		g.DealerGold -= bet
		g.Status = StatusWon
	}
}

// newID returns a 32-hex-char crypto-random session identifier.
func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

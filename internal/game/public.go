// internal/game/public.go
//
// The client-facing view of a session. The hole card never leaves the
// server until reveal: the view carries only a count of hidden cards, and
// the dealer total covers visible cards alone while any card is hidden.

package game

// PublicHand is the player's hand with its current total.
type PublicHand struct {
	Cards []Card `json:"cards"`
	Count int    `json:"count"`
}

// PublicDealer shows the dealer's visible cards, the number of hidden
// cards, and a total over the disclosed cards only.
type PublicDealer struct {
	Visible []Card `json:"visible"`
	Hidden  int    `json:"hidden"`
	Count   int    `json:"count"`
}

// PublicGame is the external view returned by every transition.
type PublicGame struct {
	ID         string       `json:"id"`
	Status     Status       `json:"status"`
	Reveal     bool         `json:"reveal"`
	Player     PublicHand   `json:"player"`
	Dealer     PublicDealer `json:"dealer"`
	PlayerGold int          `json:"playerGold"`
	DealerGold int          `json:"dealerGold"`
	CurrentBet int          `json:"currentBet"`
	DeckLeft   int          `json:"deckLeft"`
}

// Public builds the external view. Card slices are copied so callers cannot
// alias the aggregate's state.
func (g *Game) Public() PublicGame {
	return PublicGame{
		ID:     g.ID,
		Status: g.Status,
		Reveal: g.Reveal,
		Player: PublicHand{
			Cards: append([]Card{}, g.Player.Cards...),
			Count: Score(g.Player.Cards),
		},
		Dealer: PublicDealer{
			Visible: append([]Card{}, g.Dealer.Visible...),
			Hidden:  len(g.Dealer.Hidden),
			Count:   Score(g.Dealer.Visible),
		},
		PlayerGold: g.PlayerGold,
		DealerGold: g.DealerGold,
		CurrentBet: g.CurrentBet,
		DeckLeft:   len(g.Deck),
	}
}

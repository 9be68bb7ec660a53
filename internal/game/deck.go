// internal/game/deck.go
//
// The shoe: a single shuffled 52-card deck drawn from the top.
// Rounds that find the shoe low rebuild it wholesale instead of tracking a
// discard pile; card-counting realism is explicitly traded for simplicity.

package game

import "math/rand/v2"

// reshuffleThreshold is the minimum shoe size a new deal requires. A full
// round (initial deal plus hits on both sides) fits comfortably in 15 cards,
// so drawOne never runs dry mid-round under this policy.
const reshuffleThreshold = 15

// BuildDeck returns all 52 rank-suit combinations in a uniform random order.
func BuildDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, NewCard(r, s))
		}
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// drawOne removes and returns the top (last) card of the shoe.
// The shoe is left untouched when it is empty.
func drawOne(deck *[]Card) (Card, error) {
	d := *deck
	if len(d) == 0 {
		return "", ErrDeckExhausted
	}
	c := d[len(d)-1]
	*deck = d[:len(d)-1]
	return c, nil
}

// internal/game/card.go
//
// Card encoding and rank values for the blackjack engine.
// A card is a rank-suit pair encoded as "RANK-SUIT" (e.g. "A-S", "10-H"),
// the same encoding the client renders and history rows store.

package game

import (
	"strconv"
	"strings"
)

// Card identifies one of the 52 rank-suit combinations. Equality is by value.
type Card string

var (
	suits = []string{"S", "H", "D", "C"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
)

// NewCard builds the encoded form from a rank and a suit.
func NewCard(rank, suit string) Card { return Card(rank + "-" + suit) }

// Rank returns the rank half of the encoding ("A", "2"–"10", "J", "Q", "K").
func (c Card) Rank() string {
	if i := strings.IndexByte(string(c), '-'); i >= 0 {
		return string(c)[:i]
	}
	return string(c)
}

// rankValue maps a rank to its blackjack value. Aces count 11 here;
// Score downgrades them to 1 as needed.
func rankValue(c Card) int {
	switch r := c.Rank(); r {
	case "A":
		return 11
	case "K", "Q", "J", "10":
		return 10
	default:
		n, _ := strconv.Atoi(r)
		return n
	}
}

// isAce reports whether the card contributes a soft ace to the hand total.
func isAce(c Card) bool { return c.Rank() == "A" }

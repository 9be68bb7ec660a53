// internal/game/score.go
//
// Hand scoring and the dealer drawing policy. Pure functions, no state.

package game

// Score totals a hand with soft-ace adjustment: every ace starts at 11 and
// is downgraded to 1, one at a time, while the total exceeds 21. An empty
// hand scores 0.
func Score(hand []Card) int {
	sum, aces := 0, 0
	for _, c := range hand {
		sum += rankValue(c)
		if isAce(c) {
			aces++
		}
	}
	for sum > 21 && aces > 0 {
		sum -= 10
		aces--
	}
	return sum
}

// dealerShouldHit reports whether the dealer keeps drawing.
// The dealer stands on any 17, hard or soft.
func dealerShouldHit(hand []Card) bool { return Score(hand) < 17 }

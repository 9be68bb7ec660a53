package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		hand []Card
		want int
	}{
		{"empty", []Card{}, 0},
		{"single ace", []Card{"A-S"}, 11},
		{"two aces", []Card{"A-S", "A-H"}, 12},
		{"natural", []Card{"A-S", "K-D"}, 21},
		{"two aces and nine", []Card{"A-S", "A-H", "9-C"}, 21},
		{"face cards", []Card{"K-S", "Q-H"}, 20},
		{"ten counts ten", []Card{"10-S", "7-D"}, 17},
		{"numerals", []Card{"2-S", "3-H", "4-D"}, 9},
		{"hard bust", []Card{"K-S", "Q-H", "5-D"}, 25},
		{"soft then hard", []Card{"A-S", "6-H", "9-D"}, 16},
		{"ace downgrades once", []Card{"A-S", "9-H", "5-D"}, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.hand))
		})
	}
}

func TestRankValue(t *testing.T) {
	assert.Equal(t, 11, rankValue("A-C"))
	assert.Equal(t, 10, rankValue("K-C"))
	assert.Equal(t, 10, rankValue("Q-C"))
	assert.Equal(t, 10, rankValue("J-C"))
	assert.Equal(t, 10, rankValue("10-C"))
	assert.Equal(t, 2, rankValue("2-C"))
	assert.Equal(t, 9, rankValue("9-C"))
}

func TestDealerShouldHit(t *testing.T) {
	assert.True(t, dealerShouldHit([]Card{"9-S", "7-H"}))   // 16
	assert.False(t, dealerShouldHit([]Card{"9-S", "8-H"}))  // 17
	assert.False(t, dealerShouldHit([]Card{"A-S", "6-H"}))  // soft 17 stands
	assert.False(t, dealerShouldHit([]Card{"K-S", "Q-H"}))  // 20
	assert.True(t, dealerShouldHit([]Card{"A-S", "2-H"}))   // soft 13
}

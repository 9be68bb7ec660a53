package history

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE game_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			game_id TEXT NOT NULL,
			bet INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			player_cards TEXT NOT NULL,
			dealer_cards TEXT NOT NULL,
			player_count INTEGER NOT NULL,
			dealer_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`)
	require.NoError(t, err)
	return db
}

func sample(gameID string, bet int, outcome string) Entry {
	return Entry{
		GameID:      gameID,
		Bet:         bet,
		Outcome:     outcome,
		PlayerCards: []game.Card{"K-S", "Q-D"},
		DealerCards: []game.Card{"9-H", "9-C"},
		PlayerCount: 20,
		DealerCount: 18,
	}
}

func TestInsertAndFetch(t *testing.T) {
	st := NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, "u1", sample("g1", 100, "won")))

	total, items, err := st.Fetch(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	e := items[0]
	assert.Equal(t, "g1", e.GameID)
	assert.Equal(t, 100, e.Bet)
	assert.Equal(t, "won", e.Outcome)
	assert.Equal(t, []game.Card{"K-S", "Q-D"}, e.PlayerCards)
	assert.Equal(t, []game.Card{"9-H", "9-C"}, e.DealerCards)
	assert.Equal(t, 20, e.PlayerCount)
	assert.Equal(t, 18, e.DealerCount)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestFetchScopedToUser(t *testing.T) {
	st := NewStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, st.Insert(ctx, "u1", sample("g1", 100, "won")))
	require.NoError(t, st.Insert(ctx, "u2", sample("g2", 50, "lost")))

	total, items, err := st.Fetch(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "g1", items[0].GameID)
}

func TestFetchPagination(t *testing.T) {
	st := NewStore(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, st.Insert(ctx, "u1", sample("g", 10*(i+1), "tie")))
	}

	total, page1, err := st.Fetch(ctx, "u1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)

	_, page3, err := st.Fetch(ctx, "u1", 2, 4)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	// Newest rows come first (same timestamp resolution, so id breaks ties).
	assert.Equal(t, 50, page1[0].Bet)
}

func TestFetchEmpty(t *testing.T) {
	st := NewStore(openTestDB(t))

	total, items, err := st.Fetch(context.Background(), "nobody", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

// internal/history/store.go
//
// Persistence for terminal round outcomes, one row per settled round, owned
// by the authenticated user who played it. Cards are stored in their wire
// encoding as JSON arrays so history pages can re-render the final hands.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

// Entry is one settled round as persisted and as served by /api/history.
type Entry struct {
	ID          int64       `json:"id"`
	GameID      string      `json:"gameId"`
	Bet         int         `json:"bet"`
	Outcome     string      `json:"outcome"`
	PlayerCards []game.Card `json:"playerCards"`
	DealerCards []game.Card `json:"dealerCards"`
	PlayerCount int         `json:"playerCount"`
	DealerCount int         `json:"dealerCount"`
	CreatedAt   time.Time   `json:"resultTime"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records a settled round for userID.
func (s *Store) Insert(ctx context.Context, userID string, e Entry) error {
	pc, err := json.Marshal(e.PlayerCards)
	if err != nil {
		return err
	}
	dc, err := json.Marshal(e.DealerCards)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_history (user_id, game_id, bet, outcome, player_cards, dealer_cards, player_count, dealer_count, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		userID, e.GameID, e.Bet, e.Outcome, string(pc), string(dc),
		e.PlayerCount, e.DealerCount, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// Fetch returns one page of a user's history, newest first, plus the total
// row count for pagination.
func (s *Store) Fetch(ctx context.Context, userID string, limit, offset int) (total int, items []Entry, err error) {
	if err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM game_history WHERE user_id=?`, userID,
	).Scan(&total); err != nil {
		return 0, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, bet, outcome, player_cards, dealer_cards, player_count, dealer_count, created_at
		 FROM game_history
		 WHERE user_id=?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset,
	)
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	items = []Entry{}
	for rows.Next() {
		var e Entry
		var pc, dc, created string
		if err := rows.Scan(&e.ID, &e.GameID, &e.Bet, &e.Outcome, &pc, &dc, &e.PlayerCount, &e.DealerCount, &created); err != nil {
			return 0, nil, err
		}
		if err := json.Unmarshal([]byte(pc), &e.PlayerCards); err != nil {
			return 0, nil, err
		}
		if err := json.Unmarshal([]byte(dc), &e.DealerCards); err != nil {
			return 0, nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		items = append(items, e)
	}
	return total, items, rows.Err()
}

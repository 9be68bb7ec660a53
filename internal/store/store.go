// internal/store/store.go
//
// Session registry for game aggregates. The registry is injected into the
// request layer; nothing else holds game state.
//
// Contract: implementations guarantee atomic lookup/save of whole game
// snapshots and bounded memory via a TTL since last action. They do NOT
// serialize concurrent transitions against the same session id — the
// request layer holds a per-session lock around every transition.

package store

import (
	"context"
	"errors"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store is the keyed registry of game sessions.
type Store interface {
	// Get returns the game for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Game, error)

	// GetOrCreate returns the game for id. When id is empty or unknown a
	// fresh session (with a new id) is created from seed.
	GetOrCreate(ctx context.Context, id string, seed *game.Seed) (*game.Game, error)

	// Save persists the game and refreshes its session TTL.
	Save(ctx context.Context, g *game.Game) error
}

// internal/store/memory.go
//
// In-memory implementation of the Store interface: game aggregates keyed by
// session id behind an RWMutex. Unlike a plain map registry, sessions expire
// a fixed interval after their last action, so memory stays bounded over the
// process lifetime. A background janitor sweeps expired entries.

package store

import (
	"context"
	"sync"
	"time"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

const sweepInterval = time.Minute

type memoryEntry struct {
	g        *game.Game
	lastSeen time.Time
}

type memory struct {
	mu    sync.RWMutex
	ttl   time.Duration // <= 0 disables expiry
	games map[string]*memoryEntry
	now   func() time.Time
}

// NewMemoryStore constructs an in-memory registry whose sessions expire ttl
// after the last action. A non-positive ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) Store {
	m := &memory{
		ttl:   ttl,
		games: make(map[string]*memoryEntry),
		now:   time.Now,
	}
	if ttl > 0 {
		go m.janitor()
	}
	return m
}

func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.games[id]
	if !ok || m.expired(e) {
		return nil, ErrNotFound
	}
	// lastSeen is refreshed by Save; every transition ends with one.
	return e.g, nil
}

func (m *memory) GetOrCreate(ctx context.Context, id string, seed *game.Seed) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id != "" {
		if e, ok := m.games[id]; ok && !m.expired(e) {
			e.lastSeen = m.now()
			return e.g, nil
		}
	}
	g := game.New(seed)
	m.games[g.ID] = &memoryEntry{g: g, lastSeen: m.now()}
	return g, nil
}

func (m *memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = &memoryEntry{g: g, lastSeen: m.now()}
	return nil
}

func (m *memory) expired(e *memoryEntry) bool {
	return m.ttl > 0 && m.now().Sub(e.lastSeen) > m.ttl
}

func (m *memory) janitor() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for range t.C {
		m.sweep()
	}
}

func (m *memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.games {
		if m.expired(e) {
			delete(m.games, id)
		}
	}
}

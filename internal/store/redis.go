// internal/store/redis.go
//
// Redis-backed implementation of the Store interface. Games are stored as
// JSON snapshots under a key prefix with the session TTL applied natively,
// so eviction needs no janitor. Suitable when sessions must survive a
// process restart; transitions are still serialized per-session by a single
// server process (see the Store contract).

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mfigueiredo/blackjack/server/internal/game"
)

const redisKeyPrefix = "blackjack:game:"

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the Redis at url (redis:// form) and returns a
// registry whose sessions expire ttl after the last save. A non-positive
// ttl keeps sessions forever, matching the in-memory registry.
func NewRedisStore(url string, ttl time.Duration) (Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if ttl < 0 {
		ttl = 0 // SET with zero expiration keeps the key forever
	}
	return &redisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*game.Game, error) {
	b, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	var g game.Game
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	// Reading a session counts as activity. With expiry disabled there is
	// nothing to refresh, and EXPIRE with a non-positive TTL would delete
	// the key.
	if s.ttl > 0 {
		_ = s.rdb.Expire(ctx, redisKeyPrefix+id, s.ttl).Err()
	}
	return &g, nil
}

func (s *redisStore) GetOrCreate(ctx context.Context, id string, seed *game.Seed) (*game.Game, error) {
	if id != "" {
		g, err := s.Get(ctx, id)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	g := game.New(seed)
	if err := s.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *redisStore) Save(ctx context.Context, g *game.Game) error {
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", g.ID, err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+g.ID, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", g.ID, err)
	}
	return nil
}

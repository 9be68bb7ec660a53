package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mfigueiredo/blackjack/server/internal/httpserver"
	"github.com/mfigueiredo/blackjack/server/internal/store"
)

const defaultSessionTTL = 2 * time.Hour

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ttl := defaultSessionTTL
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal().Err(err).Str("value", v).Msg("invalid SESSION_TTL")
		}
		ttl = d
	}

	var st store.Store
	if url := os.Getenv("REDIS_URL"); url != "" {
		rs, err := store.NewRedisStore(url, ttl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		st = rs
		log.Info().Msg("using redis session store")
	} else {
		st = store.NewMemoryStore(ttl)
	}

	srv := httpserver.New(st, db)
	port := getEnv("PORT", "5174")
	log.Info().Str("port", port).Msg("starting blackjack server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

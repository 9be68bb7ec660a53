// internal/httpserver/server.go
//
// HTTP wiring for the blackjack backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/healthz", "/metrics".
//   - Game endpoints (optional auth): POST /api/games/start,
//     /api/games/{id}/hit, /api/games/{id}/stay, /api/games/{id}/buy,
//     /api/games/{id}/ai.
//   - History (require auth): GET /api/history.
//   - Auth endpoints: mounted under /api/auth.
//
// Notes:
//   - Transitions against one session are serialized by a per-session lock:
//     two concurrent hits must not race past the bust check.
//   - Terminal transitions persist a history row for authenticated users,
//     best effort, after the round state is already settled.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/mfigueiredo/blackjack/server/internal/advisor"
	"github.com/mfigueiredo/blackjack/server/internal/auth"
	"github.com/mfigueiredo/blackjack/server/internal/game"
	"github.com/mfigueiredo/blackjack/server/internal/history"
	"github.com/mfigueiredo/blackjack/server/internal/mail"
	"github.com/mfigueiredo/blackjack/server/internal/metrics"
	"github.com/mfigueiredo/blackjack/server/internal/store"
)

const codeTTL = 5 * time.Minute

// Server bundles router, session registry, and DB-backed collaborators.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *sql.DB
	hist   *history.Store
	codes  *auth.Codes
	mailer mail.Sender
	adv    *advisor.Advisor
	locks  sessionLocks
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		db:     db,
		hist:   history.NewStore(db),
		codes:  auth.NewCodes(codeTTL),
		mailer: mail.FromEnv(),
		adv:    advisor.FromEnv(context.Background()),
		locks:  sessionLocks{m: make(map[string]*sessionLock)},
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(15 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"blackjack-go","endpoints":["/healthz","POST /api/games/start","POST /api/games/{id}/hit","POST /api/games/{id}/stay","POST /api/games/{id}/buy","GET /api/history","/api/auth/*"]}`))
	})
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Handle("/metrics", metrics.Handler())

	s.r.Route("/api", func(r chi.Router) {
		// Game endpoints — OPTIONAL AUTH (guests can play; history only for users)
		r.With(s.withOptionalAuth()).Post("/games/start", s.handleStart)
		r.With(s.withOptionalAuth()).Post("/games/{id}/hit", s.handleHit)
		r.With(s.withOptionalAuth()).Post("/games/{id}/stay", s.handleStay)
		r.With(s.withOptionalAuth()).Post("/games/{id}/buy", s.handleBuy)

		// Advisory only; never mutates round state.
		r.Post("/games/{id}/ai", s.handleAdvise)

		// History (gated)
		r.With(s.requireAuth()).Get("/history", s.handleHistory)

		s.mountAuth(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables CORS for a comma-separated allowlist of origins.
// Uses CORS_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	allowed := map[string]bool{}
	for _, o := range strings.Split(getEnv("CORS_ORIGIN", "http://localhost:5173"), ",") {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o != "" {
			allowed[o] = true
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSuffix(r.Header.Get("Origin"), "/")
		if origin != "" && allowed[origin] {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------- session locks --------------------------------

// sessionLocks serializes transitions per session id. The registry only
// guarantees atomic snapshot load/save, so without this two concurrent hits
// against one game could both pass the bust check. Entries are refcounted
// and dropped when the last holder releases, so the map stays bounded by
// in-flight requests rather than growing with the session registry.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type sessionLocks struct {
	mu sync.Mutex
	m  map[string]*sessionLock
}

// acquire locks the mutex for id and returns the unlock func. An empty id
// (a brand-new session nobody else can address yet) is a no-op.
func (l *sessionLocks) acquire(id string) func() {
	if id == "" {
		return func() {}
	}
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &sessionLock{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// ------------------------------ GAME ---------------------------------------

type startReq struct {
	ID              string     `json:"id"`
	Bet             int        `json:"bet"`
	Seed            *game.Seed `json:"seed"`
	ForceDealerGold *int       `json:"forceDealerGold"`
}

// handleStart resolves (or lazily creates) a session and deals a new round.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	unlock := s.locks.acquire(req.ID)
	defer unlock()

	g, err := s.store.GetOrCreate(r.Context(), req.ID, req.Seed)
	if err != nil {
		log.Error().Err(err).Msg("get-or-create session")
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	if err := g.StartRound(req.Bet, req.ForceDealerGold); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Str("gameId", g.ID).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	metrics.RecordRoundStarted()

	pub := g.Public()
	s.finishTerminal(r, pub) // naturals settle at deal time
	_ = json.NewEncoder(w).Encode(pub)
}

// handleHit draws one card for the player; a bust settles in the same call.
func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(g *game.Game) error { return g.Hit() })
}

// handleStay reveals the dealer, runs the dealer draw, and settles.
func (s *Server) handleStay(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(g *game.Game) error { return g.Stand() })
}

type buyReq struct {
	Amount int `json:"amount"`
}

// handleBuy adds a fixed chip denomination to the player bankroll.
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	s.transition(w, r, func(g *game.Game) error {
		if err := g.BuyChips(req.Amount); err != nil {
			return err
		}
		metrics.RecordChipsPurchased(req.Amount)
		return nil
	})
}

// transition runs one serialized engine transition against the session in
// the URL and writes the resulting public view.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, fn func(*game.Game) error) {
	id := chi.URLParam(r, "id")

	unlock := s.locks.acquire(id)
	defer unlock()

	g, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("gameId", id).Msg("load session")
		http.Error(w, `{"error":"store_failed"}`, http.StatusInternalServerError)
		return
	}
	wasPlaying := g.Status == game.StatusPlaying
	if err := fn(g); err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Str("gameId", g.ID).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	pub := g.Public()
	// Status keeps its settled value until the next deal, so a buy on a
	// settled session still shows won/lost/tie here. Only a transition that
	// left the playing state actually settled this round.
	if wasPlaying {
		s.finishTerminal(r, pub)
	}
	_ = json.NewEncoder(w).Encode(pub)
}

// writeEngineError maps engine errors to a 400 with the error text.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
}

// finishTerminal records outcome metrics and, for authenticated users,
// persists a history row. Best effort: the round is already settled, so a
// failed insert is logged and the response still carries the result.
func (s *Server) finishTerminal(r *http.Request, pub game.PublicGame) {
	switch pub.Status {
	case game.StatusWon, game.StatusLost, game.StatusTie:
	default:
		return
	}
	metrics.RecordOutcome(string(pub.Status))

	me := currentUser(r)
	if me == nil {
		return
	}
	err := s.hist.Insert(r.Context(), me.ID, history.Entry{
		GameID:      pub.ID,
		Bet:         pub.CurrentBet,
		Outcome:     string(pub.Status),
		PlayerCards: pub.Player.Cards,
		DealerCards: pub.Dealer.Visible,
		PlayerCount: pub.Player.Count,
		DealerCount: pub.Dealer.Count,
	})
	if err != nil {
		log.Warn().Err(err).Str("gameId", pub.ID).Str("user", me.ID).Msg("persist history")
	}
}

// ------------------------------- AI ----------------------------------------

// handleAdvise asks Gemini for a HIT/STAND recommendation off the cards the
// player can see. The hands are copied under the session lock; the model
// call runs outside it so a slow response does not block transitions.
func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	unlock := s.locks.acquire(id)
	g, err := s.store.Get(r.Context(), id)
	if err != nil {
		unlock()
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	player := append([]game.Card{}, g.Player.Cards...)
	dealer := append([]game.Card{}, g.Dealer.Visible...)
	unlock()

	if s.adv == nil {
		http.Error(w, `{"error":"missing GOOGLE_API_KEY/GEMINI_API_KEY"}`, http.StatusInternalServerError)
		return
	}
	rec, err := s.adv.Recommend(r.Context(), player, dealer)
	if err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("ai recommendation")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"recommendation": rec})
}

// ------------------------------ HISTORY ------------------------------------

// handleHistory serves one page of the caller's settled rounds.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me == nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "pageSize", 10)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 50 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	total, items, err := s.hist.Fetch(r.Context(), me.ID, pageSize, offset)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("load history")
		http.Error(w, `{"error":"failed to load history"}`, http.StatusInternalServerError)
		return
	}
	totalPages := 1
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"page":       page,
		"pageSize":   pageSize,
		"total":      total,
		"totalPages": totalPages,
		"items":      items,
	})
}

// ------------------------------- small util --------------------------------

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// internal/httpserver/server.go
//
// HTTP server wiring for the minnet backend. This is the game's shell: it
// turns clicks into engine calls and engine state into JSON for the client.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints (optional auth): POST /game/new, /game/reveal, /game/resolve; GET /game/{id}.
//   - Result log and settings: GET /results, GET|PUT /settings.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: see auth.go.
//
// Notes:
//   - The client normally hides a mismatched pair itself by calling
//     /game/resolve after a short pause. With HIDE_DELAY set, the server
//     schedules that call instead.
//   - Finished games go to the results file and, best effort, to SQLite.
//     Persistence failures are logged and never fail the request.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/danielnylander/minnet/internal/config"
	"github.com/danielnylander/minnet/internal/deck"
	"github.com/danielnylander/minnet/internal/game"
	"github.com/danielnylander/minnet/internal/results"
	"github.com/danielnylander/minnet/internal/settings"
	"github.com/danielnylander/minnet/internal/store"
	"github.com/danielnylander/minnet/internal/symbols"
)

// Deps are the collaborators the server is built from.
type Deps struct {
	Store    store.Store
	DB       *sql.DB
	Symbols  symbols.Pool
	Results  *results.Log
	Settings *settings.Store
}

// Server bundles router, session store, DB handle and the local files.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	store    store.Store
	db       *sql.DB
	pool     symbols.Pool
	results  *results.Log
	settings *settings.Store
	daily    *dailyServer // set by mountDaily

	now     func() time.Time
	newRand func() deck.Rand
	afterFn func(time.Duration, func()) // schedules mismatch auto-hide
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, d Deps) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		store:    d.Store,
		db:       d.DB,
		pool:     d.Symbols,
		results:  d.Results,
		settings: d.Settings,
		now:      time.Now,
		newRand: func() deck.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		afterFn: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // debug-level access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "minnet",
			"endpoints": []string{"/health", "POST /game/new", "POST /game/reveal", "POST /game/resolve", "/results", "/settings", "/daily/*", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Game endpoints: OPTIONAL AUTH (guests can play)
	s.r.Group(func(g chi.Router) {
		g.Use(s.withOptionalAuth())
		g.Post("/game/new", s.handleNewGame)
		g.Post("/game/reveal", s.handleReveal)
		g.Post("/game/resolve", s.handleResolve)
		g.Get("/game/{id}", s.handleGetGame)
	})

	s.r.Get("/results", s.handleResults)
	s.r.Get("/settings", s.handleGetSettings)
	s.r.Put("/settings", s.handlePutSettings)

	// Daily Challenge: OPTIONAL AUTH (guests can play; progress persisted on win)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Run serves HTTP on addr until ctx is cancelled, sweeping idle sessions
// in the background.
func (s *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}

	go s.janitor(ctx)

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// janitor evicts sessions idle for longer than SESSION_TTL.
func (s *Server) janitor(ctx context.Context) {
	if s.cfg.SessionTTL <= 0 {
		return
	}
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Sweep(ctx, s.now().Add(-s.cfg.SessionTTL)); n > 0 {
				log.Info().Int("evicted", n).Msg("swept idle sessions")
			}
		}
	}
}

// ------------------------------ GAME ---------------------------------------

// gameRes is the client's view of a session.
type gameRes struct {
	GameID         string          `json:"gameId"`
	Pairs          int             `json:"pairs"`
	State          game.State      `json:"state"`
	Moves          int             `json:"moves"`
	ElapsedSeconds int             `json:"elapsedSeconds"`
	Cards          []game.CardView `json:"cards"`
}

func snapshot(g *game.Session) gameRes {
	st := g.Stats()
	return gameRes{
		GameID:         g.ID,
		Pairs:          g.Pairs,
		State:          g.State(),
		Moves:          st.Moves,
		ElapsedSeconds: st.ElapsedSeconds,
		Cards:          g.View(),
	}
}

// newGameReq is the payload for POST /game/new. Difficulty wins over Pairs;
// neither means the configured default.
type newGameReq struct {
	Pairs      int             `json:"pairs"`
	Difficulty game.Difficulty `json:"difficulty"`
}

// handleNewGame deals a new session and records an owner row for history.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	pairs := s.cfg.DefaultPairs
	switch {
	case req.Difficulty != "":
		n, err := game.PairsFor(req.Difficulty)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_difficulty")
			return
		}
		pairs = n
	case req.Pairs != 0:
		pairs = req.Pairs
	}

	g, err := s.startSession(r.Context(), w, r, pairs, s.newRand())
	if err != nil {
		if errors.Is(err, deck.ErrInvalidConfiguration) {
			writeError(w, http.StatusBadRequest, "invalid_configuration")
			return
		}
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// startSession builds, stores and records a new session.
func (s *Server) startSession(ctx context.Context, w http.ResponseWriter, r *http.Request, pairs int, rng deck.Rand) (gameRes, error) {
	g, err := game.New(pairs, s.pool, rng, game.WithClock(s.now))
	if err != nil {
		log.Debug().Err(err).Int("pairs", pairs).Msg("new game rejected")
		return gameRes{}, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		log.Error().Err(err).Msg("save game")
		return gameRes{}, err
	}
	s.insertGameRow(ctx, w, r, g)
	return snapshot(g), nil
}

// insertGameRow records who owns a game (user_id or anonymous_id). Best effort.
func (s *Server) insertGameRow(ctx context.Context, w http.ResponseWriter, r *http.Request, g *game.Session) {
	started := g.StartedAt.UTC().Format(time.RFC3339)
	if me := currentUser(r); me != nil {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO games (id, user_id, pairs, started_at) VALUES (?,?,?,?)`,
			g.ID, me.ID, g.Pairs, started); err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert user game row")
		}
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET games_played = games_played + 1 WHERE id=?`, me.ID); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump games played")
		}
		return
	}
	anon := s.ensureAnonID(w, r)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO games (id, anonymous_id, pairs, started_at) VALUES (?,?,?,?)`,
		g.ID, anon, g.Pairs, started); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("insert anon game row")
	}
}

// revealReq/Res payloads for POST /game/reveal.
type revealReq struct {
	GameID string `json:"gameId"`
	Index  *int   `json:"index"`
}
type revealRes struct {
	gameRes
	Outcome game.Outcome `json:"outcome"`
	Won     bool         `json:"won"`
}

// handleReveal flips one card and, on a win, records the result. Daily
// games are refused here: their wins must reach the daily leaderboard.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	if s.daily != nil && s.daily.owns(req.GameID) {
		writeError(w, http.StatusConflict, "daily_game")
		return
	}
	res, won, err := s.applyReveal(r.Context(), req.GameID, *req.Index)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if won != nil {
		s.recordWin(r.Context(), r, req.GameID, *won)
	}
	writeJSON(w, http.StatusOK, res)
}

// applyReveal runs Reveal under the store lock. The returned result is
// non-nil only on the reveal that won the game.
func (s *Server) applyReveal(ctx context.Context, id string, idx int) (revealRes, *results.Result, error) {
	var (
		out revealRes
		won *results.Result
	)
	err := s.store.Update(ctx, id, func(g *game.Session) error {
		rr := g.Reveal(idx)
		out = revealRes{gameRes: snapshot(g), Outcome: rr.Outcome, Won: rr.Won}
		if rr.Won {
			if res, ok := g.Result(); ok {
				won = &res
			}
		}
		if rr.Outcome == game.OutcomeMismatched && s.cfg.HideDelay > 0 {
			a, b, _ := g.PendingPair()
			s.scheduleHide(id, a, b, g.Moves)
		}
		return nil
	})
	return out, won, err
}

// scheduleHide hides a mismatched pair after HIDE_DELAY unless the client
// already did (or the session moved on).
func (s *Server) scheduleHide(id string, a, b, moves int) {
	s.afterFn(s.cfg.HideDelay, func() {
		err := s.store.Update(context.Background(), id, func(g *game.Session) error {
			pa, pb, ok := g.PendingPair()
			if !ok || pa != a || pb != b || g.Moves != moves {
				return nil
			}
			return g.ResolvePending()
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Debug().Err(err).Str("gameId", id).Msg("auto-hide")
		}
	})
}

// recordWin appends to the results log and updates SQLite; failures are logged only.
func (s *Server) recordWin(ctx context.Context, r *http.Request, id string, res results.Result) {
	if err := s.results.Record(res); err != nil {
		log.Warn().Err(err).Str("path", s.results.Path()).Msg("save results")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin win tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE games SET status='won', finished_at=?, moves=?, elapsed_s=? WHERE id=?`,
		res.Date.UTC().Format(time.RFC3339), res.Moves, res.ElapsedSeconds, id); err != nil {
		log.Warn().Err(err).Str("gameId", id).Msg("finish game")
	}
	if me := currentUser(r); me != nil {
		if err := bumpWins(tx, me.ID, res.Moves); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit win tx")
	}
	log.Info().Str("gameId", id).Int("pairs", res.Pairs).Int("moves", res.Moves).
		Int("seconds", res.ElapsedSeconds).Msg("game won")
}

// bumpWins increments wins and keeps the fewest-moves record (within tx).
func bumpWins(tx *sql.Tx, userID string, moves int) error {
	_, err := tx.Exec(`UPDATE users
	                   SET wins = wins + 1,
	                       best_moves = CASE WHEN best_moves = 0 OR ? < best_moves THEN ? ELSE best_moves END
	                   WHERE id=?`, moves, moves, userID)
	return err
}

// resolveReq is the payload for POST /game/resolve.
type resolveReq struct {
	GameID string `json:"gameId"`
}
type resolveRes struct {
	gameRes
	Resolved bool `json:"resolved"`
}

// handleResolve turns a mismatched pair face-down. Calling it at any other
// time is harmless: the snapshot comes back unchanged with resolved=false.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}
	var out resolveRes
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Session) error {
		err := g.ResolvePending()
		if errors.Is(err, game.ErrInvalidState) {
			log.Debug().Str("gameId", g.ID).Str("state", string(g.State())).Msg("resolve outside resolving state")
		}
		out = resolveRes{gameRes: snapshot(g), Resolved: err == nil}
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetGame returns the current snapshot; clients poll it for the timer.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	var out gameRes
	err := s.store.View(r.Context(), chi.URLParam(r, "id"), func(g *game.Session) error {
		out = snapshot(g)
		return nil
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	log.Error().Err(err).Msg("session store")
	writeError(w, http.StatusInternalServerError, "store_error")
}

// --------------------------- results & settings ----------------------------

// handleResults returns the result log, oldest first.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.results.Entries())
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handlePutSettings stores new settings. A failed write is logged; the
// new value still applies for this run.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := s.settings.Put(body); err != nil {
		log.Warn().Err(err).Msg("save settings")
	}
	writeJSON(w, http.StatusOK, s.settings.Get())
}

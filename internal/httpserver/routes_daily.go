// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses session)
//   - POST /daily/reveal      → flip a card in today's game
//   - POST /daily/resolve     → hide a mismatched pair (same as /game/resolve)
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same deck on a given UTC date (seeded from date + salt).
// Each player can finish once per day; wins are stored in daily_results.
// Daily games are only played through /daily/reveal, so /game/reveal
// rejects their IDs.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/danielnylander/minnet/internal/daily"
	"github.com/danielnylander/minnet/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	sessions map[string]string // userID|date → game ID
	games    map[string]string // game ID → userID|date
	mu       sync.Mutex        // guards sessions and games
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]string),
		games:    make(map[string]string),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/reveal", dd.handleReveal)
		r.Post("/resolve", s.handleResolve)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID returns the authenticated user ID, or a stable anonymous ID.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := currentUser(r); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// owns reports whether id is a live daily game.
func (d *dailyServer) owns(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.games[id]
	return ok
}

// forget drops the session mapped to key. Caller holds mu.
func (d *dailyServer) forget(key string) {
	if id, ok := d.sessions[key]; ok {
		delete(d.games, id)
	}
	delete(d.sessions, key)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new. Game is omitted once played.
type dailyNewRes struct {
	Date   string   `json:"date"`
	Played bool     `json:"played"`
	Game   *gameRes `json:"game,omitempty"`
}

// handleNew creates or reuses today's session.
// - If the player already has a DB row for today → Played=true.
// - Otherwise create/reuse an in-memory session and return its snapshot.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)
	now := d.srv.now()
	date := daily.DateKey(now)

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err != nil {
		log.Warn().Err(err).Msg("daily already played")
	} else if played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.sessions[key]; ok {
		var snap gameRes
		err := d.srv.store.View(r.Context(), id, func(g *game.Session) error {
			snap = snapshot(g)
			return nil
		})
		if err == nil {
			writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Game: &snap})
			return
		}
		// Evicted; deal the same deck again below.
		d.forget(key)
	}

	snap, err := d.srv.startSession(r.Context(), w, r, d.srv.cfg.DailyPairs, daily.Rand(now, d.srv.cfg.DailySalt))
	if err != nil {
		log.Error().Err(err).Msg("start daily game")
		writeError(w, http.StatusInternalServerError, "daily_unavailable")
		return
	}
	d.sessions[key] = snap.GameID
	d.games[snap.GameID] = key
	writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Game: &snap})
}

// -----------------------------------------------------------------------------
// /daily/reveal

// handleReveal flips a card in the caller's daily game; a win is written to
// the daily leaderboard as well as the regular history.
func (d *dailyServer) handleReveal(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)

	var req revealReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	date := daily.DateKey(d.srv.now())
	d.mu.Lock()
	id, ok := d.sessions[uid+"|"+date]
	d.mu.Unlock()
	if !ok || id != req.GameID {
		writeError(w, http.StatusConflict, "no_session")
		return
	}

	res, won, err := d.srv.applyReveal(r.Context(), id, *req.Index)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if won != nil {
		d.srv.recordWin(r.Context(), r, id, *won)
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID:    uid,
			Date:      date,
			Pairs:     won.Pairs,
			Moves:     won.Moves,
			ElapsedMs: won.ElapsedSeconds * 1000,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
		d.mu.Lock()
		d.forget(uid + "|" + date)
		d.mu.Unlock()
		// The daily game cannot be replayed; drop it from the live store.
		if err := d.srv.store.Delete(r.Context(), id); err != nil {
			log.Warn().Err(err).Str("gameId", id).Msg("drop finished daily game")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}

// Package api serves game state and actions over HTTP. GET endpoints are
// public; game creation requires a bearer token. Action results map 1:1
// from engine error kinds to HTTP statuses.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/arvale/hexfront/internal/game"
	"github.com/arvale/hexfront/internal/persistence"
	"github.com/arvale/hexfront/internal/projection"
	"github.com/arvale/hexfront/internal/world"
)

// Server serves the game engine over HTTP.
type Server struct {
	Engine   *game.Engine
	DB       *persistence.DB // nil disables persistence (tests)
	Hub      *Hub
	Port     int
	AdminKey string // Bearer token for game creation. Empty = creation disabled.

	MapConfig world.GenConfig // Template for new game maps

	started time.Time
}

// Handler builds the route table. Split out from Start for tests.
func (s *Server) Handler(actionLimiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/games/{id}", s.handleGameState)
	mux.HandleFunc("GET /api/v1/games/{id}/tiles", s.handleGameTiles)
	mux.HandleFunc("POST /api/v1/games/{id}/actions",
		RateLimitMiddleware(actionLimiter, s.handleAction))
	mux.HandleFunc("POST /api/v1/games", s.adminOnly(s.handleCreateGame))
	mux.HandleFunc("GET /ws/games/{id}", s.handleSpectate)

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start(actionsPerMinute int) {
	s.started = time.Now()
	limiter := NewRateLimiter(actionsPerMinute, time.Minute)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, s.Handler(limiter)); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"games":  humanize.Comma(int64(s.Engine.GameCount())),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	// Build the view under the game's action guard so an in-flight action
	// never leaks a half-applied state to readers.
	var view projection.GameView
	ok, _ := s.Engine.WithGame(game.GameID(r.PathValue("id")), func(g *game.Game) error {
		view = projection.View(g)
		return nil
	})
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGameTiles(w http.ResponseWriter, r *http.Request) {
	var tiles []projection.TileView
	ok, _ := s.Engine.WithGame(game.GameID(r.PathValue("id")), func(g *game.Game) error {
		tiles = projection.TilesView(g.Map)
		return nil
	})
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req game.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed action request", http.StatusBadRequest)
		return
	}
	req.GameID = game.GameID(r.PathValue("id"))

	res := s.Engine.Apply(req)

	if res.OK && s.DB != nil {
		if _, err := s.Engine.WithGame(req.GameID, s.DB.SaveGame); err != nil {
			// The action is committed in memory; report it, keep serving.
			slog.Error("persist action failed", "game", req.GameID, "error", err)
		}
	}
	if !res.OK && res.ErrorKind == game.ErrInternal && s.DB != nil {
		// Fatal fault mid-action: make sure the persisted guard is not
		// left set.
		if err := s.DB.ReleaseGuard(req.GameID); err != nil {
			slog.Error("release guard failed", "game", req.GameID, "error", err)
		}
	}

	status := http.StatusOK
	if !res.OK {
		status = httpStatus(res.ErrorKind)
		if res.ErrorKind.Retryable() {
			w.Header().Set("Retry-After", "1")
		}
	}
	writeJSON(w, status, res)
}

type createGameRequest struct {
	Participants []game.ParticipantSpec `json:"participants"`
	Seed         int64                  `json:"seed,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed create request", http.StatusBadRequest)
		return
	}

	cfg := s.MapConfig
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}

	id := game.GameID(uuid.New().String())
	g, err := game.NewMatch(id, world.Generate(cfg), req.Participants)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Engine.Add(g)

	if s.DB != nil {
		if err := s.DB.SaveGame(g); err != nil {
			slog.Error("persist new game failed", "game", g.ID, "error", err)
		}
	}

	var view projection.GameView
	s.Engine.WithGame(g.ID, func(g *game.Game) error {
		view = projection.View(g)
		return nil
	})

	slog.Info("game created", "game", g.ID, "participants", len(g.Participants))
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	id := game.GameID(r.PathValue("id"))
	if _, ok := s.Engine.Game(id); !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	s.Hub.Subscribe(w, r, id)
}

// adminOnly gates a handler behind the bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// httpStatus maps engine error kinds to HTTP statuses, 1:1.
func httpStatus(kind game.ErrorKind) int {
	switch kind {
	case game.ErrNotPlayerTurn:
		return http.StatusForbidden
	case game.ErrTurnBusy:
		return http.StatusConflict
	case game.ErrNoActionsLeft:
		return http.StatusConflict
	case game.ErrOutOfRange:
		return http.StatusUnprocessableEntity
	case game.ErrInvalidTarget:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvale/hexfront/internal/game"
	"github.com/arvale/hexfront/internal/projection"
	"github.com/arvale/hexfront/internal/world"
)

func testServer(t *testing.T) (*Server, *game.Game) {
	t.Helper()

	m := world.NewMap(10, 10)
	var id uint64
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			id++
			m.Add(&world.Tile{ID: id, Pos: world.Offset{Col: col, Row: row}, Terrain: world.TerrainPlains})
		}
	}

	g, err := game.NewMatch("g1", m, []game.ParticipantSpec{
		{Name: "Aria", Kind: game.KindHuman},
		{Name: "Bram", Kind: game.KindHuman},
	})
	require.NoError(t, err)

	engine := game.NewEngine(game.NewMemoryIdempotencyStore(time.Minute), projection.New())
	engine.Add(g)

	srv := &Server{
		Engine:   engine,
		Hub:      NewHub(),
		AdminKey: "sekrit",
		MapConfig: world.GenConfig{
			Width: 10, Height: 10, Seed: 7, SeaLevel: 0.1, MountainLvl: 0.95,
		},
	}
	return srv, g
}

func postAction(t *testing.T, h http.Handler, gameID string, req game.ActionRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/games/%s/actions", gameID), bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleGameState(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var view projection.GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, g.ID, view.ID)
	assert.Len(t, view.Participants, 2)
}

func TestHandleGameState_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/none", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAction_EndTurn(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))

	w := postAction(t, h, "g1", game.ActionRequest{
		Kind:             game.ActionEndTurn,
		Actor:            g.Participants[0].ID,
		IdempotencyToken: "e1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var res game.ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Equal(t, g.Participants[1].ID, g.ActiveParticipant)
}

func TestHandleAction_ErrorStatusMapping(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))

	// Wrong actor → NotPlayerTurn → 403.
	w := postAction(t, h, "g1", game.ActionRequest{
		Kind:  game.ActionEndTurn,
		Actor: g.Participants[1].ID,
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	var res game.ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, game.ErrNotPlayerTurn, res.ErrorKind)
}

func TestHandleAction_TurnBusyRetryAfter(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))
	g.TurnInProgress = true

	w := postAction(t, h, "g1", game.ActionRequest{
		Kind:  game.ActionEndTurn,
		Actor: g.Participants[0].ID,
	})

	require.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHandleCreateGame_AuthRequired(t *testing.T) {
	srv, _ := testServer(t)
	h := srv.Handler(NewRateLimiter(100, time.Minute))

	body := `{"participants":[{"name":"A"},{"name":"B"}]}`

	r := httptest.NewRequest(http.MethodPost, "/api/v1/games", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/v1/games", bytes.NewReader([]byte(body)))
	r.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	var view projection.GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Participants, 2)
	assert.NotEmpty(t, view.Units)
}

// State reads go through the engine's per-game guard, so polling a game
// while actions are applied to it must never observe a torn view.
func TestHandleGameState_ConcurrentWithActions(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(1000000, time.Minute))

	done := make(chan struct{})
	var badCode int
	go func() {
		defer close(done)
		for i := 0; i < 300; i++ {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))
			if w.Code != http.StatusOK {
				badCode = w.Code
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		postAction(t, h, "g1", game.ActionRequest{
			Kind: game.ActionEndTurn, Actor: g.Participants[i%2].ID,
		})
	}
	<-done
	assert.Zero(t, badCode, "read failed while actions were in flight")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/games/g1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var view projection.GameView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, g.ID, view.ID)
}

func TestHandleAction_RateLimited(t *testing.T) {
	srv, g := testServer(t)
	h := srv.Handler(NewRateLimiter(2, time.Minute))

	req := game.ActionRequest{Kind: game.ActionEndTurn, Actor: g.Participants[0].ID}
	postAction(t, h, "g1", req)
	postAction(t, h, "g1", req)
	w := postAction(t, h, "g1", req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/arvale/hexfront/internal/game"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Hub fans committed state snapshots out to spectator websockets, grouped
// by game id.
type Hub struct {
	mu      sync.Mutex
	clients map[game.GameID]map[*websocket.Conn]bool
}

// NewHub creates an empty spectator hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[game.GameID]map[*websocket.Conn]bool)}
}

// Subscribe upgrades the request and registers the socket for a game's
// updates. The connection is held open until the client goes away.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, id game.GameID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "game", id, "error", err)
		return
	}

	h.mu.Lock()
	if h.clients[id] == nil {
		h.clients[id] = make(map[*websocket.Conn]bool)
	}
	h.clients[id][conn] = true
	h.mu.Unlock()
	slog.Debug("spectator connected", "game", id)

	// Drain reads to detect disconnect; spectators never send payloads.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(id, conn)
				return
			}
		}
	}()
}

// Broadcast sends a state snapshot to every spectator of a game.
func (h *Hub) Broadcast(id game.GameID, payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients[id]))
	for c := range h.clients[id] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(id, c)
		}
	}
}

func (h *Hub) drop(id game.GameID, conn *websocket.Conn) {
	h.mu.Lock()
	if set, ok := h.clients[id]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.clients, id)
		}
	}
	h.mu.Unlock()
	conn.Close()
	slog.Debug("spectator disconnected", "game", id)
}

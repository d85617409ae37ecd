// Package projection converts engine entities into the client-facing read
// model. Output ordering is stable so that snapshots of identical state are
// byte-identical, which the idempotency replay contract relies on.
package projection

import (
	"encoding/json"
	"sort"

	"github.com/arvale/hexfront/internal/game"
	"github.com/arvale/hexfront/internal/world"
)

// GameView is the full client-facing state of one game.
type GameView struct {
	ID                game.GameID        `json:"id"`
	TurnNo            int                `json:"turnNo"`
	ActiveParticipant game.ParticipantID `json:"activeParticipantId"`
	Status            string             `json:"status"`
	Map               MapView            `json:"map"`
	Participants      []ParticipantView  `json:"participants"`
	Units             []UnitView         `json:"units"`
	Cities            []CityView         `json:"cities"`
}

// MapView carries only the board dimensions; tiles are static and served
// separately via TilesView.
type MapView struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ParticipantView is the read model of one participant.
type ParticipantView struct {
	ID         game.ParticipantID `json:"id"`
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	Eliminated bool               `json:"eliminated"`
}

// UnitView is the read model of one unit.
type UnitView struct {
	ID       game.UnitID        `json:"id"`
	Owner    game.ParticipantID `json:"owner"`
	Type     string             `json:"type"`
	HP       int                `json:"hp"`
	Pos      world.Offset       `json:"pos"`
	HasActed bool               `json:"hasActed"`
}

// CityView is the read model of one city.
type CityView struct {
	ID    game.CityID        `json:"id"`
	Owner game.ParticipantID `json:"owner"`
	Name  string             `json:"name"`
	Pos   world.Offset       `json:"pos"`
	HP    int                `json:"hp"`
	MaxHP int                `json:"maxHp"`
}

// TileView is the read model of one map tile.
type TileView struct {
	ID       uint64       `json:"id"`
	Pos      world.Offset `json:"pos"`
	Terrain  string       `json:"terrain"`
	Resource uint8        `json:"resource,omitempty"`
	Amount   int          `json:"amount,omitempty"`
}

// View builds the read model for a game.
func View(g *game.Game) GameView {
	v := GameView{
		ID:                g.ID,
		TurnNo:            g.TurnNo,
		ActiveParticipant: g.ActiveParticipant,
		Status:            g.Status.String(),
		Map:               MapView{Width: g.Map.Width, Height: g.Map.Height},
	}

	for _, p := range g.Participants {
		kind := "human"
		if p.Kind == game.KindAI {
			kind = "ai"
		}
		v.Participants = append(v.Participants, ParticipantView{
			ID:         p.ID,
			Name:       p.Name,
			Kind:       kind,
			Eliminated: p.Eliminated,
		})
	}

	for _, u := range g.Units {
		v.Units = append(v.Units, UnitView{
			ID:       u.ID,
			Owner:    u.Owner,
			Type:     u.Type.Name,
			HP:       u.HP,
			Pos:      u.Pos,
			HasActed: u.HasActed,
		})
	}
	sort.Slice(v.Units, func(i, j int) bool { return v.Units[i].ID < v.Units[j].ID })

	for _, c := range g.Cities {
		v.Cities = append(v.Cities, CityView{
			ID:    c.ID,
			Owner: c.Owner,
			Name:  c.Name,
			Pos:   c.Pos,
			HP:    c.HP,
			MaxHP: c.MaxHP,
		})
	}
	sort.Slice(v.Cities, func(i, j int) bool { return v.Cities[i].ID < v.Cities[j].ID })

	return v
}

// TilesView builds the static tile list for a map.
func TilesView(m *world.Map) []TileView {
	tiles := make([]TileView, 0, len(m.Tiles))
	for _, t := range m.Tiles {
		tiles = append(tiles, TileView{
			ID:       t.ID,
			Pos:      t.Pos,
			Terrain:  world.TerrainName(t.Terrain),
			Resource: uint8(t.Resource),
			Amount:   t.ResourceAmount,
		})
	}
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].ID < tiles[j].ID })
	return tiles
}

// Projector implements game.Projector by marshalling the view to JSON.
type Projector struct{}

// New returns a Projector.
func New() Projector {
	return Projector{}
}

// Snapshot serializes the game's read model.
func (Projector) Snapshot(g *game.Game) ([]byte, error) {
	return json.Marshal(View(g))
}

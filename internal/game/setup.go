package game

import (
	"fmt"

	"github.com/arvale/hexfront/internal/world"
)

// ParticipantSpec describes one player to seed into a new match.
type ParticipantSpec struct {
	Name string          `json:"name"`
	Kind ParticipantKind `json:"kind"`
}

// NewMatch creates a game on the given map and seeds each participant with
// a city, a warrior, and a slinger. Starting spots are the passable tiles
// nearest the opposite corners of the map, so participants begin apart.
func NewMatch(id GameID, m *world.Map, specs []ParticipantSpec) (*Game, error) {
	if len(specs) < 2 {
		return nil, fmt.Errorf("a match needs at least 2 participants, got %d", len(specs))
	}

	g := NewGame(id, m)
	warrior := Roster["warrior"]
	slinger := Roster["slinger"]

	corners := []world.Offset{
		{Col: 0, Row: 0},
		{Col: m.Width - 1, Row: m.Height - 1},
		{Col: m.Width - 1, Row: 0},
		{Col: 0, Row: m.Height - 1},
	}

	for i, spec := range specs {
		p := g.AddParticipant(spec.Name, spec.Kind)

		anchor := corners[i%len(corners)]
		home := nearestFree(g, anchor)
		if home == nil {
			return nil, fmt.Errorf("no room to place participant %q", spec.Name)
		}
		if _, err := g.FoundCity(p.ID, spec.Name+"'s Seat", home.Pos, DefaultCityHP, DefaultCityDefence); err != nil {
			return nil, fmt.Errorf("found city: %w", err)
		}
		if _, err := g.SpawnUnit(p.ID, warrior, home.Pos); err != nil {
			return nil, fmt.Errorf("spawn warrior: %w", err)
		}

		scout := nearestFree(g, home.Pos)
		if scout == nil {
			return nil, fmt.Errorf("no room for starting units of %q", spec.Name)
		}
		if _, err := g.SpawnUnit(p.ID, slinger, scout.Pos); err != nil {
			return nil, fmt.Errorf("spawn slinger: %w", err)
		}
	}

	return g, nil
}

// nearestFree returns the unoccupied passable tile closest to anchor, by
// hex distance with tile id as the deterministic tie-break.
func nearestFree(g *Game, anchor world.Offset) *world.Tile {
	var best *world.Tile
	bestDist := -1
	for _, t := range g.Map.Tiles {
		if !t.Terrain.Passable() {
			continue
		}
		if _, occupied := g.UnitAt(t.Pos); occupied {
			continue
		}
		if _, taken := g.CityAt(t.Pos); taken {
			continue
		}
		d := world.OffsetDistance(anchor, t.Pos)
		if bestDist < 0 || d < bestDist || (d == bestDist && t.ID < best.ID) {
			best = t
			bestDist = d
		}
	}
	return best
}

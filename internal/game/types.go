// Package game holds the per-game entities and the turn engine that
// serializes and applies player actions.
package game

import (
	"fmt"

	"github.com/arvale/hexfront/internal/world"
)

// Identifier types. Entity ids are assigned sequentially within a game;
// game ids are UUIDs assigned by the caller.
type (
	GameID        string
	ParticipantID uint64
	UnitID        uint64
	CityID        uint64
)

// ParticipantKind distinguishes humans from AI opponents.
type ParticipantKind uint8

const (
	KindHuman ParticipantKind = iota
	KindAI
)

// Status is the lifecycle state of a game.
type Status uint8

const (
	StatusActive Status = iota
	StatusFinished
)

// String returns the wire name of a status.
func (s Status) String() string {
	if s == StatusFinished {
		return "finished"
	}
	return "active"
}

// Participant is one player in a game. The slice order on Game fixes the
// turn rotation.
type Participant struct {
	ID         ParticipantID   `json:"id"`
	Name       string          `json:"name"`
	Kind       ParticipantKind `json:"kind"`
	Eliminated bool            `json:"eliminated"`
}

// Unit is a mobile piece on the board. At most one unit occupies a tile.
type Unit struct {
	ID       UnitID          `json:"id"`
	Owner    ParticipantID   `json:"owner"`
	Type     *UnitDefinition `json:"-"`
	HP       int             `json:"hp"`
	Pos      world.Offset    `json:"pos"`
	HasActed bool            `json:"has_acted"`
}

// City is a fixed settlement. Cities never move and never counterattack.
type City struct {
	ID      CityID        `json:"id"`
	Owner   ParticipantID `json:"owner"`
	Name    string        `json:"name"`
	Pos     world.Offset  `json:"pos"`
	HP      int           `json:"hp"`
	MaxHP   int           `json:"max_hp"`
	Defence int           `json:"defence"`
}

// Game is the complete mutable state of one game instance. All mutation
// goes through the Engine, which holds the per-game guard.
type Game struct {
	ID           GameID
	Map          *world.Map
	Participants []*Participant
	Units        map[UnitID]*Unit
	Cities       map[CityID]*City

	TurnNo            int
	ActiveParticipant ParticipantID
	TurnInProgress    bool
	Status            Status

	// Derived occupancy indexes, maintained alongside every mutation.
	occupied map[world.Offset]UnitID
	cityAt   map[world.Offset]CityID

	nextUnitID UnitID
	nextCityID CityID
}

// NewGame creates an empty active game over the given map.
func NewGame(id GameID, m *world.Map) *Game {
	return &Game{
		ID:       id,
		Map:      m,
		Units:    make(map[UnitID]*Unit),
		Cities:   make(map[CityID]*City),
		TurnNo:   1,
		Status:   StatusActive,
		occupied: make(map[world.Offset]UnitID),
		cityAt:   make(map[world.Offset]CityID),
	}
}

// AddParticipant appends a participant to the turn rotation. The first
// participant added becomes the active one.
func (g *Game) AddParticipant(name string, kind ParticipantKind) *Participant {
	p := &Participant{
		ID:   ParticipantID(len(g.Participants) + 1),
		Name: name,
		Kind: kind,
	}
	g.Participants = append(g.Participants, p)
	if len(g.Participants) == 1 {
		g.ActiveParticipant = p.ID
	}
	return p
}

// Participant returns the participant with the given id, or nil.
func (g *Game) Participant(id ParticipantID) *Participant {
	for _, p := range g.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// SpawnUnit creates a unit of the given type at pos. Fails if the tile is
// out of bounds, impassable, or already occupied.
func (g *Game) SpawnUnit(owner ParticipantID, def *UnitDefinition, pos world.Offset) (*Unit, error) {
	if err := g.checkPlacement(pos); err != nil {
		return nil, err
	}
	g.nextUnitID++
	u := &Unit{
		ID:    g.nextUnitID,
		Owner: owner,
		Type:  def,
		HP:    def.Health,
		Pos:   pos,
	}
	g.Units[u.ID] = u
	g.occupied[pos] = u.ID
	return u, nil
}

// FoundCity creates a city at pos with full hit points.
func (g *Game) FoundCity(owner ParticipantID, name string, pos world.Offset, maxHP, defence int) (*City, error) {
	tile := g.Map.At(pos)
	if tile == nil || !tile.Terrain.Passable() {
		return nil, fmt.Errorf("cannot found city at %v", pos)
	}
	if _, taken := g.cityAt[pos]; taken {
		return nil, fmt.Errorf("tile %v already has a city", pos)
	}
	g.nextCityID++
	c := &City{
		ID:      g.nextCityID,
		Owner:   owner,
		Name:    name,
		Pos:     pos,
		HP:      maxHP,
		MaxHP:   maxHP,
		Defence: defence,
	}
	g.Cities[c.ID] = c
	g.cityAt[pos] = c.ID
	return c, nil
}

// UnitAt returns the unit occupying pos, if any.
func (g *Game) UnitAt(pos world.Offset) (*Unit, bool) {
	id, ok := g.occupied[pos]
	if !ok {
		return nil, false
	}
	return g.Units[id], true
}

// CityAt returns the city on pos, if any.
func (g *Game) CityAt(pos world.Offset) (*City, bool) {
	id, ok := g.cityAt[pos]
	if !ok {
		return nil, false
	}
	return g.Cities[id], true
}

// RestoreParticipant re-attaches a loaded participant, keeping id order.
func (g *Game) RestoreParticipant(p *Participant) {
	g.Participants = append(g.Participants, p)
}

// RestoreUnit re-attaches a loaded unit, rebuilding the occupancy index.
func (g *Game) RestoreUnit(u *Unit) error {
	if prev, taken := g.occupied[u.Pos]; taken {
		return fmt.Errorf("units %d and %d share tile %v", prev, u.ID, u.Pos)
	}
	g.Units[u.ID] = u
	g.occupied[u.Pos] = u.ID
	if u.ID > g.nextUnitID {
		g.nextUnitID = u.ID
	}
	return nil
}

// RestoreCity re-attaches a loaded city.
func (g *Game) RestoreCity(c *City) error {
	if _, taken := g.cityAt[c.Pos]; taken {
		return fmt.Errorf("tile %v already has a city", c.Pos)
	}
	g.Cities[c.ID] = c
	g.cityAt[c.Pos] = c.ID
	if c.ID > g.nextCityID {
		g.nextCityID = c.ID
	}
	return nil
}

func (g *Game) checkPlacement(pos world.Offset) error {
	tile := g.Map.At(pos)
	if tile == nil || !tile.Terrain.Passable() {
		return fmt.Errorf("tile %v is impassable", pos)
	}
	if id, taken := g.occupied[pos]; taken {
		return fmt.Errorf("tile %v occupied by unit %d", pos, id)
	}
	return nil
}

// placeUnit moves a unit to pos, keeping the occupancy index consistent.
func (g *Game) placeUnit(u *Unit, pos world.Offset) {
	delete(g.occupied, u.Pos)
	u.Pos = pos
	g.occupied[pos] = u.ID
}

// removeUnit takes a destroyed unit off the board, freeing its tile.
func (g *Game) removeUnit(u *Unit) {
	delete(g.occupied, u.Pos)
	delete(g.Units, u.ID)
}

// removeCity takes a razed city off the board.
func (g *Game) removeCity(c *City) {
	delete(g.cityAt, c.Pos)
	delete(g.Cities, c.ID)
}

// blockedFor returns the pathfinding predicate for a moving unit: impassable
// terrain, tiles held by any other unit, and enemy city tiles all block.
func (g *Game) blockedFor(u *Unit) world.BlockedFunc {
	return func(pos world.Offset) bool {
		tile := g.Map.At(pos)
		if tile == nil || !tile.Terrain.Passable() {
			return true
		}
		if id, ok := g.occupied[pos]; ok && id != u.ID {
			return true
		}
		if c, ok := g.CityAt(pos); ok && c.Owner != u.Owner {
			return true
		}
		return false
	}
}

// nextActive returns the next non-eliminated participant after the current
// one, wrapping around the rotation. Returns the current id when no other
// participant remains.
func (g *Game) nextActive() ParticipantID {
	n := len(g.Participants)
	cur := 0
	for i, p := range g.Participants {
		if p.ID == g.ActiveParticipant {
			cur = i
			break
		}
	}
	for step := 1; step <= n; step++ {
		p := g.Participants[(cur+step)%n]
		if !p.Eliminated {
			return p.ID
		}
	}
	return g.ActiveParticipant
}

// survivors counts non-eliminated participants.
func (g *Game) survivors() int {
	n := 0
	for _, p := range g.Participants {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

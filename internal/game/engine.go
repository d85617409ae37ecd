package game

import (
	"log/slog"
	"sync"

	"github.com/arvale/hexfront/internal/combat"
	"github.com/arvale/hexfront/internal/world"
)

// Projector converts a game into the client-facing state snapshot that is
// embedded in action results. Implemented by the projection package.
type Projector interface {
	Snapshot(g *Game) ([]byte, error)
}

// AppliedFunc is notified after a mutation commits and the per-game guard
// has been released. Replays of cached results do not re-notify. The
// callback must not retain the game pointer beyond the call; snapshot data
// travels in the result.
type AppliedFunc func(g *Game, req ActionRequest, res ActionResult)

// Engine serializes and applies actions for the games it hosts. Games in
// different slots proceed fully in parallel; within one game at most one
// action is in flight at a time.
type Engine struct {
	mu    sync.Mutex
	games map[GameID]*gameSlot

	idem      IdempotencyStore
	project   Projector
	onApplied AppliedFunc
}

// gameSlot pairs a game with its action guard. TryLock gives the
// non-blocking TurnBusy semantics: a concurrent caller is told to retry
// rather than queued.
type gameSlot struct {
	mu   sync.Mutex
	game *Game
}

// NewEngine creates an engine backed by the given idempotency store and
// state projector.
func NewEngine(idem IdempotencyStore, project Projector) *Engine {
	return &Engine{
		games:   make(map[GameID]*gameSlot),
		idem:    idem,
		project: project,
	}
}

// SetOnApplied registers the committed-action callback.
func (e *Engine) SetOnApplied(fn AppliedFunc) {
	e.onApplied = fn
}

// Add registers a game with the engine.
func (e *Engine) Add(g *Game) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.games[g.ID] = &gameSlot{game: g}
}

// Game returns a hosted game by id.
func (e *Engine) Game(id GameID) (*Game, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.games[id]
	if !ok {
		return nil, false
	}
	return s.game, true
}

// WithGame runs fn under the game's action guard, waiting for any in-flight
// action to finish first. Readers and persistence go through here so they
// never observe a half-applied mutation. Returns false when the game is
// unknown.
func (e *Engine) WithGame(id GameID, fn func(g *Game) error) (bool, error) {
	e.mu.Lock()
	slot, ok := e.games[id]
	e.mu.Unlock()
	if !ok {
		return false, nil
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return true, fn(slot.game)
}

// GameCount returns the number of hosted games.
func (e *Engine) GameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.games)
}

// Apply validates and executes one action request.
//
// Every read of the game's mutable fields happens under the per-game
// guard; the guard is acquired first (a contended lock is TurnBusy), then
// game status and actor are checked (NotPlayerTurn), then the persisted
// in-progress flag, then action-specific validation. On the uncontended
// path NotPlayerTurn therefore still takes precedence over the persisted
// TurnBusy flag. Failures before the mutation never consume the unit's
// action and are never cached; only a committed mutation is recorded under
// the idempotency key. The guard is released on every exit path, and the
// applied callback fires only after release.
func (e *Engine) Apply(req ActionRequest) ActionResult {
	res, committed := e.applyLocked(req)
	if committed != nil && e.onApplied != nil {
		e.onApplied(committed, req, res)
	}
	return res
}

// applyLocked runs the state-machine transition under the game's guard.
// The returned game is non-nil only when this call committed a mutation.
func (e *Engine) applyLocked(req ActionRequest) (ActionResult, *Game) {
	key := req.Key()
	if req.IdempotencyToken != "" {
		if prev, ok := e.idem.TryGet(key); ok {
			slog.Debug("idempotent replay", "game", req.GameID, "kind", req.Kind, "key", key)
			return prev, nil
		}
	}

	e.mu.Lock()
	slot, ok := e.games[req.GameID]
	e.mu.Unlock()
	if !ok {
		return failResult(fail(ErrInvalidTarget, "game %s not found", req.GameID)), nil
	}

	// Status and actor are mutable fields owned by the in-flight action,
	// so even their validation reads take the guard.
	if !slot.mu.TryLock() {
		return failResult(fail(ErrTurnBusy, "another action is in flight for game %s", req.GameID)), nil
	}
	defer slot.mu.Unlock()
	g := slot.game

	if g.Status != StatusActive {
		return failResult(fail(ErrNotPlayerTurn, "game is %s", g.Status)), nil
	}
	if g.ActiveParticipant != req.Actor {
		return failResult(fail(ErrNotPlayerTurn, "participant %d is not the active participant", req.Actor)), nil
	}

	// The persisted flag covers a guard left set by an aborted action in
	// another process; the transaction boundary clears it on rollback.
	if g.TurnInProgress {
		return failResult(fail(ErrTurnBusy, "turn already in progress for game %s", g.ID)), nil
	}
	g.TurnInProgress = true
	defer func() { g.TurnInProgress = false }()

	// Re-check under the guard: two retries with the same token may have
	// raced past the first lookup.
	if req.IdempotencyToken != "" {
		if prev, ok := e.idem.TryGet(key); ok {
			return prev, nil
		}
	}

	var aerr *ActionError
	switch req.Kind {
	case ActionMove:
		aerr = e.applyMove(g, req)
	case ActionAttackUnit:
		aerr = e.applyAttackUnit(g, req)
	case ActionAttackCity:
		aerr = e.applyAttackCity(g, req)
	case ActionEndTurn:
		aerr = e.applyEndTurn(g)
	default:
		aerr = fail(ErrInvalidTarget, "unknown action kind %q", req.Kind)
	}
	if aerr != nil {
		slog.Debug("action rejected",
			"game", g.ID, "kind", req.Kind, "actor", req.Actor,
			"error", aerr.Kind, "message", aerr.Message)
		return failResult(aerr), nil
	}

	state, err := e.project.Snapshot(g)
	if err != nil {
		slog.Error("state projection failed", "game", g.ID, "error", err)
		return failResult(fail(ErrInternal, "projecting state: %v", err)), nil
	}

	res := ActionResult{OK: true, State: state}
	if req.IdempotencyToken != "" {
		e.idem.Put(key, res)
	}
	slog.Info("action applied",
		"game", g.ID, "kind", req.Kind, "actor", req.Actor, "turn", g.TurnNo)
	return res, g
}

func (e *Engine) applyMove(g *Game, req ActionRequest) *ActionError {
	unit, aerr := g.actingUnit(req.Actor, req.UnitID)
	if aerr != nil {
		return aerr
	}
	if req.Destination == nil {
		return fail(ErrInvalidTarget, "move requires a destination")
	}
	dest := *req.Destination
	if !g.Map.InBounds(dest) {
		return fail(ErrInvalidTarget, "destination %v is out of bounds", dest)
	}
	tile := g.Map.At(dest)
	if tile == nil || !tile.Terrain.Passable() {
		return fail(ErrInvalidTarget, "destination %v is impassable", dest)
	}
	// The pathfinder exempts the goal from the blocking check, so occupancy
	// of the destination is re-validated here before committing.
	if other, occupied := g.UnitAt(dest); occupied && other.ID != unit.ID {
		return fail(ErrInvalidTarget, "destination %v is occupied by unit %d", dest, other.ID)
	}
	if c, ok := g.CityAt(dest); ok && c.Owner != unit.Owner {
		return fail(ErrInvalidTarget, "destination %v is an enemy city", dest)
	}

	path := world.FindPath(g.Map, unit.Pos, dest, unit.Type.MovePoints, g.blockedFor(unit))
	if path == nil {
		return fail(ErrOutOfRange, "no path to %v within %d movement points", dest, unit.Type.MovePoints)
	}

	g.placeUnit(unit, dest)
	unit.HasActed = true
	return nil
}

func (e *Engine) applyAttackUnit(g *Game, req ActionRequest) *ActionError {
	unit, aerr := g.actingUnit(req.Actor, req.UnitID)
	if aerr != nil {
		return aerr
	}
	target, ok := g.Units[req.TargetUnitID]
	if !ok {
		return fail(ErrInvalidTarget, "target unit %d not found", req.TargetUnitID)
	}
	if target.Owner == req.Actor {
		return fail(ErrInvalidTarget, "unit %d belongs to the attacker", target.ID)
	}
	if aerr := checkAttackRange(unit, target.Pos); aerr != nil {
		return aerr
	}

	res := combat.ResolveUnitAttack(unit.combatant(), target.combatant())

	target.HP = res.DefenderHP
	if res.DefenderDestroyed {
		g.removeUnit(target)
	}
	unit.HP = res.AttackerHP
	if res.AttackerDestroyed {
		g.removeUnit(unit)
	} else {
		unit.HasActed = true
	}
	return nil
}

func (e *Engine) applyAttackCity(g *Game, req ActionRequest) *ActionError {
	unit, aerr := g.actingUnit(req.Actor, req.UnitID)
	if aerr != nil {
		return aerr
	}
	city, ok := g.Cities[req.TargetCityID]
	if !ok {
		return fail(ErrInvalidTarget, "target city %d not found", req.TargetCityID)
	}
	if city.Owner == req.Actor {
		return fail(ErrInvalidTarget, "city %q belongs to the attacker", city.Name)
	}
	if aerr := checkAttackRange(unit, city.Pos); aerr != nil {
		return aerr
	}

	res := combat.ResolveCityAttack(unit.combatant(), combat.CityTarget{
		Defence: city.Defence,
		HP:      city.HP,
		MaxHP:   city.MaxHP,
	})

	city.HP = res.CityHP
	if res.Razed {
		g.removeCity(city)
		e.checkElimination(g, city.Owner)
	}
	unit.HasActed = true
	return nil
}

func (e *Engine) applyEndTurn(g *Game) *ActionError {
	g.TurnNo++
	for _, u := range g.Units {
		u.HasActed = false
	}
	g.ActiveParticipant = g.nextActive()
	return nil
}

// checkElimination flags a participant whose last city was razed and ends
// the game when only one participant survives.
func (e *Engine) checkElimination(g *Game, owner ParticipantID) {
	for _, c := range g.Cities {
		if c.Owner == owner {
			return
		}
	}
	p := g.Participant(owner)
	if p == nil || p.Eliminated {
		return
	}
	p.Eliminated = true
	slog.Info("participant eliminated", "game", g.ID, "participant", p.ID, "name", p.Name)

	if g.survivors() <= 1 {
		g.Status = StatusFinished
		slog.Info("game finished", "game", g.ID, "turn", g.TurnNo)
	}
}

// actingUnit resolves and authorizes the acting unit for a move or attack.
func (g *Game) actingUnit(actor ParticipantID, id UnitID) (*Unit, *ActionError) {
	unit, ok := g.Units[id]
	if !ok {
		return nil, fail(ErrInvalidTarget, "unit %d not found", id)
	}
	if unit.Owner != actor {
		return nil, fail(ErrInvalidTarget, "unit %d is not owned by participant %d", id, actor)
	}
	if unit.HasActed {
		return nil, fail(ErrNoActionsLeft, "unit %d has already acted this turn", id)
	}
	return unit, nil
}

// checkAttackRange validates distance against the attacker's profile:
// melee units strike adjacent tiles, ranged units anywhere in
// [RangeMin, RangeMax].
func checkAttackRange(u *Unit, target world.Offset) *ActionError {
	d := world.OffsetDistance(u.Pos, target)
	if u.Type.Ranged {
		if d < u.Type.RangeMin || d > u.Type.RangeMax {
			return fail(ErrOutOfRange, "target at distance %d outside range %d-%d",
				d, u.Type.RangeMin, u.Type.RangeMax)
		}
		return nil
	}
	if d != 1 {
		return fail(ErrOutOfRange, "melee attack requires adjacency, target at distance %d", d)
	}
	return nil
}

func (u *Unit) combatant() combat.Combatant {
	return combat.Combatant{
		Attack:  u.Type.Attack,
		Defence: u.Type.Defence,
		HP:      u.HP,
		Ranged:  u.Type.Ranged,
	}
}

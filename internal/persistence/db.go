// Package persistence provides SQLite-based game state storage and the
// durable idempotency record store.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/arvale/hexfront/internal/game"
	"github.com/arvale/hexfront/internal/world"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		turn_no INTEGER NOT NULL,
		active_participant INTEGER NOT NULL,
		turn_in_progress INTEGER NOT NULL,
		status INTEGER NOT NULL,
		map_width INTEGER NOT NULL,
		map_height INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS participants (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind INTEGER NOT NULL,
		eliminated INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS tiles (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		col INTEGER NOT NULL,
		row INTEGER NOT NULL,
		terrain INTEGER NOT NULL,
		resource INTEGER NOT NULL,
		resource_amount INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS units (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		type TEXT NOT NULL,
		hp INTEGER NOT NULL,
		col INTEGER NOT NULL,
		row INTEGER NOT NULL,
		has_acted INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS cities (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		name TEXT NOT NULL,
		col INTEGER NOT NULL,
		row INTEGER NOT NULL,
		hp INTEGER NOT NULL,
		max_hp INTEGER NOT NULL,
		defence INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS idempotency (
		key TEXT PRIMARY KEY,
		result TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_units_game ON units(game_id);
	CREATE INDEX IF NOT EXISTS idx_tiles_game ON tiles(game_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveGame writes the full state of one game inside a single transaction
// (full replace). Saving also persists the cleared turn_in_progress guard,
// so a save at the end of an action doubles as the guard release.
func (db *DB) SaveGame(g *game.Game) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"games", "participants", "tiles", "units", "cities"} {
		col := "game_id"
		if table == "games" {
			col = "id"
		}
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, col), string(g.ID)); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`INSERT INTO games
		(id, turn_no, active_participant, turn_in_progress, status, map_width, map_height)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(g.ID), g.TurnNo, g.ActiveParticipant, boolToInt(g.TurnInProgress),
		g.Status, g.Map.Width, g.Map.Height,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for _, p := range g.Participants {
		_, err := tx.Exec(`INSERT INTO participants (game_id, id, name, kind, eliminated)
			VALUES (?, ?, ?, ?, ?)`,
			string(g.ID), p.ID, p.Name, p.Kind, boolToInt(p.Eliminated),
		)
		if err != nil {
			return fmt.Errorf("insert participant %d: %w", p.ID, err)
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO tiles
		(game_id, id, col, row, terrain, resource, resource_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, t := range g.Map.Tiles {
		_, err := stmt.Exec(string(g.ID), t.ID, t.Pos.Col, t.Pos.Row, t.Terrain, t.Resource, t.ResourceAmount)
		if err != nil {
			return fmt.Errorf("insert tile %d: %w", t.ID, err)
		}
	}

	for _, u := range g.Units {
		_, err := tx.Exec(`INSERT INTO units (game_id, id, owner, type, hp, col, row, has_acted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(g.ID), u.ID, u.Owner, u.Type.Name, u.HP, u.Pos.Col, u.Pos.Row, boolToInt(u.HasActed),
		)
		if err != nil {
			return fmt.Errorf("insert unit %d: %w", u.ID, err)
		}
	}

	for _, c := range g.Cities {
		_, err := tx.Exec(`INSERT INTO cities (game_id, id, owner, name, col, row, hp, max_hp, defence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(g.ID), c.ID, c.Owner, c.Name, c.Pos.Col, c.Pos.Row, c.HP, c.MaxHP, c.Defence,
		)
		if err != nil {
			return fmt.Errorf("insert city %d: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("game saved", "game", g.ID, "units", len(g.Units), "cities", len(g.Cities))
	return nil
}

// HasGame reports whether a game with the given id exists.
func (db *DB) HasGame(id game.GameID) bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM games WHERE id = ?", string(id)); err != nil {
		return false
	}
	return n > 0
}

// GameIDs lists all persisted game ids.
func (db *DB) GameIDs() ([]game.GameID, error) {
	var raw []string
	if err := db.conn.Select(&raw, "SELECT id FROM games ORDER BY id"); err != nil {
		return nil, err
	}
	ids := make([]game.GameID, len(raw))
	for i, s := range raw {
		ids[i] = game.GameID(s)
	}
	return ids, nil
}

// LoadGame materializes the full entity graph for one game. A unit whose
// type is missing from the roster fails the load with SchemaMismatch.
func (db *DB) LoadGame(id game.GameID) (*game.Game, error) {
	var row struct {
		TurnNo            int    `db:"turn_no"`
		ActiveParticipant uint64 `db:"active_participant"`
		TurnInProgress    int    `db:"turn_in_progress"`
		Status            uint8  `db:"status"`
		MapWidth          int    `db:"map_width"`
		MapHeight         int    `db:"map_height"`
	}
	err := db.conn.Get(&row,
		`SELECT turn_no, active_participant, turn_in_progress, status, map_width, map_height
		 FROM games WHERE id = ?`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("game %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	m := world.NewMap(row.MapWidth, row.MapHeight)
	var tiles []struct {
		ID       uint64 `db:"id"`
		Col      int    `db:"col"`
		Row      int    `db:"row"`
		Terrain  uint8  `db:"terrain"`
		Resource uint8  `db:"resource"`
		Amount   int    `db:"resource_amount"`
	}
	if err := db.conn.Select(&tiles,
		"SELECT id, col, row, terrain, resource, resource_amount FROM tiles WHERE game_id = ? ORDER BY id",
		string(id)); err != nil {
		return nil, fmt.Errorf("load tiles: %w", err)
	}
	for _, t := range tiles {
		m.Add(&world.Tile{
			ID:             t.ID,
			Pos:            world.Offset{Col: t.Col, Row: t.Row},
			Terrain:        world.Terrain(t.Terrain),
			Resource:       world.Resource(t.Resource),
			ResourceAmount: t.Amount,
		})
	}

	g := game.NewGame(id, m)
	g.TurnNo = row.TurnNo
	g.ActiveParticipant = game.ParticipantID(row.ActiveParticipant)
	g.TurnInProgress = row.TurnInProgress != 0
	g.Status = game.Status(row.Status)

	var parts []struct {
		ID         uint64 `db:"id"`
		Name       string `db:"name"`
		Kind       uint8  `db:"kind"`
		Eliminated int    `db:"eliminated"`
	}
	if err := db.conn.Select(&parts,
		"SELECT id, name, kind, eliminated FROM participants WHERE game_id = ? ORDER BY id",
		string(id)); err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	for _, p := range parts {
		g.RestoreParticipant(&game.Participant{
			ID:         game.ParticipantID(p.ID),
			Name:       p.Name,
			Kind:       game.ParticipantKind(p.Kind),
			Eliminated: p.Eliminated != 0,
		})
	}

	var units []struct {
		ID       uint64 `db:"id"`
		Owner    uint64 `db:"owner"`
		Type     string `db:"type"`
		HP       int    `db:"hp"`
		Col      int    `db:"col"`
		Row      int    `db:"row"`
		HasActed int    `db:"has_acted"`
	}
	if err := db.conn.Select(&units,
		"SELECT id, owner, type, hp, col, row, has_acted FROM units WHERE game_id = ? ORDER BY id",
		string(id)); err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	for _, u := range units {
		def, ok := game.DefinitionByName(u.Type)
		if !ok {
			return nil, &game.ActionError{
				Kind:    game.ErrSchemaMismatch,
				Message: fmt.Sprintf("unit %d has unknown type %q", u.ID, u.Type),
			}
		}
		err := g.RestoreUnit(&game.Unit{
			ID:       game.UnitID(u.ID),
			Owner:    game.ParticipantID(u.Owner),
			Type:     def,
			HP:       u.HP,
			Pos:      world.Offset{Col: u.Col, Row: u.Row},
			HasActed: u.HasActed != 0,
		})
		if err != nil {
			return nil, fmt.Errorf("restore unit %d: %w", u.ID, err)
		}
	}

	var cities []struct {
		ID      uint64 `db:"id"`
		Owner   uint64 `db:"owner"`
		Name    string `db:"name"`
		Col     int    `db:"col"`
		Row     int    `db:"row"`
		HP      int    `db:"hp"`
		MaxHP   int    `db:"max_hp"`
		Defence int    `db:"defence"`
	}
	if err := db.conn.Select(&cities,
		"SELECT id, owner, name, col, row, hp, max_hp, defence FROM cities WHERE game_id = ? ORDER BY id",
		string(id)); err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	for _, c := range cities {
		err := g.RestoreCity(&game.City{
			ID:      game.CityID(c.ID),
			Owner:   game.ParticipantID(c.Owner),
			Name:    c.Name,
			Pos:     world.Offset{Col: c.Col, Row: c.Row},
			HP:      c.HP,
			MaxHP:   c.MaxHP,
			Defence: c.Defence,
		})
		if err != nil {
			return nil, fmt.Errorf("restore city %d: %w", c.ID, err)
		}
	}

	slog.Info("game loaded", "game", id, "units", len(units), "cities", len(cities), "turn", g.TurnNo)
	return g, nil
}

// ReleaseGuard clears a persisted turn_in_progress flag. The serving layer
// calls this on its abort path so an abandoned action cannot wedge a game.
func (db *DB) ReleaseGuard(id game.GameID) error {
	_, err := db.conn.Exec("UPDATE games SET turn_in_progress = 0 WHERE id = ?", string(id))
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

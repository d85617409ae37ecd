package persistence

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/arvale/hexfront/internal/game"
)

// IdemStore is a durable game.IdempotencyStore backed by the idempotency
// table. Insert-if-absent comes from INSERT OR IGNORE on the primary key.
type IdemStore struct {
	db  *DB
	ttl time.Duration
}

// Idempotency returns the durable idempotency store for this database.
// Entries older than ttl are treated as absent; zero disables expiry.
func (db *DB) Idempotency(ttl time.Duration) *IdemStore {
	return &IdemStore{db: db, ttl: ttl}
}

// TryGet returns the stored result for key, if present and fresh.
func (s *IdemStore) TryGet(key string) (game.ActionResult, bool) {
	var row struct {
		Result  string `db:"result"`
		SavedAt int64  `db:"saved_at"`
	}
	err := s.db.conn.Get(&row, "SELECT result, saved_at FROM idempotency WHERE key = ?", key)
	if err != nil {
		return game.ActionResult{}, false
	}
	if s.ttl > 0 && time.Since(time.Unix(row.SavedAt, 0)) > s.ttl {
		return game.ActionResult{}, false
	}

	var res game.ActionResult
	if err := json.Unmarshal([]byte(row.Result), &res); err != nil {
		slog.Error("corrupt idempotency record", "key", key, "error", err)
		return game.ActionResult{}, false
	}
	return res, true
}

// Put stores res under key unless the key already exists. Returns whether
// the record was inserted.
func (s *IdemStore) Put(key string, res game.ActionResult) bool {
	payload, err := json.Marshal(res)
	if err != nil {
		slog.Error("marshal idempotency record", "key", key, "error", err)
		return false
	}
	r, err := s.db.conn.Exec(
		"INSERT OR IGNORE INTO idempotency (key, result, saved_at) VALUES (?, ?, ?)",
		key, string(payload), time.Now().Unix(),
	)
	if err != nil {
		slog.Error("store idempotency record", "key", key, "error", err)
		return false
	}
	n, err := r.RowsAffected()
	return err == nil && n > 0
}

// Prune deletes expired idempotency records. Intended for a periodic
// housekeeping call from the serving layer.
func (s *IdemStore) Prune() error {
	if s.ttl <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-s.ttl).Unix()
	_, err := s.db.conn.Exec("DELETE FROM idempotency WHERE saved_at < ?", cutoff)
	return err
}

package game

import (
	"encoding/json"
	"fmt"

	"github.com/arvale/hexfront/internal/world"
)

// ActionKind enumerates the mutating actions a participant can take.
type ActionKind string

const (
	ActionMove       ActionKind = "move"
	ActionAttackUnit ActionKind = "attack-unit"
	ActionAttackCity ActionKind = "attack-city"
	ActionEndTurn    ActionKind = "end-turn"
)

// ActionRequest is one inbound action. The idempotency token is supplied by
// the client so that network retries can be replayed safely.
type ActionRequest struct {
	Kind             ActionKind    `json:"kind"`
	GameID           GameID        `json:"gameId"`
	Actor            ParticipantID `json:"actorParticipantId"`
	UnitID           UnitID        `json:"unitId,omitempty"`
	TargetUnitID     UnitID        `json:"targetUnitId,omitempty"`
	TargetCityID     CityID        `json:"targetCityId,omitempty"`
	Destination      *world.Offset `json:"destination,omitempty"`
	IdempotencyToken string        `json:"idempotencyToken"`
}

// Key returns the composite idempotency key for this request.
func (r ActionRequest) Key() string {
	return fmt.Sprintf("%s:%s:%s", r.Kind, r.GameID, r.IdempotencyToken)
}

// ActionResult is the outcome of an action. State carries the updated
// client-facing projection on success; on failure ErrorKind and Message
// are set instead. Successful results are stored verbatim in the
// idempotency store, so a replay returns byte-identical state.
type ActionResult struct {
	OK        bool            `json:"ok"`
	ErrorKind ErrorKind       `json:"errorKind,omitempty"`
	Message   string          `json:"message,omitempty"`
	State     json.RawMessage `json:"updatedState,omitempty"`
}

func failResult(err *ActionError) ActionResult {
	return ActionResult{OK: false, ErrorKind: err.Kind, Message: err.Message}
}

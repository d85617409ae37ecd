package game

import "fmt"

// ErrorKind classifies action failures. Kinds map 1:1 to API responses; the
// engine produces the kind, the transport layer picks the encoding.
type ErrorKind string

const (
	ErrNotPlayerTurn  ErrorKind = "NotPlayerTurn"  // Actor is not the active participant, or game over
	ErrTurnBusy       ErrorKind = "TurnBusy"       // Another action in flight for this game; retryable
	ErrNoActionsLeft  ErrorKind = "NoActionsLeft"  // Unit already acted this turn
	ErrOutOfRange     ErrorKind = "OutOfRange"     // Target beyond attack range or movement budget
	ErrInvalidTarget  ErrorKind = "InvalidTarget"  // Missing, friendly, or otherwise illegal target
	ErrInternal       ErrorKind = "Internal"       // Unexpected fault; fatal for the single action
	ErrSchemaMismatch ErrorKind = "SchemaMismatch" // Reserved for the snapshot loader
)

// Retryable reports whether the caller should retry the same request.
func (k ErrorKind) Retryable() bool {
	return k == ErrTurnBusy
}

// ActionError is a typed action failure. Validation failures never mutate
// game state and are never idempotency-cached.
type ActionError struct {
	Kind    ErrorKind
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func fail(kind ErrorKind, format string, args ...any) *ActionError {
	return &ActionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

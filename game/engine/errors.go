package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rule failure so callers can map it to a transport
// status without parsing messages.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindWrongPhase         ErrorKind = "wrong_phase"
	KindNotYourTurn        ErrorKind = "not_your_turn"
	KindInvalidAction      ErrorKind = "invalid_action"
	KindInvalidCombination ErrorKind = "invalid_combination"
	KindTileConservation   ErrorKind = "tile_conservation"
	KindInsufficientMeld   ErrorKind = "insufficient_meld"
	KindPoolExhausted      ErrorKind = "pool_exhausted"
	KindLockUnavailable    ErrorKind = "lock_unavailable"
)

// GameError is a structured rule failure. It never indicates an
// infrastructure problem; those travel as plain wrapped errors.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newGameError(kind ErrorKind, format string, args ...interface{}) *GameError {
	return &GameError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFound builds a not_found rule error. Exposed so callers above the
// engine can report missing games with the same structure.
func NewNotFound(format string, args ...interface{}) *GameError {
	return newGameError(KindNotFound, format, args...)
}

// NewInvalidAction builds an invalid_action rule error.
func NewInvalidAction(format string, args ...interface{}) *GameError {
	return newGameError(KindInvalidAction, format, args...)
}

// KindOf extracts the ErrorKind from an error chain, or "" if the error is
// not a GameError.
func KindOf(err error) ErrorKind {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// IsRuleError reports whether err is a game-rule rejection rather than an
// infrastructure failure.
func IsRuleError(err error) bool {
	var ge *GameError
	return errors.As(err, &ge)
}

package cas

import (
	"errors"

	"github.com/agbru/casbridge/internal/boundary"
)

var (
	// ErrArgumentTooLarge marks failures where the engine refused an
	// oversized argument, such as NthPrime beyond its table.
	ErrArgumentTooLarge = errors.New("cas: argument too large")

	// ErrFreed is returned when a freed Value or Context is used.
	ErrFreed = errors.New("cas: use of freed handle")
)

// Error is a computation failure. Msg is the engine's message, unchanged.
type Error struct {
	Op  string // Operation that failed
	Msg string

	err error
}

func (e *Error) Error() string {
	return "cas." + e.Op + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.err }

// wrap converts a boundary failure into an *Error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Op: op, Msg: err.Error()}
	var be *boundary.Error
	if errors.As(err, &be) && be.Msg == boundary.NthPrimeTooBig {
		e.err = ErrArgumentTooLarge
	}
	return e
}

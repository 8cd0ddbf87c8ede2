package boundary

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// NthPrimeTooBig is returned by NthPrime when the engine cannot produce the
// requested prime.
const NthPrimeTooBig = "Failed to compute nthprime, argument is too big"

const (
	errInvalidValue   = "invalid value handle"
	errInvalidContext = "invalid context handle"
	errGlobalNotReady = "global context not initialised, call InitGlobalContext first"
)

// Error is the single failure type crossing the boundary. Error returns the
// message unchanged; Op names the entry point for logging and metrics.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// asError converts any failure into an *Error attributed to op.
func asError(op string, err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		if be.Op == "" {
			return &Error{Op: op, Msg: be.Msg}
		}
		return be
	}
	return &Error{Op: op, Msg: err.Error()}
}

var diagnostics atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	diagnostics.Store(&nop)
}

// SetLogger redirects the diagnostics of failed boundary calls. The sink is
// silent until a host installs one.
func SetLogger(l zerolog.Logger) {
	diagnostics.Store(&l)
}

// guard runs fn as the boundary entry point op. A panic raised anywhere in
// fn is recovered and reported as an *Error, so callers only ever see a nil
// error or a message.
func guard(op string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Op: op, Msg: fmt.Sprintf("internal error: %v", r)}
		}
		status := "success"
		if err != nil {
			status = "error"
			diagnostics.Load().Debug().
				Str("op", op).
				Str("error", err.Error()).
				Msg("boundary call failed")
		}
		operationsTotal.WithLabelValues(op, status).Inc()
		operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if e := fn(); e != nil {
		return asError(op, e)
	}
	return nil
}

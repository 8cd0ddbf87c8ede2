package engine

import "fmt"

// Error is a computation failure. The engine reports every failure through
// this single type; the message is the only payload.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// ParseError is a syntax error reported by the expression parser.
type ParseError struct {
	Line  int
	Col   int
	Token string
	// Reason, when set, qualifies errors that are not plain unexpected
	// tokens.
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("syntax error line %d col %d at %q: %s", e.Line, e.Col, e.Token, e.Reason)
	}
	return fmt.Sprintf("syntax error line %d col %d at %q", e.Line, e.Col, e.Token)
}

var (
	errDivByZero   = &Error{Msg: "Division by 0"}
	errBadArgType  = &Error{Msg: "Bad argument type"}
	errBadArgValue = &Error{Msg: "Bad argument value"}
	errDimension   = &Error{Msg: "Invalid dimension"}
)

// expectInteger fails unless every argument is an exact integer.
func expectInteger(op string, gs ...Gen) error {
	for _, g := range gs {
		if !IsInteger(g) {
			return errorf("%s: integer argument expected, got %s", op, g.typ)
		}
	}
	return nil
}

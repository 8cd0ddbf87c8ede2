// Package boundary is the flat, handle-based surface over the algebra engine.
// Values and contexts live behind opaque handles; every fallible entry point
// returns nil on success or an *Error carrying the engine's message, and no
// panic ever escapes a call.
//
// Operations write their results into caller-allocated slots obtained from
// Allocate. The arithmetic operators Add, Sub, Mul and Div overwrite their
// first argument.
package boundary

import (
	"fmt"

	"github.com/agbru/casbridge/internal/engine"
)

// Allocate returns a slot holding the integer 0, to be used as an output
// parameter.
func Allocate() GenHandle {
	return newValue(engine.Zero())
}

// FromText parses text under the context's bindings, evaluates it and
// stores the result in out. On a syntax error the parser diagnostic is
// returned and out is left as it was.
func FromText(text string, ctx ContextHandle, out GenHandle) error {
	return guard("from_text", func() error {
		c, err := lookupContext(ctx)
		if err != nil {
			return err
		}
		s, err := lookupValue(out)
		if err != nil {
			return err
		}
		expr, err := engine.Parse(c, text)
		if err != nil {
			return err
		}
		g, err := engine.Eval(c, expr)
		if err != nil {
			return err
		}
		s.store(g)
		return nil
	})
}

// FromInt returns a new value holding i.
func FromInt(i int32) GenHandle { return newValue(engine.Int(int64(i))) }

// FromFloat returns a new single precision value.
func FromFloat(f float32) GenHandle { return newValue(engine.Float(f)) }

// FromDouble returns a new double precision value.
func FromDouble(f float64) GenHandle { return newValue(engine.Double(f)) }

// FromFactorial computes n! eagerly and returns it as a new value. n is
// bounded by engine.MaxFactorial.
func FromFactorial(n uint64) (GenHandle, error) {
	var h GenHandle
	err := guard("from_factorial", func() error {
		if n > engine.MaxFactorial {
			return &Error{Msg: fmt.Sprintf("factorial: argument %d exceeds %d", n, engine.MaxFactorial)}
		}
		h = newValue(engine.Zint(engine.Factorial(n)))
		return nil
	})
	return h, err
}

// Clone deep-copies the value into a new, independently owned handle.
func Clone(h GenHandle) (GenHandle, error) {
	var c GenHandle
	err := guard("clone", func() error {
		g, err := loadValue(h)
		if err != nil {
			return err
		}
		c = newValue(g.Clone())
		return nil
	})
	return c, err
}

// Free releases the value. Unknown or already freed handles are ignored.
func Free(h GenHandle) {
	values.remove(uint64(h))
}

// Type returns the raw type tag of the value, or InvalidType for a handle
// that does not name a live value. It never fails.
func Type(h GenHandle) uint8 {
	g, err := loadValue(h)
	if err != nil {
		return InvalidType
	}
	return uint8(g.Type())
}

// ToString renders the value in canonical text form. An unknown handle
// renders as the empty string.
func ToString(h GenHandle) string {
	var s string
	_ = guard("to_string", func() error {
		g, err := loadValue(h)
		if err != nil {
			return err
		}
		s = g.String()
		return nil
	})
	return s
}

// ToInt narrows the value to a machine integer.
func ToInt(h GenHandle, out *int32) error {
	return guard("to_int", func() error {
		g, err := loadValue(h)
		if err != nil {
			return err
		}
		i, err := engine.ToInt(g)
		if err != nil {
			return err
		}
		*out = i
		return nil
	})
}

// IsZero reports whether the value is zero under the context's epsilon.
func IsZero(h GenHandle, out *bool, ctx ContextHandle) error {
	return guard("is_zero", func() error {
		c, err := lookupContext(ctx)
		if err != nil {
			return err
		}
		g, err := loadValue(h)
		if err != nil {
			return err
		}
		z, err := engine.IsZero(c, g)
		if err != nil {
			return err
		}
		*out = z
		return nil
	})
}

package cas

import (
	"runtime"

	"github.com/agbru/casbridge/internal/boundary"
)

// Type is the discriminant tag of a Value.
type Type uint8

// Type tags. Only Int, Double, Zint, Cplx, Idnt, Vect, Symb, Frac, String and
// Float are produced; the others are reserved.
const (
	TypeInt     Type = 0
	TypeDouble  Type = 1
	TypeZint    Type = 2
	TypeReal    Type = 3
	TypeCplx    Type = 4
	TypePoly    Type = 5
	TypeIdnt    Type = 6
	TypeVect    Type = 7
	TypeSymb    Type = 8
	TypeSpol1   Type = 9
	TypeFrac    Type = 10
	TypeExt     Type = 11
	TypeString  Type = 12
	TypeFunc    Type = 13
	TypeRoot    Type = 14
	TypeMod     Type = 15
	TypeUser    Type = 16
	TypeMap     Type = 17
	TypeEqw     Type = 18
	TypeGrob    Type = 19
	TypePointer Type = 20
	TypeFloat   Type = 21

	// TypeInvalid is reported for a freed Value.
	TypeInvalid Type = Type(boundary.InvalidType)
)

var typeNames = [...]string{
	"int", "double", "zint", "real", "complex", "poly", "identifier", "vector",
	"symbolic", "spol1", "fraction", "ext", "string", "function", "root", "modulo",
	"user", "map", "eqw", "grob", "pointer", "float",
}

// String returns the tag name ("zint", "symbolic", ...) or "invalid".
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// Value is an owned numeric or symbolic value.
//
// A Value is released by Free or, failing that, by the garbage collector.
// Operations never modify their operands.
type Value struct {
	h boundary.GenHandle
}

func newValue(h boundary.GenHandle) *Value {
	v := &Value{h: h}
	runtime.SetFinalizer(v, (*Value).Free)
	return v
}

// handle returns the live handle or ErrFreed.
func (v *Value) handle() (boundary.GenHandle, error) {
	if v == nil || v.h == 0 {
		return 0, ErrFreed
	}
	return v.h, nil
}

// Int returns a Value holding i.
func Int(i int32) *Value { return newValue(boundary.FromInt(i)) }

// Float returns a single precision Value.
func Float(f float32) *Value { return newValue(boundary.FromFloat(f)) }

// Double returns a double precision Value.
func Double(f float64) *Value { return newValue(boundary.FromDouble(f)) }

// Factorial returns n! as an exact integer, computed eagerly.
func Factorial(n uint64) (*Value, error) {
	h, err := boundary.FromFactorial(n)
	if err != nil {
		return nil, wrap("Factorial", err)
	}
	return newValue(h), nil
}

// Free releases the value. It is safe to call more than once.
func (v *Value) Free() {
	if v != nil && v.h != 0 {
		boundary.Free(v.h)
		v.h = 0
		runtime.SetFinalizer(v, nil)
	}
}

// Clone returns an independent deep copy.
func (v *Value) Clone() (*Value, error) {
	h, err := v.handle()
	if err != nil {
		return nil, err
	}
	c, err := boundary.Clone(h)
	runtime.KeepAlive(v)
	if err != nil {
		return nil, wrap("Clone", err)
	}
	return newValue(c), nil
}

// Type returns the value's tag, or TypeInvalid once freed.
func (v *Value) Type() Type {
	h, err := v.handle()
	if err != nil {
		return TypeInvalid
	}
	t := Type(boundary.Type(h))
	runtime.KeepAlive(v)
	return t
}

// String renders the value in canonical form.
func (v *Value) String() string {
	h, err := v.handle()
	if err != nil {
		return "<freed>"
	}
	s := boundary.ToString(h)
	runtime.KeepAlive(v)
	return s
}

// Int32 narrows the value to a machine integer.
func (v *Value) Int32() (int32, error) {
	h, err := v.handle()
	if err != nil {
		return 0, err
	}
	var i int32
	err = boundary.ToInt(h, &i)
	runtime.KeepAlive(v)
	if err != nil {
		return 0, wrap("Int32", err)
	}
	return i, nil
}

// binop clones v and applies an in-place boundary operator to the copy.
func (v *Value) binop(op string, o *Value, fn func(a, b boundary.GenHandle) error) (*Value, error) {
	oh, err := o.handle()
	if err != nil {
		return nil, err
	}
	res, err := v.Clone()
	if err != nil {
		return nil, err
	}
	err = fn(res.h, oh)
	runtime.KeepAlive(o)
	if err != nil {
		res.Free()
		return nil, wrap(op, err)
	}
	return res, nil
}

// Add returns v+o.
func (v *Value) Add(o *Value) (*Value, error) { return v.binop("Add", o, boundary.Add) }

// Sub returns v-o.
func (v *Value) Sub(o *Value) (*Value, error) { return v.binop("Sub", o, boundary.Sub) }

// Mul returns v*o.
func (v *Value) Mul(o *Value) (*Value, error) { return v.binop("Mul", o, boundary.Mul) }

// Div returns v/o.
func (v *Value) Div(o *Value) (*Value, error) { return v.binop("Div", o, boundary.Div) }

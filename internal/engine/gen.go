// Package engine implements the algebra engine behind the casbridge boundary.
// It provides a tagged numeric/symbolic value (Gen), evaluation contexts, an
// expression parser and evaluator, and the integer, combinatorial, polynomial
// and linear-algebra routines exposed through internal/boundary.
//
// Values are immutable once built: every operation returns a fresh Gen and
// never modifies its arguments, so a Gen may be shared freely between slots.
package engine

import (
	"math"
	"math/big"
)

// Type is the discriminant tag of a Gen. The byte values match the tags used
// by the original algebra library so that hosts can keep their enums.
type Type uint8

const (
	TypeInt     Type = 0  // machine integer (fits in int32)
	TypeDouble  Type = 1  // float64
	TypeZint    Type = 2  // arbitrary precision integer
	TypeReal    Type = 3  // arbitrary precision float (not produced)
	TypeCplx    Type = 4  // complex number
	TypePoly    Type = 5  // internal polynomial (not produced)
	TypeIdnt    Type = 6  // identifier
	TypeVect    Type = 7  // vector, matrices are vectors of vectors
	TypeSymb    Type = 8  // symbolic expression
	TypeSpol1   Type = 9  // sparse series (not produced)
	TypeFrac    Type = 10 // exact rational
	TypeExt     Type = 11 // algebraic extension (not produced)
	TypeString  Type = 12 // string literal
	TypeFunc    Type = 13 // function reference (not produced)
	TypeRoot    Type = 14 // root of polynomial (not produced)
	TypeMod     Type = 15 // modular value (not produced)
	TypeUser    Type = 16 // user type (not produced)
	TypeMap     Type = 17 // map (not produced)
	TypeEqw     Type = 18 // equation writer data (not produced)
	TypeGrob    Type = 19 // graphic object (not produced)
	TypePointer Type = 20 // raw pointer (not produced)
	TypeFloat   Type = 21 // float32
)

var typeNames = map[Type]string{
	TypeInt: "int", TypeDouble: "double", TypeZint: "zint", TypeReal: "real",
	TypeCplx: "complex", TypePoly: "poly", TypeIdnt: "identifier", TypeVect: "vector",
	TypeSymb: "symbolic", TypeSpol1: "spol1", TypeFrac: "fraction", TypeExt: "ext",
	TypeString: "string", TypeFunc: "function", TypeRoot: "root", TypeMod: "modulo",
	TypeUser: "user", TypeMap: "map", TypeEqw: "eqw", TypeGrob: "grob",
	TypePointer: "pointer", TypeFloat: "float",
}

// String returns a short lowercase name for the tag.
func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "unknown"
}

// Gen is the engine's tagged value.
type Gen struct {
	typ  Type
	ival int64    // TypeInt
	fval float64  // TypeDouble, TypeFloat
	zval *big.Int // TypeZint
	qval *big.Rat // TypeFrac
	name string   // TypeIdnt, TypeString, TypeSymb operator
	args []Gen    // TypeVect items, TypeSymb operands, TypeCplx (re, im)
}

// Undef is the value returned by computations that have no meaningful result.
var Undef = Ident("undef")

// Zero returns the integer 0. It is the content of a freshly allocated slot.
func Zero() Gen { return Gen{typ: TypeInt} }

// Int builds an integer, promoting to TypeZint outside the int32 range.
func Int(v int64) Gen {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return Gen{typ: TypeZint, zval: big.NewInt(v)}
	}
	return Gen{typ: TypeInt, ival: v}
}

// Zint builds an integer from z, demoting to TypeInt when it fits. z is not
// retained.
func Zint(z *big.Int) Gen {
	if z.IsInt64() {
		return Int(z.Int64())
	}
	return Gen{typ: TypeZint, zval: new(big.Int).Set(z)}
}

// Rat builds an exact rational, demoting to an integer when the denominator
// is 1. r is not retained.
func Rat(r *big.Rat) Gen {
	if r.IsInt() {
		return Zint(r.Num())
	}
	return Gen{typ: TypeFrac, qval: new(big.Rat).Set(r)}
}

// Double builds a float64 value.
func Double(f float64) Gen { return Gen{typ: TypeDouble, fval: f} }

// Float builds a float32 value.
func Float(f float32) Gen { return Gen{typ: TypeFloat, fval: float64(f)} }

// Ident builds an identifier.
func Ident(name string) Gen { return Gen{typ: TypeIdnt, name: name} }

// Str builds a string literal.
func Str(s string) Gen { return Gen{typ: TypeString, name: s} }

// Vector builds a vector from items.
func Vector(items ...Gen) Gen {
	v := make([]Gen, len(items))
	copy(v, items)
	return Gen{typ: TypeVect, args: v}
}

// Complex builds re+im*i, collapsing to re when im is exactly zero.
func Complex(re, im Gen) Gen {
	if isExactZero(im) {
		return re
	}
	return Gen{typ: TypeCplx, args: []Gen{re, im}}
}

// Symbolic builds an unevaluated operator application. No normalisation is
// applied; use the arithmetic functions to get canonical forms.
func Symbolic(op string, args ...Gen) Gen {
	a := make([]Gen, len(args))
	copy(a, args)
	return Gen{typ: TypeSymb, name: op, args: a}
}

// Type returns the discriminant tag.
func (g Gen) Type() Type { return g.typ }

// Name returns the identifier name, string content or symbolic operator.
func (g Gen) Name() string { return g.name }

// Args returns the operands of a symbolic value or the items of a vector.
// The returned slice must not be modified.
func (g Gen) Args() []Gen { return g.args }

// Len returns the number of vector items.
func (g Gen) Len() int {
	if g.typ != TypeVect {
		return 0
	}
	return len(g.args)
}

// At returns the i-th vector item.
func (g Gen) At(i int) Gen { return g.args[i] }

// Clone returns a deep copy of g sharing no memory with it.
func (g Gen) Clone() Gen {
	c := g
	if g.zval != nil {
		c.zval = new(big.Int).Set(g.zval)
	}
	if g.qval != nil {
		c.qval = new(big.Rat).Set(g.qval)
	}
	if g.args != nil {
		c.args = make([]Gen, len(g.args))
		for i, a := range g.args {
			c.args[i] = a.Clone()
		}
	}
	return c
}

// IsUndef reports whether g is the undefined value.
func IsUndef(g Gen) bool { return g.typ == TypeIdnt && g.name == "undef" }

// IsInteger reports whether g is an exact integer.
func IsInteger(g Gen) bool { return g.typ == TypeInt || g.typ == TypeZint }

// isExact reports whether g is an exact rational number.
func isExact(g Gen) bool { return IsInteger(g) || g.typ == TypeFrac }

// isReal reports whether g is a real number of any representation.
func isReal(g Gen) bool {
	return isExact(g) || g.typ == TypeDouble || g.typ == TypeFloat
}

// isNumber reports whether g is a real or complex number.
func isNumber(g Gen) bool { return isReal(g) || g.typ == TypeCplx }

func isExactZero(g Gen) bool {
	switch g.typ {
	case TypeInt:
		return g.ival == 0
	case TypeZint:
		return g.zval.Sign() == 0
	}
	return false
}

func isExactOne(g Gen) bool { return g.typ == TypeInt && g.ival == 1 }

// bigInt returns a fresh big.Int holding the integer g. g must be an integer.
func bigInt(g Gen) *big.Int {
	if g.typ == TypeInt {
		return big.NewInt(g.ival)
	}
	return new(big.Int).Set(g.zval)
}

// bigRat returns a fresh big.Rat holding the exact number g.
func bigRat(g Gen) *big.Rat {
	switch g.typ {
	case TypeInt:
		return new(big.Rat).SetInt64(g.ival)
	case TypeZint:
		return new(big.Rat).SetInt(g.zval)
	default:
		return new(big.Rat).Set(g.qval)
	}
}

// float returns the float64 approximation of the real number g.
func float(g Gen) float64 {
	switch g.typ {
	case TypeInt:
		return float64(g.ival)
	case TypeZint:
		f, _ := new(big.Float).SetInt(g.zval).Float64()
		return f
	case TypeFrac:
		f, _ := g.qval.Float64()
		return f
	default:
		return g.fval
	}
}

// sign returns -1, 0 or 1 for a real number.
func sign(g Gen) int {
	switch g.typ {
	case TypeInt:
		switch {
		case g.ival < 0:
			return -1
		case g.ival > 0:
			return 1
		}
		return 0
	case TypeZint:
		return g.zval.Sign()
	case TypeFrac:
		return g.qval.Sign()
	case TypeDouble, TypeFloat:
		switch {
		case g.fval < 0:
			return -1
		case g.fval > 0:
			return 1
		}
	}
	return 0
}

// isMatrix reports whether g is a non-empty vector of equally sized vectors.
func isMatrix(g Gen) bool {
	if g.typ != TypeVect || len(g.args) == 0 {
		return false
	}
	n := -1
	for _, row := range g.args {
		if row.typ != TypeVect {
			return false
		}
		if n >= 0 && len(row.args) != n {
			return false
		}
		n = len(row.args)
	}
	return n > 0
}

// Equal reports structural equality.
func Equal(a, b Gen) bool {
	if isExact(a) && isExact(b) {
		return bigRat(a).Cmp(bigRat(b)) == 0
	}
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeDouble, TypeFloat:
		return a.fval == b.fval
	case TypeIdnt, TypeString:
		return a.name == b.name
	case TypeVect, TypeCplx, TypeSymb:
		if a.name != b.name || len(a.args) != len(b.args) {
			return false
		}
		for i := range a.args {
			if !Equal(a.args[i], b.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ToInt narrows g to a machine integer. Integral floats are accepted; any
// other value, or an integer outside the int32 range, is a conversion error.
func ToInt(g Gen) (int32, error) {
	switch g.typ {
	case TypeInt:
		return int32(g.ival), nil
	case TypeDouble, TypeFloat:
		if g.fval == math.Trunc(g.fval) && g.fval >= math.MinInt32 && g.fval <= math.MaxInt32 {
			return int32(g.fval), nil
		}
	}
	return 0, errorf("Unable to convert %s to int", g)
}

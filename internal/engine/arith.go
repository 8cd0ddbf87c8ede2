package engine

import (
	"math"
	"math/big"
)

// maxPowerBits bounds the size of exact powers so that a typo such as
// 10^10^10 fails fast instead of exhausting memory.
const maxPowerBits = 1 << 26

// Add returns a+b.
func Add(a, b Gen) (Gen, error) {
	switch {
	case a.typ == TypeString || b.typ == TypeString:
		return Gen{}, errBadArgType
	case a.typ == TypeVect || b.typ == TypeVect:
		return vectZip(a, b, Add)
	case isNumber(a) && isNumber(b):
		return numAdd(a, b), nil
	}
	return symAdd(a, b)
}

// Sub returns a-b.
func Sub(a, b Gen) (Gen, error) {
	nb, err := Neg(b)
	if err != nil {
		return Gen{}, err
	}
	return Add(a, nb)
}

// Neg returns -g.
func Neg(g Gen) (Gen, error) {
	switch g.typ {
	case TypeInt:
		return Int(-g.ival), nil
	case TypeZint:
		return Zint(new(big.Int).Neg(g.zval)), nil
	case TypeFrac:
		return Rat(new(big.Rat).Neg(g.qval)), nil
	case TypeDouble:
		return Double(-g.fval), nil
	case TypeFloat:
		return Float(float32(-g.fval)), nil
	case TypeCplx:
		re, _ := Neg(g.args[0])
		im, _ := Neg(g.args[1])
		return Complex(re, im), nil
	case TypeVect:
		return vectMap(g, Neg)
	case TypeString:
		return Gen{}, errBadArgType
	case TypeSymb:
		if g.name == "+" {
			sum := Int(0)
			for _, t := range g.args {
				nt, err := Neg(t)
				if err != nil {
					return Gen{}, err
				}
				if sum, err = Add(sum, nt); err != nil {
					return Gen{}, err
				}
			}
			return sum, nil
		}
	}
	return Mul(Int(-1), g)
}

// Mul returns a*b. Vectors multiply as matrices where the shapes allow it;
// two plain vectors give their dot product.
func Mul(a, b Gen) (Gen, error) {
	switch {
	case a.typ == TypeString || b.typ == TypeString:
		return Gen{}, errBadArgType
	case a.typ == TypeVect && b.typ == TypeVect:
		return vectMul(a, b)
	case a.typ == TypeVect:
		return vectMap(a, func(x Gen) (Gen, error) { return Mul(x, b) })
	case b.typ == TypeVect:
		return vectMap(b, func(x Gen) (Gen, error) { return Mul(a, x) })
	case isNumber(a) && isNumber(b):
		return numMul(a, b), nil
	}
	return symMul(a, b)
}

// Div returns a/b.
func Div(a, b Gen) (Gen, error) {
	switch {
	case a.typ == TypeString || b.typ == TypeString:
		return Gen{}, errBadArgType
	case b.typ == TypeVect:
		return Gen{}, errBadArgType
	case a.typ == TypeVect:
		return vectMap(a, func(x Gen) (Gen, error) { return Div(x, b) })
	case isNumber(b):
		inv, err := numInv(b)
		if err != nil {
			return Gen{}, err
		}
		return Mul(a, inv)
	}
	inv, err := Pow(b, Int(-1))
	if err != nil {
		return Gen{}, err
	}
	return Mul(a, inv)
}

// Pow returns a^b.
func Pow(a, b Gen) (Gen, error) {
	switch {
	case a.typ == TypeString || b.typ == TypeString:
		return Gen{}, errBadArgType
	case a.typ == TypeVect || b.typ == TypeVect:
		return Gen{}, errBadArgType
	case isExact(a) && IsInteger(b):
		return exactPow(a, b)
	case isReal(a) && isReal(b) && (!isExact(a) || !isExact(b)):
		return floatResult(a, b, math.Pow(float(a), float(b))), nil
	case isExact(a) && b.typ == TypeFrac:
		if r, ok := exactRoot(a, b); ok {
			return r, nil
		}
		return Symbolic("^", a, b), nil
	case a.typ == TypeCplx && IsInteger(b):
		return cplxPow(a, b)
	}
	return symPow(a, b)
}

func floatResult(a, b Gen, f float64) Gen {
	if a.typ == TypeDouble || b.typ == TypeDouble || (a.typ != TypeFloat && b.typ != TypeFloat) {
		return Double(f)
	}
	return Float(float32(f))
}

func numAdd(a, b Gen) Gen {
	if a.typ == TypeCplx || b.typ == TypeCplx {
		ar, ai := cplxParts(a)
		br, bi := cplxParts(b)
		return Complex(numAdd(ar, br), numAdd(ai, bi))
	}
	if a.typ == TypeInt && b.typ == TypeInt {
		return Int(a.ival + b.ival)
	}
	if isExact(a) && isExact(b) {
		return Rat(new(big.Rat).Add(bigRat(a), bigRat(b)))
	}
	return floatResult(a, b, float(a)+float(b))
}

func numMul(a, b Gen) Gen {
	if a.typ == TypeCplx || b.typ == TypeCplx {
		ar, ai := cplxParts(a)
		br, bi := cplxParts(b)
		nai, _ := Neg(numMul(ai, bi))
		re := numAdd(numMul(ar, br), nai)
		im := numAdd(numMul(ar, bi), numMul(ai, br))
		return Complex(re, im)
	}
	if a.typ == TypeInt && b.typ == TypeInt {
		return Int(a.ival * b.ival)
	}
	if isExact(a) && isExact(b) {
		return Rat(new(big.Rat).Mul(bigRat(a), bigRat(b)))
	}
	return floatResult(a, b, float(a)*float(b))
}

func numInv(g Gen) (Gen, error) {
	switch {
	case g.typ == TypeCplx:
		re, im := g.args[0], g.args[1]
		den := numAdd(numMul(re, re), numMul(im, im))
		if isExactZero(den) {
			return Gen{}, errDivByZero
		}
		dinv, err := numInv(den)
		if err != nil {
			return Gen{}, err
		}
		nim, _ := Neg(im)
		return Complex(numMul(re, dinv), numMul(nim, dinv)), nil
	case isExact(g):
		if sign(g) == 0 {
			return Gen{}, errDivByZero
		}
		return Rat(new(big.Rat).Inv(bigRat(g))), nil
	default:
		if g.fval == 0 {
			return Gen{}, errDivByZero
		}
		return floatResult(g, g, 1/g.fval), nil
	}
}

func cplxParts(g Gen) (Gen, Gen) {
	if g.typ == TypeCplx {
		return g.args[0], g.args[1]
	}
	return g, Int(0)
}

func exactPow(a, b Gen) (Gen, error) {
	e := bigInt(b)
	if e.Sign() < 0 {
		if sign(a) == 0 {
			return Gen{}, errDivByZero
		}
		p, err := exactPow(a, Zint(new(big.Int).Neg(e)))
		if err != nil {
			return Gen{}, err
		}
		return numInv(p)
	}
	r := bigRat(a)
	if r.Sign() == 0 || r.Num().CmpAbs(big.NewInt(1)) == 0 && r.IsInt() {
		if r.Sign() < 0 && e.Bit(0) == 0 {
			return Int(1), nil
		}
		if e.Sign() == 0 {
			return Int(1), nil
		}
		return a, nil
	}
	bits := int64(r.Num().BitLen() + r.Denom().BitLen())
	if !e.IsInt64() || e.Int64() > maxPowerBits || e.Int64()*bits > maxPowerBits {
		return Gen{}, errorf("Exponent too large")
	}
	num := new(big.Int).Exp(r.Num(), e, nil)
	den := new(big.Int).Exp(r.Denom(), e, nil)
	return Rat(new(big.Rat).SetFrac(num, den)), nil
}

// exactRoot evaluates a^(p/q) when a is a perfect q-th power.
func exactRoot(a, b Gen) (Gen, bool) {
	if sign(a) < 0 {
		return Gen{}, false
	}
	q := b.qval.Denom()
	if !q.IsInt64() || q.Int64() > 64 {
		return Gen{}, false
	}
	n := int(q.Int64())
	r := bigRat(a)
	num, ok1 := intRoot(r.Num(), n)
	den, ok2 := intRoot(r.Denom(), n)
	if !ok1 || !ok2 {
		return Gen{}, false
	}
	root := Rat(new(big.Rat).SetFrac(num, den))
	g, err := exactPow(root, Zint(b.qval.Num()))
	if err != nil {
		return Gen{}, false
	}
	return g, true
}

// intRoot returns the exact n-th root of a non-negative x.
func intRoot(x *big.Int, n int) (*big.Int, bool) {
	if x.Sign() == 0 || n == 1 {
		return new(big.Int).Set(x), true
	}
	if n == 2 {
		r := new(big.Int).Sqrt(x)
		return r, new(big.Int).Mul(r, r).Cmp(x) == 0
	}
	// Newton iteration on integers.
	nn := big.NewInt(int64(n))
	n1 := big.NewInt(int64(n - 1))
	r := new(big.Int).Lsh(big.NewInt(1), uint(x.BitLen()/n+1))
	for {
		// r' = ((n-1)*r + x / r^(n-1)) / n
		t := new(big.Int).Exp(r, n1, nil)
		t.Quo(x, t)
		t.Add(t, new(big.Int).Mul(n1, r))
		t.Quo(t, nn)
		if t.Cmp(r) >= 0 {
			break
		}
		r = t
	}
	return r, new(big.Int).Exp(r, nn, nil).Cmp(x) == 0
}

func cplxPow(a, b Gen) (Gen, error) {
	e := bigInt(b)
	if !e.IsInt64() || e.Int64() > 1<<16 || e.Int64() < -(1<<16) {
		return Gen{}, errorf("Exponent too large")
	}
	n := e.Int64()
	base := a
	if n < 0 {
		inv, err := numInv(a)
		if err != nil {
			return Gen{}, err
		}
		base, n = inv, -n
	}
	result := Int(1)
	for n > 0 {
		if n&1 == 1 {
			result = numMul(result, base)
		}
		base = numMul(base, base)
		n >>= 1
	}
	return result, nil
}

func vectMap(v Gen, f func(Gen) (Gen, error)) (Gen, error) {
	out := make([]Gen, len(v.args))
	for i, x := range v.args {
		y, err := f(x)
		if err != nil {
			return Gen{}, err
		}
		out[i] = y
	}
	return Gen{typ: TypeVect, args: out}, nil
}

func vectZip(a, b Gen, f func(Gen, Gen) (Gen, error)) (Gen, error) {
	if a.typ != TypeVect || b.typ != TypeVect {
		return Gen{}, errBadArgType
	}
	if len(a.args) != len(b.args) {
		return Gen{}, errDimension
	}
	out := make([]Gen, len(a.args))
	for i := range a.args {
		y, err := f(a.args[i], b.args[i])
		if err != nil {
			return Gen{}, err
		}
		out[i] = y
	}
	return Gen{typ: TypeVect, args: out}, nil
}

func vectMul(a, b Gen) (Gen, error) {
	switch {
	case isMatrix(a) && isMatrix(b):
		n, m, p := len(a.args), len(a.args[0].args), len(b.args[0].args)
		if len(b.args) != m {
			return Gen{}, errDimension
		}
		rows := make([]Gen, n)
		for i := 0; i < n; i++ {
			row := make([]Gen, p)
			for j := 0; j < p; j++ {
				col := make([]Gen, m)
				for k := 0; k < m; k++ {
					col[k] = b.args[k].args[j]
				}
				s, err := dot(a.args[i].args, col)
				if err != nil {
					return Gen{}, err
				}
				row[j] = s
			}
			rows[i] = Gen{typ: TypeVect, args: row}
		}
		return Gen{typ: TypeVect, args: rows}, nil
	case isMatrix(a):
		return vectMap(a, func(row Gen) (Gen, error) {
			if len(row.args) != len(b.args) {
				return Gen{}, errDimension
			}
			return dot(row.args, b.args)
		})
	default:
		if len(a.args) != len(b.args) {
			return Gen{}, errDimension
		}
		return dot(a.args, b.args)
	}
}

func dot(x, y []Gen) (Gen, error) {
	sum := Int(0)
	for i := range x {
		p, err := Mul(x[i], y[i])
		if err != nil {
			return Gen{}, err
		}
		if sum, err = Add(sum, p); err != nil {
			return Gen{}, err
		}
	}
	return sum, nil
}

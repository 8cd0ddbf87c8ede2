package engine

import (
	"math"
	"math/big"
)

var bigOne = big.NewInt(1)

// Gcd returns the greatest common divisor of two integers, two rationals
// (gcd of numerators over lcm of denominators) or two polynomials.
func Gcd(ctx *Context, a, b Gen) (Gen, error) {
	switch {
	case IsInteger(a) && IsInteger(b):
		return Zint(new(big.Int).GCD(nil, nil, absInt(bigInt(a)), absInt(bigInt(b)))), nil
	case isExact(a) && isExact(b):
		ra, rb := bigRat(a), bigRat(b)
		num := new(big.Int).GCD(nil, nil, absInt(ra.Num()), absInt(rb.Num()))
		den := lcmInt(ra.Denom(), rb.Denom())
		return Rat(new(big.Rat).SetFrac(num, den)), nil
	case a.typ == TypeString || b.typ == TypeString || a.typ == TypeVect || b.typ == TypeVect:
		return Gen{}, errBadArgType
	}
	return polyGcd(ctx, a, b)
}

// Lcm returns the least common multiple, always non-negative for numbers.
func Lcm(a, b Gen) (Gen, error) {
	switch {
	case IsInteger(a) && IsInteger(b):
		return Zint(lcmInt(bigInt(a), bigInt(b))), nil
	case isExact(a) && isExact(b):
		ra, rb := bigRat(a), bigRat(b)
		num := lcmInt(ra.Num(), rb.Num())
		den := new(big.Int).GCD(nil, nil, ra.Denom(), rb.Denom())
		return Rat(new(big.Rat).SetFrac(num, den)), nil
	case a.typ == TypeString || b.typ == TypeString || a.typ == TypeVect || b.typ == TypeVect:
		return Gen{}, errBadArgType
	}
	g, err := polyGcd(nil, a, b)
	if err != nil {
		return Gen{}, err
	}
	p, err := Mul(a, b)
	if err != nil {
		return Gen{}, err
	}
	q, err := Div(p, g)
	if err != nil {
		return Gen{}, err
	}
	return Simplify(nil, q)
}

func absInt(z *big.Int) *big.Int { return z.Abs(z) }

func lcmInt(a, b *big.Int) *big.Int {
	if a.Sign() == 0 || b.Sign() == 0 {
		return new(big.Int)
	}
	g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(a), new(big.Int).Abs(b))
	l := new(big.Int).Quo(new(big.Int).Abs(a), g)
	return l.Mul(l, new(big.Int).Abs(b))
}

// IQuoRem returns the Euclidean quotient and remainder: a = b*q + r with
// 0 <= r < |b|.
func IQuoRem(a, b Gen) (Gen, Gen, error) {
	if err := expectInteger("iquorem", a, b); err != nil {
		return Gen{}, Gen{}, err
	}
	bb := bigInt(b)
	if bb.Sign() == 0 {
		return Gen{}, Gen{}, errDivByZero
	}
	q, r := new(big.Int).DivMod(bigInt(a), bb, new(big.Int))
	return Zint(q), Zint(r), nil
}

// IQuo returns the Euclidean quotient of a by b.
func IQuo(a, b Gen) (Gen, error) {
	q, _, err := IQuoRem(a, b)
	return q, err
}

// IRem returns the Euclidean remainder of a by b.
func IRem(a, b Gen) (Gen, error) {
	_, r, err := IQuoRem(a, b)
	return r, err
}

// Even reports whether the integer g is even.
func Even(g Gen) (bool, error) {
	if err := expectInteger("even", g); err != nil {
		return false, err
	}
	return bigInt(g).Bit(0) == 0, nil
}

// Odd reports whether the integer g is odd.
func Odd(g Gen) (bool, error) {
	e, err := Even(g)
	return !e, err
}

// IEgcd returns u, v, d with u*a + v*b = d = gcd(a, b) and d >= 0.
func IEgcd(a, b Gen) (Gen, Gen, Gen, error) {
	if err := expectInteger("iegcd", a, b); err != nil {
		return Gen{}, Gen{}, Gen{}, err
	}
	u, v, d := egcd(bigInt(a), bigInt(b))
	return Zint(u), Zint(v), Zint(d), nil
}

// egcd is the iterative extended Euclidean algorithm on signed inputs.
func egcd(a, b *big.Int) (u, v, d *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)
	q := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)
		oldR, r = r, new(big.Int).Sub(oldR, new(big.Int).Mul(q, r))
		oldS, s = s, new(big.Int).Sub(oldS, new(big.Int).Mul(q, s))
		oldT, t = t, new(big.Int).Sub(oldT, new(big.Int).Mul(q, t))
	}
	if oldR.Sign() < 0 {
		oldR.Neg(oldR)
		oldS.Neg(oldS)
		oldT.Neg(oldT)
	}
	return oldS, oldT, oldR
}

// IAbcuv solves u*a + v*b = c. It fails unless gcd(a, b) divides c.
func IAbcuv(a, b, c Gen) (Gen, Gen, error) {
	if err := expectInteger("iabcuv", a, b, c); err != nil {
		return Gen{}, Gen{}, err
	}
	u, v, d := egcd(bigInt(a), bigInt(b))
	cc := bigInt(c)
	if d.Sign() == 0 {
		if cc.Sign() == 0 {
			return Int(0), Int(0), nil
		}
		return Gen{}, Gen{}, errorf("iabcuv: no solution in ring")
	}
	k, rem := new(big.Int).QuoRem(cc, d, new(big.Int))
	if rem.Sign() != 0 {
		return Gen{}, Gen{}, errorf("iabcuv: no solution in ring")
	}
	return Zint(u.Mul(u, k)), Zint(v.Mul(v, k)), nil
}

// IChinRem returns c with c = a mod amod and c = b mod bmod, reduced to the
// symmetric range modulo lcm(amod, bmod). Moduli need not be coprime; the
// system must be consistent.
func IChinRem(a, amod, b, bmod Gen) (Gen, error) {
	if err := expectInteger("ichinrem", a, amod, b, bmod); err != nil {
		return Gen{}, err
	}
	m1, m2 := absInt(bigInt(amod)), absInt(bigInt(bmod))
	if m1.Sign() == 0 || m2.Sign() == 0 {
		return Gen{}, errBadArgValue
	}
	r1, r2 := bigInt(a), bigInt(b)
	g := new(big.Int).GCD(nil, nil, m1, m2)
	diff := new(big.Int).Sub(r2, r1)
	if new(big.Int).Mod(diff, g).Sign() != 0 {
		return Gen{}, errorf("ichinrem: no solution")
	}
	m2g := new(big.Int).Quo(m2, g)
	k := new(big.Int).Quo(diff, g)
	if m2g.Cmp(bigOne) != 0 {
		inv := new(big.Int).ModInverse(new(big.Int).Quo(m1, g), m2g)
		k.Mul(k, inv).Mod(k, m2g)
	} else {
		k.SetInt64(0)
	}
	m := new(big.Int).Mul(m1, m2g)
	x := new(big.Int).Add(r1, k.Mul(k, m1))
	x.Mod(x, m)
	if new(big.Int).Lsh(x, 1).Cmp(m) > 0 {
		x.Sub(x, m)
	}
	return Zint(x), nil
}

// Pa2b2 writes a prime p = 1 mod 4 as a^2 + b^2 with a > b > 0.
func Pa2b2(ctx *Context, p Gen) (Gen, Gen, error) {
	if err := expectInteger("pa2b2", p); err != nil {
		return Gen{}, Gen{}, err
	}
	n := bigInt(p)
	if n.Sign() <= 0 || new(big.Int).Mod(n, big.NewInt(4)).Int64() != 1 {
		return Gen{}, Gen{}, errorf("pa2b2: argument must be a prime congruent to 1 mod 4")
	}
	if !n.ProbablyPrime(20) {
		return Gen{}, Gen{}, errorf("pa2b2: argument must be a prime congruent to 1 mod 4")
	}
	// Find x with x^2 = -1 mod n from a quadratic non-residue c.
	nm1 := new(big.Int).Sub(n, bigOne)
	half := new(big.Int).Rsh(nm1, 1)
	quarter := new(big.Int).Rsh(nm1, 2)
	var x *big.Int
	for c := int64(2); ; c++ {
		cc := big.NewInt(c)
		if new(big.Int).Exp(cc, half, n).Cmp(nm1) == 0 {
			x = new(big.Int).Exp(cc, quarter, n)
			break
		}
	}
	ctx.debug().Str("p", n.String()).Str("sqrt_minus_one", x.String()).Msg("pa2b2")
	a, b := new(big.Int).Set(n), x
	for new(big.Int).Mul(b, b).Cmp(n) > 0 {
		a, b = b, new(big.Int).Mod(a, b)
	}
	rest := new(big.Int).Sub(n, new(big.Int).Mul(b, b))
	s := new(big.Int).Sqrt(rest)
	if b.Cmp(s) < 0 {
		b, s = s, b
	}
	return Zint(b), Zint(s), nil
}

// Legendre returns the Legendre symbol (a/n) for odd n > 0.
func Legendre(a, n Gen) (int8, error) {
	if err := expectInteger("legendre_symbol", a, n); err != nil {
		return 0, err
	}
	nn := bigInt(n)
	if nn.Sign() <= 0 || nn.Bit(0) == 0 {
		return 0, errorf("legendre_symbol: odd positive modulus expected")
	}
	return int8(big.Jacobi(bigInt(a), nn)), nil
}

// Jacobi returns the Kronecker symbol (a/n), which extends the Jacobi symbol
// to every integer n.
func Jacobi(a, n Gen) (int8, error) {
	if err := expectInteger("jacobi_symbol", a, n); err != nil {
		return 0, err
	}
	return kronecker(bigInt(a), bigInt(n)), nil
}

func kronecker(a, n *big.Int) int8 {
	if n.Sign() == 0 {
		if new(big.Int).Abs(a).Cmp(bigOne) == 0 {
			return 1
		}
		return 0
	}
	result := int8(1)
	if n.Sign() < 0 {
		n = new(big.Int).Neg(n)
		if a.Sign() < 0 {
			result = -result
		}
	}
	tz := n.TrailingZeroBits()
	if tz > 0 {
		if a.Bit(0) == 0 {
			return 0
		}
		if tz%2 == 1 {
			if m := new(big.Int).Mod(a, big.NewInt(8)).Int64(); m == 3 || m == 5 {
				result = -result
			}
		}
		n = new(big.Int).Rsh(n, tz)
	}
	if n.Cmp(bigOne) == 0 {
		return result
	}
	return result * int8(big.Jacobi(a, n))
}

// Comb returns the binomial coefficient C(n, k), 0 when k is out of range.
func Comb(n, k Gen) (Gen, error) {
	nn, kk, err := combArgs("comb", n, k)
	if err != nil {
		return Gen{}, err
	}
	if kk < 0 || kk > nn {
		return Int(0), nil
	}
	return Zint(new(big.Int).Binomial(nn, kk)), nil
}

// Perm returns the number of k-arrangements of n, n!/(n-k)!.
func Perm(n, k Gen) (Gen, error) {
	nn, kk, err := combArgs("perm", n, k)
	if err != nil {
		return Gen{}, err
	}
	if kk < 0 || kk > nn {
		return Int(0), nil
	}
	if kk == 0 {
		return Int(1), nil
	}
	return Zint(new(big.Int).MulRange(nn-kk+1, nn)), nil
}

func combArgs(op string, n, k Gen) (int64, int64, error) {
	if err := expectInteger(op, n, k); err != nil {
		return 0, 0, err
	}
	nb, kb := bigInt(n), bigInt(k)
	if !nb.IsInt64() || !kb.IsInt64() {
		return 0, 0, errorf("%s: argument too large", op)
	}
	if nb.Sign() < 0 {
		return 0, 0, errorf("%s: non-negative integer expected", op)
	}
	return nb.Int64(), kb.Int64(), nil
}

// Rand returns a uniform integer in [0, n) drawn from the context's source.
func Rand(ctx *Context, n Gen) (Gen, error) {
	if err := expectInteger("rand", n); err != nil {
		return Gen{}, err
	}
	nb := bigInt(n)
	if nb.Sign() <= 0 {
		return Gen{}, errorf("rand: positive integer expected")
	}
	return Zint(ctx.randBelow(nb)), nil
}

// Float2Rational returns the simplest rational within the context epsilon
// of a floating point value. Exact values are returned unchanged and
// containers are converted item by item.
func Float2Rational(ctx *Context, x Gen) (Gen, error) {
	switch x.typ {
	case TypeInt, TypeZint, TypeFrac:
		return x, nil
	case TypeDouble, TypeFloat:
		return continuedFraction(x.fval, ctx.Epsilon())
	case TypeCplx:
		re, err := Float2Rational(ctx, x.args[0])
		if err != nil {
			return Gen{}, err
		}
		im, err := Float2Rational(ctx, x.args[1])
		if err != nil {
			return Gen{}, err
		}
		return Complex(re, im), nil
	case TypeVect:
		return vectMap(x, func(g Gen) (Gen, error) { return Float2Rational(ctx, g) })
	}
	return Gen{}, errBadArgType
}

// storedMantissaBits is the double precision kept by the reference algebra
// system, whose value cells reuse the low mantissa bits for the type tag.
const storedMantissaBits = 47

// storedDouble clears the mantissa bits a stored double does not keep.
func storedDouble(f float64) float64 {
	const drop = 52 - storedMantissaBits
	return math.Float64frombits(math.Float64bits(f) &^ (1<<drop - 1))
}

// continuedFraction expands the stored form of f until the convergent is
// within eps*max(1, |f|) of it.
func continuedFraction(f, eps float64) (Gen, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Gen{}, errorf("float2rational: finite value expected")
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	f = storedDouble(f)
	tol := eps * math.Max(1, math.Abs(f))
	x := f
	a := math.Floor(x)
	h, _ := big.NewFloat(a).Int(nil)
	k := big.NewInt(1)
	hPrev, kPrev := big.NewInt(1), big.NewInt(0)
	for i := 0; i < 64; i++ {
		r := new(big.Rat).SetFrac(h, k)
		approx, _ := r.Float64()
		if math.Abs(approx-f) < tol || x == a {
			return Rat(r), nil
		}
		x = 1 / (x - a)
		a = math.Floor(x)
		ai, _ := big.NewFloat(a).Int(nil)
		h, hPrev = new(big.Int).Add(new(big.Int).Mul(ai, h), hPrev), h
		k, kPrev = new(big.Int).Add(new(big.Int).Mul(ai, k), kPrev), k
	}
	return Rat(new(big.Rat).SetFrac(h, k)), nil
}

// IsZero reports whether g is zero. Floating point values compare against
// the context epsilon; symbolic values are simplified first.
func IsZero(ctx *Context, g Gen) (bool, error) {
	switch g.typ {
	case TypeInt, TypeZint:
		return isExactZero(g), nil
	case TypeFrac, TypeIdnt, TypeString:
		return false, nil
	case TypeDouble, TypeFloat:
		return math.Abs(g.fval) < ctx.Epsilon(), nil
	case TypeCplx, TypeVect:
		for _, a := range g.args {
			z, err := IsZero(ctx, a)
			if err != nil || !z {
				return false, err
			}
		}
		return true, nil
	case TypeSymb:
		s, err := Simplify(ctx, g)
		if err != nil {
			return false, err
		}
		if s.typ == TypeSymb {
			return false, nil
		}
		return IsZero(ctx, s)
	}
	return false, nil
}

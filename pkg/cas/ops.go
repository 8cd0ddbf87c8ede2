package cas

import (
	"runtime"

	"github.com/agbru/casbridge/internal/boundary"
)

// PrimeStatus is the three-valued result of IsPseudoprime.
type PrimeStatus int8

const (
	NotPrime      PrimeStatus = 0
	ProbablePrime PrimeStatus = 1
	Prime         PrimeStatus = 2
)

func (s PrimeStatus) String() string {
	switch s {
	case NotPrime:
		return "not prime"
	case ProbablePrime:
		return "probable prime"
	case Prime:
		return "prime"
	}
	return "unknown"
}

type handles = []boundary.GenHandle

// call resolves the operands, allocates nout result slots and runs fn. On
// failure the slots are released. The context and operands are kept
// reachable until fn returns so their finalizers cannot free the handles
// mid-call.
func (c *Context) call(op string, in []*Value, nout int,
	fn func(ctx boundary.ContextHandle, in, out handles) error) ([]*Value, error) {
	ch, err := c.handle()
	if err != nil {
		return nil, err
	}
	ih := make(handles, len(in))
	for i, v := range in {
		if ih[i], err = v.handle(); err != nil {
			return nil, err
		}
	}
	oh := make(handles, nout)
	for i := range oh {
		oh[i] = boundary.Allocate()
	}
	err = fn(ch, ih, oh)
	runtime.KeepAlive(c)
	runtime.KeepAlive(in)
	if err != nil {
		for _, h := range oh {
			boundary.Free(h)
		}
		return nil, wrap(op, err)
	}
	out := make([]*Value, nout)
	for i, h := range oh {
		out[i] = newValue(h)
	}
	return out, nil
}

func (c *Context) unary(op string, v *Value, fn func(v, res boundary.GenHandle, ctx boundary.ContextHandle) error) (*Value, error) {
	out, err := c.call(op, []*Value{v}, 1, func(ctx boundary.ContextHandle, in, out handles) error {
		return fn(in[0], out[0], ctx)
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (c *Context) binary(op string, a, b *Value, fn func(a, b, res boundary.GenHandle, ctx boundary.ContextHandle) error) (*Value, error) {
	out, err := c.call(op, []*Value{a, b}, 1, func(ctx boundary.ContextHandle, in, out handles) error {
		return fn(in[0], in[1], out[0], ctx)
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func noCtx(fn func(a, b, res boundary.GenHandle) error) func(a, b, res boundary.GenHandle, _ boundary.ContextHandle) error {
	return func(a, b, res boundary.GenHandle, _ boundary.ContextHandle) error { return fn(a, b, res) }
}

func noCtxUnary(fn func(a, res boundary.GenHandle) error) func(a, res boundary.GenHandle, _ boundary.ContextHandle) error {
	return func(a, res boundary.GenHandle, _ boundary.ContextHandle) error { return fn(a, res) }
}

// Gcd returns the greatest common divisor of integers, rationals or
// univariate polynomials.
func (c *Context) Gcd(a, b *Value) (*Value, error) { return c.binary("Gcd", a, b, boundary.Gcd) }

// Lcm returns the least common multiple.
func (c *Context) Lcm(a, b *Value) (*Value, error) { return c.binary("Lcm", a, b, noCtx(boundary.Lcm)) }

// IQuo returns the Euclidean quotient of a by b.
func (c *Context) IQuo(a, b *Value) (*Value, error) {
	return c.binary("IQuo", a, b, noCtx(boundary.IQuo))
}

// IRem returns the Euclidean remainder of a by b.
func (c *Context) IRem(a, b *Value) (*Value, error) {
	return c.binary("IRem", a, b, noCtx(boundary.IRem))
}

// IQuoRem returns q and r with a = b*q + r and 0 <= r < |b|.
func (c *Context) IQuoRem(a, b *Value) (q, r *Value, err error) {
	out, err := c.call("IQuoRem", []*Value{a, b}, 2, func(_ boundary.ContextHandle, in, out handles) error {
		return boundary.IQuoRem(in[0], in[1], out[0], out[1])
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// IEgcd returns u, v and d = gcd(a, b) with u*a + v*b = d.
func (c *Context) IEgcd(a, b *Value) (u, v, d *Value, err error) {
	out, err := c.call("IEgcd", []*Value{a, b}, 3, func(_ boundary.ContextHandle, in, out handles) error {
		return boundary.IEgcd(in[0], in[1], out[0], out[1], out[2])
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return out[0], out[1], out[2], nil
}

// IAbcuv returns u and v with u*a + v*b = c.
func (c *Context) IAbcuv(a, b, rhs *Value) (u, v *Value, err error) {
	out, err := c.call("IAbcuv", []*Value{a, b, rhs}, 2, func(ctx boundary.ContextHandle, in, out handles) error {
		return boundary.IAbcuv(in[0], in[1], in[2], out[0], out[1], ctx)
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// IChinRem solves x = a mod amod, x = b mod bmod. It returns the symmetric
// residue x together with the combined modulus lcm(amod, bmod).
func (c *Context) IChinRem(a, amod, b, bmod *Value) (x, mod *Value, err error) {
	out, err := c.call("IChinRem", []*Value{a, amod, b, bmod}, 2, func(_ boundary.ContextHandle, in, out handles) error {
		if err := boundary.IChinRem(in[0], in[1], in[2], in[3], out[0]); err != nil {
			return err
		}
		return boundary.Lcm(in[1], in[3], out[1])
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// Pa2b2 writes the prime p = 1 mod 4 as a^2 + b^2.
func (c *Context) Pa2b2(p *Value) (a, b *Value, err error) {
	out, err := c.call("Pa2b2", []*Value{p}, 2, func(ctx boundary.ContextHandle, in, out handles) error {
		return boundary.Pa2b2(in[0], out[0], out[1], ctx)
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// Euler returns Euler's totient of n.
func (c *Context) Euler(n *Value) (*Value, error) { return c.unary("Euler", n, boundary.Euler) }

// Even reports whether n is even.
func (c *Context) Even(n *Value) (bool, error) {
	return c.boolean("Even", n, boundary.Even)
}

// Odd reports whether n is odd.
func (c *Context) Odd(n *Value) (bool, error) {
	return c.boolean("Odd", n, boundary.Odd)
}

func (c *Context) boolean(op string, n *Value, fn func(boundary.GenHandle, *bool, boundary.ContextHandle) error) (bool, error) {
	var b bool
	_, err := c.call(op, []*Value{n}, 0, func(ctx boundary.ContextHandle, in, _ handles) error {
		return fn(in[0], &b, ctx)
	})
	return b, err
}

// IsPseudoprime classifies n as not prime, probable prime or proven prime.
func (c *Context) IsPseudoprime(n *Value) (PrimeStatus, error) {
	var s int8
	_, err := c.call("IsPseudoprime", []*Value{n}, 0, func(_ boundary.ContextHandle, in, _ handles) error {
		return boundary.IsPseudoprime(in[0], &s)
	})
	return PrimeStatus(s), err
}

// Legendre returns the Legendre symbol (a/n): -1, 0 or 1.
func (c *Context) Legendre(a, n *Value) (int8, error) {
	return c.symbol("Legendre", a, n, boundary.Legendre)
}

// Jacobi returns the Jacobi symbol (a/n): -1, 0 or 1.
func (c *Context) Jacobi(a, n *Value) (int8, error) {
	return c.symbol("Jacobi", a, n, boundary.Jacobi)
}

func (c *Context) symbol(op string, a, n *Value, fn func(a, n boundary.GenHandle, out *int8) error) (int8, error) {
	var s int8
	_, err := c.call(op, []*Value{a, n}, 0, func(_ boundary.ContextHandle, in, _ handles) error {
		return fn(in[0], in[1], &s)
	})
	return s, err
}

// NextPrime returns the smallest prime greater than n.
func (c *Context) NextPrime(n *Value) (*Value, error) {
	return c.unary("NextPrime", n, noCtxUnary(boundary.NextPrime))
}

// PrevPrime returns the largest prime smaller than n.
func (c *Context) PrevPrime(n *Value) (*Value, error) {
	return c.unary("PrevPrime", n, noCtxUnary(boundary.PrevPrime))
}

// NthPrime returns the n-th prime. Oversized indices fail with an error
// matching ErrArgumentTooLarge.
func (c *Context) NthPrime(n *Value) (*Value, error) {
	return c.unary("NthPrime", n, boundary.NthPrime)
}

// IFactor returns the prime factorisation of n as a product.
func (c *Context) IFactor(n *Value) (*Value, error) { return c.unary("IFactor", n, boundary.IFactor) }

// IFactors returns the factorisation of n as [p1,e1,p2,e2,...].
func (c *Context) IFactors(n *Value) (*Value, error) {
	return c.unary("IFactors", n, boundary.IFactors)
}

// MapleIFactors returns the factorisation of n as [sign,[[p1,e1],...]].
func (c *Context) MapleIFactors(n *Value) (*Value, error) {
	return c.unary("MapleIFactors", n, boundary.MapleIFactors)
}

// Divisors returns the positive divisors of n.
func (c *Context) Divisors(n *Value) (*Value, error) {
	return c.unary("Divisors", n, boundary.Divisors)
}

// Comb returns the binomial coefficient C(n, k).
func (c *Context) Comb(n, k *Value) (*Value, error) { return c.binary("Comb", n, k, boundary.Comb) }

// Perm returns the number of k-permutations of n.
func (c *Context) Perm(n, k *Value) (*Value, error) { return c.binary("Perm", n, k, boundary.Perm) }

// Rand returns a uniform integer in [0, n).
func (c *Context) Rand(n *Value) (*Value, error) { return c.unary("Rand", n, boundary.Rand) }

// Float2Rational returns the rational closest to x within the context's
// epsilon.
func (c *Context) Float2Rational(x *Value) (*Value, error) {
	return c.unary("Float2Rational", x, boundary.Float2Rational)
}

// Factor factors e over the rationals.
func (c *Context) Factor(e *Value) (*Value, error) { return c.unary("Factor", e, boundary.Factor) }

// Simplify returns the canonical expanded form of e.
func (c *Context) Simplify(e *Value) (*Value, error) {
	return c.unary("Simplify", e, boundary.Simplify)
}

// Det returns the determinant of a square matrix.
func (c *Context) Det(m *Value) (*Value, error) { return c.unary("Det", m, boundary.Det) }

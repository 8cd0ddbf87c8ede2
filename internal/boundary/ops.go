package boundary

import (
	"github.com/agbru/casbridge/internal/engine"
)

// noContext marks operations that do not take a context.
const noContext ContextHandle = 0

// dispatch is the shared body of every slot-writing operation. It resolves
// the context and all handles before computing, so a bad handle never leaves
// outputs half written, then stores each result into the matching slot.
func dispatch(op string, ctx ContextHandle, in, out []GenHandle,
	fn func(c *engine.Context, args []engine.Gen) ([]engine.Gen, error)) error {
	return guard(op, func() error {
		var c *engine.Context
		if ctx != noContext {
			var err error
			if c, err = lookupContext(ctx); err != nil {
				return err
			}
		}
		args := make([]engine.Gen, len(in))
		for i, h := range in {
			g, err := loadValue(h)
			if err != nil {
				return err
			}
			args[i] = g
		}
		slots := make([]*slot, len(out))
		for i, h := range out {
			s, err := lookupValue(h)
			if err != nil {
				return err
			}
			slots[i] = s
		}
		res, err := fn(c, args)
		if err != nil {
			return err
		}
		for i, s := range slots {
			s.store(res[i])
		}
		return nil
	})
}

func single(g engine.Gen, err error) ([]engine.Gen, error) {
	if err != nil {
		return nil, err
	}
	return []engine.Gen{g}, nil
}

func pair(a, b engine.Gen, err error) ([]engine.Gen, error) {
	if err != nil {
		return nil, err
	}
	return []engine.Gen{a, b}, nil
}

func binary(fn func(a, b engine.Gen) (engine.Gen, error)) func(*engine.Context, []engine.Gen) ([]engine.Gen, error) {
	return func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
		return single(fn(g[0], g[1]))
	}
}

func unaryCtx(fn func(c *engine.Context, a engine.Gen) (engine.Gen, error)) func(*engine.Context, []engine.Gen) ([]engine.Gen, error) {
	return func(c *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
		return single(fn(c, g[0]))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Arithmetic operators (in place on the first argument)
// ─────────────────────────────────────────────────────────────────────────────

// Add replaces a with a+b.
func Add(a, b GenHandle) error {
	return dispatch("add", noContext, []GenHandle{a, b}, []GenHandle{a}, binary(engine.Add))
}

// Sub replaces a with a-b.
func Sub(a, b GenHandle) error {
	return dispatch("sub", noContext, []GenHandle{a, b}, []GenHandle{a}, binary(engine.Sub))
}

// Mul replaces a with a*b.
func Mul(a, b GenHandle) error {
	return dispatch("mul", noContext, []GenHandle{a, b}, []GenHandle{a}, binary(engine.Mul))
}

// Div replaces a with a/b.
func Div(a, b GenHandle) error {
	return dispatch("div", noContext, []GenHandle{a, b}, []GenHandle{a}, binary(engine.Div))
}

// ─────────────────────────────────────────────────────────────────────────────
// Integer arithmetic
// ─────────────────────────────────────────────────────────────────────────────

// Gcd stores gcd(a, b) in res.
func Gcd(a, b, res GenHandle, ctx ContextHandle) error {
	return dispatch("gcd", ctx, []GenHandle{a, b}, []GenHandle{res},
		func(c *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return single(engine.Gcd(c, g[0], g[1]))
		})
}

// Lcm stores lcm(a, b) in res.
func Lcm(a, b, res GenHandle) error {
	return dispatch("lcm", noContext, []GenHandle{a, b}, []GenHandle{res}, binary(engine.Lcm))
}

// IQuo stores the Euclidean quotient of a by b in res.
func IQuo(a, b, res GenHandle) error {
	return dispatch("iquo", noContext, []GenHandle{a, b}, []GenHandle{res}, binary(engine.IQuo))
}

// IRem stores the Euclidean remainder of a by b in res.
func IRem(a, b, res GenHandle) error {
	return dispatch("irem", noContext, []GenHandle{a, b}, []GenHandle{res}, binary(engine.IRem))
}

// IQuoRem stores the quotient in q and the remainder in r, with
// a = b*q + r and 0 <= r < |b|.
func IQuoRem(a, b, q, r GenHandle) error {
	return dispatch("iquorem", noContext, []GenHandle{a, b}, []GenHandle{q, r},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return pair(engine.IQuoRem(g[0], g[1]))
		})
}

// IEgcd stores Bezout coefficients u, v and d = gcd(a, b) with u*a + v*b = d.
func IEgcd(a, b, u, v, d GenHandle) error {
	return dispatch("iegcd", noContext, []GenHandle{a, b}, []GenHandle{u, v, d},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			gu, gv, gd, err := engine.IEgcd(g[0], g[1])
			if err != nil {
				return nil, err
			}
			return []engine.Gen{gu, gv, gd}, nil
		})
}

// IAbcuv solves u*a + v*b = c.
func IAbcuv(a, b, c, u, v GenHandle, ctx ContextHandle) error {
	return dispatch("iabcuv", ctx, []GenHandle{a, b, c}, []GenHandle{u, v},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return pair(engine.IAbcuv(g[0], g[1], g[2]))
		})
}

// IChinRem stores the solution of x = a mod amod, x = b mod bmod.
func IChinRem(a, amod, b, bmod, res GenHandle) error {
	return dispatch("ichinrem", noContext, []GenHandle{a, amod, b, bmod}, []GenHandle{res},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return single(engine.IChinRem(g[0], g[1], g[2], g[3]))
		})
}

// Pa2b2 decomposes the prime p = a^2 + b^2.
func Pa2b2(p, a, b GenHandle, ctx ContextHandle) error {
	return dispatch("pa2b2", ctx, []GenHandle{p}, []GenHandle{a, b},
		func(c *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return pair(engine.Pa2b2(c, g[0]))
		})
}

// Euler stores Euler's totient of n in res.
func Euler(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("euler", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.Euler))
}

// ─────────────────────────────────────────────────────────────────────────────
// Predicates
// ─────────────────────────────────────────────────────────────────────────────

func predicate(op string, in []GenHandle, ctx ContextHandle, fn func(c *engine.Context, g []engine.Gen) error) error {
	return dispatch(op, ctx, in, nil, func(c *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
		return nil, fn(c, g)
	})
}

// Even reports whether n is even.
func Even(n GenHandle, out *bool, ctx ContextHandle) error {
	return predicate("even", []GenHandle{n}, ctx, func(_ *engine.Context, g []engine.Gen) error {
		v, err := engine.Even(g[0])
		if err == nil {
			*out = v
		}
		return err
	})
}

// Odd reports whether n is odd.
func Odd(n GenHandle, out *bool, ctx ContextHandle) error {
	return predicate("odd", []GenHandle{n}, ctx, func(_ *engine.Context, g []engine.Gen) error {
		v, err := engine.Odd(g[0])
		if err == nil {
			*out = v
		}
		return err
	})
}

// IsPseudoprime stores 0 when n is composite, 1 when it is a probable prime
// and 2 when it is a proven prime.
func IsPseudoprime(n GenHandle, out *int8) error {
	return predicate("is_pseudoprime", []GenHandle{n}, noContext, func(_ *engine.Context, g []engine.Gen) error {
		v, err := engine.IsProbablePrime(g[0])
		if err == nil {
			*out = v
		}
		return err
	})
}

// Legendre stores the Legendre symbol (a/n) in out.
func Legendre(a, n GenHandle, out *int8) error {
	return predicate("legendre", []GenHandle{a, n}, noContext, func(_ *engine.Context, g []engine.Gen) error {
		v, err := engine.Legendre(g[0], g[1])
		if err == nil {
			*out = v
		}
		return err
	})
}

// Jacobi stores the Jacobi symbol (a/n) in out.
func Jacobi(a, n GenHandle, out *int8) error {
	return predicate("jacobi", []GenHandle{a, n}, noContext, func(_ *engine.Context, g []engine.Gen) error {
		v, err := engine.Jacobi(g[0], g[1])
		if err == nil {
			*out = v
		}
		return err
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Primes and factorisation
// ─────────────────────────────────────────────────────────────────────────────

// NextPrime stores the smallest prime greater than n in res.
func NextPrime(n, res GenHandle) error {
	return dispatch("nextprime", noContext, []GenHandle{n}, []GenHandle{res},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return single(engine.NextPrime(g[0]))
		})
}

// PrevPrime stores the largest prime smaller than n in res.
func PrevPrime(n, res GenHandle) error {
	return dispatch("prevprime", noContext, []GenHandle{n}, []GenHandle{res},
		func(_ *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			return single(engine.PrevPrime(g[0]))
		})
}

// NthPrime stores the n-th prime in res. Indices the engine cannot serve
// fail with NthPrimeTooBig.
func NthPrime(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("nthprime", ctx, []GenHandle{n}, []GenHandle{res},
		func(c *engine.Context, g []engine.Gen) ([]engine.Gen, error) {
			p, err := engine.IthPrime(c, g[0])
			if err != nil {
				return nil, err
			}
			if engine.IsUndef(p) {
				return nil, &Error{Msg: NthPrimeTooBig}
			}
			return []engine.Gen{p}, nil
		})
}

// IFactor stores the prime factorisation of n as a product.
func IFactor(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("ifactor", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.IFactor))
}

// IFactors stores the factorisation of n as [p1,e1,p2,e2,...].
func IFactors(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("ifactors", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.IFactors))
}

// MapleIFactors stores the factorisation of n as [sign,[[p1,e1],...]].
func MapleIFactors(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("maple_ifactors", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.MapleIFactors))
}

// Divisors stores the list of positive divisors of n.
func Divisors(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("divisors", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.IDivis))
}

// ─────────────────────────────────────────────────────────────────────────────
// Combinatorics and sampling
// ─────────────────────────────────────────────────────────────────────────────

// Comb stores the binomial coefficient C(n, k) in res.
func Comb(n, k, res GenHandle, ctx ContextHandle) error {
	return dispatch("comb", ctx, []GenHandle{n, k}, []GenHandle{res}, binary(engine.Comb))
}

// Perm stores the number of k-permutations of n in res.
func Perm(n, k, res GenHandle, ctx ContextHandle) error {
	return dispatch("perm", ctx, []GenHandle{n, k}, []GenHandle{res}, binary(engine.Perm))
}

// Rand stores a uniform integer in [0, n) drawn from the context's source.
func Rand(n, res GenHandle, ctx ContextHandle) error {
	return dispatch("rand", ctx, []GenHandle{n}, []GenHandle{res}, unaryCtx(engine.Rand))
}

// Float2Rational stores the rational approximating x within the context's
// epsilon.
func Float2Rational(x, res GenHandle, ctx ContextHandle) error {
	return dispatch("float2rational", ctx, []GenHandle{x}, []GenHandle{res}, unaryCtx(engine.Float2Rational))
}

// ─────────────────────────────────────────────────────────────────────────────
// Symbolic
// ─────────────────────────────────────────────────────────────────────────────

// Factor stores the factorisation of e over the rationals in res.
func Factor(e, res GenHandle, ctx ContextHandle) error {
	return dispatch("factor", ctx, []GenHandle{e}, []GenHandle{res}, unaryCtx(engine.Factor))
}

// Simplify stores the canonical expanded form of e in res.
func Simplify(e, res GenHandle, ctx ContextHandle) error {
	return dispatch("simplify", ctx, []GenHandle{e}, []GenHandle{res}, unaryCtx(engine.Simplify))
}

// Det stores the determinant of the square matrix m in res.
func Det(m, res GenHandle, ctx ContextHandle) error {
	return dispatch("det", ctx, []GenHandle{m}, []GenHandle{res}, unaryCtx(engine.Det))
}

//go:build cgo

// Command libcasbridge builds the C ABI of the algebra engine:
//
//	go build -buildmode=c-shared -o libcasbridge.so ./cmd/libcasbridge
//
// Values and contexts are opaque 64-bit handles. Every fallible function
// returns NULL on success or a heap-allocated error message, which the
// caller releases with casbridge_free_str. casbridge_gen_to_str returns a
// string the caller releases the same way.
package main

/*
#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>

typedef uint64_t casbridge_gen;
typedef uint64_t casbridge_context;
*/
import "C"

import (
	"unsafe"

	"github.com/agbru/casbridge/internal/boundary"
)

// result converts a boundary error into the NULL-or-message convention.
func result(err error) *C.char {
	if err == nil {
		return nil
	}
	return C.CString(err.Error())
}

func gen(h C.casbridge_gen) boundary.GenHandle         { return boundary.GenHandle(h) }
func ctx(h C.casbridge_context) boundary.ContextHandle { return boundary.ContextHandle(h) }
func cgen(h boundary.GenHandle) C.casbridge_gen        { return C.casbridge_gen(h) }

//export casbridge_free_str
func casbridge_free_str(s *C.char) {
	C.free(unsafe.Pointer(s))
}

// ─────────────────────────────────────────────────────────────────────────────
// Contexts
// ─────────────────────────────────────────────────────────────────────────────

//export casbridge_init_global_context
func casbridge_init_global_context() { boundary.InitGlobalContext() }

//export casbridge_global_context
func casbridge_global_context() C.casbridge_context {
	return C.casbridge_context(boundary.GlobalContext)
}

//export casbridge_new_context
func casbridge_new_context() C.casbridge_context {
	return C.casbridge_context(boundary.NewContext())
}

//export casbridge_free_context
func casbridge_free_context(c C.casbridge_context) { boundary.FreeContext(ctx(c)) }

//export casbridge_release_globals
func casbridge_release_globals() { boundary.ReleaseGlobals() }

//export casbridge_set_epsilon
func casbridge_set_epsilon(eps C.double, c C.casbridge_context) {
	boundary.SetEpsilon(float64(eps), ctx(c))
}

// ─────────────────────────────────────────────────────────────────────────────
// Values
// ─────────────────────────────────────────────────────────────────────────────

//export casbridge_gen_allocate
func casbridge_gen_allocate() C.casbridge_gen { return cgen(boundary.Allocate()) }

//export casbridge_gen_from_str
func casbridge_gen_from_str(s *C.char, c C.casbridge_context, res C.casbridge_gen) *C.char {
	return result(boundary.FromText(C.GoString(s), ctx(c), gen(res)))
}

//export casbridge_gen_from_int
func casbridge_gen_from_int(i C.int) C.casbridge_gen { return cgen(boundary.FromInt(int32(i))) }

//export casbridge_gen_from_float
func casbridge_gen_from_float(f C.float) C.casbridge_gen {
	return cgen(boundary.FromFloat(float32(f)))
}

//export casbridge_gen_from_double
func casbridge_gen_from_double(f C.double) C.casbridge_gen {
	return cgen(boundary.FromDouble(float64(f)))
}

//export casbridge_gen_factorial
func casbridge_gen_factorial(n C.uint64_t, res *C.casbridge_gen) *C.char {
	h, err := boundary.FromFactorial(uint64(n))
	if err == nil {
		*res = cgen(h)
	}
	return result(err)
}

//export casbridge_gen_clone
func casbridge_gen_clone(e C.casbridge_gen) C.casbridge_gen {
	h, err := boundary.Clone(gen(e))
	if err != nil {
		return 0
	}
	return cgen(h)
}

//export casbridge_free_gen
func casbridge_free_gen(e C.casbridge_gen) { boundary.Free(gen(e)) }

//export casbridge_gen_type
func casbridge_gen_type(e C.casbridge_gen) C.uint8_t { return C.uint8_t(boundary.Type(gen(e))) }

//export casbridge_gen_to_str
func casbridge_gen_to_str(e C.casbridge_gen) *C.char {
	return C.CString(boundary.ToString(gen(e)))
}

//export casbridge_gen_to_int
func casbridge_gen_to_int(e C.casbridge_gen, res *C.int) *C.char {
	var i int32
	err := boundary.ToInt(gen(e), &i)
	if err == nil {
		*res = C.int(i)
	}
	return result(err)
}

//export casbridge_gen_is_zero
func casbridge_gen_is_zero(e C.casbridge_gen, res *C.bool, c C.casbridge_context) *C.char {
	var z bool
	err := boundary.IsZero(gen(e), &z, ctx(c))
	if err == nil {
		*res = C.bool(z)
	}
	return result(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Operators, in place on the first argument
// ─────────────────────────────────────────────────────────────────────────────

//export casbridge_gen_add
func casbridge_gen_add(a, b C.casbridge_gen) *C.char { return result(boundary.Add(gen(a), gen(b))) }

//export casbridge_gen_sub
func casbridge_gen_sub(a, b C.casbridge_gen) *C.char { return result(boundary.Sub(gen(a), gen(b))) }

//export casbridge_gen_mul
func casbridge_gen_mul(a, b C.casbridge_gen) *C.char { return result(boundary.Mul(gen(a), gen(b))) }

//export casbridge_gen_div
func casbridge_gen_div(a, b C.casbridge_gen) *C.char { return result(boundary.Div(gen(a), gen(b))) }

// ─────────────────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────────────────

//export casbridge_gen_gcd
func casbridge_gen_gcd(a, b, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Gcd(gen(a), gen(b), gen(res), ctx(c)))
}

//export casbridge_gen_lcm
func casbridge_gen_lcm(a, b, res C.casbridge_gen) *C.char {
	return result(boundary.Lcm(gen(a), gen(b), gen(res)))
}

//export casbridge_gen_ifactor
func casbridge_gen_ifactor(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.IFactor(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_ifactors
func casbridge_gen_ifactors(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.IFactors(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_maple_ifactors
func casbridge_gen_maple_ifactors(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.MapleIFactors(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_divisors
func casbridge_gen_divisors(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Divisors(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_iquo
func casbridge_gen_iquo(a, b, res C.casbridge_gen) *C.char {
	return result(boundary.IQuo(gen(a), gen(b), gen(res)))
}

//export casbridge_gen_irem
func casbridge_gen_irem(a, b, res C.casbridge_gen) *C.char {
	return result(boundary.IRem(gen(a), gen(b), gen(res)))
}

//export casbridge_gen_iquorem
func casbridge_gen_iquorem(a, b, q, r C.casbridge_gen) *C.char {
	return result(boundary.IQuoRem(gen(a), gen(b), gen(q), gen(r)))
}

//export casbridge_gen_even
func casbridge_gen_even(a C.casbridge_gen, res *C.bool, c C.casbridge_context) *C.char {
	var b bool
	err := boundary.Even(gen(a), &b, ctx(c))
	if err == nil {
		*res = C.bool(b)
	}
	return result(err)
}

//export casbridge_gen_odd
func casbridge_gen_odd(a C.casbridge_gen, res *C.bool, c C.casbridge_context) *C.char {
	var b bool
	err := boundary.Odd(gen(a), &b, ctx(c))
	if err == nil {
		*res = C.bool(b)
	}
	return result(err)
}

//export casbridge_gen_is_pseudoprime
func casbridge_gen_is_pseudoprime(a C.casbridge_gen, res *C.int8_t) *C.char {
	return result(int8Out(res, func(out *int8) error { return boundary.IsPseudoprime(gen(a), out) }))
}

//export casbridge_gen_legendre
func casbridge_gen_legendre(a, b C.casbridge_gen, res *C.int8_t) *C.char {
	return result(int8Out(res, func(out *int8) error { return boundary.Legendre(gen(a), gen(b), out) }))
}

//export casbridge_gen_jacobi
func casbridge_gen_jacobi(a, b C.casbridge_gen, res *C.int8_t) *C.char {
	return result(int8Out(res, func(out *int8) error { return boundary.Jacobi(gen(a), gen(b), out) }))
}

func int8Out(res *C.int8_t, fn func(*int8) error) error {
	var v int8
	err := fn(&v)
	if err == nil {
		*res = C.int8_t(v)
	}
	return err
}

//export casbridge_gen_nextprime
func casbridge_gen_nextprime(a, res C.casbridge_gen) *C.char {
	return result(boundary.NextPrime(gen(a), gen(res)))
}

//export casbridge_gen_prevprime
func casbridge_gen_prevprime(a, res C.casbridge_gen) *C.char {
	return result(boundary.PrevPrime(gen(a), gen(res)))
}

//export casbridge_gen_nthprime
func casbridge_gen_nthprime(a, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.NthPrime(gen(a), gen(res), ctx(c)))
}

//export casbridge_gen_iegcd
func casbridge_gen_iegcd(a, b, u, v, d C.casbridge_gen) *C.char {
	return result(boundary.IEgcd(gen(a), gen(b), gen(u), gen(v), gen(d)))
}

//export casbridge_gen_iabcuv
func casbridge_gen_iabcuv(a, b, cc, u, v C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.IAbcuv(gen(a), gen(b), gen(cc), gen(u), gen(v), ctx(c)))
}

//export casbridge_gen_ichinrem
func casbridge_gen_ichinrem(a, amod, b, bmod, res C.casbridge_gen) *C.char {
	return result(boundary.IChinRem(gen(a), gen(amod), gen(b), gen(bmod), gen(res)))
}

//export casbridge_gen_pa2b2
func casbridge_gen_pa2b2(p, a, b C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Pa2b2(gen(p), gen(a), gen(b), ctx(c)))
}

//export casbridge_gen_euler
func casbridge_gen_euler(a, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Euler(gen(a), gen(res), ctx(c)))
}

//export casbridge_gen_comb
func casbridge_gen_comb(n, k, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Comb(gen(n), gen(k), gen(res), ctx(c)))
}

//export casbridge_gen_perm
func casbridge_gen_perm(n, k, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Perm(gen(n), gen(k), gen(res), ctx(c)))
}

//export casbridge_gen_rand
func casbridge_gen_rand(n, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Rand(gen(n), gen(res), ctx(c)))
}

//export casbridge_gen_float2rational
func casbridge_gen_float2rational(n, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Float2Rational(gen(n), gen(res), ctx(c)))
}

//export casbridge_gen_factor
func casbridge_gen_factor(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Factor(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_simplify
func casbridge_gen_simplify(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Simplify(gen(e), gen(res), ctx(c)))
}

//export casbridge_gen_det
func casbridge_gen_det(e, res C.casbridge_gen, c C.casbridge_context) *C.char {
	return result(boundary.Det(gen(e), gen(res), ctx(c)))
}

// main is required by -buildmode=c-shared.
func main() {}

//go:build gmp

// This file registers a GMP factorial backend, compiled only with the "gmp"
// build tag (go build -tags=gmp). It requires libgmp on the host.

package engine

import (
	"math/big"

	"github.com/ncw/gmp"
)

func init() {
	if err := RegisterFactorialBackend("gmp", func() FactorialBackend { return gmpBackend{} }); err == nil {
		_ = globalBackends.Use("gmp")
	}
}

type gmpBackend struct{}

func (gmpBackend) Name() string { return "gmp" }

func (gmpBackend) Factorial(n uint64) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}
	return gmpToStdBigInt(gmpProduct(2, n))
}

// gmpProduct multiplies lo..hi as a balanced tree so that operand sizes
// stay similar.
func gmpProduct(lo, hi uint64) *gmp.Int {
	if hi-lo < leafSize {
		z := gmp.NewInt(int64(lo))
		t := gmp.NewInt(0)
		for i := lo + 1; i <= hi; i++ {
			z.Mul(z, t.SetInt64(int64(i)))
		}
		return z
	}
	mid := lo + (hi-lo)/2
	left := gmpProduct(lo, mid)
	return left.Mul(left, gmpProduct(mid+1, hi))
}

// gmpToStdBigInt converts a gmp.Int to a standard library big.Int.
func gmpToStdBigInt(g *gmp.Int) *big.Int {
	return new(big.Int).SetBytes(g.Bytes())
}

package engine

import (
	"math"
	"math/big"
	"sort"
	"sync"
)

// MaxIthPrime is the largest index IthPrime computes; beyond it the result
// is undef.
const MaxIthPrime = 1_000_000

// provenBits is the size below which primality answers are proofs.
const provenBits = 32

var primeTable struct {
	sync.Mutex
	primes []int64
	limit  int64
}

func resetPrimeTable() {
	primeTable.Lock()
	primeTable.primes = nil
	primeTable.limit = 0
	primeTable.Unlock()
}

// sieve returns all primes <= limit.
func sieve(limit int64) []int64 {
	if limit < 2 {
		return nil
	}
	composite := make([]bool, limit+1)
	primes := make([]int64, 0, int(float64(limit)/math.Log(float64(limit))*1.2)+8)
	for i := int64(2); i <= limit; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, i)
		for j := i * i; j <= limit; j += i {
			composite[j] = true
		}
	}
	return primes
}

// primesUpTo returns the cached primes, extending the cache to cover limit.
func primesUpTo(limit int64) []int64 {
	primeTable.Lock()
	defer primeTable.Unlock()
	if primeTable.limit < limit {
		primeTable.primes = sieve(limit)
		primeTable.limit = limit
	}
	return primeTable.primes
}

// nthPrimeBound is an upper bound for the n-th prime (Rosser).
func nthPrimeBound(n int64) int64 {
	if n < 6 {
		return 15
	}
	f := float64(n)
	return int64(f*(math.Log(f)+math.Log(math.Log(f)))) + 1
}

// IsProbablePrime classifies an integer: 0 composite (or < 2), 1 probable
// prime, 2 proven prime.
func IsProbablePrime(g Gen) (int8, error) {
	if err := expectInteger("is_pseudoprime", g); err != nil {
		return 0, err
	}
	n := bigInt(g)
	if n.Cmp(big.NewInt(2)) < 0 {
		return 0, nil
	}
	if n.BitLen() <= provenBits {
		// ProbablyPrime is exact below 2^64.
		if n.ProbablyPrime(0) {
			return 2, nil
		}
		return 0, nil
	}
	if n.ProbablyPrime(20) {
		return 1, nil
	}
	return 0, nil
}

// NextPrime returns the smallest prime greater than g.
func NextPrime(g Gen) (Gen, error) {
	if err := expectInteger("nextprime", g); err != nil {
		return Gen{}, err
	}
	n := bigInt(g)
	if n.Cmp(big.NewInt(2)) < 0 {
		return Int(2), nil
	}
	n.Add(n, bigOne)
	if n.Bit(0) == 0 && n.Cmp(big.NewInt(2)) != 0 {
		n.Add(n, bigOne)
	}
	two := big.NewInt(2)
	for !n.ProbablyPrime(20) {
		n.Add(n, two)
	}
	return Zint(n), nil
}

// PrevPrime returns the largest prime smaller than g.
func PrevPrime(g Gen) (Gen, error) {
	if err := expectInteger("prevprime", g); err != nil {
		return Gen{}, err
	}
	n := bigInt(g)
	if n.Cmp(big.NewInt(2)) <= 0 {
		return Gen{}, errorf("prevprime: no prime below %s", n)
	}
	if n.Cmp(big.NewInt(3)) == 0 {
		return Int(2), nil
	}
	n.Sub(n, bigOne)
	if n.Bit(0) == 0 {
		n.Sub(n, bigOne)
	}
	two := big.NewInt(2)
	for !n.ProbablyPrime(20) {
		n.Sub(n, two)
	}
	return Zint(n), nil
}

// IthPrime returns the n-th prime (ithprime(1) = 2). Indices above
// MaxIthPrime yield undef.
func IthPrime(ctx *Context, g Gen) (Gen, error) {
	if err := expectInteger("ithprime", g); err != nil {
		return Gen{}, err
	}
	n := bigInt(g)
	if n.Sign() <= 0 {
		return Gen{}, errBadArgValue
	}
	if !n.IsInt64() || n.Int64() > MaxIthPrime {
		return Undef, nil
	}
	idx := n.Int64()
	bound := nthPrimeBound(idx)
	ctx.debug().Int64("n", idx).Int64("sieve_limit", bound).Msg("ithprime")
	primes := primesUpTo(bound)
	return Int(primes[idx-1]), nil
}

type primePower struct {
	p *big.Int
	e int
}

// smallPrimeLimit bounds trial division before switching to Pollard rho.
const smallPrimeLimit = 10_000

// factorize returns the prime factorisation of |n| > 1 in increasing order.
func factorize(ctx *Context, n *big.Int) []primePower {
	n = new(big.Int).Abs(n)
	counts := map[string]*primePower{}
	add := func(p *big.Int) {
		k := p.String()
		if pp, ok := counts[k]; ok {
			pp.e++
			return
		}
		counts[k] = &primePower{p: new(big.Int).Set(p), e: 1}
	}
	q, r := new(big.Int), new(big.Int)
	for _, sp := range primesUpTo(smallPrimeLimit) {
		if n.Cmp(bigOne) == 0 || sp > smallPrimeLimit {
			break
		}
		p := big.NewInt(sp)
		if new(big.Int).Mul(p, p).Cmp(n) > 0 {
			break
		}
		for {
			q.QuoRem(n, p, r)
			if r.Sign() != 0 {
				break
			}
			add(p)
			n.Set(q)
		}
	}
	var stack []*big.Int
	if n.Cmp(bigOne) > 0 {
		stack = append(stack, n)
	}
	rounds := 0
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if m.ProbablyPrime(20) {
			add(m)
			continue
		}
		d := pollardBrent(m)
		rounds++
		stack = append(stack, d, new(big.Int).Quo(m, d))
	}
	if rounds > 0 {
		ctx.debug().Int("rho_rounds", rounds).Msg("factorize")
	}
	out := make([]primePower, 0, len(counts))
	for _, pp := range counts {
		out = append(out, *pp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].p.Cmp(out[j].p) < 0 })
	return out
}

// pollardBrent returns a non-trivial factor of the odd composite n.
func pollardBrent(n *big.Int) *big.Int {
	if n.Bit(0) == 0 {
		return big.NewInt(2)
	}
	if r, ok := intRoot(n, 2); ok {
		return r
	}
	for c := int64(1); ; c++ {
		if d := brentRound(n, big.NewInt(c)); d != nil {
			return d
		}
	}
}

func brentRound(n, c *big.Int) *big.Int {
	const m = 128
	f := func(x *big.Int) *big.Int {
		x.Mul(x, x).Add(x, c).Mod(x, n)
		return x
	}
	y := big.NewInt(2)
	g := big.NewInt(1)
	q := big.NewInt(1)
	var x, ys *big.Int
	diff := new(big.Int)
	for r := 1; g.Cmp(bigOne) == 0; r <<= 1 {
		x = new(big.Int).Set(y)
		for i := 0; i < r; i++ {
			f(y)
		}
		for k := 0; k < r && g.Cmp(bigOne) == 0; k += m {
			ys = new(big.Int).Set(y)
			for i := 0; i < m && i < r-k; i++ {
				f(y)
				diff.Sub(x, y).Abs(diff)
				q.Mul(q, diff).Mod(q, n)
			}
			g.GCD(nil, nil, q, n)
		}
		if r > 1<<24 {
			return nil
		}
	}
	if g.Cmp(n) == 0 {
		for {
			f(ys)
			diff.Sub(x, ys).Abs(diff)
			g.GCD(nil, nil, diff, n)
			if g.Cmp(bigOne) > 0 {
				break
			}
		}
	}
	if g.Cmp(n) == 0 {
		return nil
	}
	return g
}

func factorArg(op string, g Gen) (*big.Int, error) {
	if err := expectInteger(op, g); err != nil {
		return nil, err
	}
	n := bigInt(g)
	if n.Sign() == 0 {
		return nil, errorf("%s: cannot factor 0", op)
	}
	return n, nil
}

// IFactor returns the prime factorisation of an integer as a product.
func IFactor(ctx *Context, g Gen) (Gen, error) {
	n, err := factorArg("ifactor", g)
	if err != nil {
		return Gen{}, err
	}
	var fs []Gen
	if n.Sign() < 0 {
		fs = append(fs, Int(-1))
	}
	if n.CmpAbs(bigOne) == 0 {
		return Zint(n), nil
	}
	for _, pp := range factorize(ctx, n) {
		if pp.e == 1 {
			fs = append(fs, Zint(pp.p))
		} else {
			fs = append(fs, Symbolic("^", Zint(pp.p), Int(int64(pp.e))))
		}
	}
	if len(fs) == 1 {
		return fs[0], nil
	}
	return Symbolic("*", fs...), nil
}

// IFactors returns the factorisation as a flat list [p1,e1,p2,e2,...],
// prefixed by -1,1 for negative input.
func IFactors(ctx *Context, g Gen) (Gen, error) {
	n, err := factorArg("ifactors", g)
	if err != nil {
		return Gen{}, err
	}
	var items []Gen
	if n.Sign() < 0 {
		items = append(items, Int(-1), Int(1))
	}
	if n.CmpAbs(bigOne) != 0 {
		for _, pp := range factorize(ctx, n) {
			items = append(items, Zint(pp.p), Int(int64(pp.e)))
		}
	}
	return Gen{typ: TypeVect, args: items}, nil
}

// MapleIFactors returns [sign,[[p1,e1],[p2,e2],...]].
func MapleIFactors(ctx *Context, g Gen) (Gen, error) {
	n, err := factorArg("maple_ifactors", g)
	if err != nil {
		return Gen{}, err
	}
	var pairs []Gen
	if n.CmpAbs(bigOne) != 0 {
		for _, pp := range factorize(ctx, n) {
			pairs = append(pairs, Vector(Zint(pp.p), Int(int64(pp.e))))
		}
	}
	return Vector(Int(int64(n.Sign())), Gen{typ: TypeVect, args: pairs}), nil
}

// IDivis lists the positive divisors of an integer, grouped by increasing
// powers of each prime factor.
func IDivis(ctx *Context, g Gen) (Gen, error) {
	n, err := factorArg("idivis", g)
	if err != nil {
		return Gen{}, err
	}
	divs := []*big.Int{big.NewInt(1)}
	if n.CmpAbs(bigOne) != 0 {
		for _, pp := range factorize(ctx, n) {
			base := divs
			next := make([]*big.Int, 0, len(base)*(pp.e+1))
			pk := big.NewInt(1)
			for k := 0; k <= pp.e; k++ {
				for _, d := range base {
					next = append(next, new(big.Int).Mul(d, pk))
				}
				pk = new(big.Int).Mul(pk, pp.p)
			}
			divs = next
		}
	}
	items := make([]Gen, len(divs))
	for i, d := range divs {
		items[i] = Zint(d)
	}
	return Gen{typ: TypeVect, args: items}, nil
}

// Euler returns Euler's totient of a positive integer.
func Euler(ctx *Context, g Gen) (Gen, error) {
	if err := expectInteger("euler", g); err != nil {
		return Gen{}, err
	}
	n := bigInt(g)
	if n.Sign() <= 0 {
		return Gen{}, errorf("euler: positive integer expected")
	}
	phi := new(big.Int).Set(n)
	if n.Cmp(bigOne) == 0 {
		return Int(1), nil
	}
	for _, pp := range factorize(ctx, n) {
		phi.Quo(phi, pp.p)
		phi.Mul(phi, new(big.Int).Sub(pp.p, bigOne))
	}
	return Zint(phi), nil
}

package engine

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// poly is a sparse multivariate polynomial with rational coefficients over
// an ordered list of variables.
type poly struct {
	vars  []string
	terms map[string]*polyTerm
}

type polyTerm struct {
	exps []int
	coef *big.Rat
}

// maxPolyPower bounds integer powers expanded into polynomials.
const maxPolyPower = 1000

func newPoly(vars []string) *poly {
	return &poly{vars: vars, terms: make(map[string]*polyTerm)}
}

func expKey(exps []int) string {
	var b strings.Builder
	for i, e := range exps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

func (p *poly) addTerm(exps []int, c *big.Rat) {
	if c.Sign() == 0 {
		return
	}
	k := expKey(exps)
	if t, ok := p.terms[k]; ok {
		t.coef.Add(t.coef, c)
		if t.coef.Sign() == 0 {
			delete(p.terms, k)
		}
		return
	}
	e := make([]int, len(exps))
	copy(e, exps)
	p.terms[k] = &polyTerm{exps: e, coef: new(big.Rat).Set(c)}
}

func constPoly(vars []string, c *big.Rat) *poly {
	p := newPoly(vars)
	p.addTerm(make([]int, len(vars)), c)
	return p
}

func varPoly(vars []string, i int) *poly {
	p := newPoly(vars)
	e := make([]int, len(vars))
	e[i] = 1
	p.addTerm(e, big.NewRat(1, 1))
	return p
}

func (p *poly) isZero() bool { return len(p.terms) == 0 }

// constant returns the value of a constant polynomial.
func (p *poly) constant() (*big.Rat, bool) {
	if len(p.terms) == 0 {
		return new(big.Rat), true
	}
	if len(p.terms) > 1 {
		return nil, false
	}
	for _, t := range p.terms {
		for _, e := range t.exps {
			if e != 0 {
				return nil, false
			}
		}
		return new(big.Rat).Set(t.coef), true
	}
	return nil, false
}

func (p *poly) add(q *poly) *poly {
	r := newPoly(p.vars)
	for _, t := range p.terms {
		r.addTerm(t.exps, t.coef)
	}
	for _, t := range q.terms {
		r.addTerm(t.exps, t.coef)
	}
	return r
}

func (p *poly) scale(c *big.Rat) *poly {
	r := newPoly(p.vars)
	for _, t := range p.terms {
		r.addTerm(t.exps, new(big.Rat).Mul(t.coef, c))
	}
	return r
}

func (p *poly) mul(q *poly) *poly {
	r := newPoly(p.vars)
	e := make([]int, len(p.vars))
	c := new(big.Rat)
	for _, a := range p.terms {
		for _, b := range q.terms {
			for i := range e {
				e[i] = a.exps[i] + b.exps[i]
			}
			r.addTerm(e, c.Mul(a.coef, b.coef))
		}
	}
	return r
}

func (p *poly) pow(n int) *poly {
	result := constPoly(p.vars, big.NewRat(1, 1))
	base := p
	for n > 0 {
		if n&1 == 1 {
			result = result.mul(base)
		}
		n >>= 1
		if n > 0 {
			base = base.mul(base)
		}
	}
	return result
}

func totalDegree(exps []int) int {
	d := 0
	for _, e := range exps {
		d += e
	}
	return d
}

// sorted returns terms by decreasing total degree, ties broken by
// decreasing exponents in variable order.
func (p *poly) sorted() []*polyTerm {
	out := make([]*polyTerm, 0, len(p.terms))
	for _, t := range p.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := totalDegree(out[i].exps), totalDegree(out[j].exps)
		if di != dj {
			return di > dj
		}
		for k := range out[i].exps {
			if out[i].exps[k] != out[j].exps[k] {
				return out[i].exps[k] > out[j].exps[k]
			}
		}
		return false
	})
	return out
}

// toGen renders p with terms in decreasing degree order.
func (p *poly) toGen() Gen {
	terms := p.sorted()
	if len(terms) == 0 {
		return Int(0)
	}
	items := make([]Gen, 0, len(terms))
	for _, t := range terms {
		var fs []Gen
		for i, e := range t.exps {
			switch {
			case e == 1:
				fs = append(fs, Ident(p.vars[i]))
			case e > 1:
				fs = append(fs, Symbolic("^", Ident(p.vars[i]), Int(int64(e))))
			}
		}
		coef := Rat(t.coef)
		switch {
		case len(fs) == 0:
			items = append(items, coef)
		case len(fs) == 1:
			items = append(items, makeTerm(coef, fs[0]))
		default:
			items = append(items, makeTerm(coef, Symbolic("*", fs...)))
		}
	}
	if len(items) == 1 {
		return items[0]
	}
	return Symbolic("+", items...)
}

// collectVars adds the identifiers occurring in g to set.
func collectVars(g Gen, set map[string]bool) {
	switch g.typ {
	case TypeIdnt:
		set[g.name] = true
	case TypeSymb, TypeVect:
		for _, a := range g.args {
			collectVars(a, set)
		}
	}
}

func varsOf(gs ...Gen) []string {
	set := map[string]bool{}
	for _, g := range gs {
		collectVars(g, set)
	}
	vars := make([]string, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// smallExponent returns g as a machine int when it is an integer within
// the polynomial power bound.
func smallExponent(g Gen) (int, bool) {
	if g.typ != TypeInt || g.ival > maxPolyPower || g.ival < -maxPolyPower {
		return 0, false
	}
	return int(g.ival), true
}

// toRatFunc converts g into num/den polynomials over vars.
func toRatFunc(g Gen, vars []string) (*poly, *poly, bool) {
	one := func() *poly { return constPoly(vars, big.NewRat(1, 1)) }
	switch g.typ {
	case TypeInt, TypeZint, TypeFrac:
		return constPoly(vars, bigRat(g)), one(), true
	case TypeIdnt:
		for i, v := range vars {
			if v == g.name {
				return varPoly(vars, i), one(), true
			}
		}
		return nil, nil, false
	case TypeSymb:
		switch g.name {
		case "+":
			num, den := constPoly(vars, new(big.Rat)), one()
			for _, a := range g.args {
				n, d, ok := toRatFunc(a, vars)
				if !ok {
					return nil, nil, false
				}
				if _, dc := den.constant(); dc && equalPoly(d, den) {
					num = num.add(n)
					continue
				}
				num = num.mul(d).add(n.mul(den))
				den = den.mul(d)
			}
			return num, den, true
		case "*":
			num, den := one(), one()
			for _, a := range g.args {
				n, d, ok := toRatFunc(a, vars)
				if !ok {
					return nil, nil, false
				}
				num, den = num.mul(n), den.mul(d)
			}
			return num, den, true
		case "^":
			e, ok := smallExponent(g.args[1])
			if !ok {
				return nil, nil, false
			}
			n, d, ok := toRatFunc(g.args[0], vars)
			if !ok {
				return nil, nil, false
			}
			if e < 0 {
				if n.isZero() {
					return nil, nil, false
				}
				n, d, e = d, n, -e
			}
			return n.pow(e), d.pow(e), true
		}
	}
	return nil, nil, false
}

func equalPoly(p, q *poly) bool {
	if len(p.terms) != len(q.terms) {
		return false
	}
	for k, t := range p.terms {
		u, ok := q.terms[k]
		if !ok || u.coef.Cmp(t.coef) != 0 {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Univariate helpers, coefficients in increasing degree order
// ─────────────────────────────────────────────────────────────────────────────

type upoly []*big.Rat

func (p *poly) univariate() (upoly, bool) {
	if len(p.vars) > 1 {
		return nil, false
	}
	deg := 0
	for _, t := range p.terms {
		if len(t.exps) == 1 && t.exps[0] > deg {
			deg = t.exps[0]
		}
	}
	u := make(upoly, deg+1)
	for i := range u {
		u[i] = new(big.Rat)
	}
	for _, t := range p.terms {
		e := 0
		if len(t.exps) == 1 {
			e = t.exps[0]
		}
		u[e].Set(t.coef)
	}
	return u.trim(), true
}

func (u upoly) toPoly(vars []string) *poly {
	p := newPoly(vars)
	for i, c := range u {
		exps := make([]int, len(vars))
		if len(vars) == 1 {
			exps[0] = i
		}
		p.addTerm(exps, c)
	}
	return p
}

func (u upoly) trim() upoly {
	n := len(u)
	for n > 0 && u[n-1].Sign() == 0 {
		n--
	}
	return u[:n]
}

func (u upoly) deg() int { return len(u) - 1 }

func (u upoly) lead() *big.Rat { return u[len(u)-1] }

func (u upoly) clone() upoly {
	c := make(upoly, len(u))
	for i, x := range u {
		c[i] = new(big.Rat).Set(x)
	}
	return c
}

// divMod divides a by b (b non-zero).
func (a upoly) divMod(b upoly) (upoly, upoly) {
	r := a.clone()
	if r.deg() < b.deg() {
		return upoly{}, r
	}
	q := make(upoly, r.deg()-b.deg()+1)
	for i := range q {
		q[i] = new(big.Rat)
	}
	lb := b.lead()
	t := new(big.Rat)
	for r = r.trim(); len(r) > 0 && r.deg() >= b.deg(); r = r.trim() {
		shift := r.deg() - b.deg()
		c := new(big.Rat).Quo(r.lead(), lb)
		q[shift] = c
		for i, bc := range b {
			r[i+shift].Sub(r[i+shift], t.Mul(c, bc))
		}
		r[len(r)-1].SetInt64(0)
	}
	return q.trim(), r
}

func (a upoly) gcd(b upoly) upoly {
	a, b = a.clone().trim(), b.clone().trim()
	for len(b) > 0 {
		_, r := a.divMod(b)
		a, b = b, r
	}
	return a
}

// primitive returns u scaled to coprime integer coefficients with a positive
// leading coefficient, and the content c with u = c * primitive.
func (u upoly) primitive() (upoly, *big.Rat) {
	if len(u) == 0 {
		return u, big.NewRat(1, 1)
	}
	den := big.NewInt(1)
	for _, c := range u {
		den = lcmInt(den, c.Denom())
	}
	num := new(big.Int)
	for _, c := range u {
		n := new(big.Int).Mul(c.Num(), new(big.Int).Quo(den, c.Denom()))
		num.GCD(nil, nil, num, n.Abs(n))
	}
	content := new(big.Rat).SetFrac(num, den)
	if u.lead().Sign() < 0 {
		content.Neg(content)
	}
	out := make(upoly, len(u))
	for i, c := range u {
		out[i] = new(big.Rat).Quo(c, content)
	}
	return out, content
}

func (u upoly) eval(x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(u) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, u[i])
	}
	return acc
}

// ─────────────────────────────────────────────────────────────────────────────
// Simplify
// ─────────────────────────────────────────────────────────────────────────────

// Simplify expands and normalises g. Rational expressions are brought to a
// single fraction of expanded polynomials with common factors cancelled in
// the univariate case. ctx may be nil.
func Simplify(ctx *Context, g Gen) (Gen, error) {
	switch g.typ {
	case TypeVect:
		return vectMap(g, func(x Gen) (Gen, error) { return Simplify(ctx, x) })
	case TypeSymb:
	default:
		return g, nil
	}
	vars := varsOf(g)
	num, den, ok := toRatFunc(g, vars)
	if !ok {
		return simplifyArgs(ctx, g)
	}
	return ratFuncGen(num, den)
}

func ratFuncGen(num, den *poly) (Gen, error) {
	if c, ok := den.constant(); ok {
		if c.Sign() == 0 {
			return Gen{}, errDivByZero
		}
		return num.scale(new(big.Rat).Inv(c)).toGen(), nil
	}
	if un, ok := num.univariate(); ok {
		ud, _ := den.univariate()
		g := un.gcd(ud)
		if g.deg() > 0 {
			un, _ = un.divMod(g)
			ud, _ = ud.divMod(g)
		}
		pd, content := ud.primitive()
		un = upoly(un).scaled(new(big.Rat).Inv(content))
		num, den = un.toPoly(num.vars), pd.toPoly(den.vars)
		if c, ok := den.constant(); ok {
			return num.scale(new(big.Rat).Inv(c)).toGen(), nil
		}
	}
	return Div(num.toGen(), den.toGen())
}

func (u upoly) scaled(c *big.Rat) upoly {
	out := make(upoly, len(u))
	for i, x := range u {
		out[i] = new(big.Rat).Mul(x, c)
	}
	return out
}

// simplifyArgs simplifies the operands of a non-polynomial expression and
// recombines them.
func simplifyArgs(ctx *Context, g Gen) (Gen, error) {
	args := make([]Gen, len(g.args))
	for i, a := range g.args {
		s, err := Simplify(ctx, a)
		if err != nil {
			return Gen{}, err
		}
		args[i] = s
	}
	switch g.name {
	case "+", "*":
		op := Add
		acc := Int(0)
		if g.name == "*" {
			op, acc = Mul, Int(1)
		}
		for _, a := range args {
			var err error
			if acc, err = op(acc, a); err != nil {
				return Gen{}, err
			}
		}
		return acc, nil
	case "^":
		return Pow(args[0], args[1])
	}
	if ctx == nil {
		ctx = Global()
	}
	return call(ctx, g.name, args)
}

// ─────────────────────────────────────────────────────────────────────────────
// Factor
// ─────────────────────────────────────────────────────────────────────────────

// maxRootSearchBits bounds the coefficients whose divisors are enumerated
// when searching for rational roots.
const maxRootSearchBits = 96

// Factor factors integers into primes and univariate polynomials over the
// rationals into linear factors times an irreducible-by-roots remainder.
// Multivariate polynomials only have their content and monomial part
// extracted. ctx may be nil.
func Factor(ctx *Context, g Gen) (Gen, error) {
	switch g.typ {
	case TypeInt, TypeZint:
		if isExactZero(g) {
			return g, nil
		}
		return IFactor(ctx, g)
	case TypeVect:
		return vectMap(g, func(x Gen) (Gen, error) { return Factor(ctx, x) })
	case TypeSymb:
	default:
		return g, nil
	}
	vars := varsOf(g)
	num, den, ok := toRatFunc(g, vars)
	if !ok {
		return g, nil
	}
	if c, isConst := den.constant(); !isConst {
		fn, err := factorPoly(ctx, num)
		if err != nil {
			return Gen{}, err
		}
		fd, err := factorPoly(ctx, den)
		if err != nil {
			return Gen{}, err
		}
		return Div(fn, fd)
	} else if c.Sign() == 0 {
		return Gen{}, errDivByZero
	} else {
		num = num.scale(new(big.Rat).Inv(c))
	}
	return factorPoly(ctx, num)
}

func factorPoly(ctx *Context, p *poly) (Gen, error) {
	if p.isZero() {
		return Int(0), nil
	}
	if c, ok := p.constant(); ok {
		return Rat(c), nil
	}
	u, ok := p.univariate()
	if !ok {
		return factorContent(p), nil
	}
	x := Ident(p.vars[0])
	prim, content := u.primitive()

	var fs []Gen
	if !isExactOne(Rat(content)) {
		fs = append(fs, Rat(content))
	}
	k := 0
	for k < len(prim) && prim[k].Sign() == 0 {
		k++
	}
	prim = prim[k:]
	switch {
	case k == 1:
		fs = append(fs, x)
	case k > 1:
		fs = append(fs, Symbolic("^", x, Int(int64(k))))
	}

	type linear struct {
		root *big.Rat
		mult int
	}
	var roots []linear
	for _, r := range rationalRootCandidates(prim) {
		mult := 0
		for prim.deg() >= 1 && prim.eval(r).Sign() == 0 {
			q, _ := prim.divMod(upoly{new(big.Rat).Neg(r), big.NewRat(1, 1)})
			prim = q
			mult++
		}
		if mult > 0 {
			roots = append(roots, linear{root: r, mult: mult})
		}
		if prim.deg() < 1 {
			break
		}
	}
	ctx.debug().Int("roots", len(roots)).Int("remainder_degree", prim.deg()).Msg("factor")
	sort.Slice(roots, func(i, j int) bool { return roots[i].root.Cmp(roots[j].root) > 0 })
	for _, r := range roots {
		// q*x - p with r = p/q
		f := upoly{new(big.Rat).SetInt(new(big.Int).Neg(r.root.Num())), new(big.Rat).SetInt(r.root.Denom())}
		fg := f.toPoly(p.vars).toGen()
		if r.mult > 1 {
			fg = Symbolic("^", fg, Int(int64(r.mult)))
		}
		fs = append(fs, fg)
	}
	// Gauss's lemma: the quotient is the product of the q's times a
	// primitive integer polynomial.
	if prim.deg() >= 1 {
		rem, _ := prim.primitive()
		fs = append(fs, rem.toPoly(p.vars).toGen())
	}
	if len(fs) == 1 {
		return fs[0], nil
	}
	return Symbolic("*", fs...), nil
}

// rationalRootCandidates lists p/q with p | a0 and q | an for a primitive
// integer polynomial with non-zero constant term.
func rationalRootCandidates(u upoly) []*big.Rat {
	if u.deg() < 1 {
		return nil
	}
	a0 := new(big.Int).Abs(u[0].Num())
	an := new(big.Int).Abs(u.lead().Num())
	one := []*big.Int{big.NewInt(1)}
	ps, qs := one, one
	if a0.BitLen() <= maxRootSearchBits {
		ps = positiveDivisors(a0)
	}
	if an.BitLen() <= maxRootSearchBits {
		qs = positiveDivisors(an)
	}
	seen := map[string]bool{}
	var out []*big.Rat
	for _, q := range qs {
		for _, p := range ps {
			for _, s := range []int64{1, -1} {
				r := new(big.Rat).SetFrac(new(big.Int).Mul(p, big.NewInt(s)), q)
				if k := r.String(); !seen[k] {
					seen[k] = true
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func positiveDivisors(n *big.Int) []*big.Int {
	if n.Cmp(bigOne) <= 0 {
		return []*big.Int{big.NewInt(1)}
	}
	divs := []*big.Int{big.NewInt(1)}
	for _, pp := range factorize(nil, n) {
		base := divs
		pk := new(big.Int).Set(pp.p)
		for k := 1; k <= pp.e; k++ {
			for _, d := range base {
				divs = append(divs, new(big.Int).Mul(d, pk))
			}
			pk = new(big.Int).Mul(pk, pp.p)
		}
	}
	return divs
}

// factorContent extracts the rational content and the common monomial of a
// multivariate polynomial.
func factorContent(p *poly) Gen {
	minExp := make([]int, len(p.vars))
	first := true
	for _, t := range p.terms {
		for i, e := range t.exps {
			if first || e < minExp[i] {
				minExp[i] = e
			}
		}
		first = false
	}
	den := big.NewInt(1)
	num := new(big.Int)
	for _, t := range p.terms {
		den = lcmInt(den, t.coef.Denom())
	}
	for _, t := range p.terms {
		n := new(big.Int).Mul(t.coef.Num(), new(big.Int).Quo(den, t.coef.Denom()))
		num.GCD(nil, nil, num, n.Abs(n))
	}
	content := new(big.Rat).SetFrac(num, den)
	if lead := p.sorted()[0]; lead.coef.Sign() < 0 {
		content.Neg(content)
	}
	rest := newPoly(p.vars)
	inv := new(big.Rat).Inv(content)
	for _, t := range p.terms {
		e := make([]int, len(t.exps))
		for i := range e {
			e[i] = t.exps[i] - minExp[i]
		}
		rest.addTerm(e, new(big.Rat).Mul(t.coef, inv))
	}
	var fs []Gen
	if c := Rat(content); !isExactOne(c) {
		fs = append(fs, c)
	}
	for i, e := range minExp {
		switch {
		case e == 1:
			fs = append(fs, Ident(p.vars[i]))
		case e > 1:
			fs = append(fs, Symbolic("^", Ident(p.vars[i]), Int(int64(e))))
		}
	}
	if c, ok := rest.constant(); !ok || c.Cmp(big.NewRat(1, 1)) != 0 {
		fs = append(fs, rest.toGen())
	}
	if len(fs) == 1 {
		return fs[0]
	}
	return Symbolic("*", fs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Polynomial gcd
// ─────────────────────────────────────────────────────────────────────────────

func polyGcd(ctx *Context, a, b Gen) (Gen, error) {
	vars := varsOf(a, b)
	if len(vars) > 1 {
		return Gen{}, errorf("gcd: multivariate polynomials are not supported")
	}
	pa, da, ok1 := toRatFunc(a, vars)
	pb, db, ok2 := toRatFunc(b, vars)
	if !ok1 || !ok2 {
		return Gen{}, errBadArgType
	}
	if _, c := da.constant(); !c {
		return Gen{}, errBadArgType
	}
	if _, c := db.constant(); !c {
		return Gen{}, errBadArgType
	}
	ua, _ := pa.univariate()
	ub, _ := pb.univariate()
	g := ua.gcd(ub)
	if len(g) == 0 {
		return Int(0), nil
	}
	if g.deg() == 0 {
		return Int(1), nil
	}
	prim, _ := g.primitive()
	ctx.debug().Int("degree", prim.deg()).Msg("gcd")
	return prim.toPoly(vars).toGen(), nil
}

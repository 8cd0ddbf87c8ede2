package engine

// Symbolic values are kept in a light normal form: sums and products are
// flat, numeric parts are folded into a single constant (last in sums, first
// in products) and like terms or like bases are merged. Full canonical forms
// are the job of Simplify.

func terms(g Gen) []Gen {
	if g.typ == TypeSymb && g.name == "+" {
		return g.args
	}
	return []Gen{g}
}

func factors(g Gen) []Gen {
	if g.typ == TypeSymb && g.name == "*" {
		return g.args
	}
	return []Gen{g}
}

// splitTerm separates the numeric coefficient of a product.
func splitTerm(t Gen) (Gen, Gen) {
	if t.typ == TypeSymb && t.name == "*" && len(t.args) > 1 && isNumber(t.args[0]) {
		rest := t.args[1:]
		if len(rest) == 1 {
			return t.args[0], rest[0]
		}
		return t.args[0], Symbolic("*", rest...)
	}
	return Int(1), t
}

// splitPower separates base and exponent.
func splitPower(f Gen) (Gen, Gen) {
	if f.typ == TypeSymb && f.name == "^" {
		return f.args[0], f.args[1]
	}
	return f, Int(1)
}

func makeTerm(coef, rest Gen) Gen {
	if isExactOne(coef) {
		return rest
	}
	if rest.typ == TypeSymb && rest.name == "*" {
		return Symbolic("*", append([]Gen{coef}, rest.args...)...)
	}
	return Symbolic("*", coef, rest)
}

type likeTerm struct {
	key  string
	coef Gen
	rest Gen
}

func symAdd(a, b Gen) (Gen, error) {
	constant := Int(0)
	var acc []likeTerm
	for _, t := range append(append([]Gen{}, terms(a)...), terms(b)...) {
		if isNumber(t) {
			constant = numAdd(constant, t)
			continue
		}
		coef, rest := splitTerm(t)
		key := rest.String()
		merged := false
		for i := range acc {
			if acc[i].key == key {
				acc[i].coef = numAdd(acc[i].coef, coef)
				merged = true
				break
			}
		}
		if !merged {
			acc = append(acc, likeTerm{key: key, coef: coef, rest: rest})
		}
	}
	var out []Gen
	for _, t := range acc {
		if isExactZero(t.coef) {
			continue
		}
		out = append(out, makeTerm(t.coef, t.rest))
	}
	if !isExactZero(constant) || len(out) == 0 {
		out = append(out, constant)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return Symbolic("+", out...), nil
}

type likeBase struct {
	key  string
	base Gen
	exp  Gen
}

func symMul(a, b Gen) (Gen, error) {
	coef := Int(1)
	var acc []likeBase
	for _, f := range append(append([]Gen{}, factors(a)...), factors(b)...) {
		if isNumber(f) {
			coef = numMul(coef, f)
			continue
		}
		base, exp := splitPower(f)
		key := base.String()
		merged := false
		for i := range acc {
			if acc[i].key == key {
				e, err := Add(acc[i].exp, exp)
				if err != nil {
					return Gen{}, err
				}
				acc[i].exp = e
				merged = true
				break
			}
		}
		if !merged {
			acc = append(acc, likeBase{key: key, base: base, exp: exp})
		}
	}
	if isExactZero(coef) {
		return Int(0), nil
	}
	var out []Gen
	for _, f := range acc {
		var p Gen
		switch {
		case isExactZero(f.exp):
			continue
		case isExactOne(f.exp):
			p = f.base
		case isNumber(f.base):
			var err error
			if p, err = Pow(f.base, f.exp); err != nil {
				return Gen{}, err
			}
		default:
			p = Symbolic("^", f.base, f.exp)
		}
		if isNumber(p) {
			coef = numMul(coef, p)
			continue
		}
		out = append(out, p)
	}
	switch {
	case len(out) == 0:
		return coef, nil
	case len(out) == 1 && isExactOne(coef):
		return out[0], nil
	case isExactOne(coef):
		return Symbolic("*", out...), nil
	}
	return Symbolic("*", append([]Gen{coef}, out...)...), nil
}

func symPow(a, b Gen) (Gen, error) {
	switch {
	case isExactZero(b):
		return Int(1), nil
	case isExactOne(b):
		return a, nil
	case a.typ == TypeSymb && a.name == "^" && IsInteger(b) && isNumber(a.args[1]):
		e, err := Mul(a.args[1], b)
		if err != nil {
			return Gen{}, err
		}
		return Pow(a.args[0], e)
	case a.typ == TypeSymb && a.name == "*" && IsInteger(b):
		result := Int(1)
		for _, f := range a.args {
			p, err := Pow(f, b)
			if err != nil {
				return Gen{}, err
			}
			if result, err = Mul(result, p); err != nil {
				return Gen{}, err
			}
		}
		return result, nil
	}
	return Symbolic("^", a, b), nil
}

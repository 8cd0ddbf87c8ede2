package engine

// Eval evaluates a parsed expression under ctx.
func Eval(ctx *Context, e *Expr) (Gen, error) {
	return evalNode(ctx, e.root)
}

// EvalString parses and evaluates text under ctx.
func EvalString(ctx *Context, text string) (Gen, error) {
	e, err := Parse(ctx, text)
	if err != nil {
		return Gen{}, err
	}
	return Eval(ctx, e)
}

func evalNode(ctx *Context, n *node) (Gen, error) {
	switch n.kind {
	case nodeNumber:
		return n.value, nil
	case nodeOverflow:
		return Gen{}, errorf("Numeric overflow: %s is out of the double range", n.text)
	case nodeString:
		return Str(n.text), nil
	case nodeIdent:
		if v, ok := ctx.Lookup(n.text); ok {
			return v, nil
		}
		if n.text == "i" {
			return Complex(Int(0), Int(1)), nil
		}
		return Ident(n.text), nil
	case nodeList:
		items, err := evalAll(ctx, n.children)
		if err != nil {
			return Gen{}, err
		}
		return Gen{typ: TypeVect, args: items}, nil
	case nodeNeg:
		v, err := evalNode(ctx, n.children[0])
		if err != nil {
			return Gen{}, err
		}
		return Neg(v)
	case nodeFactorial:
		v, err := evalNode(ctx, n.children[0])
		if err != nil {
			return Gen{}, err
		}
		return factorialOf(v)
	case nodeBinary:
		l, err := evalNode(ctx, n.children[0])
		if err != nil {
			return Gen{}, err
		}
		r, err := evalNode(ctx, n.children[1])
		if err != nil {
			return Gen{}, err
		}
		switch n.text {
		case "+":
			return Add(l, r)
		case "-":
			return Sub(l, r)
		case "*":
			return Mul(l, r)
		case "/":
			return Div(l, r)
		default:
			return Pow(l, r)
		}
	case nodeAssign:
		v, err := evalNode(ctx, n.children[0])
		if err != nil {
			return Gen{}, err
		}
		ctx.Bind(n.text, v)
		return v, nil
	case nodeSeq:
		var last Gen
		for _, c := range n.children {
			v, err := evalNode(ctx, c)
			if err != nil {
				return Gen{}, err
			}
			last = v
		}
		return last, nil
	case nodeCall:
		args, err := evalAll(ctx, n.children)
		if err != nil {
			return Gen{}, err
		}
		return call(ctx, n.text, args)
	}
	return Gen{}, errorf("cannot evaluate node")
}

func evalAll(ctx *Context, nodes []*node) ([]Gen, error) {
	out := make([]Gen, len(nodes))
	for i, c := range nodes {
		v, err := evalNode(ctx, c)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type builtin struct {
	arity int
	fn    func(ctx *Context, args []Gen) (Gen, error)
}

var builtins map[string]builtin

func init() {
	pair := func(a, b Gen, err error) (Gen, error) {
		if err != nil {
			return Gen{}, err
		}
		return Vector(a, b), nil
	}
	unary := func(f func(*Context, Gen) (Gen, error)) builtin {
		return builtin{1, func(ctx *Context, a []Gen) (Gen, error) { return f(ctx, a[0]) }}
	}
	sym := func(f func(Gen, Gen) (int8, error)) builtin {
		return builtin{2, func(_ *Context, a []Gen) (Gen, error) {
			s, err := f(a[0], a[1])
			return Int(int64(s)), err
		}}
	}
	builtins = map[string]builtin{
		"gcd":            {2, func(ctx *Context, a []Gen) (Gen, error) { return Gcd(ctx, a[0], a[1]) }},
		"lcm":            {2, func(_ *Context, a []Gen) (Gen, error) { return Lcm(a[0], a[1]) }},
		"ifactor":        unary(IFactor),
		"ifactors":       unary(IFactors),
		"maple_ifactors": unary(MapleIFactors),
		"idivis":         unary(IDivis),
		"divisors":       unary(IDivis),
		"iquo":           {2, func(_ *Context, a []Gen) (Gen, error) { return IQuo(a[0], a[1]) }},
		"irem":           {2, func(_ *Context, a []Gen) (Gen, error) { return IRem(a[0], a[1]) }},
		"iquorem": {2, func(_ *Context, a []Gen) (Gen, error) {
			return pair(IQuoRem(a[0], a[1]))
		}},
		"even": {1, func(_ *Context, a []Gen) (Gen, error) { return boolGen(Even(a[0])) }},
		"odd":  {1, func(_ *Context, a []Gen) (Gen, error) { return boolGen(Odd(a[0])) }},
		"is_pseudoprime": {1, func(_ *Context, a []Gen) (Gen, error) {
			s, err := IsProbablePrime(a[0])
			return Int(int64(s)), err
		}},
		"nextprime": {1, func(_ *Context, a []Gen) (Gen, error) { return NextPrime(a[0]) }},
		"prevprime": {1, func(_ *Context, a []Gen) (Gen, error) { return PrevPrime(a[0]) }},
		"ithprime":  unary(IthPrime),
		"nthprime":  unary(IthPrime),
		"iegcd": {2, func(_ *Context, a []Gen) (Gen, error) {
			u, v, d, err := IEgcd(a[0], a[1])
			if err != nil {
				return Gen{}, err
			}
			return Vector(u, v, d), nil
		}},
		"iabcuv": {3, func(_ *Context, a []Gen) (Gen, error) {
			return pair(IAbcuv(a[0], a[1], a[2]))
		}},
		"ichinrem": {4, func(_ *Context, a []Gen) (Gen, error) {
			c, err := IChinRem(a[0], a[1], a[2], a[3])
			if err != nil {
				return Gen{}, err
			}
			m, err := Lcm(a[1], a[3])
			if err != nil {
				return Gen{}, err
			}
			return Vector(c, m), nil
		}},
		"pa2b2":           {1, func(ctx *Context, a []Gen) (Gen, error) { return pair(Pa2b2(ctx, a[0])) }},
		"euler":           unary(Euler),
		"legendre_symbol": sym(Legendre),
		"jacobi_symbol":   sym(Jacobi),
		"comb":            {2, func(_ *Context, a []Gen) (Gen, error) { return Comb(a[0], a[1]) }},
		"binomial":        {2, func(_ *Context, a []Gen) (Gen, error) { return Comb(a[0], a[1]) }},
		"perm":            {2, func(_ *Context, a []Gen) (Gen, error) { return Perm(a[0], a[1]) }},
		"rand":            unary(Rand),
		"float2rational":  unary(Float2Rational),
		"exact":           unary(Float2Rational),
		"factor":          unary(Factor),
		"simplify":        unary(Simplify),
		"normal":          unary(Simplify),
		"expand":          unary(Simplify),
		"det":             unary(Det),
		"factorial":       {1, func(_ *Context, a []Gen) (Gen, error) { return factorialOf(a[0]) }},
	}
}

func call(ctx *Context, name string, args []Gen) (Gen, error) {
	b, ok := builtins[name]
	if !ok {
		return Symbolic(name, args...), nil
	}
	if len(args) != b.arity {
		return Gen{}, errorf("%s: wrong number of arguments (expected %d, got %d)", name, b.arity, len(args))
	}
	return b.fn(ctx, args)
}

func boolGen(v bool, err error) (Gen, error) {
	if err != nil {
		return Gen{}, err
	}
	if v {
		return Int(1), nil
	}
	return Int(0), nil
}

func factorialOf(g Gen) (Gen, error) {
	if !IsInteger(g) || sign(g) < 0 {
		return Gen{}, errorf("factorial: non-negative integer expected")
	}
	z := bigInt(g)
	if !z.IsUint64() || z.Uint64() > MaxFactorial {
		return Gen{}, errorf("factorial: argument too large")
	}
	return Zint(Factorial(z.Uint64())), nil
}

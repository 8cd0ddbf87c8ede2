package engine

import (
	"strconv"
	"strings"
)

// String renders g in the engine's canonical text form. The output parses
// back to an equal value for every exact type.
func (g Gen) String() string {
	var b strings.Builder
	writeGen(&b, g)
	return b.String()
}

func writeGen(b *strings.Builder, g Gen) {
	switch g.typ {
	case TypeInt:
		b.WriteString(strconv.FormatInt(g.ival, 10))
	case TypeZint:
		b.WriteString(g.zval.String())
	case TypeFrac:
		b.WriteString(g.qval.Num().String())
		b.WriteByte('/')
		b.WriteString(g.qval.Denom().String())
	case TypeDouble:
		b.WriteString(formatFloat(g.fval, 64))
	case TypeFloat:
		b.WriteString(formatFloat(g.fval, 32))
	case TypeIdnt:
		b.WriteString(g.name)
	case TypeString:
		b.WriteString(strconv.Quote(g.name))
	case TypeCplx:
		writeComplex(b, g.args[0], g.args[1])
	case TypeVect:
		b.WriteByte('[')
		for i, a := range g.args {
			if i > 0 {
				b.WriteByte(',')
			}
			writeGen(b, a)
		}
		b.WriteByte(']')
	case TypeSymb:
		writeSymb(b, g)
	default:
		b.WriteString("?")
	}
}

func formatFloat(f float64, bits int) string {
	digits := 12
	if bits == 32 {
		digits = 7
	}
	s := strconv.FormatFloat(f, 'g', digits, bits)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

func writeComplex(b *strings.Builder, re, im Gen) {
	if !isExactZero(re) {
		writeGen(b, re)
	}
	switch {
	case isExactOne(im):
		if !isExactZero(re) {
			b.WriteByte('+')
		}
	case im.typ == TypeInt && im.ival == -1:
		b.WriteByte('-')
	default:
		s := im.String()
		if !isExactZero(re) && !strings.HasPrefix(s, "-") {
			b.WriteByte('+')
		}
		b.WriteString(s)
		b.WriteByte('*')
	}
	b.WriteByte('i')
}

// precedence levels used to decide on parentheses.
const (
	precSum = iota + 1
	precProduct
	precPower
	precAtom
)

func precedence(g Gen) int {
	switch g.typ {
	case TypeSymb:
		switch g.name {
		case "+":
			return precSum
		case "*":
			if len(g.args) > 0 && isReal(g.args[0]) && sign(g.args[0]) < 0 {
				return precSum
			}
			return precProduct
		case "^":
			if isReal(g.args[1]) && sign(g.args[1]) < 0 {
				return precProduct
			}
			return precPower
		}
		return precAtom
	case TypeFrac:
		if sign(g) < 0 {
			return precSum
		}
		return precProduct
	case TypeCplx:
		if isExactZero(g.args[0]) {
			return precProduct
		}
		return precSum
	case TypeInt, TypeZint, TypeDouble, TypeFloat:
		if sign(g) < 0 {
			return precSum
		}
	}
	return precAtom
}

func writeParen(b *strings.Builder, g Gen, min int) {
	if precedence(g) < min {
		b.WriteByte('(')
		writeGen(b, g)
		b.WriteByte(')')
		return
	}
	writeGen(b, g)
}

func writeSymb(b *strings.Builder, g Gen) {
	switch g.name {
	case "+":
		for i, a := range g.args {
			s := a.String()
			if i > 0 && !strings.HasPrefix(s, "-") {
				b.WriteByte('+')
			}
			if a.typ == TypeSymb && a.name == "+" {
				s = "(" + s + ")"
			}
			b.WriteString(s)
		}
	case "*":
		writeProduct(b, g.args)
	case "^":
		if isReal(g.args[1]) && sign(g.args[1]) < 0 {
			writeProduct(b, []Gen{g})
			return
		}
		writeParen(b, g.args[0], precAtom)
		b.WriteByte('^')
		writeParen(b, g.args[1], precAtom)
	default:
		b.WriteString(g.name)
		b.WriteByte('(')
		for i, a := range g.args {
			if i > 0 {
				b.WriteByte(',')
			}
			writeGen(b, a)
		}
		b.WriteByte(')')
	}
}

// writeProduct prints factors, moving negative powers and fraction
// denominators below a single slash.
func writeProduct(b *strings.Builder, factors []Gen) {
	var num, den []Gen
	negate := false
	for i, f := range factors {
		if i == 0 && len(factors) > 1 && isReal(f) && sign(f) < 0 {
			negate = true
			f, _ = Neg(f)
		}
		switch {
		case i == 0 && negate && isExactOne(f):
		case i == 0 && f.typ == TypeFrac:
			if n := Zint(f.qval.Num()); !isExactOne(n) {
				num = append(num, n)
			}
			den = append(den, Zint(f.qval.Denom()))
		case f.typ == TypeSymb && f.name == "^" && isReal(f.args[1]) && sign(f.args[1]) < 0:
			e, _ := Neg(f.args[1])
			if isExactOne(e) {
				den = append(den, f.args[0])
			} else {
				den = append(den, Symbolic("^", f.args[0], e))
			}
		default:
			num = append(num, f)
		}
	}
	if negate {
		b.WriteByte('-')
	}
	if len(num) == 0 {
		b.WriteByte('1')
	}
	for i, f := range num {
		if i > 0 {
			b.WriteByte('*')
		}
		writeParen(b, f, precProduct)
	}
	if len(den) == 0 {
		return
	}
	b.WriteByte('/')
	if len(den) == 1 {
		writeParen(b, den[0], precProduct+1)
		return
	}
	b.WriteByte('(')
	for i, f := range den {
		if i > 0 {
			b.WriteByte('*')
		}
		writeParen(b, f, precProduct)
	}
	b.WriteByte(')')
}

package engine

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func (l *lexer) errAt(line, col int, text string) *ParseError {
	if text == "" {
		text = "end of input"
	}
	return &ParseError{Line: line, Col: col, Token: text}
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) peekRune(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) tokens() ([]token, error) {
	var out []token
	for {
		for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
			l.advance()
		}
		line, col := l.line, l.col
		if l.pos >= len(l.src) {
			out = append(out, token{kind: tokEOF, line: line, col: col})
			return out, nil
		}
		r := l.src[l.pos]
		start := l.pos
		switch {
		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peekRune(1))):
			for l.pos < len(l.src) && (unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
				l.advance()
			}
			if c := l.peekRune(0); c == 'e' || c == 'E' {
				next := l.peekRune(1)
				if unicode.IsDigit(next) || ((next == '-' || next == '+') && unicode.IsDigit(l.peekRune(2))) {
					l.advance()
					l.advance()
					for l.pos < len(l.src) && unicode.IsDigit(l.src[l.pos]) {
						l.advance()
					}
				}
			}
			out = append(out, token{kind: tokNumber, text: string(l.src[start:l.pos]), line: line, col: col})
		case unicode.IsLetter(r) || r == '_':
			for l.pos < len(l.src) && (unicode.IsLetter(l.src[l.pos]) || unicode.IsDigit(l.src[l.pos]) || l.src[l.pos] == '_') {
				l.advance()
			}
			out = append(out, token{kind: tokIdent, text: string(l.src[start:l.pos]), line: line, col: col})
		case r == '"':
			l.advance()
			var sb strings.Builder
			closed := false
			for l.pos < len(l.src) {
				c := l.advance()
				if c == '"' {
					closed = true
					break
				}
				if c == '\\' && l.pos < len(l.src) {
					c = l.advance()
					if c == 'n' {
						c = '\n'
					}
				}
				sb.WriteRune(c)
			}
			if !closed {
				return nil, l.errAt(line, col, string(l.src[start:]))
			}
			out = append(out, token{kind: tokString, text: sb.String(), line: line, col: col})
		case r == ':' && l.peekRune(1) == '=':
			l.advance()
			l.advance()
			out = append(out, token{kind: tokOp, text: ":=", line: line, col: col})
		case r == '*' && l.peekRune(1) == '*':
			l.advance()
			l.advance()
			out = append(out, token{kind: tokOp, text: "^", line: line, col: col})
		case strings.ContainsRune("+-*/^!()[],;", r):
			l.advance()
			out = append(out, token{kind: tokOp, text: string(r), line: line, col: col})
		default:
			return nil, l.errAt(line, col, string(r))
		}
	}
}

type nodeKind int

const (
	nodeNumber nodeKind = iota
	nodeIdent
	nodeString
	nodeList
	nodeCall
	nodeBinary
	nodeNeg
	nodeFactorial
	nodeAssign
	nodeSeq
	nodeOverflow
)

// MaxNesting bounds both the parser's recursion and the height of the
// expression tree it builds. Deeper input is rejected with a ParseError.
const MaxNesting = 10000

type node struct {
	kind     nodeKind
	text     string
	value    Gen
	children []*node
	height   int
}

// Expr is a parsed, not yet evaluated, expression.
type Expr struct {
	root *node
}

type parser struct {
	toks  []token
	pos   int
	depth int
}

// Parse parses text. On a syntax error the diagnostic is returned and also
// recorded as the context's last parse error.
func Parse(ctx *Context, text string) (*Expr, error) {
	lx := &lexer{src: []rune(text), line: 1, col: 1}
	toks, err := lx.tokens()
	if err != nil {
		pe := err.(*ParseError)
		ctx.setParseError(pe)
		return nil, pe
	}
	p := &parser{toks: toks}
	root, perr := p.parseSeq()
	if perr == nil && p.peek().kind != tokEOF {
		perr = p.fail()
	}
	if perr != nil {
		ctx.setParseError(perr)
		return nil, perr
	}
	ctx.setParseError(nil)
	return &Expr{root: root}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) fail() *ParseError {
	t := p.peek()
	text := t.text
	if t.kind == tokEOF {
		text = "end of input"
	}
	return &ParseError{Line: t.line, Col: t.col, Token: text}
}

func (p *parser) tooDeep() *ParseError {
	pe := p.fail()
	pe.Reason = "nesting too deep"
	return pe
}

// enter counts one level of parser recursion; every successful enter is
// paired with a deferred leave.
func (p *parser) enter() *ParseError {
	if p.depth >= MaxNesting {
		return p.tooDeep()
	}
	p.depth++
	return nil
}

func (p *parser) leave() { p.depth-- }

// build makes an interior node and enforces the tree height limit.
func (p *parser) build(kind nodeKind, text string, children ...*node) (*node, *ParseError) {
	h := 0
	for _, c := range children {
		h = max(h, c.height)
	}
	if h+1 > MaxNesting {
		return nil, p.tooDeep()
	}
	return &node{kind: kind, text: text, children: children, height: h + 1}, nil
}

func (p *parser) expect(text string) *ParseError {
	if !p.isOp(text) {
		return p.fail()
	}
	p.next()
	return nil
}

func (p *parser) parseSeq() (*node, *ParseError) {
	var stmts []*node
	for {
		if p.peek().kind == tokEOF && len(stmts) > 0 {
			break
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if !p.isOp(";") {
			break
		}
		p.next()
	}
	if len(stmts) == 1 {
		return stmts[0], nil
	}
	return p.build(nodeSeq, "", stmts...)
}

func (p *parser) parseStmt() (*node, *ParseError) {
	if p.peek().kind == tokIdent && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == ":=" {
		name := p.next().text
		p.next()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return p.build(nodeAssign, name, rhs)
	}
	return p.parseExpr()
}

func (p *parser) parseExpr() (*node, *ParseError) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next().text
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if left, err = p.build(nodeBinary, op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseTerm() (*node, *ParseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if left, err = p.build(nodeBinary, op, left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *parser) parseUnary() (*node, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch {
	case p.isOp("-"):
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.build(nodeNeg, "", operand)
	case p.isOp("+"):
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*node, *ParseError) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.build(nodeBinary, "^", base, exp)
}

func (p *parser) parsePostfix() (*node, *ParseError) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isOp("!") {
		p.next()
		if n, err = p.build(nodeFactorial, "", n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *parser) parsePrimary() (*node, *ParseError) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		v, ok, overflow := parseNumber(t.text)
		if overflow {
			return &node{kind: nodeOverflow, text: t.text}, nil
		}
		if !ok {
			return nil, &ParseError{Line: t.line, Col: t.col, Token: t.text}
		}
		return &node{kind: nodeNumber, value: v}, nil
	case tokString:
		p.next()
		return &node{kind: nodeString, text: t.text}, nil
	case tokIdent:
		p.next()
		if !p.isOp("(") {
			return &node{kind: nodeIdent, text: t.text}, nil
		}
		p.next()
		args, err := p.parseArgs(")")
		if err != nil {
			return nil, err
		}
		return p.build(nodeCall, t.text, args...)
	case tokOp:
		switch t.text {
		case "(":
			p.next()
			inner, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		case "[":
			p.next()
			items, err := p.parseArgs("]")
			if err != nil {
				return nil, err
			}
			return p.build(nodeList, "", items...)
		}
	}
	return nil, p.fail()
}

// parseArgs parses a possibly empty comma separated list up to closer.
func (p *parser) parseArgs(closer string) ([]*node, *ParseError) {
	var args []*node
	if p.isOp(closer) {
		p.next()
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isOp(",") {
			p.next()
			continue
		}
		if err := p.expect(closer); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// parseNumber converts a number token. overflow reports a decimal literal
// beyond the double range; literals too small for a double round to zero.
func parseNumber(text string) (g Gen, ok, overflow bool) {
	if strings.ContainsAny(text, ".eE") {
		if strings.Count(text, ".") > 1 {
			return Gen{}, false, false
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
				return Gen{}, false, true
			}
			if !errors.Is(err, strconv.ErrRange) {
				return Gen{}, false, false
			}
		}
		return Double(f), true, false
	}
	z, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Gen{}, false, false
	}
	return Zint(z), true, false
}

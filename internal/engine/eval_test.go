package engine

import (
	"errors"
	"testing"
)

func TestEvalString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"integer sum", "1+2", "3"},
		{"power", "2^10", "1024"},
		{"big power", "2^100", "1267650600228229401496703205376"},
		{"fraction sum", "1/2+1/3", "5/6"},
		{"fraction reduced", "6/4", "3/2"},
		{"double product", "1.5*2", "3.0"},
		{"double rounding", "0.1+0.2", "0.3"},
		{"scientific literal", "1e-3", "0.001"},
		{"like terms", "x+x", "2*x"},
		{"like bases", "x*x", "x^2"},
		{"cancel", "x-x", "0"},
		{"negation", "-x", "-x"},
		{"linear", "2*x+3", "2*x+3"},
		{"constant last", "1+x", "x+1"},
		{"scaled sum", "2*(x+1)", "2*(x+1)"},
		{"half", "x/2", "x/2"},
		{"reciprocal", "1/x", "1/x"},
		{"quotient", "x/y", "x/y"},
		{"merged exponents", "x^2*x^3", "x^5"},
		{"nested power", "(x^2)^3", "x^6"},
		{"power of sum", "(1+x)^2", "(x+1)^2"},
		{"symbolic root", "x^(1/2)", "x^(1/2)"},
		{"exact root", "4^(1/2)", "2"},
		{"exact rational power", "8^(2/3)", "4"},
		{"irrational root", "2^(1/2)", "2^(1/2)"},
		{"complex product", "(1+i)*(1-i)", "2"},
		{"imaginary square", "i^2", "-1"},
		{"complex sum", "3+2*i", "3+2*i"},
		{"vector sum", "[1,2]+[3,4]", "[4,6]"},
		{"dot product", "[1,2]*[3,4]", "11"},
		{"matrix product", "[[1,2],[3,4]]*[[1,0],[0,1]]", "[[1,2],[3,4]]"},
		{"postfix factorial", "5!", "120"},
		{"assignment", "a:=3;a^2", "9"},
		{"unknown function", "f(x)", "f(x)"},
		{"string", `"abc"`, `"abc"`},
		{"gcd", "gcd(18,12)", "6"},
		{"lcm", "lcm(18,15)", "90"},
		{"ifactor", "ifactor(90)", "2*3^2*5"},
		{"ifactor negative", "ifactor(-12)", "-2^2*3"},
		{"ifactors", "ifactors(90)", "[2,1,3,2,5,1]"},
		{"maple_ifactors", "maple_ifactors(90)", "[1,[[2,1],[3,2],[5,1]]]"},
		{"idivis", "idivis(36)", "[1,2,4,3,6,12,9,18,36]"},
		{"iquorem", "iquorem(148,5)", "[29,3]"},
		{"iquorem negative", "iquorem(-7,2)", "[-4,1]"},
		{"nextprime", "nextprime(75)", "79"},
		{"prevprime", "prevprime(75)", "73"},
		{"ithprime", "ithprime(75)", "379"},
		{"iegcd", "iegcd(48,30)", "[2,-3,6]"},
		{"iabcuv", "iabcuv(48,30,18)", "[6,-9]"},
		{"ichinrem", "ichinrem(3,5,9,13)", "[-17,65]"},
		{"pa2b2", "pa2b2(17)", "[4,1]"},
		{"euler", "euler(21)", "12"},
		{"legendre", "legendre_symbol(27,17)", "-1"},
		{"jacobi", "jacobi_symbol(35,12)", "-1"},
		{"comb", "comb(5,2)", "10"},
		{"perm", "perm(5,2)", "20"},
		{"factor difference of squares", "factor(x^2-1)", "(x-1)*(x+1)"},
		{"factor monomial", "factor(x^3-x)", "x*(x-1)*(x+1)"},
		{"factor content", "factor(2*x^2-2)", "2*(x-1)*(x+1)"},
		{"factor square", "factor(x^2+2*x+1)", "(x+1)^2"},
		{"factor irreducible", "factor(x^2+1)", "x^2+1"},
		{"factor rational roots", "factor(6*x^2+x-1)", "(3*x-1)*(2*x+1)"},
		{"factor integer", "factor(90)", "2*3^2*5"},
		{"simplify product", "simplify((x-1)*(x+1))", "x^2-1"},
		{"simplify quotient", "simplify((x^2-1)/(x-1))", "x+1"},
		{"reciprocal of a sum", "1/(x+1)", "1/(x+1)"},
		{"simplify rational sum", "simplify(1/(x+1)+1/(x-1))", "2*x/(x^2-1)"},
		{"product of sums below the slash", "1/((x+1)*(y+1))", "1/((x+1)*(y+1))"},
		{"power below the slash", "x/y^2", "x/y^2"},
		{"constant below the slash", "x/(2*y)", "x/(2*y)"},
		{"det", "det([[1,2],[3,4]])", "-2"},
		{"det symbolic", "det([[a,b],[c,d]])", "a*d-b*c"},
		{"float2rational", "float2rational(0.125)", "1/8"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctx := NewContext()
			got, err := EvalString(ctx, tc.expr)
			if err != nil {
				t.Fatalf("EvalString(%q) returned error: %v", tc.expr, err)
			}
			if got.String() != tc.want {
				t.Errorf("EvalString(%q) = %q, want %q", tc.expr, got.String(), tc.want)
			}
		})
	}
}

func TestEvalStringErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"division by zero", "1/0", "Division by 0"},
		{"huge exponent", "10^10^10", "Exponent too large"},
		{"ifactor zero", "ifactor(0)", "ifactor: cannot factor 0"},
		{"pa2b2 composite", "pa2b2(18)", "pa2b2: argument must be a prime congruent to 1 mod 4"},
		{"iabcuv no solution", "iabcuv(48,30,19)", "iabcuv: no solution in ring"},
		{"arity", "gcd(1)", "gcd: wrong number of arguments (expected 2, got 1)"},
		{"string arithmetic", `"a"+1`, "Bad argument type"},
		{"dimension", "[1,2]+[1,2,3]", "Invalid dimension"},
		{"det not square", "det([[1,2,3],[4,5,6]])", "det: square matrix expected"},
		{"integer expected", "iquo(1.5,2)", "iquorem: integer argument expected, got double"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := EvalString(NewContext(), tc.expr)
			if err == nil {
				t.Fatalf("EvalString(%q) succeeded, want error %q", tc.expr, tc.want)
			}
			var engErr *Error
			if !errors.As(err, &engErr) {
				t.Fatalf("error %T is not *Error", err)
			}
			if err.Error() != tc.want {
				t.Errorf("EvalString(%q) error = %q, want %q", tc.expr, err.Error(), tc.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		line int
		col  int
		tok  string
	}{
		{"1+", 1, 3, "end of input"},
		{"2*)", 1, 3, ")"},
		{"a b", 1, 3, "b"},
		{"", 1, 1, "end of input"},
		{"1\n+*", 2, 2, "*"},
		{"3 $ 4", 1, 3, "$"},
		{"f(1,", 1, 5, "end of input"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()
			ctx := NewContext()
			_, err := Parse(ctx, tc.expr)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", tc.expr, err)
			}
			if pe.Line != tc.line || pe.Col != tc.col || pe.Token != tc.tok {
				t.Errorf("Parse(%q) = line %d col %d %q, want line %d col %d %q",
					tc.expr, pe.Line, pe.Col, pe.Token, tc.line, tc.col, tc.tok)
			}
			if ctx.LastParseError() != pe {
				t.Errorf("context did not record the parse error")
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	t.Parallel()
	_, err := Parse(NewContext(), "1+")
	want := `syntax error line 1 col 3 at "end of input"`
	if err == nil || err.Error() != want {
		t.Fatalf("Parse error = %v, want %s", err, want)
	}
}

func TestContextBindingsAreIsolated(t *testing.T) {
	t.Parallel()
	a, b := NewContext(), NewContext()
	if _, err := EvalString(a, "n:=5"); err != nil {
		t.Fatal(err)
	}
	got, err := EvalString(b, "n+1")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "n+1" {
		t.Errorf("binding leaked across contexts: %s", got)
	}
	got, err = EvalString(a, "n+1")
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "6" {
		t.Errorf("n+1 = %s, want 6", got)
	}
}

func TestIthPrimeBeyondLimitIsUndef(t *testing.T) {
	t.Parallel()
	got, err := IthPrime(NewContext(), Int(MaxIthPrime+1))
	if err != nil {
		t.Fatal(err)
	}
	if !IsUndef(got) {
		t.Errorf("IthPrime(%d) = %s, want undef", MaxIthPrime+1, got)
	}
}

package engine

import (
	"errors"
	"strings"
	"testing"
)

// FuzzParse verifies that the parser either builds an expression or reports
// a *ParseError, whatever the input. Deeply nested input must be rejected
// instead of exhausting the stack.
func FuzzParse(f *testing.F) {
	// Seed corpus with valid, malformed and deeply nested expressions
	f.Add("1+2*3")
	f.Add("factor(x^2-1)")
	f.Add("[[1,2],[3,4]]")
	f.Add("a:=3;a^2")
	f.Add("5!!")
	f.Add("--+-x")
	f.Add("\"str\\n\"")
	f.Add("1e400")
	f.Add("f(1,")
	f.Add("((((")
	f.Add(strings.Repeat("(", 2*MaxNesting) + "1")
	f.Add(strings.Repeat("-", 2*MaxNesting) + "1")

	f.Fuzz(func(t *testing.T, text string) {
		// Keep iterations quick
		if len(text) > 1<<16 {
			return
		}

		ctx := NewContext()
		expr, err := Parse(ctx, text)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) returned %T, want *ParseError", text, err)
			}
			if pe.Line < 1 || pe.Col < 1 {
				t.Errorf("Parse(%q) reported position line %d col %d", text, pe.Line, pe.Col)
			}
			if ctx.LastParseError() != pe {
				t.Errorf("Parse(%q) did not record its diagnostic", text)
			}
			return
		}
		if expr == nil || expr.root == nil {
			t.Fatalf("Parse(%q) returned no expression and no error", text)
		}
		if h := expr.root.height; h > MaxNesting {
			t.Errorf("Parse(%q) built a tree of height %d", text, h)
		}
		if ctx.LastParseError() != nil {
			t.Errorf("Parse(%q) succeeded but kept a stale diagnostic", text)
		}
	})
}

func TestParseNestingLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
	}{
		{"parentheses", strings.Repeat("(", 1_000_000) + "1" + strings.Repeat(")", 1_000_000)},
		{"unary minus", strings.Repeat("-", 1_000_000) + "1"},
		{"lists", strings.Repeat("[", MaxNesting) + strings.Repeat("]", MaxNesting)},
		{"calls", strings.Repeat("f(", MaxNesting) + strings.Repeat(")", MaxNesting)},
		{"long sum", strings.Repeat("1+", MaxNesting+1) + "1"},
		{"long factorial chain", "3" + strings.Repeat("!", MaxNesting+1)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(NewContext(), tc.expr)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse error = %v, want *ParseError", err)
			}
			if pe.Reason != "nesting too deep" {
				t.Errorf("Reason = %q, want %q", pe.Reason, "nesting too deep")
			}
			if !strings.HasSuffix(pe.Error(), ": nesting too deep") {
				t.Errorf("message %q does not name the nesting limit", pe.Error())
			}
		})
	}
}

func TestParseModerateNesting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want string
	}{
		{strings.Repeat("(", 500) + "7" + strings.Repeat(")", 500), "7"},
		{strings.Repeat("-", 500) + "7", "7"},
		{strings.Repeat("1+", 999) + "1", "1000"},
	}
	for _, tc := range tests {
		got, err := EvalString(NewContext(), tc.expr)
		if err != nil {
			t.Fatalf("EvalString(%.20q...) failed: %v", tc.expr, err)
		}
		if got.String() != tc.want {
			t.Errorf("EvalString(%.20q...) = %s, want %s", tc.expr, got, tc.want)
		}
	}
}

func TestNumericLiteralRange(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"1e400", "-1e400", "2*1.5e309"} {
		_, err := EvalString(NewContext(), expr)
		var pe *ParseError
		if errors.As(err, &pe) {
			t.Errorf("EvalString(%q) reported a syntax error: %v", expr, err)
			continue
		}
		var ee *Error
		if !errors.As(err, &ee) || !strings.Contains(ee.Msg, "overflow") {
			t.Errorf("EvalString(%q) error = %v, want a numeric overflow error", expr, err)
		}
	}

	got, err := EvalString(NewContext(), "1e-400")
	if err != nil {
		t.Fatalf("EvalString(1e-400) failed: %v", err)
	}
	if zero, _ := IsZero(NewContext(), got); !zero {
		t.Errorf("1e-400 = %s, want zero", got)
	}
}

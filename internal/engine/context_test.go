package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextLoggerReceivesDebugEvents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := NewContext()
	ctx.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	if _, err := IthPrime(ctx, Int(10)); err != nil {
		t.Fatal(err)
	}
	if _, err := EvalString(ctx, "factor(x^2-1)"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, msg := range []string{`"message":"ithprime"`, `"message":"factor"`} {
		if !strings.Contains(out, msg) {
			t.Errorf("log output %q lacks %s", out, msg)
		}
	}
}

func TestContextLoggerDefaultsToSilent(t *testing.T) {
	t.Parallel()

	if lvl := NewContext().Logger().GetLevel(); lvl != zerolog.Disabled {
		t.Errorf("fresh context logger level = %s, want disabled", lvl)
	}
}

func TestDebugOnNilContext(t *testing.T) {
	t.Parallel()

	g, err := EvalString(NewContext(), "x^2-1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Factor(nil, g)
	if err != nil {
		t.Fatalf("Factor with nil context: %v", err)
	}
	if got.String() != "(x-1)*(x+1)" {
		t.Errorf("Factor(x^2-1) = %s", got)
	}
}

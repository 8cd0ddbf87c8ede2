package cas

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustEval(t *testing.T, c *Context, text string) *Value {
	t.Helper()
	v, err := c.Eval(text)
	require.NoError(t, err, text)
	t.Cleanup(v.Free)
	return v
}

func TestGlobalContext(t *testing.T) {
	Init()
	Init()
	v, err := Global().Eval("3*4")
	require.NoError(t, err)
	defer v.Free()
	assert.Equal(t, "12", v.String())

	Global().Free()
	v2, err := Global().Eval("1")
	require.NoError(t, err)
	v2.Free()
}

func TestValueLifecycle(t *testing.T) {
	t.Parallel()

	v := Int(5)
	assert.Equal(t, TypeInt, v.Type())
	c, err := v.Clone()
	require.NoError(t, err)

	v.Free()
	v.Free()
	assert.Equal(t, TypeInvalid, v.Type())
	assert.Equal(t, "<freed>", v.String())
	_, err = v.Int32()
	assert.ErrorIs(t, err, ErrFreed)

	i, err := c.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(5), i)
	c.Free()
}

func TestArithmeticDoesNotMutateOperands(t *testing.T) {
	t.Parallel()

	a, b := Int(7), Int(2)
	defer a.Free()
	defer b.Free()

	tests := []struct {
		name string
		fn   func(*Value) (*Value, error)
		want string
	}{
		{"add", a.Add, "9"},
		{"sub", a.Sub, "5"},
		{"mul", a.Mul, "14"},
		{"div", a.Div, "7/2"},
	}
	for _, tc := range tests {
		r, err := tc.fn(b)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, r.String(), tc.name)
		r.Free()
	}
	assert.Equal(t, "7", a.String())
	assert.Equal(t, "2", b.String())

	z := Int(0)
	defer z.Free()
	_, err := a.Div(z)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Div", ce.Op)
	assert.Equal(t, "Division by 0", ce.Msg)
}

func TestFactorialRoundTrip(t *testing.T) {
	t.Parallel()

	v, err := Factorial(30)
	require.NoError(t, err)
	defer v.Free()
	assert.Equal(t, "265252859812191058636308480000000", v.String())
	assert.Equal(t, TypeZint, v.Type())
}

func TestContextOperations(t *testing.T) {
	t.Parallel()
	c := NewContext()
	defer c.Free()

	q, r, err := c.IQuoRem(mustEval(t, c, "-7"), mustEval(t, c, "2"))
	require.NoError(t, err)
	assert.Equal(t, "-4", q.String())
	assert.Equal(t, "1", r.String())

	x, mod, err := c.IChinRem(mustEval(t, c, "3"), mustEval(t, c, "5"), mustEval(t, c, "9"), mustEval(t, c, "13"))
	require.NoError(t, err)
	assert.Equal(t, "-17", x.String())
	assert.Equal(t, "65", mod.String())

	u, v, d, err := c.IEgcd(mustEval(t, c, "48"), mustEval(t, c, "30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "-3", "6"}, []string{u.String(), v.String(), d.String()})

	s, err := c.IsPseudoprime(mustEval(t, c, "97"))
	require.NoError(t, err)
	assert.Equal(t, Prime, s)
	assert.Equal(t, "prime", s.String())

	sym, err := c.Jacobi(mustEval(t, c, "35"), mustEval(t, c, "12"))
	require.NoError(t, err)
	assert.Equal(t, int8(-1), sym)

	even, err := c.Even(mustEval(t, c, "12"))
	require.NoError(t, err)
	assert.True(t, even)

	f, err := c.Factor(mustEval(t, c, "x^3-x"))
	require.NoError(t, err)
	assert.Equal(t, "x*(x-1)*(x+1)", f.String())

	det, err := c.Det(mustEval(t, c, "[[2,0],[0,3]]"))
	require.NoError(t, err)
	assert.Equal(t, "6", det.String())
}

func TestNthPrimeTooLarge(t *testing.T) {
	t.Parallel()
	c := NewContext()
	defer c.Free()

	_, err := c.NthPrime(mustEval(t, c, "10^9"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArgumentTooLarge)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Failed to compute nthprime, argument is too big", ce.Msg)
}

func TestFreedContext(t *testing.T) {
	t.Parallel()
	c := NewContext()
	c.Free()
	c.Free()
	_, err := c.Eval("1")
	assert.ErrorIs(t, err, ErrFreed)
	assert.Zero(t, c.Epsilon())
}

func TestEvalContextAndEpsilon(t *testing.T) {
	t.Parallel()
	c := NewContext()
	defer c.Free()

	small := Double(1e-8)
	defer small.Free()
	z, err := c.IsZero(small)
	require.NoError(t, err)
	assert.False(t, z)

	c.SetEpsilon(1e-6)
	assert.Equal(t, 1e-6, c.Epsilon())
	z, err = c.IsZero(small)
	require.NoError(t, err)
	assert.True(t, z)

	v, err := c.EvalContext(context.Background(), "ifactor(1001)")
	require.NoError(t, err)
	defer v.Free()
	assert.Equal(t, "7*11*13", v.String())

	_, err = c.EvalContext(context.Background(), "1+")
	require.Error(t, err)
	assert.Equal(t, `cas.Eval: syntax error line 1 col 3 at "end of input"`, err.Error())
}

func TestRunWithTimeout(t *testing.T) {
	t.Parallel()

	v, err := RunWithTimeout(context.Background(), func() (*Value, error) {
		return Int(1), nil
	})
	require.NoError(t, err)
	v.Free()

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = RunWithTimeout(ctx, func() (*Value, error) {
		<-release
		return Int(2), nil
	})
	close(release)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTemporaryOperandsSurviveCollection(t *testing.T) {
	t.Parallel()

	var stop atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		for !stop.Load() {
			runtime.GC()
		}
	}()
	defer func() {
		stop.Store(true)
		<-done
	}()

	for i := 0; i < 2000; i++ {
		c := NewContext()
		g, err := c.Gcd(Int(18), Int(12))
		require.NoError(t, err)
		assert.Equal(t, "6", g.String())
		g.Free()

		s, err := Int(40).Add(Int(2))
		require.NoError(t, err)
		assert.Equal(t, "42", s.String())
		s.Free()

		v, err := NewContext().Eval("2^16")
		require.NoError(t, err)
		n, err := v.Int32()
		require.NoError(t, err)
		assert.Equal(t, int32(65536), n)
		v.Free()
		c.Free()
	}
}

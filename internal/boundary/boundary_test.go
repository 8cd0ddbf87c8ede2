package boundary

import (
	"bytes"
	"errors"
	"io"
	"math/big"
	"os"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/casbridge/internal/engine"
)

func fromText(t *testing.T, ctx ContextHandle, text string) GenHandle {
	t.Helper()
	h := Allocate()
	t.Cleanup(func() { Free(h) })
	require.NoError(t, FromText(text, ctx, h))
	return h
}

func newCtx(t *testing.T) ContextHandle {
	t.Helper()
	c := NewContext()
	t.Cleanup(func() { FreeContext(c) })
	return c
}

func TestGlobalContextRequiresInit(t *testing.T) {
	// Not parallel: the global handle is process state.
	InitGlobalContext()
	InitGlobalContext()

	h := fromText(t, GlobalContext, "2^10")
	assert.Equal(t, "1024", ToString(h))

	FreeContext(GlobalContext)
	_, err := lookupContext(GlobalContext)
	require.NoError(t, err, "freeing the global context must be refused")
}

func TestContextLifecycle(t *testing.T) {
	t.Parallel()

	c := NewContext()
	assert.Equal(t, engine.DefaultEpsilon, Epsilon(c))
	SetEpsilon(1e-3, c)
	assert.Equal(t, 1e-3, Epsilon(c))

	FreeContext(c)
	out := Allocate()
	defer Free(out)
	err := FromText("1", c, out)
	require.Error(t, err)
	assert.Equal(t, errInvalidContext, err.Error())

	FreeContext(c)
	SetEpsilon(1, c)
	assert.Zero(t, Epsilon(c))
}

func TestFromTextSyntaxErrorLeavesSlot(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	out := FromInt(7)
	defer Free(out)

	err := FromText("1+*2", ctx, out)
	require.Error(t, err)
	assert.Equal(t, `syntax error line 1 col 3 at "*"`, err.Error())
	assert.Equal(t, "7", ToString(out))

	err = FromText("1/0", ctx, out)
	require.Error(t, err)
	assert.Equal(t, "Division by 0", err.Error())
	assert.Equal(t, "7", ToString(out))
}

func TestConstructorsAndTypes(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	tests := []struct {
		name string
		h    GenHandle
		typ  engine.Type
		text string
	}{
		{"allocate", Allocate(), engine.TypeInt, "0"},
		{"int", FromInt(-12), engine.TypeInt, "-12"},
		{"float", FromFloat(1.5), engine.TypeFloat, "1.5"},
		{"double", FromDouble(0.25), engine.TypeDouble, "0.25"},
		{"zint", fromText(t, ctx, "2^64"), engine.TypeZint, "18446744073709551616"},
		{"fraction", fromText(t, ctx, "3/4"), engine.TypeFrac, "3/4"},
		{"complex", fromText(t, ctx, "1+i"), engine.TypeCplx, "1+i"},
		{"identifier", fromText(t, ctx, "x"), engine.TypeIdnt, "x"},
		{"vector", fromText(t, ctx, "[1,2]"), engine.TypeVect, "[1,2]"},
		{"symbolic", fromText(t, ctx, "x+1"), engine.TypeSymb, "x+1"},
		{"string", fromText(t, ctx, `"hi"`), engine.TypeString, `"hi"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, uint8(tc.typ), Type(tc.h))
			assert.Equal(t, tc.text, ToString(tc.h))
		})
	}
}

func TestInvalidHandles(t *testing.T) {
	t.Parallel()

	h := FromInt(3)
	Free(h)
	Free(h)

	assert.Equal(t, InvalidType, Type(h))
	assert.Equal(t, "", ToString(h))

	var i int32
	err := ToInt(h, &i)
	require.Error(t, err)
	assert.Equal(t, errInvalidValue, err.Error())

	_, err = Clone(h)
	require.Error(t, err)

	live := FromInt(1)
	defer Free(live)
	require.Error(t, Add(live, h))
	assert.Equal(t, "1", ToString(live))
}

func TestToInt(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	var out int32 = 99
	require.NoError(t, ToInt(fromText(t, ctx, "6*7"), &out))
	assert.Equal(t, int32(42), out)

	err := ToInt(fromText(t, ctx, "2^40"), &out)
	require.Error(t, err)
	assert.Equal(t, int32(42), out)
}

func TestFromFactorial(t *testing.T) {
	t.Parallel()

	h, err := FromFactorial(25)
	require.NoError(t, err)
	defer Free(h)
	assert.Equal(t, "15511210043330985984000000", ToString(h))
	assert.Equal(t, uint8(engine.TypeZint), Type(h))

	_, err = FromFactorial(engine.MaxFactorial + 1)
	require.Error(t, err)
}

func TestArithmeticMutatesFirstArgument(t *testing.T) {
	t.Parallel()

	a := FromInt(10)
	b := FromInt(4)
	defer Free(a)
	defer Free(b)

	steps := []struct {
		op   func(a, b GenHandle) error
		want string
	}{
		{Add, "14"},
		{Sub, "10"},
		{Mul, "40"},
		{Div, "10"},
		{Div, "5/2"},
	}
	for _, s := range steps {
		require.NoError(t, s.op(a, b))
		assert.Equal(t, s.want, ToString(a))
		assert.Equal(t, "4", ToString(b))
	}

	zero := Allocate()
	defer Free(zero)
	err := Div(a, zero)
	require.Error(t, err)
	assert.Equal(t, "Division by 0", err.Error())
	assert.Equal(t, "5/2", ToString(a))
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("mutating a clone never changes the original", prop.ForAll(
		func(x, y int32) bool {
			orig := FromInt(x)
			defer Free(orig)
			c, err := Clone(orig)
			if err != nil {
				return false
			}
			defer Free(c)
			other := FromInt(y)
			defer Free(other)
			before := ToString(orig)
			for _, op := range []func(a, b GenHandle) error{Add, Mul, Sub} {
				if op(c, other) != nil {
					return false
				}
			}
			return ToString(orig) == before
		},
		gen.Int32(),
		gen.Int32(),
	))

	properties.TestingRun(t)
}

func TestOperations(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	type op func(in []GenHandle, out []GenHandle) error
	tests := []struct {
		name string
		in   []string
		outs int
		fn   op
		want []string
	}{
		{"gcd", []string{"18", "12"}, 1, func(i, o []GenHandle) error { return Gcd(i[0], i[1], o[0], ctx) }, []string{"6"}},
		{"gcd polynomial", []string{"x^2-1", "x^2+2*x+1"}, 1, func(i, o []GenHandle) error { return Gcd(i[0], i[1], o[0], ctx) }, []string{"x+1"}},
		{"lcm", []string{"4", "6"}, 1, func(i, o []GenHandle) error { return Lcm(i[0], i[1], o[0]) }, []string{"12"}},
		{"ifactor", []string{"90"}, 1, func(i, o []GenHandle) error { return IFactor(i[0], o[0], ctx) }, []string{"2*3^2*5"}},
		{"ifactors", []string{"90"}, 1, func(i, o []GenHandle) error { return IFactors(i[0], o[0], ctx) }, []string{"[2,1,3,2,5,1]"}},
		{"maple_ifactors", []string{"90"}, 1, func(i, o []GenHandle) error { return MapleIFactors(i[0], o[0], ctx) }, []string{"[1,[[2,1],[3,2],[5,1]]]"}},
		{"divisors", []string{"36"}, 1, func(i, o []GenHandle) error { return Divisors(i[0], o[0], ctx) }, []string{"[1,2,4,3,6,12,9,18,36]"}},
		{"iquo", []string{"148", "5"}, 1, func(i, o []GenHandle) error { return IQuo(i[0], i[1], o[0]) }, []string{"29"}},
		{"irem", []string{"148", "5"}, 1, func(i, o []GenHandle) error { return IRem(i[0], i[1], o[0]) }, []string{"3"}},
		{"iquorem", []string{"-7", "2"}, 2, func(i, o []GenHandle) error { return IQuoRem(i[0], i[1], o[0], o[1]) }, []string{"-4", "1"}},
		{"nextprime", []string{"75"}, 1, func(i, o []GenHandle) error { return NextPrime(i[0], o[0]) }, []string{"79"}},
		{"prevprime", []string{"75"}, 1, func(i, o []GenHandle) error { return PrevPrime(i[0], o[0]) }, []string{"73"}},
		{"nthprime", []string{"75"}, 1, func(i, o []GenHandle) error { return NthPrime(i[0], o[0], ctx) }, []string{"379"}},
		{"iegcd", []string{"48", "30"}, 3, func(i, o []GenHandle) error { return IEgcd(i[0], i[1], o[0], o[1], o[2]) }, []string{"2", "-3", "6"}},
		{"iabcuv", []string{"48", "30", "18"}, 2, func(i, o []GenHandle) error { return IAbcuv(i[0], i[1], i[2], o[0], o[1], ctx) }, []string{"6", "-9"}},
		{"ichinrem", []string{"3", "5", "9", "13"}, 1, func(i, o []GenHandle) error { return IChinRem(i[0], i[1], i[2], i[3], o[0]) }, []string{"-17"}},
		{"pa2b2", []string{"17"}, 2, func(i, o []GenHandle) error { return Pa2b2(i[0], o[0], o[1], ctx) }, []string{"4", "1"}},
		{"euler", []string{"21"}, 1, func(i, o []GenHandle) error { return Euler(i[0], o[0], ctx) }, []string{"12"}},
		{"comb", []string{"5", "2"}, 1, func(i, o []GenHandle) error { return Comb(i[0], i[1], o[0], ctx) }, []string{"10"}},
		{"perm", []string{"5", "2"}, 1, func(i, o []GenHandle) error { return Perm(i[0], i[1], o[0], ctx) }, []string{"20"}},
		{"float2rational", []string{"0.125"}, 1, func(i, o []GenHandle) error { return Float2Rational(i[0], o[0], ctx) }, []string{"1/8"}},
		{"factor", []string{"x^2-1"}, 1, func(i, o []GenHandle) error { return Factor(i[0], o[0], ctx) }, []string{"(x-1)*(x+1)"}},
		{"simplify", []string{"(x+1)^2-x^2"}, 1, func(i, o []GenHandle) error { return Simplify(i[0], o[0], ctx) }, []string{"2*x+1"}},
		{"det", []string{"[[1,2],[3,4]]"}, 1, func(i, o []GenHandle) error { return Det(i[0], o[0], ctx) }, []string{"-2"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := make([]GenHandle, len(tc.in))
			for i, s := range tc.in {
				in[i] = fromText(t, ctx, s)
			}
			out := make([]GenHandle, tc.outs)
			for i := range out {
				out[i] = Allocate()
				defer Free(out[i])
			}
			require.NoError(t, tc.fn(in, out))
			for i, want := range tc.want {
				assert.Equal(t, want, ToString(out[i]), "output %d", i)
			}
			for i, s := range tc.in {
				assert.Equal(t, s, ToString(in[i]), "input %d was modified", i)
			}
		})
	}
}

func TestSignCodedPredicates(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	var code int8 = -5
	require.NoError(t, IsPseudoprime(fromText(t, ctx, "100003"), &code))
	assert.Equal(t, int8(2), code)
	require.NoError(t, IsPseudoprime(fromText(t, ctx, "9856989898997789789"), &code))
	assert.Equal(t, int8(1), code)
	require.NoError(t, IsPseudoprime(fromText(t, ctx, "100005"), &code))
	assert.Equal(t, int8(0), code)

	require.NoError(t, Legendre(fromText(t, ctx, "27"), fromText(t, ctx, "17"), &code))
	assert.Equal(t, int8(-1), code)
	require.NoError(t, Jacobi(fromText(t, ctx, "33"), fromText(t, ctx, "12"), &code))
	assert.Equal(t, int8(0), code)

	code = 7
	require.Error(t, Legendre(fromText(t, ctx, "3"), fromText(t, ctx, "8"), &code))
	assert.Equal(t, int8(7), code)

	var even bool
	require.NoError(t, Even(fromText(t, ctx, "10"), &even, ctx))
	assert.True(t, even)
	require.NoError(t, Odd(fromText(t, ctx, "10"), &even, ctx))
	assert.False(t, even)
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	res := Allocate()
	defer Free(res)

	err := IFactor(fromText(t, ctx, "0"), res, ctx)
	require.Error(t, err)
	assert.Equal(t, "ifactor: cannot factor 0", err.Error())

	err = NthPrime(FromInt(engine.MaxIthPrime+1), res, ctx)
	require.Error(t, err)
	assert.Equal(t, NthPrimeTooBig, err.Error())

	var be *Error
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "nthprime", be.Op)

	err = IAbcuv(fromText(t, ctx, "48"), fromText(t, ctx, "30"), fromText(t, ctx, "19"), res, res, ctx)
	require.Error(t, err)
	assert.Equal(t, "iabcuv: no solution in ring", err.Error())
	assert.Equal(t, "0", ToString(res))
}

func TestGuardRecoversPanics(t *testing.T) {
	t.Parallel()

	err := guard("explode", func() error { panic("boom") })
	require.Error(t, err)
	assert.Equal(t, "internal error: boom", err.Error())

	var i int
	err = guard("nil_deref", func() error {
		var p *int
		i = *p
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error:")
	assert.Zero(t, i)

	err = ToInt(FromInt(1), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error:")
}

func TestIsZeroFollowsEpsilon(t *testing.T) {
	t.Parallel()
	ctx := newCtx(t)

	small := FromDouble(1e-6)
	defer Free(small)

	var z bool
	require.NoError(t, IsZero(small, &z, ctx))
	assert.False(t, z)

	SetEpsilon(1e-3, ctx)
	require.NoError(t, IsZero(small, &z, ctx))
	assert.True(t, z)
}

func TestRandUsesContextSeed(t *testing.T) {
	t.Parallel()
	a, b := newCtx(t), newCtx(t)
	SeedContext(7, a)
	SeedContext(7, b)

	n := FromInt(1_000_000)
	defer Free(n)
	ra, rb := Allocate(), Allocate()
	defer Free(ra)
	defer Free(rb)
	for i := 0; i < 5; i++ {
		require.NoError(t, Rand(n, ra, a))
		require.NoError(t, Rand(n, rb, b))
		assert.Equal(t, ToString(ra), ToString(rb))
	}
}

func TestGcdLcmProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("gcd*lcm = |a*b| through handles", prop.ForAll(
		func(x, y int32) bool {
			a, b := FromInt(x), FromInt(y)
			g, l := Allocate(), Allocate()
			defer func() {
				for _, h := range []GenHandle{a, b, g, l} {
					Free(h)
				}
			}()
			c := NewContext()
			defer FreeContext(c)
			if Gcd(a, b, g, c) != nil || Lcm(a, b, l) != nil {
				return false
			}
			if Mul(g, l) != nil {
				return false
			}
			want := new(big.Int).Mul(big.NewInt(int64(x)), big.NewInt(int64(y)))
			return ToString(g) == want.Abs(want).String()
		},
		gen.Int32Range(1, 1<<30),
		gen.Int32Range(-(1<<30), -1),
	))

	properties.TestingRun(t)
}

func TestFailedCallsAreSilentByDefault(t *testing.T) {
	// Not parallel: swaps os.Stderr.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	stderr := os.Stderr
	os.Stderr = w

	c := NewContext()
	out := Allocate()
	callErr := FromText("1/0", c, out)
	syntaxErr := FromText("1+", c, out)
	Free(out)
	FreeContext(c)

	os.Stderr = stderr
	require.NoError(t, w.Close())
	captured, err := io.ReadAll(r)
	require.NoError(t, err)

	require.Error(t, callErr)
	require.Error(t, syntaxErr)
	assert.Empty(t, string(captured), "failed calls must not write to stderr")
}

func TestSetLoggerReceivesFailures(t *testing.T) {
	// Not parallel: the diagnostics sink is process state.
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	c := newCtx(t)
	out := Allocate()
	defer Free(out)
	require.Error(t, FromText("1/0", c, out))

	assert.Contains(t, buf.String(), `"op":"from_text"`)
	assert.Contains(t, buf.String(), `"error":"Division by 0"`)
}

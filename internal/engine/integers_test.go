package engine

import (
	"math/big"
	"testing"
)

func mustZint(t *testing.T, s string) Gen {
	t.Helper()
	z, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer literal %q", s)
	}
	return Zint(z)
}

func TestIsProbablePrime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    string
		want int8
	}{
		{"100003", 2},
		{"14", 0},
		{"2", 2},
		{"1", 0},
		{"0", 0},
		{"-7", 0},
		{"9856989898997789789", 1},
		{"9856989898997789791", 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.n, func(t *testing.T) {
			t.Parallel()
			got, err := IsProbablePrime(mustZint(t, tc.n))
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("IsProbablePrime(%s) = %d, want %d", tc.n, got, tc.want)
			}
		})
	}

	if _, err := IsProbablePrime(Double(7)); err == nil {
		t.Error("IsProbablePrime(7.0) succeeded, want error")
	}
}

func TestSymbols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(a, n Gen) (int8, error)
		a, n int64
		want int8
	}{
		{"legendre residue", Legendre, 26, 17, 1},
		{"legendre non residue", Legendre, 27, 17, -1},
		{"legendre multiple", Legendre, 34, 17, 0},
		{"jacobi one", Jacobi, 25, 12, 1},
		{"jacobi minus one", Jacobi, 35, 12, -1},
		{"jacobi zero", Jacobi, 33, 12, 0},
		{"kronecker negative modulus", Jacobi, -1, -1, -1},
		{"kronecker zero modulus", Jacobi, 1, 0, 1},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.fn(Int(tc.a), Int(tc.n))
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("symbol(%d, %d) = %d, want %d", tc.a, tc.n, got, tc.want)
			}
		})
	}

	if _, err := Legendre(Int(3), Int(8)); err == nil {
		t.Error("Legendre with even modulus succeeded, want error")
	}
}

func TestIChinRemNonCoprime(t *testing.T) {
	t.Parallel()

	got, err := IChinRem(Int(1), Int(4), Int(3), Int(6))
	if err != nil {
		t.Fatal(err)
	}
	// x = 9 mod 12, symmetric residue -3.
	if got.String() != "-3" {
		t.Errorf("IChinRem(1,4,3,6) = %s, want -3", got)
	}
	if _, err := IChinRem(Int(1), Int(4), Int(2), Int(6)); err == nil {
		t.Error("inconsistent system succeeded, want error")
	}
}

func TestCombAndPermEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(n, k Gen) (Gen, error)
		n, k int64
		want string
	}{
		{"comb k above n", Comb, 3, 5, "0"},
		{"comb k negative", Comb, 3, -1, "0"},
		{"comb zero", Comb, 0, 0, "1"},
		{"perm k zero", Perm, 7, 0, "1"},
		{"perm full", Perm, 5, 5, "120"},
		{"perm k above n", Perm, 2, 3, "0"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.fn(Int(tc.n), Int(tc.k))
			if err != nil {
				t.Fatal(err)
			}
			if got.String() != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
	if _, err := Comb(Int(-1), Int(0)); err == nil {
		t.Error("Comb(-1, 0) succeeded, want error")
	}
}

func TestRandRangeAndSeed(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	for i := 0; i < 200; i++ {
		r, err := Rand(ctx, Int(10))
		if err != nil {
			t.Fatal(err)
		}
		if r.typ != TypeInt || r.ival < 0 || r.ival >= 10 {
			t.Fatalf("Rand(10) = %s, out of range", r)
		}
	}

	huge := mustZint(t, "1000000000000000000000000000000")
	r, err := Rand(ctx, huge)
	if err != nil {
		t.Fatal(err)
	}
	if sign(r) < 0 || bigInt(r).Cmp(bigInt(huge)) >= 0 {
		t.Fatalf("Rand(10^30) = %s, out of range", r)
	}

	a, b := NewContext(), NewContext()
	a.Seed(42)
	b.Seed(42)
	for i := 0; i < 10; i++ {
		x, _ := Rand(a, Int(1000))
		y, _ := Rand(b, Int(1000))
		if !Equal(x, y) {
			t.Fatalf("seeded contexts diverged: %s != %s", x, y)
		}
	}

	if _, err := Rand(ctx, Int(0)); err == nil {
		t.Error("Rand(0) succeeded, want error")
	}
}

func TestFloat2RationalEpsilon(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	ctx.SetEpsilon(1e-6)
	got, err := Float2Rational(ctx, Double(12.9642857143))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "363/28" {
		t.Errorf("Float2Rational(12.9642857143) = %s, want 363/28", got)
	}

	ctx.SetEpsilon(1e-15)
	got, err = Float2Rational(ctx, Double(12.9642857143))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "32433139246/2501729749" {
		t.Errorf("Float2Rational(12.9642857143) at 1e-15 = %s, want 32433139246/2501729749", got)
	}

	ctx.SetEpsilon(1e-12)
	for _, tc := range []struct {
		x    float64
		want string
	}{
		{1000.0 / 3, "1000/3"},
		{-2.5, "-5/2"},
		{3.14159265358979, "1146408/364913"},
	} {
		got, err := Float2Rational(ctx, Double(tc.x))
		if err != nil {
			t.Fatal(err)
		}
		if got.String() != tc.want {
			t.Errorf("Float2Rational(%v) = %s, want %s", tc.x, got, tc.want)
		}
	}
	ctx.SetEpsilon(1e-6)

	got, err = Float2Rational(ctx, Int(7))
	if err != nil || got.String() != "7" {
		t.Errorf("Float2Rational(7) = %v, %v", got, err)
	}
	if _, err := Float2Rational(ctx, Ident("x")); err == nil {
		t.Error("Float2Rational(x) succeeded, want error")
	}
}

func TestIsZeroHonoursEpsilon(t *testing.T) {
	t.Parallel()

	ctx := NewContext()
	small := Double(1e-6)

	z, err := IsZero(ctx, small)
	if err != nil {
		t.Fatal(err)
	}
	if z {
		t.Fatal("1e-6 is zero under the default epsilon")
	}

	ctx.SetEpsilon(1e-3)
	if z, _ = IsZero(ctx, small); !z {
		t.Fatal("1e-6 is not zero under epsilon 1e-3")
	}

	expr, err := EvalString(ctx, "(x+1)^2-x^2-2*x-1")
	if err != nil {
		t.Fatal(err)
	}
	if z, _ = IsZero(ctx, expr); !z {
		t.Errorf("IsZero(%s) = false, want true", expr)
	}
}

func TestIFactorLargeSemiprime(t *testing.T) {
	t.Parallel()

	// 1000003 * 1000033
	n := mustZint(t, "1000036000099")
	got, err := IFactors(NewContext(), n)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "[1000003,1,1000033,1]" {
		t.Errorf("IFactors = %s", got)
	}
}

func TestToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      Gen
		want    int32
		wantErr bool
	}{
		{"small", Int(-42), -42, false},
		{"int32 max", Int(2147483647), 2147483647, false},
		{"beyond int32", Int(2147483648), 0, true},
		{"integral double", Double(12), 12, false},
		{"fractional double", Double(1.5), 0, true},
		{"rational", Rat(big.NewRat(1, 3)), 0, true},
		{"identifier", Ident("x"), 0, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToInt(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ToInt(%s) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ToInt(%s) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

package engine

import (
	"math"
	"math/big"
)

// maxSymbolicDet bounds the order of matrices with symbolic entries, whose
// determinant is expanded by cofactors.
const maxSymbolicDet = 8

// Det returns the determinant of a square matrix. Exact matrices use the
// fraction-free Bareiss elimination, floating point matrices use Gaussian
// elimination with partial pivoting and symbolic matrices are expanded by
// cofactors then simplified. ctx may be nil.
func Det(ctx *Context, m Gen) (Gen, error) {
	if !isMatrix(m) || len(m.args) != len(m.args[0].args) {
		return Gen{}, errorf("det: square matrix expected")
	}
	n := len(m.args)
	exact, numeric := true, true
	for _, row := range m.args {
		for _, x := range row.args {
			exact = exact && isExact(x)
			numeric = numeric && isReal(x)
		}
	}
	switch {
	case exact:
		return bareiss(m, n), nil
	case numeric:
		return gaussDet(m, n), nil
	}
	if n > maxSymbolicDet {
		return Gen{}, errorf("det: symbolic matrix too large")
	}
	rows := make([][]Gen, n)
	for i, row := range m.args {
		rows[i] = row.args
	}
	d, err := cofactorDet(rows)
	if err != nil {
		return Gen{}, err
	}
	return Simplify(ctx, d)
}

// bareiss computes an exact determinant with fraction-free elimination on
// integers; rational entries are first scaled by the row denominators.
func bareiss(m Gen, n int) Gen {
	a := make([][]*big.Int, n)
	scale := big.NewRat(1, 1)
	for i, row := range m.args {
		den := big.NewInt(1)
		for _, x := range row.args {
			den = lcmInt(den, bigRat(x).Denom())
		}
		scale.Quo(scale, new(big.Rat).SetInt(den))
		a[i] = make([]*big.Int, n)
		for j, x := range row.args {
			r := bigRat(x)
			a[i][j] = new(big.Int).Mul(r.Num(), new(big.Int).Quo(den, r.Denom()))
		}
	}
	sign := 1
	prev := big.NewInt(1)
	t := new(big.Int)
	for k := 0; k < n-1; k++ {
		if a[k][k].Sign() == 0 {
			swap := -1
			for i := k + 1; i < n; i++ {
				if a[i][k].Sign() != 0 {
					swap = i
					break
				}
			}
			if swap < 0 {
				return Int(0)
			}
			a[k], a[swap] = a[swap], a[k]
			sign = -sign
		}
		for i := k + 1; i < n; i++ {
			for j := k + 1; j < n; j++ {
				v := new(big.Int).Mul(a[i][j], a[k][k])
				v.Sub(v, t.Mul(a[i][k], a[k][j]))
				a[i][j] = v.Quo(v, prev)
			}
		}
		prev = a[k][k]
	}
	det := new(big.Rat).SetInt(a[n-1][n-1])
	if sign < 0 {
		det.Neg(det)
	}
	return Rat(det.Mul(det, scale))
}

func gaussDet(m Gen, n int) Gen {
	useDouble := false
	a := make([][]float64, n)
	for i, row := range m.args {
		a[i] = make([]float64, n)
		for j, x := range row.args {
			a[i][j] = float(x)
			useDouble = useDouble || x.typ == TypeDouble
		}
	}
	det := 1.0
	for k := 0; k < n; k++ {
		p := k
		for i := k + 1; i < n; i++ {
			if math.Abs(a[i][k]) > math.Abs(a[p][k]) {
				p = i
			}
		}
		if a[p][k] == 0 {
			det = 0
			break
		}
		if p != k {
			a[k], a[p] = a[p], a[k]
			det = -det
		}
		det *= a[k][k]
		for i := k + 1; i < n; i++ {
			f := a[i][k] / a[k][k]
			for j := k; j < n; j++ {
				a[i][j] -= f * a[k][j]
			}
		}
	}
	if useDouble {
		return Double(det)
	}
	return Float(float32(det))
}

func cofactorDet(rows [][]Gen) (Gen, error) {
	n := len(rows)
	if n == 1 {
		return rows[0][0], nil
	}
	sum := Int(0)
	for j := 0; j < n; j++ {
		if isExactZero(rows[0][j]) {
			continue
		}
		minor := make([][]Gen, n-1)
		for i := 1; i < n; i++ {
			r := make([]Gen, 0, n-1)
			r = append(r, rows[i][:j]...)
			r = append(r, rows[i][j+1:]...)
			minor[i-1] = r
		}
		md, err := cofactorDet(minor)
		if err != nil {
			return Gen{}, err
		}
		term, err := Mul(rows[0][j], md)
		if err != nil {
			return Gen{}, err
		}
		if j%2 == 1 {
			sum, err = Sub(sum, term)
		} else {
			sum, err = Add(sum, term)
		}
		if err != nil {
			return Gen{}, err
		}
	}
	return sum, nil
}

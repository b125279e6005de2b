package cpu

import "github.com/samcharles93/blasgo/internal/backend/native"

// triangle is an n×n triangular system seen through an element accessor.
type triangle struct {
	elem  func(i, j int64) complex128
	lower bool
	unit  bool
	n     int64
}

// leftTriangle is op(A) for the triangle of A selected by uplo.
func leftTriangle(a mat, uplo native.FillMode, trans native.Operation, diag native.DiagType, n int64) triangle {
	return triangle{
		elem:  func(i, j int64) complex128 { return a.op(trans, i, j) },
		lower: (uplo == native.Lower) == (trans == native.OpN),
		unit:  diag == native.Unit,
		n:     n,
	}
}

// transposed returns the system of t transposed, used to solve X*op(A) = B
// one row of B at a time.
func (t triangle) transposed() triangle {
	elem := t.elem
	return triangle{
		elem:  func(i, j int64) complex128 { return elem(j, i) },
		lower: !t.lower,
		unit:  t.unit,
		n:     t.n,
	}
}

// solve overwrites the right-hand side reached through get and set with the
// solution of the system.
func (t triangle) solve(get func(int64) complex128, set func(int64, complex128)) {
	if t.lower {
		for i := int64(0); i < t.n; i++ {
			s := get(i)
			for j := int64(0); j < i; j++ {
				s -= t.elem(i, j) * get(j)
			}
			if !t.unit {
				s /= t.elem(i, i)
			}
			set(i, s)
		}
		return
	}
	for i := t.n - 1; i >= 0; i-- {
		s := get(i)
		for j := i + 1; j < t.n; j++ {
			s -= t.elem(i, j) * get(j)
		}
		if !t.unit {
			s /= t.elem(i, i)
		}
		set(i, s)
	}
}

// trsmInPlace solves op(A)*X = alpha*B or X*op(A) = alpha*B, overwriting the
// m×n matrix B.
func trsmInPlace(side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n int64, alpha complex128, a, b mat) {
	for j := int64(0); j < n; j++ {
		for i := int64(0); i < m; i++ {
			b.set(i, j, alpha*b.at(i, j))
		}
	}
	if alpha == 0 {
		return
	}
	if side == native.Left {
		t := leftTriangle(a, uplo, trans, diag, m)
		for j := int64(0); j < n; j++ {
			col := j
			t.solve(func(i int64) complex128 { return b.at(i, col) }, func(i int64, v complex128) { b.set(i, col, v) })
		}
		return
	}
	t := leftTriangle(a, uplo, trans, diag, n).transposed()
	for i := int64(0); i < m; i++ {
		row := i
		t.solve(func(j int64) complex128 { return b.at(row, j) }, func(j int64, v complex128) { b.set(row, j, v) })
	}
}

func validTrsm(side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n, lda, ldb int64) bool {
	if !side.Valid() || !uplo.Valid() || !trans.Valid() || !diag.Valid() || m < 0 || n < 0 {
		return false
	}
	ka := m
	if side == native.Right {
		ka = n
	}
	return lda >= max(1, ka) && ldb >= max(1, m)
}

package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Gemm computes C = alpha*op(A)*op(B) + beta*C, where op(A) is m x k and
// op(B) is k x n. Half is supported.
func Gemm[I Index, T Element](h *Handle, transa, transb Operation, m, n, k I,
	alpha Scalar[T], a *DeviceBuffer[T], lda I, b *DeviceBuffer[T], ldb I,
	beta Scalar[T], cm *DeviceBuffer[T], ldc I,
) error {
	c := h.begin(routineOf[I, T](native.Gemm))
	al := scalarArg(c, "alpha", alpha)
	ap := bufArg(c, "A", a)
	bp := bufArg(c, "B", b)
	be := scalarArg(c, "beta", beta)
	cp := bufArg(c, "C", cm)
	return c.finish(func() native.Status {
		return h.d.rt.Gemm(h.native, c.r, transa, transb, int64(m), int64(n), int64(k),
			al, ap, int64(lda), bp, int64(ldb), be, cp, int64(ldc))
	})
}

// Syrk computes the uplo triangle of C = alpha*op(A)*op(A)^T + beta*C for an
// n x n C. The other triangle is not referenced.
func Syrk[I Index, T Element](h *Handle, uplo FillMode, trans Operation, n, k I,
	alpha Scalar[T], a *DeviceBuffer[T], lda I, beta Scalar[T], cm *DeviceBuffer[T], ldc I,
) error {
	c := h.begin(routineOf[I, T](native.Syrk))
	al := scalarArg(c, "alpha", alpha)
	ap := bufArg(c, "A", a)
	be := scalarArg(c, "beta", beta)
	cp := bufArg(c, "C", cm)
	return c.finish(func() native.Status {
		return h.d.rt.Syrk(h.native, c.r, uplo, trans, int64(n), int64(k), al, ap, int64(lda), be, cp, int64(ldc))
	})
}

// Trsm solves op(A)*X = alpha*B (side Left) or X*op(A) = alpha*B (side
// Right) for a triangular A, overwriting the m x n B with X.
func Trsm[I Index, T Element](h *Handle, side SideMode, uplo FillMode, trans Operation, diag DiagType, m, n I,
	alpha Scalar[T], a *DeviceBuffer[T], lda I, b *DeviceBuffer[T], ldb I,
) error {
	c := h.begin(routineOf[I, T](native.Trsm))
	al := scalarArg(c, "alpha", alpha)
	ap := bufArg(c, "A", a)
	bp := bufArg(c, "B", b)
	return c.finish(func() native.Status {
		return h.d.rt.Trsm(h.native, c.r, side, uplo, trans, diag, int64(m), int64(n), al, ap, int64(lda), bp, int64(ldb))
	})
}

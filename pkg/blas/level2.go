package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Gemv computes y = alpha*op(A)*x + beta*y for an m x n column-major A.
func Gemv[I Index, T Element](h *Handle, trans Operation, m, n I, alpha Scalar[T], a *DeviceBuffer[T], lda I,
	x *DeviceBuffer[T], incx I, beta Scalar[T], y *DeviceBuffer[T], incy I,
) error {
	c := h.begin(routineOf[I, T](native.Gemv))
	al := scalarArg(c, "alpha", alpha)
	ap := bufArg(c, "A", a)
	xp := bufArg(c, "x", x)
	be := scalarArg(c, "beta", beta)
	yp := bufArg(c, "y", y)
	return c.finish(func() native.Status {
		return h.d.rt.Gemv(h.native, c.r, trans, int64(m), int64(n), al, ap, int64(lda), xp, int64(incx), be, yp, int64(incy))
	})
}

// Ger computes A = alpha*x*y^T + A. Complex types use the unconjugated form.
func Ger[I Index, T Element](h *Handle, m, n I, alpha Scalar[T], x *DeviceBuffer[T], incx I,
	y *DeviceBuffer[T], incy I, a *DeviceBuffer[T], lda I,
) error {
	c := h.begin(routineOf[I, T](native.Ger))
	al := scalarArg(c, "alpha", alpha)
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	ap := bufArg(c, "A", a)
	return c.finish(func() native.Status {
		return h.d.rt.Ger(h.native, c.r, int64(m), int64(n), al, xp, int64(incx), yp, int64(incy), ap, int64(lda))
	})
}

// Trsv solves op(A)*x = b in place for a triangular A, with b given in x.
func Trsv[I Index, T Element](h *Handle, uplo FillMode, trans Operation, diag DiagType, n I,
	a *DeviceBuffer[T], lda I, x *DeviceBuffer[T], incx I,
) error {
	c := h.begin(routineOf[I, T](native.Trsv))
	ap := bufArg(c, "A", a)
	xp := bufArg(c, "x", x)
	return c.finish(func() native.Status {
		return h.d.rt.Trsv(h.native, c.r, uplo, trans, diag, int64(n), ap, int64(lda), xp, int64(incx))
	})
}

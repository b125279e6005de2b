package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Level 1 routines operate on strided device vectors. I selects the native
// index width and is usually given explicitly, as in Scal[int32](h, ...).

// Scal computes x = alpha*x.
func Scal[I Index, T Element](h *Handle, n I, alpha Scalar[T], x *DeviceBuffer[T], incx I) error {
	c := h.begin(routineOf[I, T](native.Scal))
	a := scalarArg(c, "alpha", alpha)
	xp := bufArg(c, "x", x)
	return c.finish(func() native.Status {
		return h.d.rt.Scal(h.native, c.r, int64(n), a, xp, int64(incx))
	})
}

// Axpy computes y = alpha*x + y.
func Axpy[I Index, T Element](h *Handle, n I, alpha Scalar[T], x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I) error {
	c := h.begin(routineOf[I, T](native.Axpy))
	a := scalarArg(c, "alpha", alpha)
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	return c.finish(func() native.Status {
		return h.d.rt.Axpy(h.native, c.r, int64(n), a, xp, int64(incx), yp, int64(incy))
	})
}

// Copy copies x into y.
func Copy[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I) error {
	c := h.begin(routineOf[I, T](native.Copy))
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	return c.finish(func() native.Status {
		return h.d.rt.Copy(h.native, c.r, int64(n), xp, int64(incx), yp, int64(incy))
	})
}

// Swap exchanges x and y.
func Swap[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I) error {
	c := h.begin(routineOf[I, T](native.Swap))
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	return c.finish(func() native.Status {
		return h.d.rt.Swap(h.native, c.r, int64(n), xp, int64(incx), yp, int64(incy))
	})
}

// Dot returns the unconjugated dot product of x and y. The handle must be in
// host pointer mode; use DotTo otherwise.
func Dot[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I) (T, error) {
	var out T
	err := DotTo(h, n, x, incx, y, incy, HostResult(&out))
	return out, err
}

// DotTo writes the unconjugated dot product of x and y to out.
func DotTo[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I, out Result[T]) error {
	return dot(h, native.Dot, n, x, incx, y, incy, out)
}

// Dotc returns the dot product of conj(x) and y.
func Dotc[I Index, T Complex](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I) (T, error) {
	var out T
	err := DotcTo(h, n, x, incx, y, incy, HostResult(&out))
	return out, err
}

// DotcTo writes the dot product of conj(x) and y to out.
func DotcTo[I Index, T Complex](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I, out Result[T]) error {
	return dot(h, native.Dotc, n, x, incx, y, incy, out)
}

func dot[I Index, T Element](h *Handle, f native.Family, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I, out Result[T]) error {
	c := h.begin(routineOf[I, T](f))
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	r := resultArg(c, out)
	return c.finish(func() native.Status {
		return h.d.rt.Dot(h.native, c.r, int64(n), xp, int64(incx), yp, int64(incy), r)
	})
}

func reduce[I Index, T Element, R Storable](h *Handle, f native.Family, n I, x *DeviceBuffer[T], incx I, out Result[R]) error {
	c := h.begin(routineOf[I, T](f))
	xp := bufArg(c, "x", x)
	r := resultArg(c, out)
	return c.finish(func() native.Status {
		return h.d.rt.Reduce(h.native, c.r, int64(n), xp, int64(incx), r)
	})
}

// Nrm2 returns the Euclidean norm of x.
func Nrm2[I Index, T Real](h *Handle, n I, x *DeviceBuffer[T], incx I) (T, error) {
	var out T
	err := Nrm2To(h, n, x, incx, HostResult(&out))
	return out, err
}

func Nrm2To[I Index, T Real](h *Handle, n I, x *DeviceBuffer[T], incx I, out Result[T]) error {
	return reduce(h, native.Nrm2, n, x, incx, out)
}

// Asum returns the sum of absolute values of x.
func Asum[I Index, T Real](h *Handle, n I, x *DeviceBuffer[T], incx I) (T, error) {
	var out T
	err := AsumTo(h, n, x, incx, HostResult(&out))
	return out, err
}

func AsumTo[I Index, T Real](h *Handle, n I, x *DeviceBuffer[T], incx I, out Result[T]) error {
	return reduce(h, native.Asum, n, x, incx, out)
}

// Iamax returns the 1-based position of the first element of largest
// magnitude, |re|+|im| for complex types. It is 0 for an empty vector.
func Iamax[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I) (I, error) {
	var out I
	err := IamaxTo(h, n, x, incx, HostResult(&out))
	return out, err
}

func IamaxTo[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, out Result[I]) error {
	return reduce(h, native.Iamax, n, x, incx, out)
}

// Iamin is Iamax for the smallest magnitude.
func Iamin[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I) (I, error) {
	var out I
	err := IaminTo(h, n, x, incx, HostResult(&out))
	return out, err
}

func IaminTo[I Index, T Element](h *Handle, n I, x *DeviceBuffer[T], incx I, out Result[I]) error {
	return reduce(h, native.Iamin, n, x, incx, out)
}

// Rot applies the plane rotation (c, s) to the pairs (x[i], y[i]).
func Rot[I Index, T Real](h *Handle, n I, x *DeviceBuffer[T], incx I, y *DeviceBuffer[T], incy I, cos, sin Scalar[T]) error {
	c := h.begin(routineOf[I, T](native.Rot))
	xp := bufArg(c, "x", x)
	yp := bufArg(c, "y", y)
	cp := scalarArg(c, "c", cos)
	sp := scalarArg(c, "s", sin)
	return c.finish(func() native.Status {
		return h.d.rt.Rot(h.native, c.r, int64(n), xp, int64(incx), yp, int64(incy), cp, sp)
	})
}

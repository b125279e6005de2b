package cpu

import (
	"math"
	"math/cmplx"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func (rt *Runtime) Scal(h native.Handle, r native.Routine, n int64, alpha native.Scalar, x native.DevicePtr, incx int64) native.Status {
	return rt.launch(h, r, native.Scal, func(hs handleState) (work, native.Status) {
		c := codecs[r.Type]
		a, st := rt.coefficient(hs, c, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		if n <= 0 || incx <= 0 {
			return work{}, native.StatusSuccess
		}
		xv, ok := rt.vector(c, x, n, incx)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			av := a.load()
			for i := int64(0); i < n; i++ {
				xv.set(i, av*xv.at(i))
			}
			return nil
		}}, native.StatusSuccess
	})
}

// pair resolves the two vector operands shared by most level 1 routines.
func (rt *Runtime) pair(c codec, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) (vec, vec, native.Status) {
	xv, ok := rt.vector(c, x, n, incx)
	if !ok {
		return vec{}, vec{}, native.StatusExecutionFailed
	}
	yv, ok := rt.vector(c, y, n, incy)
	if !ok {
		return vec{}, vec{}, native.StatusExecutionFailed
	}
	return xv, yv, native.StatusSuccess
}

func (rt *Runtime) Axpy(h native.Handle, r native.Routine, n int64, alpha native.Scalar, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	return rt.launch(h, r, native.Axpy, func(hs handleState) (work, native.Status) {
		c := codecs[r.Type]
		a, st := rt.coefficient(hs, c, alpha)
		if st != native.StatusSuccess || n <= 0 {
			return work{}, st
		}
		xv, yv, st := rt.pair(c, n, x, incx, y, incy)
		if st != native.StatusSuccess {
			return work{}, st
		}
		return work{run: func() error {
			av := a.load()
			for i := int64(0); i < n; i++ {
				yv.set(i, yv.at(i)+av*xv.at(i))
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Copy(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	return rt.launch(h, r, native.Copy, func(hs handleState) (work, native.Status) {
		if n <= 0 {
			return work{}, native.StatusSuccess
		}
		xv, yv, st := rt.pair(codecs[r.Type], n, x, incx, y, incy)
		if st != native.StatusSuccess {
			return work{}, st
		}
		return work{run: func() error {
			for i := int64(0); i < n; i++ {
				yv.set(i, xv.at(i))
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Swap(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	return rt.launch(h, r, native.Swap, func(hs handleState) (work, native.Status) {
		if n <= 0 {
			return work{}, native.StatusSuccess
		}
		xv, yv, st := rt.pair(codecs[r.Type], n, x, incx, y, incy)
		if st != native.StatusSuccess {
			return work{}, st
		}
		return work{run: func() error {
			for i := int64(0); i < n; i++ {
				a, b := xv.at(i), yv.at(i)
				xv.set(i, b)
				yv.set(i, a)
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Dot(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, result native.Scalar) native.Status {
	if r.Family != native.Dot && r.Family != native.Dotc {
		return native.StatusNotSupported
	}
	return rt.launch(h, r, r.Family, func(hs handleState) (work, native.Status) {
		c := codecs[r.Type]
		res, st := rt.result(hs, c, result)
		if st != native.StatusSuccess {
			return work{}, st
		}
		if n <= 0 {
			return resultWork(hs, func() error { res.store(0); return nil }), native.StatusSuccess
		}
		xv, yv, st := rt.pair(c, n, x, incx, y, incy)
		if st != native.StatusSuccess {
			return work{}, st
		}
		conj := r.Family == native.Dotc
		return resultWork(hs, func() error {
			var sum complex128
			for i := int64(0); i < n; i++ {
				sum += conjIf(conj, xv.at(i)) * yv.at(i)
			}
			res.store(sum)
			return nil
		}), native.StatusSuccess
	})
}

func (rt *Runtime) Reduce(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, result native.Scalar) native.Status {
	var out codec
	var reduce func(xv vec) complex128
	switch r.Family {
	case native.Nrm2:
		out, reduce = realCodec(r.Type), nrm2
	case native.Asum:
		out, reduce = realCodec(r.Type), asum
	case native.Iamax:
		out = indexCodec(r.Index)
		reduce = func(xv vec) complex128 { return iamx(xv, func(a, b float64) bool { return a > b }) }
	case native.Iamin:
		out = indexCodec(r.Index)
		reduce = func(xv vec) complex128 { return iamx(xv, func(a, b float64) bool { return a < b }) }
	default:
		return native.StatusNotSupported
	}
	return rt.launch(h, r, r.Family, func(hs handleState) (work, native.Status) {
		res, st := rt.result(hs, out, result)
		if st != native.StatusSuccess {
			return work{}, st
		}
		if n <= 0 || incx <= 0 {
			return resultWork(hs, func() error { res.store(0); return nil }), native.StatusSuccess
		}
		xv, ok := rt.vector(codecs[r.Type], x, n, incx)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return resultWork(hs, func() error {
			res.store(reduce(xv))
			return nil
		}), native.StatusSuccess
	})
}

func nrm2(xv vec) complex128 {
	var norm float64
	for i := int64(0); i < xv.n; i++ {
		norm = math.Hypot(norm, cmplx.Abs(xv.at(i)))
	}
	return complex(norm, 0)
}

func asum(xv vec) complex128 {
	var sum float64
	for i := int64(0); i < xv.n; i++ {
		sum += abs1(xv.at(i))
	}
	return complex(sum, 0)
}

// iamx returns the 1-based position of the first element whose magnitude
// wins against every other under better.
func iamx(xv vec, better func(a, b float64) bool) complex128 {
	best, idx := abs1(xv.at(0)), int64(0)
	for i := int64(1); i < xv.n; i++ {
		if v := abs1(xv.at(i)); better(v, best) {
			best, idx = v, i
		}
	}
	return complex(float64(idx+1), 0)
}

func (rt *Runtime) Rot(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, c, s native.Scalar) native.Status {
	return rt.launch(h, r, native.Rot, func(hs handleState) (work, native.Status) {
		cd := codecs[r.Type]
		cs, st := rt.coefficient(hs, realCodec(r.Type), c)
		if st != native.StatusSuccess {
			return work{}, st
		}
		sn, st := rt.coefficient(hs, cd, s)
		if st != native.StatusSuccess || n <= 0 {
			return work{}, st
		}
		xv, yv, st := rt.pair(cd, n, x, incx, y, incy)
		if st != native.StatusSuccess {
			return work{}, st
		}
		return work{run: func() error {
			cv, sv := cs.load(), sn.load()
			for i := int64(0); i < n; i++ {
				a, b := xv.at(i), yv.at(i)
				xv.set(i, cv*a+sv*b)
				yv.set(i, cv*b-cmplx.Conj(sv)*a)
			}
			return nil
		}}, native.StatusSuccess
	})
}

package cpu

import "github.com/samcharles93/blasgo/internal/backend/native"

func (rt *Runtime) Gemv(h native.Handle, r native.Routine, trans native.Operation, m, n int64, alpha native.Scalar, a native.DevicePtr, lda int64, x native.DevicePtr, incx int64, beta native.Scalar, y native.DevicePtr, incy int64) native.Status {
	return rt.launch(h, r, native.Gemv, func(hs handleState) (work, native.Status) {
		if !trans.Valid() || m < 0 || n < 0 || lda < max(1, m) || incx == 0 || incy == 0 {
			return work{}, native.StatusInvalidValue
		}
		c := codecs[r.Type]
		al, st := rt.coefficient(hs, c, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		be, st := rt.coefficient(hs, c, beta)
		if st != native.StatusSuccess || m == 0 || n == 0 {
			return work{}, st
		}
		lenx, leny := n, m
		if trans != native.OpN {
			lenx, leny = m, n
		}
		am, ok := rt.matrix(c, a, m, n, lda)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		xv, ok := rt.vector(c, x, lenx, incx)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		yv, ok := rt.vector(c, y, leny, incy)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			av, bv := al.load(), be.load()
			for i := int64(0); i < leny; i++ {
				var sum complex128
				for j := int64(0); j < lenx; j++ {
					sum += am.op(trans, i, j) * xv.at(j)
				}
				out := av * sum
				if bv != 0 {
					out += bv * yv.at(i)
				}
				yv.set(i, out)
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Ger(h native.Handle, r native.Routine, m, n int64, alpha native.Scalar, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, a native.DevicePtr, lda int64) native.Status {
	return rt.launch(h, r, native.Ger, func(hs handleState) (work, native.Status) {
		if m < 0 || n < 0 || incx == 0 || incy == 0 || lda < max(1, m) {
			return work{}, native.StatusInvalidValue
		}
		c := codecs[r.Type]
		al, st := rt.coefficient(hs, c, alpha)
		if st != native.StatusSuccess || m == 0 || n == 0 {
			return work{}, st
		}
		xv, ok := rt.vector(c, x, m, incx)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		yv, ok := rt.vector(c, y, n, incy)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		am, ok := rt.matrix(c, a, m, n, lda)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			av := al.load()
			for j := int64(0); j < n; j++ {
				yj := av * yv.at(j)
				for i := int64(0); i < m; i++ {
					am.set(i, j, am.at(i, j)+xv.at(i)*yj)
				}
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Trsv(h native.Handle, r native.Routine, uplo native.FillMode, trans native.Operation, diag native.DiagType, n int64, a native.DevicePtr, lda int64, x native.DevicePtr, incx int64) native.Status {
	return rt.launch(h, r, native.Trsv, func(hs handleState) (work, native.Status) {
		if !uplo.Valid() || !trans.Valid() || !diag.Valid() || n < 0 || lda < max(1, n) || incx == 0 {
			return work{}, native.StatusInvalidValue
		}
		if n == 0 {
			return work{}, native.StatusSuccess
		}
		c := codecs[r.Type]
		am, ok := rt.matrix(c, a, n, n, lda)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		xv, ok := rt.vector(c, x, n, incx)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			leftTriangle(am, uplo, trans, diag, n).solve(xv.at, xv.set)
			return nil
		}}, native.StatusSuccess
	})
}

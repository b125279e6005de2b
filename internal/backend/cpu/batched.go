package cpu

import (
	"fmt"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

const ptrSize = 8

// pointerArray is a device array of device addresses. Its contents are read
// when the batch runs, so entries may be written by earlier queued work.
type pointerArray []byte

func (rt *Runtime) pointerArray(p native.DevicePtr, count int64) (pointerArray, bool) {
	mem, ok := rt.mem.resolve(p, count*ptrSize)
	return pointerArray(mem), ok
}

func (a pointerArray) at(i int64) native.DevicePtr {
	return native.DevicePtr(le.Uint64(a[i*ptrSize:]))
}

func (rt *Runtime) GemmBatched(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, aarray native.DevicePtr, lda int64, barray native.DevicePtr, ldb int64, beta native.Scalar, carray native.DevicePtr, ldc int64, batchCount int64) native.Status {
	return rt.launch(h, r, native.GemmBatched, func(hs handleState) (work, native.Status) {
		g := gemmShape{transa: transa, transb: transb, m: m, n: n, k: k, lda: lda, ldb: ldb, ldc: ldc}
		if !g.valid() || batchCount < 0 {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		be, st := rt.coefficient(hs, cd, beta)
		if st != native.StatusSuccess || g.empty() || batchCount == 0 {
			return work{}, st
		}
		as, ok1 := rt.pointerArray(aarray, batchCount)
		bs, ok2 := rt.pointerArray(barray, batchCount)
		cs, ok3 := rt.pointerArray(carray, batchCount)
		if !ok1 || !ok2 || !ok3 {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			av, bv := al.load(), be.load()
			for i := int64(0); i < batchCount; i++ {
				am, bm, cm, ok := rt.operands(cd, g, as.at(i), bs.at(i), cs.at(i))
				if !ok {
					return fmt.Errorf("gemm batch %d: operand not mapped", i)
				}
				gemmKernel(g, av, am, bm, bv, cm)
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) GemmStridedBatched(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, a native.DevicePtr, lda, strideA int64, b native.DevicePtr, ldb, strideB int64, beta native.Scalar, c native.DevicePtr, ldc, strideC int64, batchCount int64) native.Status {
	return rt.launch(h, r, native.GemmStridedBatched, func(hs handleState) (work, native.Status) {
		g := gemmShape{transa: transa, transb: transb, m: m, n: n, k: k, lda: lda, ldb: ldb, ldc: ldc}
		if !g.valid() || batchCount < 0 {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		be, st := rt.coefficient(hs, cd, beta)
		if st != native.StatusSuccess || g.empty() || batchCount == 0 {
			return work{}, st
		}
		type instance struct{ a, b, c mat }
		batch := make([]instance, batchCount)
		for i := range batch {
			off := int64(i) * cd.size
			am, bm, cm, ok := rt.operands(cd, g, a.Add(off*strideA), b.Add(off*strideB), c.Add(off*strideC))
			if !ok {
				return work{}, native.StatusExecutionFailed
			}
			batch[i] = instance{am, bm, cm}
		}
		return work{run: func() error {
			av, bv := al.load(), be.load()
			for _, in := range batch {
				gemmKernel(g, av, in.a, in.b, bv, in.c)
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) TrsmBatched(h native.Handle, r native.Routine, side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n int64, alpha native.Scalar, aarray native.DevicePtr, lda int64, barray native.DevicePtr, ldb int64, batchCount int64) native.Status {
	return rt.launch(h, r, native.TrsmBatched, func(hs handleState) (work, native.Status) {
		if !validTrsm(side, uplo, trans, diag, m, n, lda, ldb) || batchCount < 0 {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess || m == 0 || n == 0 || batchCount == 0 {
			return work{}, st
		}
		as, ok1 := rt.pointerArray(aarray, batchCount)
		bs, ok2 := rt.pointerArray(barray, batchCount)
		if !ok1 || !ok2 {
			return work{}, native.StatusExecutionFailed
		}
		ka := m
		if side == native.Right {
			ka = n
		}
		return work{run: func() error {
			av := al.load()
			for i := int64(0); i < batchCount; i++ {
				am, ok := rt.matrix(cd, as.at(i), ka, ka, lda)
				if !ok {
					return fmt.Errorf("trsm batch %d: A not mapped", i)
				}
				bm, ok := rt.matrix(cd, bs.at(i), m, n, ldb)
				if !ok {
					return fmt.Errorf("trsm batch %d: B not mapped", i)
				}
				trsmInPlace(side, uplo, trans, diag, m, n, av, am, bm)
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) GetrfBatched(h native.Handle, r native.Routine, n int64, aarray native.DevicePtr, lda int64, pivots native.DevicePtr, info native.DevicePtr, batchCount int64) native.Status {
	return rt.launch(h, r, native.GetrfBatched, func(hs handleState) (work, native.Status) {
		if n < 0 || lda < max(1, n) || batchCount < 0 {
			return work{}, native.StatusInvalidValue
		}
		if batchCount == 0 {
			return work{}, native.StatusSuccess
		}
		i32 := indexCodec(native.Index32)
		as, ok := rt.pointerArray(aarray, batchCount)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		infos, ok := rt.vector(i32, info, batchCount, 1)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		var piv vec
		if pivots != 0 {
			if piv, ok = rt.vector(i32, pivots, n*batchCount, 1); !ok {
				return work{}, native.StatusExecutionFailed
			}
		}
		cd := codecs[r.Type]
		return work{run: func() error {
			for b := int64(0); b < batchCount; b++ {
				am, ok := rt.matrix(cd, as.at(b), n, n, lda)
				if !ok {
					return fmt.Errorf("getrf batch %d: A not mapped", b)
				}
				var setPivot func(k, p int64)
				if pivots != 0 {
					base := b * n
					setPivot = func(k, p int64) { piv.set(base+k, complex(float64(p+1), 0)) }
				}
				infos.set(b, complex(float64(luFactor(am, n, setPivot)), 0))
			}
			return nil
		}}, native.StatusSuccess
	})
}

// luFactor factors A in place as P*A = L*U. Rows are exchanged only when
// setPivot is non-nil. It returns 0, or k+1 when U(k, k) is exactly zero.
func luFactor(a mat, n int64, setPivot func(k, p int64)) int64 {
	var info int64
	for k := int64(0); k < n; k++ {
		if setPivot != nil {
			p, best := k, abs1(a.at(k, k))
			for i := k + 1; i < n; i++ {
				if v := abs1(a.at(i, k)); v > best {
					p, best = i, v
				}
			}
			setPivot(k, p)
			if p != k {
				for j := int64(0); j < n; j++ {
					x, y := a.at(k, j), a.at(p, j)
					a.set(k, j, y)
					a.set(p, j, x)
				}
			}
		}
		d := a.at(k, k)
		if d == 0 {
			if info == 0 {
				info = k + 1
			}
			continue
		}
		for i := k + 1; i < n; i++ {
			l := a.at(i, k) / d
			a.set(i, k, l)
			for j := k + 1; j < n; j++ {
				a.set(i, j, a.at(i, j)-l*a.at(k, j))
			}
		}
	}
	return info
}

func (rt *Runtime) GetriBatched(h native.Handle, r native.Routine, n int64, aarray native.DevicePtr, lda int64, pivots native.DevicePtr, carray native.DevicePtr, ldc int64, info native.DevicePtr, batchCount int64) native.Status {
	return rt.launch(h, r, native.GetriBatched, func(hs handleState) (work, native.Status) {
		if n < 0 || lda < max(1, n) || ldc < max(1, n) || batchCount < 0 {
			return work{}, native.StatusInvalidValue
		}
		if batchCount == 0 {
			return work{}, native.StatusSuccess
		}
		i32 := indexCodec(native.Index32)
		as, ok1 := rt.pointerArray(aarray, batchCount)
		cs, ok2 := rt.pointerArray(carray, batchCount)
		infos, ok3 := rt.vector(i32, info, batchCount, 1)
		if !ok1 || !ok2 || !ok3 {
			return work{}, native.StatusExecutionFailed
		}
		var piv vec
		if pivots != 0 {
			var ok bool
			if piv, ok = rt.vector(i32, pivots, n*batchCount, 1); !ok {
				return work{}, native.StatusExecutionFailed
			}
		}
		cd := codecs[r.Type]
		return work{run: func() error {
			for b := int64(0); b < batchCount; b++ {
				am, ok := rt.matrix(cd, as.at(b), n, n, lda)
				if !ok {
					return fmt.Errorf("getri batch %d: A not mapped", b)
				}
				cm, ok := rt.matrix(cd, cs.at(b), n, n, ldc)
				if !ok {
					return fmt.Errorf("getri batch %d: C not mapped", b)
				}
				var pivot func(k int64) int64
				if pivots != 0 {
					base := b * n
					pivot = func(k int64) int64 { return int64(real(piv.at(base+k))) - 1 }
				}
				infos.set(b, complex(float64(luInvert(am, n, pivot, cm)), 0))
			}
			return nil
		}}, native.StatusSuccess
	})
}

// luInvert writes inv(A) to C from the factors produced by luFactor. It
// returns k+1 without touching C when U(k, k) is zero.
func luInvert(a mat, n int64, pivot func(k int64) int64, c mat) int64 {
	for k := int64(0); k < n; k++ {
		if a.at(k, k) == 0 {
			return k + 1
		}
	}
	for j := int64(0); j < n; j++ {
		for i := int64(0); i < n; i++ {
			var v complex128
			if i == j {
				v = 1
			}
			c.set(i, j, v)
		}
	}
	if pivot != nil {
		for k := int64(0); k < n; k++ {
			if p := pivot(k); p != k && p >= 0 && p < n {
				for j := int64(0); j < n; j++ {
					x, y := c.at(k, j), c.at(p, j)
					c.set(k, j, y)
					c.set(p, j, x)
				}
			}
		}
	}
	lower := triangle{elem: a.at, lower: true, unit: true, n: n}
	upper := triangle{elem: a.at, lower: false, n: n}
	for j := int64(0); j < n; j++ {
		col := j
		get := func(i int64) complex128 { return c.at(i, col) }
		set := func(i int64, v complex128) { c.set(i, col, v) }
		lower.solve(get, set)
		upper.solve(get, set)
	}
	return 0
}

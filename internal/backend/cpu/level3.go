package cpu

import (
	"runtime"
	"sync"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

type gemmShape struct {
	transa, transb native.Operation
	m, n, k        int64
	lda, ldb, ldc  int64
}

func (g gemmShape) valid() bool {
	if !g.transa.Valid() || !g.transb.Valid() || g.m < 0 || g.n < 0 || g.k < 0 {
		return false
	}
	rowsA, rowsB := g.m, g.k
	if g.transa != native.OpN {
		rowsA = g.k
	}
	if g.transb != native.OpN {
		rowsB = g.n
	}
	return g.lda >= max(1, rowsA) && g.ldb >= max(1, rowsB) && g.ldc >= max(1, g.m)
}

// dims returns the stored shapes of A and B.
func (g gemmShape) dims() (ar, ac, br, bc int64) {
	ar, ac = g.m, g.k
	if g.transa != native.OpN {
		ar, ac = g.k, g.m
	}
	br, bc = g.k, g.n
	if g.transb != native.OpN {
		br, bc = g.n, g.k
	}
	return ar, ac, br, bc
}

func (g gemmShape) empty() bool { return g.m == 0 || g.n == 0 }

// operands resolves A, B and C at the given device addresses.
func (rt *Runtime) operands(c codec, g gemmShape, a, b, cc native.DevicePtr) (mat, mat, mat, bool) {
	ar, ac, br, bc := g.dims()
	am, ok1 := rt.matrix(c, a, ar, ac, g.lda)
	bm, ok2 := rt.matrix(c, b, br, bc, g.ldb)
	cm, ok3 := rt.matrix(c, cc, g.m, g.n, g.ldc)
	return am, bm, cm, ok1 && ok2 && ok3
}

// gemmParallelMin is the m*n*k volume below which gemm runs on one goroutine.
const gemmParallelMin = 1 << 15

// gemmKernel computes C = alpha*op(A)*op(B) + beta*C, splitting the columns
// of C into ranges computed concurrently.
func gemmKernel(g gemmShape, alpha complex128, a, b mat, beta complex128, c mat) {
	workers := min(int64(runtime.GOMAXPROCS(0)), g.n)
	if workers <= 1 || g.m*g.n*g.k < gemmParallelMin {
		gemmColumns(g, alpha, a, b, beta, c, 0, g.n)
		return
	}
	chunk := (g.n + workers - 1) / workers
	var wg sync.WaitGroup
	for js := int64(0); js < g.n; js += chunk {
		je := min(js+chunk, g.n)
		wg.Go(func() { gemmColumns(g, alpha, a, b, beta, c, js, je) })
	}
	wg.Wait()
}

// gemmColumns computes columns [js, je) of C. C is not read when beta is 0.
func gemmColumns(g gemmShape, alpha complex128, a, b mat, beta complex128, c mat, js, je int64) {
	for j := js; j < je; j++ {
		for i := int64(0); i < g.m; i++ {
			var sum complex128
			if alpha != 0 {
				for l := int64(0); l < g.k; l++ {
					sum += a.op(g.transa, i, l) * b.op(g.transb, l, j)
				}
			}
			out := alpha * sum
			if beta != 0 {
				out += beta * c.at(i, j)
			}
			c.set(i, j, out)
		}
	}
}

func (rt *Runtime) Gemm(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, a native.DevicePtr, lda int64, b native.DevicePtr, ldb int64, beta native.Scalar, c native.DevicePtr, ldc int64) native.Status {
	return rt.launch(h, r, native.Gemm, func(hs handleState) (work, native.Status) {
		g := gemmShape{transa: transa, transb: transb, m: m, n: n, k: k, lda: lda, ldb: ldb, ldc: ldc}
		if !g.valid() {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		be, st := rt.coefficient(hs, cd, beta)
		if st != native.StatusSuccess || g.empty() {
			return work{}, st
		}
		am, bm, cm, ok := rt.operands(cd, g, a, b, c)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			gemmKernel(g, al.load(), am, bm, be.load(), cm)
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Syrk(h native.Handle, r native.Routine, uplo native.FillMode, trans native.Operation, n, k int64, alpha native.Scalar, a native.DevicePtr, lda int64, beta native.Scalar, c native.DevicePtr, ldc int64) native.Status {
	return rt.launch(h, r, native.Syrk, func(hs handleState) (work, native.Status) {
		if !uplo.Valid() || !trans.Valid() || (trans == native.OpC && r.Type.IsComplex()) || n < 0 || k < 0 {
			return work{}, native.StatusInvalidValue
		}
		ar, ac := n, k
		if trans != native.OpN {
			ar, ac = k, n
		}
		if lda < max(1, ar) || ldc < max(1, n) {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess {
			return work{}, st
		}
		be, st := rt.coefficient(hs, cd, beta)
		if st != native.StatusSuccess || n == 0 {
			return work{}, st
		}
		am, ok := rt.matrix(cd, a, ar, ac, lda)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		cm, ok := rt.matrix(cd, c, n, n, ldc)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		// op(A)(i, l), transposition only.
		opA := func(i, l int64) complex128 {
			if trans == native.OpN {
				return am.at(i, l)
			}
			return am.at(l, i)
		}
		return work{run: func() error {
			av, bv := al.load(), be.load()
			for j := int64(0); j < n; j++ {
				lo, hi := j, n
				if uplo == native.Upper {
					lo, hi = 0, j+1
				}
				for i := lo; i < hi; i++ {
					var sum complex128
					for l := int64(0); l < k; l++ {
						sum += opA(i, l) * opA(j, l)
					}
					out := av * sum
					if bv != 0 {
						out += bv * cm.at(i, j)
					}
					cm.set(i, j, out)
				}
			}
			return nil
		}}, native.StatusSuccess
	})
}

func (rt *Runtime) Trsm(h native.Handle, r native.Routine, side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n int64, alpha native.Scalar, a native.DevicePtr, lda int64, b native.DevicePtr, ldb int64) native.Status {
	return rt.launch(h, r, native.Trsm, func(hs handleState) (work, native.Status) {
		if !validTrsm(side, uplo, trans, diag, m, n, lda, ldb) {
			return work{}, native.StatusInvalidValue
		}
		cd := codecs[r.Type]
		al, st := rt.coefficient(hs, cd, alpha)
		if st != native.StatusSuccess || m == 0 || n == 0 {
			return work{}, st
		}
		ka := m
		if side == native.Right {
			ka = n
		}
		am, ok := rt.matrix(cd, a, ka, ka, lda)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		bm, ok := rt.matrix(cd, b, m, n, ldb)
		if !ok {
			return work{}, native.StatusExecutionFailed
		}
		return work{run: func() error {
			trsmInPlace(side, uplo, trans, diag, m, n, al.load(), am, bm)
			return nil
		}}, native.StatusSuccess
	})
}

package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Batched routines solve batchCount independent problems in one call. Every
// pointer batch must hold exactly batchCount addresses; the shapes of the
// matrices behind them are checked by the native runtime.

// GemmBatched is Gemm over pointer batches.
func GemmBatched[I Index, T Element](h *Handle, transa, transb Operation, m, n, k I,
	alpha Scalar[T], a *PointerBatch, lda I, b *PointerBatch, ldb I,
	beta Scalar[T], cm *PointerBatch, ldc I, batchCount I,
) error {
	c := h.begin(routineOf[I, T](native.GemmBatched))
	count := int64(batchCount)
	if count < 0 {
		c.fail("negative batch count %d", count)
	}
	al := scalarArg(c, "alpha", alpha)
	ap := c.batch("A", a, count)
	bp := c.batch("B", b, count)
	be := scalarArg(c, "beta", beta)
	cp := c.batch("C", cm, count)
	return c.finish(func() native.Status {
		return h.d.rt.GemmBatched(h.native, c.r, transa, transb, int64(m), int64(n), int64(k),
			al, ap, int64(lda), bp, int64(ldb), be, cp, int64(ldc), count)
	})
}

// GemmStridedBatched is Gemm over strided batches.
func GemmStridedBatched[I Index, T Element](h *Handle, transa, transb Operation, m, n, k I,
	alpha Scalar[T], a StridedBatch, lda I, b StridedBatch, ldb I,
	beta Scalar[T], cm StridedBatch, ldc I, batchCount I,
) error {
	c := h.begin(routineOf[I, T](native.GemmStridedBatched))
	count := int64(batchCount)
	if count < 0 {
		c.fail("negative batch count %d", count)
	}
	al := scalarArg(c, "alpha", alpha)
	be := scalarArg(c, "beta", beta)
	c.strided("A", a, count)
	c.strided("B", b, count)
	c.strided("C", cm, count)
	return c.finish(func() native.Status {
		return h.d.rt.GemmStridedBatched(h.native, c.r, transa, transb, int64(m), int64(n), int64(k),
			al, a.Base, int64(lda), a.Stride, b.Base, int64(ldb), b.Stride,
			be, cm.Base, int64(ldc), cm.Stride, count)
	})
}

// TrsmBatched is Trsm over pointer batches.
func TrsmBatched[I Index, T Element](h *Handle, side SideMode, uplo FillMode, trans Operation, diag DiagType, m, n I,
	alpha Scalar[T], a *PointerBatch, lda I, b *PointerBatch, ldb I, batchCount I,
) error {
	c := h.begin(routineOf[I, T](native.TrsmBatched))
	count := int64(batchCount)
	if count < 0 {
		c.fail("negative batch count %d", count)
	}
	al := scalarArg(c, "alpha", alpha)
	ap := c.batch("A", a, count)
	bp := c.batch("B", b, count)
	return c.finish(func() native.Status {
		return h.d.rt.TrsmBatched(h.native, c.r, side, uplo, trans, diag, int64(m), int64(n),
			al, ap, int64(lda), bp, int64(ldb), count)
	})
}

func checkInfoArrays(c *call, n, count int32, pivots, info *DeviceBuffer[int32]) {
	if count < 0 {
		c.fail("negative batch count %d", count)
		return
	}
	if pivots != nil && n > 0 && pivots.Len() < int(n)*int(count) {
		c.fail("pivot array holds %d entries, need %d", pivots.Len(), int(n)*int(count))
	}
	if info != nil && info.Len() < int(count) {
		c.fail("info array holds %d entries, need %d", info.Len(), count)
	}
}

// GetrfBatched LU-factors each n x n matrix of a in place with partial
// pivoting. pivots receives n 1-based row indices per matrix, or is nil to
// factor without pivoting. info receives 0 per matrix, or k when U(k,k) is
// exactly zero.
func GetrfBatched[T Standard](h *Handle, n int32, a *PointerBatch, lda int32,
	pivots *DeviceBuffer[int32], info *DeviceBuffer[int32], batchCount int32,
) error {
	c := h.begin(routineOf[int32, T](native.GetrfBatched))
	checkInfoArrays(c, n, batchCount, pivots, info)
	ap := c.batch("A", a, int64(batchCount))
	pp := optBufArg(c, "pivots", pivots)
	ip := bufArg(c, "info", info)
	return c.finish(func() native.Status {
		return h.d.rt.GetrfBatched(h.native, c.r, int64(n), ap, int64(lda), pp, ip, int64(batchCount))
	})
}

// GetriBatched writes the inverse of each matrix factored by GetrfBatched
// to the matching matrix of out.
func GetriBatched[T Standard](h *Handle, n int32, a *PointerBatch, lda int32, pivots *DeviceBuffer[int32],
	out *PointerBatch, ldc int32, info *DeviceBuffer[int32], batchCount int32,
) error {
	c := h.begin(routineOf[int32, T](native.GetriBatched))
	checkInfoArrays(c, n, batchCount, pivots, info)
	ap := c.batch("A", a, int64(batchCount))
	pp := optBufArg(c, "pivots", pivots)
	cp := c.batch("C", out, int64(batchCount))
	ip := bufArg(c, "info", info)
	return c.finish(func() native.Status {
		return h.d.rt.GetriBatched(h.native, c.r, int64(n), ap, int64(lda), pp, cp, int64(ldc), ip, int64(batchCount))
	})
}

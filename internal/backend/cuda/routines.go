//go:build cuda

package cuda

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>

typedef void* cublasHandle_t;

static void* blasgoLookup(const char* name) {
	return dlsym(RTLD_DEFAULT, name);
}

// Every element type of a family shares one C signature, so a single
// trampoline per family and index width can call any of its entry points.
#define BLASGO_TRAMPOLINES(W, I) \
static int blasgoScal##W(void* fn, cublasHandle_t h, I n, const void* alpha, void* x, I incx) { \
	return ((int (*)(cublasHandle_t, I, const void*, void*, I))fn)(h, n, alpha, x, incx); \
} \
static int blasgoAxpy##W(void* fn, cublasHandle_t h, I n, const void* alpha, const void* x, I incx, void* y, I incy) { \
	return ((int (*)(cublasHandle_t, I, const void*, const void*, I, void*, I))fn)(h, n, alpha, x, incx, y, incy); \
} \
static int blasgoPair##W(void* fn, cublasHandle_t h, I n, void* x, I incx, void* y, I incy) { \
	return ((int (*)(cublasHandle_t, I, void*, I, void*, I))fn)(h, n, x, incx, y, incy); \
} \
static int blasgoDot##W(void* fn, cublasHandle_t h, I n, const void* x, I incx, const void* y, I incy, void* result) { \
	return ((int (*)(cublasHandle_t, I, const void*, I, const void*, I, void*))fn)(h, n, x, incx, y, incy, result); \
} \
static int blasgoReduce##W(void* fn, cublasHandle_t h, I n, const void* x, I incx, void* result) { \
	return ((int (*)(cublasHandle_t, I, const void*, I, void*))fn)(h, n, x, incx, result); \
} \
static int blasgoRot##W(void* fn, cublasHandle_t h, I n, void* x, I incx, void* y, I incy, const void* c, const void* s) { \
	return ((int (*)(cublasHandle_t, I, void*, I, void*, I, const void*, const void*))fn)(h, n, x, incx, y, incy, c, s); \
} \
static int blasgoGemv##W(void* fn, cublasHandle_t h, int trans, I m, I n, const void* alpha, const void* A, I lda, const void* x, I incx, const void* beta, void* y, I incy) { \
	return ((int (*)(cublasHandle_t, int, I, I, const void*, const void*, I, const void*, I, const void*, void*, I))fn)(h, trans, m, n, alpha, A, lda, x, incx, beta, y, incy); \
} \
static int blasgoGer##W(void* fn, cublasHandle_t h, I m, I n, const void* alpha, const void* x, I incx, const void* y, I incy, void* A, I lda) { \
	return ((int (*)(cublasHandle_t, I, I, const void*, const void*, I, const void*, I, void*, I))fn)(h, m, n, alpha, x, incx, y, incy, A, lda); \
} \
static int blasgoTrsv##W(void* fn, cublasHandle_t h, int uplo, int trans, int diag, I n, const void* A, I lda, void* x, I incx) { \
	return ((int (*)(cublasHandle_t, int, int, int, I, const void*, I, void*, I))fn)(h, uplo, trans, diag, n, A, lda, x, incx); \
} \
static int blasgoGemm##W(void* fn, cublasHandle_t h, int transa, int transb, I m, I n, I k, const void* alpha, const void* A, I lda, const void* B, I ldb, const void* beta, void* C, I ldc) { \
	return ((int (*)(cublasHandle_t, int, int, I, I, I, const void*, const void*, I, const void*, I, const void*, void*, I))fn)(h, transa, transb, m, n, k, alpha, A, lda, B, ldb, beta, C, ldc); \
} \
static int blasgoSyrk##W(void* fn, cublasHandle_t h, int uplo, int trans, I n, I k, const void* alpha, const void* A, I lda, const void* beta, void* C, I ldc) { \
	return ((int (*)(cublasHandle_t, int, int, I, I, const void*, const void*, I, const void*, void*, I))fn)(h, uplo, trans, n, k, alpha, A, lda, beta, C, ldc); \
} \
static int blasgoTrsm##W(void* fn, cublasHandle_t h, int side, int uplo, int trans, int diag, I m, I n, const void* alpha, const void* A, I lda, void* B, I ldb) { \
	return ((int (*)(cublasHandle_t, int, int, int, int, I, I, const void*, const void*, I, void*, I))fn)(h, side, uplo, trans, diag, m, n, alpha, A, lda, B, ldb); \
} \
static int blasgoGemmBatched##W(void* fn, cublasHandle_t h, int transa, int transb, I m, I n, I k, const void* alpha, const void* A, I lda, const void* B, I ldb, const void* beta, void* C, I ldc, I batch) { \
	return ((int (*)(cublasHandle_t, int, int, I, I, I, const void*, const void*, I, const void*, I, const void*, void*, I, I))fn)(h, transa, transb, m, n, k, alpha, A, lda, B, ldb, beta, C, ldc, batch); \
} \
static int blasgoGemmStridedBatched##W(void* fn, cublasHandle_t h, int transa, int transb, I m, I n, I k, const void* alpha, const void* A, I lda, long long sa, const void* B, I ldb, long long sb, const void* beta, void* C, I ldc, long long sc, I batch) { \
	return ((int (*)(cublasHandle_t, int, int, I, I, I, const void*, const void*, I, long long, const void*, I, long long, const void*, void*, I, long long, I))fn)(h, transa, transb, m, n, k, alpha, A, lda, sa, B, ldb, sb, beta, C, ldc, sc, batch); \
} \
static int blasgoTrsmBatched##W(void* fn, cublasHandle_t h, int side, int uplo, int trans, int diag, I m, I n, const void* alpha, const void* A, I lda, void* B, I ldb, I batch) { \
	return ((int (*)(cublasHandle_t, int, int, int, int, I, I, const void*, const void*, I, void*, I, I))fn)(h, side, uplo, trans, diag, m, n, alpha, A, lda, B, ldb, batch); \
}

BLASGO_TRAMPOLINES(32, int)
BLASGO_TRAMPOLINES(64, long long)

static int blasgoGetrfBatched(void* fn, cublasHandle_t h, int n, void* A, int lda, void* pivots, void* info, int batch) {
	return ((int (*)(cublasHandle_t, int, void*, int, void*, void*, int))fn)(h, n, A, lda, pivots, info, batch);
}

static int blasgoGetriBatched(void* fn, cublasHandle_t h, int n, const void* A, int lda, const void* pivots, void* C, int ldc, void* info, int batch) {
	return ((int (*)(cublasHandle_t, int, const void*, int, const void*, void*, int, void*, int))fn)(h, n, A, lda, pivots, C, ldc, info, batch);
}
*/
import "C"

import (
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// entry resolves the native entry point for r, caching it by symbol name.
func (rt *Runtime) entry(r native.Routine, f native.Family) (unsafe.Pointer, native.Status) {
	symbol, ok := r.Symbol()
	if !ok || r.Family != f {
		return nil, native.StatusNotSupported
	}
	if fn, ok := rt.symbols.Load(symbol); ok {
		return fn.(unsafe.Pointer), native.StatusSuccess
	}
	name := C.CString(symbol)
	defer C.free(unsafe.Pointer(name))
	fn := C.blasgoLookup(name)
	if fn == nil {
		return nil, native.StatusNotSupported
	}
	rt.symbols.Store(symbol, fn)
	return fn, native.StatusSuccess
}

// scalarPtr is the address the library dereferences under the handle's
// pointer mode.
func scalarPtr(s native.Scalar) unsafe.Pointer {
	if s.Host != nil {
		return s.Host
	}
	return devPtr(s.Device)
}

type i64 = C.longlong

func i32(v int64) C.int { return C.int(v) }

func (rt *Runtime) Scal(h native.Handle, r native.Routine, n int64, alpha native.Scalar, x native.DevicePtr, incx int64) native.Status {
	fn, st := rt.entry(r, native.Scal)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoScal64(fn, handlePtr(h), i64(n), scalarPtr(alpha), devPtr(x), i64(incx)))
	}
	if !fitsInt32(n, incx) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoScal32(fn, handlePtr(h), i32(n), scalarPtr(alpha), devPtr(x), i32(incx)))
}

func (rt *Runtime) Axpy(h native.Handle, r native.Routine, n int64, alpha native.Scalar, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	fn, st := rt.entry(r, native.Axpy)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoAxpy64(fn, handlePtr(h), i64(n), scalarPtr(alpha), devPtr(x), i64(incx), devPtr(y), i64(incy)))
	}
	if !fitsInt32(n, incx, incy) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoAxpy32(fn, handlePtr(h), i32(n), scalarPtr(alpha), devPtr(x), i32(incx), devPtr(y), i32(incy)))
}

func (rt *Runtime) pair(h native.Handle, r native.Routine, f native.Family, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	fn, st := rt.entry(r, f)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoPair64(fn, handlePtr(h), i64(n), devPtr(x), i64(incx), devPtr(y), i64(incy)))
	}
	if !fitsInt32(n, incx, incy) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoPair32(fn, handlePtr(h), i32(n), devPtr(x), i32(incx), devPtr(y), i32(incy)))
}

func (rt *Runtime) Copy(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	return rt.pair(h, r, native.Copy, n, x, incx, y, incy)
}

func (rt *Runtime) Swap(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64) native.Status {
	return rt.pair(h, r, native.Swap, n, x, incx, y, incy)
}

func (rt *Runtime) Dot(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, result native.Scalar) native.Status {
	if r.Family != native.Dot && r.Family != native.Dotc {
		return native.StatusNotSupported
	}
	fn, st := rt.entry(r, r.Family)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoDot64(fn, handlePtr(h), i64(n), devPtr(x), i64(incx), devPtr(y), i64(incy), scalarPtr(result)))
	}
	if !fitsInt32(n, incx, incy) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoDot32(fn, handlePtr(h), i32(n), devPtr(x), i32(incx), devPtr(y), i32(incy), scalarPtr(result)))
}

func (rt *Runtime) Reduce(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, result native.Scalar) native.Status {
	switch r.Family {
	case native.Nrm2, native.Asum, native.Iamax, native.Iamin:
	default:
		return native.StatusNotSupported
	}
	fn, st := rt.entry(r, r.Family)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoReduce64(fn, handlePtr(h), i64(n), devPtr(x), i64(incx), scalarPtr(result)))
	}
	if !fitsInt32(n, incx) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoReduce32(fn, handlePtr(h), i32(n), devPtr(x), i32(incx), scalarPtr(result)))
}

func (rt *Runtime) Rot(h native.Handle, r native.Routine, n int64, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, c, s native.Scalar) native.Status {
	fn, st := rt.entry(r, native.Rot)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoRot64(fn, handlePtr(h), i64(n), devPtr(x), i64(incx), devPtr(y), i64(incy), scalarPtr(c), scalarPtr(s)))
	}
	if !fitsInt32(n, incx, incy) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoRot32(fn, handlePtr(h), i32(n), devPtr(x), i32(incx), devPtr(y), i32(incy), scalarPtr(c), scalarPtr(s)))
}

func (rt *Runtime) Gemv(h native.Handle, r native.Routine, trans native.Operation, m, n int64, alpha native.Scalar, a native.DevicePtr, lda int64, x native.DevicePtr, incx int64, beta native.Scalar, y native.DevicePtr, incy int64) native.Status {
	fn, st := rt.entry(r, native.Gemv)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoGemv64(fn, handlePtr(h), C.int(trans), i64(m), i64(n), scalarPtr(alpha), devPtr(a), i64(lda), devPtr(x), i64(incx), scalarPtr(beta), devPtr(y), i64(incy)))
	}
	if !fitsInt32(m, n, lda, incx, incy) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGemv32(fn, handlePtr(h), C.int(trans), i32(m), i32(n), scalarPtr(alpha), devPtr(a), i32(lda), devPtr(x), i32(incx), scalarPtr(beta), devPtr(y), i32(incy)))
}

func (rt *Runtime) Ger(h native.Handle, r native.Routine, m, n int64, alpha native.Scalar, x native.DevicePtr, incx int64, y native.DevicePtr, incy int64, a native.DevicePtr, lda int64) native.Status {
	fn, st := rt.entry(r, native.Ger)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoGer64(fn, handlePtr(h), i64(m), i64(n), scalarPtr(alpha), devPtr(x), i64(incx), devPtr(y), i64(incy), devPtr(a), i64(lda)))
	}
	if !fitsInt32(m, n, incx, incy, lda) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGer32(fn, handlePtr(h), i32(m), i32(n), scalarPtr(alpha), devPtr(x), i32(incx), devPtr(y), i32(incy), devPtr(a), i32(lda)))
}

func (rt *Runtime) Trsv(h native.Handle, r native.Routine, uplo native.FillMode, trans native.Operation, diag native.DiagType, n int64, a native.DevicePtr, lda int64, x native.DevicePtr, incx int64) native.Status {
	fn, st := rt.entry(r, native.Trsv)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoTrsv64(fn, handlePtr(h), C.int(uplo), C.int(trans), C.int(diag), i64(n), devPtr(a), i64(lda), devPtr(x), i64(incx)))
	}
	if !fitsInt32(n, lda, incx) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoTrsv32(fn, handlePtr(h), C.int(uplo), C.int(trans), C.int(diag), i32(n), devPtr(a), i32(lda), devPtr(x), i32(incx)))
}

func (rt *Runtime) Gemm(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, a native.DevicePtr, lda int64, b native.DevicePtr, ldb int64, beta native.Scalar, c native.DevicePtr, ldc int64) native.Status {
	fn, st := rt.entry(r, native.Gemm)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoGemm64(fn, handlePtr(h), C.int(transa), C.int(transb), i64(m), i64(n), i64(k), scalarPtr(alpha), devPtr(a), i64(lda), devPtr(b), i64(ldb), scalarPtr(beta), devPtr(c), i64(ldc)))
	}
	if !fitsInt32(m, n, k, lda, ldb, ldc) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGemm32(fn, handlePtr(h), C.int(transa), C.int(transb), i32(m), i32(n), i32(k), scalarPtr(alpha), devPtr(a), i32(lda), devPtr(b), i32(ldb), scalarPtr(beta), devPtr(c), i32(ldc)))
}

func (rt *Runtime) Syrk(h native.Handle, r native.Routine, uplo native.FillMode, trans native.Operation, n, k int64, alpha native.Scalar, a native.DevicePtr, lda int64, beta native.Scalar, c native.DevicePtr, ldc int64) native.Status {
	fn, st := rt.entry(r, native.Syrk)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoSyrk64(fn, handlePtr(h), C.int(uplo), C.int(trans), i64(n), i64(k), scalarPtr(alpha), devPtr(a), i64(lda), scalarPtr(beta), devPtr(c), i64(ldc)))
	}
	if !fitsInt32(n, k, lda, ldc) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoSyrk32(fn, handlePtr(h), C.int(uplo), C.int(trans), i32(n), i32(k), scalarPtr(alpha), devPtr(a), i32(lda), scalarPtr(beta), devPtr(c), i32(ldc)))
}

func (rt *Runtime) Trsm(h native.Handle, r native.Routine, side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n int64, alpha native.Scalar, a native.DevicePtr, lda int64, b native.DevicePtr, ldb int64) native.Status {
	fn, st := rt.entry(r, native.Trsm)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoTrsm64(fn, handlePtr(h), C.int(side), C.int(uplo), C.int(trans), C.int(diag), i64(m), i64(n), scalarPtr(alpha), devPtr(a), i64(lda), devPtr(b), i64(ldb)))
	}
	if !fitsInt32(m, n, lda, ldb) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoTrsm32(fn, handlePtr(h), C.int(side), C.int(uplo), C.int(trans), C.int(diag), i32(m), i32(n), scalarPtr(alpha), devPtr(a), i32(lda), devPtr(b), i32(ldb)))
}

func (rt *Runtime) GemmBatched(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, aarray native.DevicePtr, lda int64, barray native.DevicePtr, ldb int64, beta native.Scalar, carray native.DevicePtr, ldc int64, batchCount int64) native.Status {
	fn, st := rt.entry(r, native.GemmBatched)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoGemmBatched64(fn, handlePtr(h), C.int(transa), C.int(transb), i64(m), i64(n), i64(k), scalarPtr(alpha), devPtr(aarray), i64(lda), devPtr(barray), i64(ldb), scalarPtr(beta), devPtr(carray), i64(ldc), i64(batchCount)))
	}
	if !fitsInt32(m, n, k, lda, ldb, ldc, batchCount) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGemmBatched32(fn, handlePtr(h), C.int(transa), C.int(transb), i32(m), i32(n), i32(k), scalarPtr(alpha), devPtr(aarray), i32(lda), devPtr(barray), i32(ldb), scalarPtr(beta), devPtr(carray), i32(ldc), i32(batchCount)))
}

func (rt *Runtime) GemmStridedBatched(h native.Handle, r native.Routine, transa, transb native.Operation, m, n, k int64, alpha native.Scalar, a native.DevicePtr, lda, strideA int64, b native.DevicePtr, ldb, strideB int64, beta native.Scalar, c native.DevicePtr, ldc, strideC int64, batchCount int64) native.Status {
	fn, st := rt.entry(r, native.GemmStridedBatched)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoGemmStridedBatched64(fn, handlePtr(h), C.int(transa), C.int(transb), i64(m), i64(n), i64(k), scalarPtr(alpha),
			devPtr(a), i64(lda), i64(strideA), devPtr(b), i64(ldb), i64(strideB), scalarPtr(beta), devPtr(c), i64(ldc), i64(strideC), i64(batchCount)))
	}
	if !fitsInt32(m, n, k, lda, ldb, ldc, batchCount) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGemmStridedBatched32(fn, handlePtr(h), C.int(transa), C.int(transb), i32(m), i32(n), i32(k), scalarPtr(alpha),
		devPtr(a), i32(lda), i64(strideA), devPtr(b), i32(ldb), i64(strideB), scalarPtr(beta), devPtr(c), i32(ldc), i64(strideC), i32(batchCount)))
}

func (rt *Runtime) TrsmBatched(h native.Handle, r native.Routine, side native.SideMode, uplo native.FillMode, trans native.Operation, diag native.DiagType, m, n int64, alpha native.Scalar, aarray native.DevicePtr, lda int64, barray native.DevicePtr, ldb int64, batchCount int64) native.Status {
	fn, st := rt.entry(r, native.TrsmBatched)
	if st != native.StatusSuccess {
		return st
	}
	if r.Index == native.Index64 {
		return native.Status(C.blasgoTrsmBatched64(fn, handlePtr(h), C.int(side), C.int(uplo), C.int(trans), C.int(diag), i64(m), i64(n), scalarPtr(alpha), devPtr(aarray), i64(lda), devPtr(barray), i64(ldb), i64(batchCount)))
	}
	if !fitsInt32(m, n, lda, ldb, batchCount) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoTrsmBatched32(fn, handlePtr(h), C.int(side), C.int(uplo), C.int(trans), C.int(diag), i32(m), i32(n), scalarPtr(alpha), devPtr(aarray), i32(lda), devPtr(barray), i32(ldb), i32(batchCount)))
}

func (rt *Runtime) GetrfBatched(h native.Handle, r native.Routine, n int64, aarray native.DevicePtr, lda int64, pivots native.DevicePtr, info native.DevicePtr, batchCount int64) native.Status {
	fn, st := rt.entry(r, native.GetrfBatched)
	if st != native.StatusSuccess {
		return st
	}
	if !fitsInt32(n, lda, batchCount) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGetrfBatched(fn, handlePtr(h), i32(n), devPtr(aarray), i32(lda), devPtr(pivots), devPtr(info), i32(batchCount)))
}

func (rt *Runtime) GetriBatched(h native.Handle, r native.Routine, n int64, aarray native.DevicePtr, lda int64, pivots native.DevicePtr, carray native.DevicePtr, ldc int64, info native.DevicePtr, batchCount int64) native.Status {
	fn, st := rt.entry(r, native.GetriBatched)
	if st != native.StatusSuccess {
		return st
	}
	if !fitsInt32(n, lda, ldc, batchCount) {
		return native.StatusInvalidValue
	}
	return native.Status(C.blasgoGetriBatched(fn, handlePtr(h), i32(n), devPtr(aarray), i32(lda), devPtr(pivots), devPtr(carray), i32(ldc), devPtr(info), i32(batchCount)))
}

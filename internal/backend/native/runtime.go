// Package native describes the call contract between the binding layer and a
// device BLAS runtime. Implementations forward each method to exactly one
// native entry point and report its raw status; they perform no argument
// checking of their own beyond what the native library does.
package native

import "unsafe"

// Native symbols that are not part of a routine family.
const (
	SymCreate           = "cublasCreate_v2"
	SymDestroy          = "cublasDestroy_v2"
	SymGetVersion       = "cublasGetVersion_v2"
	SymSetStream        = "cublasSetStream_v2"
	SymGetStream        = "cublasGetStream_v2"
	SymSetPointerMode   = "cublasSetPointerMode_v2"
	SymGetPointerMode   = "cublasGetPointerMode_v2"
	SymSetMathMode      = "cublasSetMathMode"
	SymGetMathMode      = "cublasGetMathMode"
	SymSetSmCountTarget = "cublasSetSmCountTarget"
	SymGetSmCountTarget = "cublasGetSmCountTarget"
	SymSetAtomicsMode   = "cublasSetAtomicsMode"
	SymGetAtomicsMode   = "cublasGetAtomicsMode"
	SymSetVector        = "cublasSetVector"
	SymGetVector        = "cublasGetVector"
	SymSetMatrix        = "cublasSetMatrix"
	SymGetMatrix        = "cublasGetMatrix"
	SymSetVectorAsync   = "cublasSetVectorAsync"
	SymGetVectorAsync   = "cublasGetVectorAsync"
	SymSetMatrixAsync   = "cublasSetMatrixAsync"
	SymGetMatrixAsync   = "cublasGetMatrixAsync"
)

// Scalar is a coefficient or result slot passed by address. Exactly one of
// Host and Device is set; which one the native library dereferences is decided
// by the handle's pointer mode, not by this value.
type Scalar struct {
	Host   unsafe.Pointer
	Device DevicePtr
}

// OnDevice reports whether the slot refers to device memory.
func (s Scalar) OnDevice() bool {
	return s.Host == nil
}

// Memory is the device allocator and host page-locking surface.
type Memory interface {
	DeviceCount() (int, error)
	Malloc(bytes int64) (DevicePtr, error)
	Free(p DevicePtr) error
	MallocHost(bytes int64) (unsafe.Pointer, error)
	FreeHost(p unsafe.Pointer) error
	// HostRegister page-locks a host range. It returns false without error when
	// the range is already registered by someone else.
	HostRegister(p unsafe.Pointer, bytes int64) (bool, error)
	HostUnregister(p unsafe.Pointer) error
	MemcpyDeviceToDevice(dst, src DevicePtr, bytes int64, s Stream) error
}

// Streams creates and orders execution streams.
type Streams interface {
	NewStream() (Stream, error)
	DestroyStream(s Stream) error
	SyncStream(s Stream) error
}

// Context covers the handle lifecycle and its configuration.
type Context interface {
	Create() (Handle, Status)
	Destroy(h Handle) Status
	Version(h Handle) (int, Status)
	SetStream(h Handle, s Stream) Status
	GetStream(h Handle) (Stream, Status)
	SetPointerMode(h Handle, m PointerMode) Status
	GetPointerMode(h Handle) (PointerMode, Status)
	SetMathMode(h Handle, m MathMode) Status
	GetMathMode(h Handle) (MathMode, Status)
	SetSmCountTarget(h Handle, n int) Status
	GetSmCountTarget(h Handle) (int, Status)
	SetAtomicsMode(h Handle, m AtomicsMode) Status
	GetAtomicsMode(h Handle) (AtomicsMode, Status)
}

// Transfers moves strided vectors and column-major tiles between host and device.
type Transfers interface {
	SetVector(n int64, elemSize int, x unsafe.Pointer, incx int64, y DevicePtr, incy int64) Status
	GetVector(n int64, elemSize int, x DevicePtr, incx int64, y unsafe.Pointer, incy int64) Status
	SetMatrix(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b DevicePtr, ldb int64) Status
	GetMatrix(rows, cols int64, elemSize int, a DevicePtr, lda int64, b unsafe.Pointer, ldb int64) Status
	SetVectorAsync(n int64, elemSize int, x unsafe.Pointer, incx int64, y DevicePtr, incy int64, s Stream) Status
	GetVectorAsync(n int64, elemSize int, x DevicePtr, incx int64, y unsafe.Pointer, incy int64, s Stream) Status
	SetMatrixAsync(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b DevicePtr, ldb int64, s Stream) Status
	GetMatrixAsync(rows, cols int64, elemSize int, a DevicePtr, lda int64, b unsafe.Pointer, ldb int64, s Stream) Status
}

// Level1 covers vector-vector routines.
type Level1 interface {
	Scal(h Handle, r Routine, n int64, alpha Scalar, x DevicePtr, incx int64) Status
	Axpy(h Handle, r Routine, n int64, alpha Scalar, x DevicePtr, incx int64, y DevicePtr, incy int64) Status
	Copy(h Handle, r Routine, n int64, x DevicePtr, incx int64, y DevicePtr, incy int64) Status
	Swap(h Handle, r Routine, n int64, x DevicePtr, incx int64, y DevicePtr, incy int64) Status
	// Dot serves both the Dot and Dotc families.
	Dot(h Handle, r Routine, n int64, x DevicePtr, incx int64, y DevicePtr, incy int64, result Scalar) Status
	// Reduce serves Nrm2, Asum, Iamax and Iamin.
	Reduce(h Handle, r Routine, n int64, x DevicePtr, incx int64, result Scalar) Status
	Rot(h Handle, r Routine, n int64, x DevicePtr, incx int64, y DevicePtr, incy int64, c, s Scalar) Status
}

// Level2 covers matrix-vector routines.
type Level2 interface {
	Gemv(h Handle, r Routine, trans Operation, m, n int64, alpha Scalar, a DevicePtr, lda int64, x DevicePtr, incx int64, beta Scalar, y DevicePtr, incy int64) Status
	Ger(h Handle, r Routine, m, n int64, alpha Scalar, x DevicePtr, incx int64, y DevicePtr, incy int64, a DevicePtr, lda int64) Status
	Trsv(h Handle, r Routine, uplo FillMode, trans Operation, diag DiagType, n int64, a DevicePtr, lda int64, x DevicePtr, incx int64) Status
}

// Level3 covers matrix-matrix routines.
type Level3 interface {
	Gemm(h Handle, r Routine, transa, transb Operation, m, n, k int64, alpha Scalar, a DevicePtr, lda int64, b DevicePtr, ldb int64, beta Scalar, c DevicePtr, ldc int64) Status
	Syrk(h Handle, r Routine, uplo FillMode, trans Operation, n, k int64, alpha Scalar, a DevicePtr, lda int64, beta Scalar, c DevicePtr, ldc int64) Status
	Trsm(h Handle, r Routine, side SideMode, uplo FillMode, trans Operation, diag DiagType, m, n int64, alpha Scalar, a DevicePtr, lda int64, b DevicePtr, ldb int64) Status
}

// Batched covers routines that take pointer arrays or strided batches.
type Batched interface {
	GemmBatched(h Handle, r Routine, transa, transb Operation, m, n, k int64, alpha Scalar, aarray DevicePtr, lda int64, barray DevicePtr, ldb int64, beta Scalar, carray DevicePtr, ldc int64, batchCount int64) Status
	GemmStridedBatched(h Handle, r Routine, transa, transb Operation, m, n, k int64, alpha Scalar, a DevicePtr, lda, strideA int64, b DevicePtr, ldb, strideB int64, beta Scalar, c DevicePtr, ldc, strideC int64, batchCount int64) Status
	TrsmBatched(h Handle, r Routine, side SideMode, uplo FillMode, trans Operation, diag DiagType, m, n int64, alpha Scalar, aarray DevicePtr, lda int64, barray DevicePtr, ldb int64, batchCount int64) Status
	GetrfBatched(h Handle, r Routine, n int64, aarray DevicePtr, lda int64, pivots DevicePtr, info DevicePtr, batchCount int64) Status
	GetriBatched(h Handle, r Routine, n int64, aarray DevicePtr, lda int64, pivots DevicePtr, carray DevicePtr, ldc int64, info DevicePtr, batchCount int64) Status
}

// Runtime is everything the binding layer needs from a native BLAS runtime.
type Runtime interface {
	Memory
	Streams
	Context
	Transfers
	Level1
	Level2
	Level3
	Batched
	Close() error
}

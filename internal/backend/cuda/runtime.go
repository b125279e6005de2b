//go:build cuda

// Package cuda implements the native BLAS runtime contract on libcudart and
// libcublas through cgo.
package cuda

/*
#cgo LDFLAGS: -lcudart -lcublas

// Minimal CUDA runtime forward declarations to avoid requiring headers at compile time.
// Linker will still require libcudart and libcublas when building with the cuda tag.
typedef void* cudaStream_t;
typedef int cudaError_t;
typedef void* cublasHandle_t;
typedef int cublasStatus_t;

extern const char* cudaGetErrorString(cudaError_t err);
extern cudaError_t cudaGetDeviceCount(int* count);
extern cudaError_t cudaStreamCreate(cudaStream_t* stream);
extern cudaError_t cudaStreamDestroy(cudaStream_t stream);
extern cudaError_t cudaStreamSynchronize(cudaStream_t stream);
extern cudaError_t cudaMalloc(void** ptr, unsigned long long size);
extern cudaError_t cudaFree(void* ptr);
extern cudaError_t cudaMallocHost(void** ptr, unsigned long long size);
extern cudaError_t cudaFreeHost(void* ptr);
extern cudaError_t cudaHostRegister(void* ptr, unsigned long long size, unsigned int flags);
extern cudaError_t cudaHostUnregister(void* ptr);
extern cudaError_t cudaMemcpyAsync(void* dst, const void* src, unsigned long long size, int kind, cudaStream_t stream);

#define BLASGO_CUDA_MEMCPY_DEVICE_TO_DEVICE 3
#define BLASGO_CUDA_HOST_MEMORY_ALREADY_REGISTERED 712

extern cublasStatus_t cublasCreate_v2(cublasHandle_t* handle);
extern cublasStatus_t cublasDestroy_v2(cublasHandle_t handle);
extern cublasStatus_t cublasGetVersion_v2(cublasHandle_t handle, int* version);
extern cublasStatus_t cublasSetStream_v2(cublasHandle_t handle, cudaStream_t stream);
extern cublasStatus_t cublasGetStream_v2(cublasHandle_t handle, cudaStream_t* stream);
extern cublasStatus_t cublasSetPointerMode_v2(cublasHandle_t handle, int mode);
extern cublasStatus_t cublasGetPointerMode_v2(cublasHandle_t handle, int* mode);
extern cublasStatus_t cublasSetMathMode(cublasHandle_t handle, int mode);
extern cublasStatus_t cublasGetMathMode(cublasHandle_t handle, int* mode);
extern cublasStatus_t cublasSetSmCountTarget(cublasHandle_t handle, int count);
extern cublasStatus_t cublasGetSmCountTarget(cublasHandle_t handle, int* count);
extern cublasStatus_t cublasSetAtomicsMode(cublasHandle_t handle, int mode);
extern cublasStatus_t cublasGetAtomicsMode(cublasHandle_t handle, int* mode);

extern cublasStatus_t cublasSetVector(int n, int elemSize, const void* x, int incx, void* y, int incy);
extern cublasStatus_t cublasGetVector(int n, int elemSize, const void* x, int incx, void* y, int incy);
extern cublasStatus_t cublasSetMatrix(int rows, int cols, int elemSize, const void* A, int lda, void* B, int ldb);
extern cublasStatus_t cublasGetMatrix(int rows, int cols, int elemSize, const void* A, int lda, void* B, int ldb);
extern cublasStatus_t cublasSetVectorAsync(int n, int elemSize, const void* x, int incx, void* y, int incy, cudaStream_t stream);
extern cublasStatus_t cublasGetVectorAsync(int n, int elemSize, const void* x, int incx, void* y, int incy, cudaStream_t stream);
extern cublasStatus_t cublasSetMatrixAsync(int rows, int cols, int elemSize, const void* A, int lda, void* B, int ldb, cudaStream_t stream);
extern cublasStatus_t cublasGetMatrixAsync(int rows, int cols, int elemSize, const void* A, int lda, void* B, int ldb, cudaStream_t stream);

static const char* blasgoCudaGetErrorString(int err) {
	return cudaGetErrorString((cudaError_t)err);
}
*/
import "C"

import (
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Runtime forwards every native.Runtime method to the matching CUDA entry point.
type Runtime struct {
	symbols sync.Map // symbol name -> unsafe.Pointer
}

var _ native.Runtime = (*Runtime)(nil)

func New() (*Runtime, error) {
	count, err := deviceCount()
	if err != nil {
		return nil, fmt.Errorf("cuda device query failed: %w", err)
	}
	if count < 1 {
		return nil, fmt.Errorf("no cuda devices detected")
	}
	return &Runtime{}, nil
}

func (rt *Runtime) Close() error { return nil }

func deviceCount() (int, error) {
	var count C.int
	if err := cudaErr(C.cudaGetDeviceCount(&count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (rt *Runtime) DeviceCount() (int, error) {
	return deviceCount()
}

// devPtr turns a device address into a C pointer without the compiler
// treating it as a Go pointer.
func devPtr(p native.DevicePtr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p))
}

func handlePtr(h native.Handle) C.cublasHandle_t {
	return *(*C.cublasHandle_t)(unsafe.Pointer(&h))
}

func streamPtr(s native.Stream) C.cudaStream_t {
	return *(*C.cudaStream_t)(unsafe.Pointer(&s))
}

func status(code C.cublasStatus_t) native.Status {
	return native.Status(code)
}

func fitsInt32(vs ...int64) bool {
	for _, v := range vs {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return false
		}
	}
	return true
}

func cudaErr(code C.cudaError_t) error {
	if code == 0 {
		return nil
	}
	msg := C.GoString(C.blasgoCudaGetErrorString(C.int(code)))
	return fmt.Errorf("cuda runtime error %d: %s", int(code), msg)
}

// Memory.

func (rt *Runtime) Malloc(bytes int64) (native.DevicePtr, error) {
	if bytes <= 0 {
		return 0, fmt.Errorf("device alloc size must be > 0")
	}
	var ptr unsafe.Pointer
	if err := cudaErr(C.cudaMalloc(&ptr, C.ulonglong(bytes))); err != nil {
		return 0, err
	}
	return native.DevicePtr(uintptr(ptr)), nil
}

func (rt *Runtime) Free(p native.DevicePtr) error {
	if p == 0 {
		return nil
	}
	return cudaErr(C.cudaFree(devPtr(p)))
}

func (rt *Runtime) MallocHost(bytes int64) (unsafe.Pointer, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("host alloc size must be > 0")
	}
	var ptr unsafe.Pointer
	if err := cudaErr(C.cudaMallocHost(&ptr, C.ulonglong(bytes))); err != nil {
		return nil, err
	}
	return ptr, nil
}

func (rt *Runtime) FreeHost(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	return cudaErr(C.cudaFreeHost(p))
}

func (rt *Runtime) HostRegister(p unsafe.Pointer, bytes int64) (bool, error) {
	code := C.cudaHostRegister(p, C.ulonglong(bytes), 0)
	if code == C.BLASGO_CUDA_HOST_MEMORY_ALREADY_REGISTERED {
		return false, nil
	}
	if err := cudaErr(code); err != nil {
		return false, err
	}
	return true, nil
}

func (rt *Runtime) HostUnregister(p unsafe.Pointer) error {
	return cudaErr(C.cudaHostUnregister(p))
}

func (rt *Runtime) MemcpyDeviceToDevice(dst, src native.DevicePtr, bytes int64, s native.Stream) error {
	if bytes <= 0 {
		return nil
	}
	return cudaErr(C.cudaMemcpyAsync(devPtr(dst), devPtr(src), C.ulonglong(bytes), C.BLASGO_CUDA_MEMCPY_DEVICE_TO_DEVICE, streamPtr(s)))
}

// Streams.

func (rt *Runtime) NewStream() (native.Stream, error) {
	var stream C.cudaStream_t
	if err := cudaErr(C.cudaStreamCreate(&stream)); err != nil {
		return 0, err
	}
	return native.Stream(uintptr(stream)), nil
}

func (rt *Runtime) DestroyStream(s native.Stream) error {
	if s == 0 {
		return fmt.Errorf("cannot destroy the default stream")
	}
	return cudaErr(C.cudaStreamDestroy(streamPtr(s)))
}

func (rt *Runtime) SyncStream(s native.Stream) error {
	return cudaErr(C.cudaStreamSynchronize(streamPtr(s)))
}

// Handle lifecycle and configuration.

func (rt *Runtime) Create() (native.Handle, native.Status) {
	var h C.cublasHandle_t
	st := status(C.cublasCreate_v2(&h))
	return native.Handle(uintptr(h)), st
}

func (rt *Runtime) Destroy(h native.Handle) native.Status {
	return status(C.cublasDestroy_v2(handlePtr(h)))
}

func (rt *Runtime) Version(h native.Handle) (int, native.Status) {
	var v C.int
	st := status(C.cublasGetVersion_v2(handlePtr(h), &v))
	return int(v), st
}

func (rt *Runtime) SetStream(h native.Handle, s native.Stream) native.Status {
	return status(C.cublasSetStream_v2(handlePtr(h), streamPtr(s)))
}

func (rt *Runtime) GetStream(h native.Handle) (native.Stream, native.Status) {
	var s C.cudaStream_t
	st := status(C.cublasGetStream_v2(handlePtr(h), &s))
	return native.Stream(uintptr(s)), st
}

func (rt *Runtime) SetPointerMode(h native.Handle, m native.PointerMode) native.Status {
	return status(C.cublasSetPointerMode_v2(handlePtr(h), C.int(m)))
}

func (rt *Runtime) GetPointerMode(h native.Handle) (native.PointerMode, native.Status) {
	var m C.int
	st := status(C.cublasGetPointerMode_v2(handlePtr(h), &m))
	return native.PointerMode(m), st
}

func (rt *Runtime) SetMathMode(h native.Handle, m native.MathMode) native.Status {
	return status(C.cublasSetMathMode(handlePtr(h), C.int(m)))
}

func (rt *Runtime) GetMathMode(h native.Handle) (native.MathMode, native.Status) {
	var m C.int
	st := status(C.cublasGetMathMode(handlePtr(h), &m))
	return native.MathMode(m), st
}

func (rt *Runtime) SetSmCountTarget(h native.Handle, n int) native.Status {
	if !fitsInt32(int64(n)) {
		return native.StatusInvalidValue
	}
	return status(C.cublasSetSmCountTarget(handlePtr(h), C.int(n)))
}

func (rt *Runtime) GetSmCountTarget(h native.Handle) (int, native.Status) {
	var n C.int
	st := status(C.cublasGetSmCountTarget(handlePtr(h), &n))
	return int(n), st
}

func (rt *Runtime) SetAtomicsMode(h native.Handle, m native.AtomicsMode) native.Status {
	return status(C.cublasSetAtomicsMode(handlePtr(h), C.int(m)))
}

func (rt *Runtime) GetAtomicsMode(h native.Handle) (native.AtomicsMode, native.Status) {
	var m C.int
	st := status(C.cublasGetAtomicsMode(handlePtr(h), &m))
	return native.AtomicsMode(m), st
}

// Transfers. The helpers take 32-bit extents; larger extents are rejected
// the way the library rejects a negative count.

func (rt *Runtime) SetVector(n int64, elemSize int, x unsafe.Pointer, incx int64, y native.DevicePtr, incy int64) native.Status {
	if !fitsInt32(n, int64(elemSize), incx, incy) {
		return native.StatusInvalidValue
	}
	return status(C.cublasSetVector(C.int(n), C.int(elemSize), x, C.int(incx), devPtr(y), C.int(incy)))
}

func (rt *Runtime) GetVector(n int64, elemSize int, x native.DevicePtr, incx int64, y unsafe.Pointer, incy int64) native.Status {
	if !fitsInt32(n, int64(elemSize), incx, incy) {
		return native.StatusInvalidValue
	}
	return status(C.cublasGetVector(C.int(n), C.int(elemSize), devPtr(x), C.int(incx), y, C.int(incy)))
}

func (rt *Runtime) SetMatrix(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b native.DevicePtr, ldb int64) native.Status {
	if !fitsInt32(rows, cols, int64(elemSize), lda, ldb) {
		return native.StatusInvalidValue
	}
	return status(C.cublasSetMatrix(C.int(rows), C.int(cols), C.int(elemSize), a, C.int(lda), devPtr(b), C.int(ldb)))
}

func (rt *Runtime) GetMatrix(rows, cols int64, elemSize int, a native.DevicePtr, lda int64, b unsafe.Pointer, ldb int64) native.Status {
	if !fitsInt32(rows, cols, int64(elemSize), lda, ldb) {
		return native.StatusInvalidValue
	}
	return status(C.cublasGetMatrix(C.int(rows), C.int(cols), C.int(elemSize), devPtr(a), C.int(lda), b, C.int(ldb)))
}

func (rt *Runtime) SetVectorAsync(n int64, elemSize int, x unsafe.Pointer, incx int64, y native.DevicePtr, incy int64, s native.Stream) native.Status {
	if !fitsInt32(n, int64(elemSize), incx, incy) {
		return native.StatusInvalidValue
	}
	return status(C.cublasSetVectorAsync(C.int(n), C.int(elemSize), x, C.int(incx), devPtr(y), C.int(incy), streamPtr(s)))
}

func (rt *Runtime) GetVectorAsync(n int64, elemSize int, x native.DevicePtr, incx int64, y unsafe.Pointer, incy int64, s native.Stream) native.Status {
	if !fitsInt32(n, int64(elemSize), incx, incy) {
		return native.StatusInvalidValue
	}
	return status(C.cublasGetVectorAsync(C.int(n), C.int(elemSize), devPtr(x), C.int(incx), y, C.int(incy), streamPtr(s)))
}

func (rt *Runtime) SetMatrixAsync(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b native.DevicePtr, ldb int64, s native.Stream) native.Status {
	if !fitsInt32(rows, cols, int64(elemSize), lda, ldb) {
		return native.StatusInvalidValue
	}
	return status(C.cublasSetMatrixAsync(C.int(rows), C.int(cols), C.int(elemSize), a, C.int(lda), devPtr(b), C.int(ldb), streamPtr(s)))
}

func (rt *Runtime) GetMatrixAsync(rows, cols int64, elemSize int, a native.DevicePtr, lda int64, b unsafe.Pointer, ldb int64, s native.Stream) native.Status {
	if !fitsInt32(rows, cols, int64(elemSize), lda, ldb) {
		return native.StatusInvalidValue
	}
	return status(C.cublasGetMatrixAsync(C.int(rows), C.int(cols), C.int(elemSize), devPtr(a), C.int(lda), b, C.int(ldb), streamPtr(s)))
}

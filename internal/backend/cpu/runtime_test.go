package cpu

import (
	"math"
	"testing"
	"unsafe"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func newTestRuntime(t *testing.T) (*Runtime, native.Handle) {
	t.Helper()
	r := New()
	h, st := r.Create()
	require.Equal(t, native.StatusSuccess, st)
	t.Cleanup(func() {
		r.Destroy(h)
		require.NoError(t, r.Close())
	})
	return r, h
}

func upload[T any](t *testing.T, r *Runtime, xs []T) native.DevicePtr {
	t.Helper()
	size := int(unsafe.Sizeof(xs[0]))
	p := must.M1(r.Malloc(int64(len(xs) * size)))
	require.Equal(t, native.StatusSuccess, r.SetVector(int64(len(xs)), size, unsafe.Pointer(&xs[0]), 1, p, 1))
	return p
}

func download[T any](t *testing.T, r *Runtime, p native.DevicePtr, n int) []T {
	t.Helper()
	out := make([]T, n)
	size := int(unsafe.Sizeof(out[0]))
	require.Equal(t, native.StatusSuccess, r.GetVector(int64(n), size, p, 1, unsafe.Pointer(&out[0]), 1))
	return out
}

func hostScalar[T any](v *T) native.Scalar {
	return native.Scalar{Host: unsafe.Pointer(v)}
}

func routine(f native.Family, t native.DataType) native.Routine {
	return native.Routine{Family: f, Type: t, Index: native.Index32}
}

func TestHandleLifecycle(t *testing.T) {
	r := New()
	defer r.Close()

	h, st := r.Create()
	require.Equal(t, native.StatusSuccess, st)
	v, st := r.Version(h)
	require.Equal(t, native.StatusSuccess, st)
	assert.Equal(t, Version, v)

	assert.Equal(t, native.StatusSuccess, r.Destroy(h))
	assert.Equal(t, native.StatusNotInitialized, r.Destroy(h))
	_, st = r.GetStream(h)
	assert.Equal(t, native.StatusNotInitialized, st)
}

func TestHandleConfiguration(t *testing.T) {
	r, h := newTestRuntime(t)

	s := must.M1(r.NewStream())
	require.Equal(t, native.StatusSuccess, r.SetStream(h, s))
	got, st := r.GetStream(h)
	require.Equal(t, native.StatusSuccess, st)
	assert.Equal(t, s, got)
	assert.Equal(t, native.StatusInvalidValue, r.SetStream(h, 999))

	require.Equal(t, native.StatusSuccess, r.SetPointerMode(h, native.PointerModeDevice))
	pm, _ := r.GetPointerMode(h)
	assert.Equal(t, native.PointerModeDevice, pm)
	assert.Equal(t, native.StatusInvalidValue, r.SetPointerMode(h, 7))

	mode := native.MathTF32TensorOp | native.MathDisallowReducedPrecisionReduction
	require.Equal(t, native.StatusSuccess, r.SetMathMode(h, mode))
	mm, _ := r.GetMathMode(h)
	assert.Equal(t, mode, mm)
	assert.Equal(t, native.StatusInvalidValue, r.SetMathMode(h, 9))

	require.Equal(t, native.StatusSuccess, r.SetSmCountTarget(h, 12))
	n, _ := r.GetSmCountTarget(h)
	assert.Equal(t, 12, n)
	assert.Equal(t, native.StatusInvalidValue, r.SetSmCountTarget(h, -1))

	require.Equal(t, native.StatusSuccess, r.SetAtomicsMode(h, native.AtomicsAllowed))
	am, _ := r.GetAtomicsMode(h)
	assert.Equal(t, native.AtomicsAllowed, am)

	require.Equal(t, native.StatusSuccess, r.SetStream(h, 0))
	require.NoError(t, r.DestroyStream(s))
	assert.Error(t, r.DestroyStream(s))
	assert.Error(t, r.DestroyStream(0))
}

func TestFailNextAppliesOnce(t *testing.T) {
	r, h := newTestRuntime(t)
	r.FailNext(native.SymSetMathMode, native.StatusArchMismatch)
	assert.Equal(t, native.StatusArchMismatch, r.SetMathMode(h, native.MathTensorOp))
	assert.Equal(t, native.StatusSuccess, r.SetMathMode(h, native.MathTensorOp))

	x := upload(t, r, []float32{1, 2})
	alpha := float32(2)
	r.FailNext("cublasSscal_v2", native.StatusExecutionFailed)
	assert.Equal(t, native.StatusExecutionFailed, r.Scal(h, routine(native.Scal, native.Float32), 2, hostScalar(&alpha), x, 1))
	assert.Equal(t, []float32{1, 2}, download[float32](t, r, x, 2))
}

func TestDeviceMemory(t *testing.T) {
	r := New()
	defer r.Close()

	_, err := r.Malloc(0)
	assert.Error(t, err)

	a := must.M1(r.Malloc(10))
	b := must.M1(r.Malloc(10))
	assert.Zero(t, uintptr(a)%allocAlign)
	assert.Greater(t, uintptr(b), uintptr(a)+10)
	assert.Equal(t, 2, r.LiveAllocations())

	// Past the end of an allocation is unmapped.
	xs := make([]byte, 16)
	assert.Equal(t, native.StatusMappingError, r.SetVector(16, 1, unsafe.Pointer(&xs[0]), 1, a, 1))
	assert.Equal(t, native.StatusMappingError, r.SetVector(1, 1, unsafe.Pointer(&xs[0]), 1, a+100, 1))
	assert.Equal(t, native.StatusInvalidValue, r.SetVector(1, 1, unsafe.Pointer(&xs[0]), 0, a, 1))
	assert.Equal(t, native.StatusSuccess, r.SetVector(0, 1, nil, 1, 0, 1))

	require.NoError(t, r.Free(a))
	assert.Error(t, r.Free(a))
	assert.NoError(t, r.Free(0))
	require.NoError(t, r.Free(b))
	assert.Zero(t, r.LiveAllocations())
}

func TestHostRegistration(t *testing.T) {
	r := New()
	defer r.Close()

	buf := make([]float64, 64)
	p := unsafe.Pointer(&buf[0])
	ok, err := r.HostRegister(p, 64*8)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HostRegister(unsafe.Pointer(&buf[8]), 8)
	require.NoError(t, err)
	assert.False(t, ok, "overlapping range is already registered")

	require.NoError(t, r.HostUnregister(p))
	assert.Error(t, r.HostUnregister(p))

	hp := must.M1(r.MallocHost(100))
	assert.Equal(t, 1, r.RegisteredHostRanges())
	assert.Error(t, r.HostUnregister(hp))
	require.NoError(t, r.FreeHost(hp))
	assert.Zero(t, r.RegisteredHostRanges())
}

func TestStridedTransfers(t *testing.T) {
	r := New()
	defer r.Close()

	host := []int32{1, -1, 2, -1, 3, -1}
	dev := must.M1(r.Malloc(3 * 3 * 4))
	require.Equal(t, native.StatusSuccess, r.SetVector(3, 4, unsafe.Pointer(&host[0]), 2, dev, 3))

	out := make([]int32, 3)
	require.Equal(t, native.StatusSuccess, r.GetVector(3, 4, dev, 3, unsafe.Pointer(&out[0]), 1))
	assert.Equal(t, []int32{1, 2, 3}, out)

	// A 2x2 tile from a 3-row host matrix into a 4-row device matrix.
	tile := []float64{1, 2, 0, 3, 4, 0}
	m := must.M1(r.Malloc(4 * 2 * 8))
	require.Equal(t, native.StatusSuccess, r.SetMatrix(2, 2, 8, unsafe.Pointer(&tile[0]), 3, m, 4))
	back := make([]float64, 4)
	require.Equal(t, native.StatusSuccess, r.GetMatrix(2, 2, 8, m, 4, unsafe.Pointer(&back[0]), 2))
	assert.Equal(t, []float64{1, 2, 3, 4}, back)
	assert.Equal(t, native.StatusInvalidValue, r.SetMatrix(2, 2, 8, unsafe.Pointer(&tile[0]), 1, m, 4))
}

func TestTransferExtentOverflow(t *testing.T) {
	r := New()
	defer r.Close()

	host := []float64{1, 2}
	p := unsafe.Pointer(&host[0])
	dev := must.M1(r.Malloc(16))
	s := must.M1(r.NewStream())

	assert.Equal(t, native.StatusInvalidValue, r.SetVector(2, 8, p, math.MaxInt64, dev, 1))
	assert.Equal(t, native.StatusInvalidValue, r.GetVector(2, 8, dev, 1, p, math.MaxInt64))
	assert.Equal(t, native.StatusInvalidValue, r.SetVector(2, 8, p, 1, dev, math.MaxInt64/8))
	assert.Equal(t, native.StatusInvalidValue, r.SetVectorAsync(2, 8, p, math.MaxInt64, dev, 1, s))
	assert.Equal(t, native.StatusInvalidValue, r.SetMatrix(1, 2, 8, p, math.MaxInt64, dev, 1))
	assert.Equal(t, native.StatusInvalidValue, r.GetMatrix(1, 2, 8, dev, 1, p, math.MaxInt64))
	assert.Equal(t, native.StatusInvalidValue, r.GetMatrixAsync(1, 2, 8, dev, math.MaxInt64, p, 1, s))
	require.NoError(t, r.SyncStream(s))
	assert.Equal(t, []float64{1, 2}, host)
}

func TestAsyncTransferOrdering(t *testing.T) {
	r, h := newTestRuntime(t)
	s := must.M1(r.NewStream())
	require.Equal(t, native.StatusSuccess, r.SetStream(h, s))

	in := []float32{1, 2, 3, 4}
	out := make([]float32, 4)
	x := must.M1(r.Malloc(16))
	alpha := float32(10)
	require.Equal(t, native.StatusSuccess, r.SetVectorAsync(4, 4, unsafe.Pointer(&in[0]), 1, x, 1, s))
	require.Equal(t, native.StatusSuccess, r.Scal(h, routine(native.Scal, native.Float32), 4, hostScalar(&alpha), x, 1))
	require.Equal(t, native.StatusSuccess, r.GetVectorAsync(4, 4, x, 1, unsafe.Pointer(&out[0]), 1, s))
	require.NoError(t, r.SyncStream(s))
	assert.Equal(t, []float32{10, 20, 30, 40}, out)
	assert.Equal(t, native.StatusMappingError, r.SetVectorAsync(4, 4, unsafe.Pointer(&in[0]), 1, x, 1, 12345))
}

func TestStickyStreamError(t *testing.T) {
	r, h := newTestRuntime(t)

	ptrs := upload(t, r, []uint64{0xdead0000})
	alpha, beta := 1.0, 0.0
	st := r.GemmBatched(h, routine(native.GemmBatched, native.Float64), native.OpN, native.OpN, 1, 1, 1,
		hostScalar(&alpha), ptrs, 1, ptrs, 1, hostScalar(&beta), ptrs, 1, 1)
	require.Equal(t, native.StatusSuccess, st)
	assert.Error(t, r.SyncStream(0))
	assert.NoError(t, r.SyncStream(0), "error is cleared by synchronization")
}

func TestScalarModeMismatch(t *testing.T) {
	r, h := newTestRuntime(t)
	x := upload(t, r, []float64{1, 2})
	alpha := 2.0
	require.Equal(t, native.StatusSuccess, r.SetPointerMode(h, native.PointerModeDevice))
	assert.Equal(t, native.StatusInvalidValue, r.Scal(h, routine(native.Scal, native.Float64), 2, hostScalar(&alpha), x, 1))

	a := upload(t, r, []float64{3})
	require.Equal(t, native.StatusSuccess, r.Scal(h, routine(native.Scal, native.Float64), 2, native.Scalar{Device: a}, x, 1))
	assert.Equal(t, []float64{3, 6}, download[float64](t, r, x, 2))
}

func TestUnsupportedRoutine(t *testing.T) {
	r, h := newTestRuntime(t)
	var res float64
	st := r.Reduce(h, routine(native.Nrm2, native.Float16), 1, 0, 1, hostScalar(&res))
	assert.Equal(t, native.StatusNotSupported, st)
	st = r.Reduce(h, routine(native.Gemm, native.Float64), 1, 0, 1, hostScalar(&res))
	assert.Equal(t, native.StatusNotSupported, st)
}

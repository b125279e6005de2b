package cpu

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func TestLevel1(t *testing.T) {
	r, h := newTestRuntime(t)
	f64 := func(f native.Family) native.Routine { return routine(f, native.Float64) }

	x := upload(t, r, []float64{1, -4, 2})
	y := upload(t, r, []float64{1, 1, 1})
	alpha := 2.0
	require.Equal(t, native.StatusSuccess, r.Axpy(h, f64(native.Axpy), 3, hostScalar(&alpha), x, 1, y, 1))
	assert.Equal(t, []float64{3, -7, 5}, download[float64](t, r, y, 3))

	var dot float64
	require.Equal(t, native.StatusSuccess, r.Dot(h, f64(native.Dot), 3, x, 1, y, 1, hostScalar(&dot)))
	assert.Equal(t, 3.0+28+10, dot)

	var norm, sum float64
	require.Equal(t, native.StatusSuccess, r.Reduce(h, f64(native.Nrm2), 3, x, 1, hostScalar(&norm)))
	assert.InDelta(t, math.Sqrt(21), norm, 1e-12)
	require.Equal(t, native.StatusSuccess, r.Reduce(h, f64(native.Asum), 3, x, 1, hostScalar(&sum)))
	assert.Equal(t, 7.0, sum)

	var imax, imin int32
	require.Equal(t, native.StatusSuccess, r.Reduce(h, f64(native.Iamax), 3, x, 1, hostScalar(&imax)))
	assert.Equal(t, int32(2), imax)
	require.Equal(t, native.StatusSuccess, r.Reduce(h, f64(native.Iamin), 3, x, 1, hostScalar(&imin)))
	assert.Equal(t, int32(1), imin)

	var imax64 int64 = -1
	st := r.Reduce(h, native.Routine{Family: native.Iamax, Type: native.Float64, Index: native.Index64}, 0, x, 1, hostScalar(&imax64))
	require.Equal(t, native.StatusSuccess, st)
	assert.Zero(t, imax64, "empty vector reports index 0")

	require.Equal(t, native.StatusSuccess, r.Swap(h, f64(native.Swap), 3, x, 1, y, 1))
	assert.Equal(t, []float64{3, -7, 5}, download[float64](t, r, x, 3))
	require.Equal(t, native.StatusSuccess, r.Copy(h, f64(native.Copy), 3, y, 1, x, -1))
	assert.Equal(t, []float64{2, -4, 1}, download[float64](t, r, x, 3))

	c, s := 0.0, 1.0
	require.Equal(t, native.StatusSuccess, r.Rot(h, f64(native.Rot), 3, x, 1, y, 1, hostScalar(&c), hostScalar(&s)))
	assert.Equal(t, []float64{1, -4, 2}, download[float64](t, r, x, 3))
	assert.Equal(t, []float64{-2, 4, -1}, download[float64](t, r, y, 3))
}

func TestComplexDot(t *testing.T) {
	r, h := newTestRuntime(t)
	x := upload(t, r, []complex64{1 + 2i, 3i})
	y := upload(t, r, []complex64{2, 1 - 1i})

	var dotu, dotc complex64
	require.Equal(t, native.StatusSuccess, r.Dot(h, routine(native.Dot, native.Complex64), 2, x, 1, y, 1, hostScalar(&dotu)))
	require.Equal(t, native.StatusSuccess, r.Dot(h, routine(native.Dotc, native.Complex64), 2, x, 1, y, 1, hostScalar(&dotc)))
	assert.Equal(t, complex64((1+2i)*2+3i*(1-1i)), dotu)
	assert.Equal(t, complex64((1-2i)*2+(-3i)*(1-1i)), dotc)
}

func TestDeviceResult(t *testing.T) {
	r, h := newTestRuntime(t)
	require.Equal(t, native.StatusSuccess, r.SetPointerMode(h, native.PointerModeDevice))
	x := upload(t, r, []float32{3, 4})
	res := upload(t, r, []float32{0})
	require.Equal(t, native.StatusSuccess, r.Reduce(h, routine(native.Nrm2, native.Float32), 2, x, 1, native.Scalar{Device: res}))
	require.NoError(t, r.SyncStream(0))
	assert.Equal(t, []float32{5}, download[float32](t, r, res, 1))
}

func TestGemvGerTrsv(t *testing.T) {
	r, h := newTestRuntime(t)
	f64 := func(f native.Family) native.Routine { return routine(f, native.Float64) }

	// A = [1 2; 3 4] column-major.
	a := upload(t, r, []float64{1, 3, 2, 4})
	x := upload(t, r, []float64{1, 1})
	y := upload(t, r, []float64{10, 10})
	alpha, beta := 1.0, 1.0
	require.Equal(t, native.StatusSuccess, r.Gemv(h, f64(native.Gemv), native.OpT, 2, 2, hostScalar(&alpha), a, 2, x, 1, hostScalar(&beta), y, 1))
	assert.Equal(t, []float64{14, 16}, download[float64](t, r, y, 2))
	assert.Equal(t, native.StatusInvalidValue, r.Gemv(h, f64(native.Gemv), native.OpN, 2, 2, hostScalar(&alpha), a, 1, x, 1, hostScalar(&beta), y, 1))

	require.Equal(t, native.StatusSuccess, r.Ger(h, f64(native.Ger), 2, 2, hostScalar(&alpha), x, 1, x, 1, a, 2))
	assert.Equal(t, []float64{2, 4, 3, 5}, download[float64](t, r, a, 4))

	// Upper triangle [2 3; 0 5], solve U z = [8 10].
	u := upload(t, r, []float64{2, 99, 3, 5})
	b := upload(t, r, []float64{8, 10})
	require.Equal(t, native.StatusSuccess, r.Trsv(h, f64(native.Trsv), native.Upper, native.OpN, native.NonUnit, 2, u, 2, b, 1))
	assert.Equal(t, []float64{1, 2}, download[float64](t, r, b, 2))
}

func TestGemm(t *testing.T) {
	r, h := newTestRuntime(t)
	a := upload(t, r, []float64{1, 3, 2, 4})
	b := upload(t, r, []float64{5, 7, 6, 8})
	c := upload(t, r, []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()})
	alpha, beta := 1.0, 0.0
	require.Equal(t, native.StatusSuccess, r.Gemm(h, routine(native.Gemm, native.Float64), native.OpN, native.OpN, 2, 2, 2,
		hostScalar(&alpha), a, 2, b, 2, hostScalar(&beta), c, 2))
	assert.Equal(t, []float64{19, 43, 22, 50}, download[float64](t, r, c, 4), "beta zero ignores NaN in C")

	require.Equal(t, native.StatusSuccess, r.Gemm(h, routine(native.Gemm, native.Float64), native.OpT, native.OpN, 2, 2, 2,
		hostScalar(&alpha), a, 2, b, 2, hostScalar(&beta), c, 2))
	assert.Equal(t, []float64{26, 38, 30, 44}, download[float64](t, r, c, 4))
}

func TestHalfGemm(t *testing.T) {
	r, h := newTestRuntime(t)
	half := func(vs ...float32) []float16.Float16 {
		out := make([]float16.Float16, len(vs))
		for i, v := range vs {
			out[i] = float16.Fromfloat32(v)
		}
		return out
	}
	a := upload(t, r, half(1, 2))
	b := upload(t, r, half(3, 4))
	c := upload(t, r, half(0))
	alpha, beta := float16.Fromfloat32(1), float16.Fromfloat32(0)
	require.Equal(t, native.StatusSuccess, r.Gemm(h, routine(native.Gemm, native.Float16), native.OpN, native.OpN, 1, 1, 2,
		hostScalar(&alpha), a, 1, b, 2, hostScalar(&beta), c, 1))
	assert.Equal(t, float32(11), download[float16.Float16](t, r, c, 1)[0].Float32())
}

func TestSyrkTouchesOneTriangle(t *testing.T) {
	r, h := newTestRuntime(t)
	a := upload(t, r, []float64{1, 2})
	c := upload(t, r, []float64{-1, -1, -1, -1})
	alpha, beta := 1.0, 0.0
	require.Equal(t, native.StatusSuccess, r.Syrk(h, routine(native.Syrk, native.Float64), native.Lower, native.OpN, 2, 1,
		hostScalar(&alpha), a, 2, hostScalar(&beta), c, 2))
	assert.Equal(t, []float64{1, 2, -1, 4}, download[float64](t, r, c, 4))

	st := r.Syrk(h, routine(native.Syrk, native.Complex128), native.Lower, native.OpC, 2, 1,
		hostScalar(&alpha), a, 2, hostScalar(&beta), c, 2)
	assert.Equal(t, native.StatusInvalidValue, st)
}

func TestTrsm(t *testing.T) {
	r, h := newTestRuntime(t)
	// Lower L = [2 0; 1 1].
	l := upload(t, r, []float64{2, 1, 0, 1})
	b := upload(t, r, []float64{4, 3, 2, 2})
	alpha := 1.0
	require.Equal(t, native.StatusSuccess, r.Trsm(h, routine(native.Trsm, native.Float64), native.Left, native.Lower, native.OpN, native.NonUnit, 2, 2,
		hostScalar(&alpha), l, 2, b, 2))
	assert.Equal(t, []float64{2, 1, 1, 1}, download[float64](t, r, b, 4))

	// X * L = [4 1], X = [3 1].
	row := upload(t, r, []float64{7, 1})
	require.Equal(t, native.StatusSuccess, r.Trsm(h, routine(native.Trsm, native.Float64), native.Right, native.Lower, native.OpN, native.NonUnit, 1, 2,
		hostScalar(&alpha), l, 2, row, 1))
	assert.Equal(t, []float64{3, 1}, download[float64](t, r, row, 2))
}

func TestStridedAndExplicitGemmBatchesAgree(t *testing.T) {
	r, h := newTestRuntime(t)
	const batch, dim = 4, 2
	const stride = dim * dim
	data := make([]float64, batch*stride)
	for i := range data {
		data[i] = float64(i%7) - 3
	}
	a := upload(t, r, data)
	b := upload(t, r, data)
	c1 := upload(t, r, make([]float64, batch*stride))
	c2 := upload(t, r, make([]float64, batch*stride))
	alpha, beta := 1.0, 0.0

	require.Equal(t, native.StatusSuccess, r.GemmStridedBatched(h, routine(native.GemmStridedBatched, native.Float64), native.OpN, native.OpT, dim, dim, dim,
		hostScalar(&alpha), a, dim, stride, b, dim, stride, hostScalar(&beta), c1, dim, stride, batch))

	addrs := func(base native.DevicePtr) native.DevicePtr {
		ptrs := make([]uint64, batch)
		for i := range ptrs {
			ptrs[i] = uint64(base.Add(int64(i * stride * 8)))
		}
		return upload(t, r, ptrs)
	}
	require.Equal(t, native.StatusSuccess, r.GemmBatched(h, routine(native.GemmBatched, native.Float64), native.OpN, native.OpT, dim, dim, dim,
		hostScalar(&alpha), addrs(a), dim, addrs(b), dim, hostScalar(&beta), addrs(c2), dim, batch))

	assert.Equal(t, download[float64](t, r, c1, batch*stride), download[float64](t, r, c2, batch*stride))
}

func TestGetrfGetriBatched(t *testing.T) {
	r, h := newTestRuntime(t)
	// A = [0 1; 2 3] needs a row exchange.
	a := upload(t, r, []float64{0, 2, 1, 3})
	c := upload(t, r, make([]float64, 4))
	aptrs := upload(t, r, []uint64{uint64(a)})
	cptrs := upload(t, r, []uint64{uint64(c)})
	pivots := upload(t, r, make([]int32, 2))
	info := upload(t, r, []int32{-1})

	require.Equal(t, native.StatusSuccess, r.GetrfBatched(h, routine(native.GetrfBatched, native.Float64), 2, aptrs, 2, pivots, info, 1))
	assert.Equal(t, []int32{0}, download[int32](t, r, info, 1))
	assert.Equal(t, []int32{2, 2}, download[int32](t, r, pivots, 2))

	require.Equal(t, native.StatusSuccess, r.GetriBatched(h, routine(native.GetriBatched, native.Float64), 2, aptrs, 2, pivots, cptrs, 2, info, 1))
	assert.Equal(t, []int32{0}, download[int32](t, r, info, 1))
	inv := download[float64](t, r, c, 4)
	want := []float64{-1.5, 1, 0.5, 0}
	for i := range want {
		assert.InDelta(t, want[i], inv[i], 1e-12)
	}

	// Singular matrix reports the first zero pivot.
	s := upload(t, r, []float64{1, 1, 1, 1})
	sptrs := upload(t, r, []uint64{uint64(s)})
	require.Equal(t, native.StatusSuccess, r.GetrfBatched(h, routine(native.GetrfBatched, native.Float64), 2, sptrs, 2, 0, info, 1))
	assert.Equal(t, []int32{2}, download[int32](t, r, info, 1))
}

func TestLargeGemmMatchesSerial(t *testing.T) {
	r, h := newTestRuntime(t)
	const dim = 64
	a := make([]float64, dim*dim)
	for i := range a {
		a[i] = float64(i%11) - 5
	}
	pa := upload(t, r, a)
	pb := upload(t, r, a)
	pc := upload(t, r, make([]float64, dim*dim))
	alpha, beta := 1.0, 0.0
	require.Equal(t, native.StatusSuccess, r.Gemm(h, routine(native.Gemm, native.Float64), native.OpN, native.OpT, dim, dim, dim,
		hostScalar(&alpha), pa, dim, pb, dim, hostScalar(&beta), pc, dim))
	got := download[float64](t, r, pc, dim*dim)

	want := make([]float64, dim*dim)
	for j := 0; j < dim; j++ {
		for i := 0; i < dim; i++ {
			var sum float64
			for l := 0; l < dim; l++ {
				sum += a[i+l*dim] * a[j+l*dim]
			}
			want[i+j*dim] = sum
		}
	}
	assert.Equal(t, want, got)
}

func TestExtent(t *testing.T) {
	assert.Equal(t, int64(0), extent(0, 5, 1, 8))
	assert.Equal(t, int64(8), extent(1, math.MaxInt64, 1, 8))
	assert.Equal(t, int64((1+2*3)*4), extent(3, 3, 1, 4))
	assert.Equal(t, int64((2*4+3)*8), extent(3, 4, 3, 8))
	assert.Equal(t, int64(-1), extent(2, math.MaxInt64, 1, 8))
	assert.Equal(t, int64(-1), extent(2, math.MaxInt64/8, 1, 8))
	assert.Equal(t, int64(-1), extent(2, -1, 1, 8))
}

func TestHugeStrideIsNotAddressable(t *testing.T) {
	r, h := newTestRuntime(t)
	x := upload(t, r, []float64{1, 2})
	alpha := 2.0
	st := r.Scal(h, routine(native.Scal, native.Float64), 2, native.Scalar{Host: unsafe.Pointer(&alpha)}, x, math.MaxInt64)
	assert.Equal(t, native.StatusExecutionFailed, st)
	assert.Equal(t, []float64{1, 2}, download[float64](t, r, x, 2))
}


package blas

import (
	"math"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func roundTrip[T Storable](t *testing.T, d *Device, gen func(i int) T) {
	for _, n := range []int{0, 1, 1024} {
		src := make([]T, n)
		for i := range src {
			src[i] = gen(i)
		}
		buf := must.M1(Alloc[T](d, n))
		require.NoError(t, SetVector(d, n, src, 1, buf, 1))
		got := make([]T, n)
		require.NoError(t, GetVector(d, n, buf, 1, got, 1))
		assert.Equal(t, src, got, "n=%d", n)
		require.NoError(t, buf.Free())
	}
}

func TestVectorRoundTrip(t *testing.T) {
	d, _ := newTestDevice(t)

	t.Run("float16", func(t *testing.T) {
		roundTrip(t, d, func(i int) Half { return float16.Fromfloat32(float32(i%2048) - 1000) })
	})
	t.Run("float32", func(t *testing.T) {
		roundTrip(t, d, func(i int) float32 { return float32(i) * 0.25 })
	})
	t.Run("float64", func(t *testing.T) {
		roundTrip(t, d, func(i int) float64 { return float64(i) / 3 })
	})
	t.Run("complex64", func(t *testing.T) {
		roundTrip(t, d, func(i int) complex64 { return complex(float32(i), -float32(i)) })
	})
	t.Run("complex128", func(t *testing.T) {
		roundTrip(t, d, func(i int) complex128 { return complex(float64(i)/7, 1) })
	})
}

func TestStridedVectorTransfer(t *testing.T) {
	d, _ := newTestDevice(t)
	buf := upload(t, d, make([]float64, 5))

	require.NoError(t, SetVector(d, 3, []float64{1, 0, 2, 0, 3}, 2, buf, 2))
	assert.Equal(t, []float64{1, 0, 2, 0, 3}, download(t, d, buf))

	got := make([]float64, 3)
	require.NoError(t, GetVector(d, 3, buf, 2, got, 1))
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestMatrixTransfer(t *testing.T) {
	d, _ := newTestDevice(t)
	// 2x3 tile from a host matrix with leading dimension 3.
	host := []float32{1, 2, -1, 3, 4, -1, 5, 6, -1}
	buf := must.M1(Alloc[float32](d, 6))
	require.NoError(t, SetMatrix(d, 2, 3, host, 3, buf, 2))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, download(t, d, buf))

	back := make([]float32, 9)
	require.NoError(t, GetMatrix(d, 2, 3, buf, 2, back, 3))
	assert.Equal(t, []float32{1, 2, 0, 3, 4, 0, 5, 6, 0}, back)
}

func TestAsyncTileThenBlockingCopyBack(t *testing.T) {
	d, _ := newTestDevice(t)
	s := must.M1(d.NewStream())
	defer s.Destroy()

	src := make([]float32, 16)
	for i := range src {
		src[i] = float32(i)
	}
	buf := must.M1(Alloc[float32](d, 16))
	require.NoError(t, SetMatrixAsync(d, 4, 4, src, 4, buf, 4, s))
	require.NoError(t, s.Synchronize())

	got := make([]float32, 16)
	require.NoError(t, GetMatrix(d, 4, 4, buf, 4, got, 4))
	assert.Equal(t, src, got)

	blocking := must.M1(Alloc[float32](d, 16))
	require.NoError(t, SetMatrix(d, 4, 4, src, 4, blocking, 4))
	assert.Equal(t, download(t, d, blocking), download(t, d, buf))

	async := make([]float32, 16)
	require.NoError(t, GetMatrixAsync(d, 4, 4, buf, 4, async, 4, s))
	require.NoError(t, s.Synchronize())
	assert.Equal(t, src, async)
}

func TestPinnedHostTransfer(t *testing.T) {
	d, rt := newTestDevice(t)
	s := must.M1(d.NewStream())
	defer s.Destroy()

	pin := must.M1(AllocPinned[float32](d, 8))
	for i := range pin.Data() {
		pin.Data()[i] = float32(i * i)
	}
	ranges := rt.RegisteredHostRanges()

	buf := must.M1(Alloc[float32](d, 8))
	require.NoError(t, SetVectorAsync(d, 8, pin.Data(), 1, buf, 1, s))
	require.NoError(t, s.Synchronize())
	assert.Equal(t, []float32{0, 1, 4, 9, 16, 25, 36, 49}, download(t, d, buf))
	assert.Equal(t, ranges, rt.RegisteredHostRanges(), "pinned allocation stays registered to its owner")

	require.NoError(t, pin.Free())
	require.NoError(t, pin.Free())
	assert.Nil(t, pin.Data())
}

func TestTransferReleasesHostRegistration(t *testing.T) {
	d, rt := newTestDevice(t)
	before := rt.RegisteredHostRanges()
	upload(t, d, []float64{1, 2, 3})
	assert.Equal(t, before, rt.RegisteredHostRanges())
}

func TestTransferValidation(t *testing.T) {
	d, rt := newTestDevice(t)
	buf := must.M1(Alloc[float32](d, 4))
	freed := must.M1(Alloc[float32](d, 4))
	require.NoError(t, freed.Free())
	host := make([]float32, 4)

	// Validation happens before the native call, which would fail here.
	rt.FailNext(native.SymSetVector, native.StatusExecutionFailed)
	rt.FailNext(native.SymSetMatrix, native.StatusExecutionFailed)

	tests := []struct {
		name string
		err  error
	}{
		{"negative count", SetVector(d, -1, host, 1, buf, 1)},
		{"zero host stride", SetVector(d, 2, host, 0, buf, 1)},
		{"negative device stride", SetVector(d, 2, host, 1, buf, -1)},
		{"short host slice", SetVector(d, 3, host, 2, buf, 1)},
		{"short device buffer", SetVector(d, 3, host, 1, buf, 2)},
		{"nil buffer", SetVector(d, 1, host, 1, nil, 1)},
		{"freed buffer", SetVector(d, 1, host, 1, freed, 1)},
		{"negative rows", SetMatrix(d, -1, 2, host, 1, buf, 1)},
		{"small leading dimension", SetMatrix(d, 2, 2, host, 1, buf, 2)},
		{"zero leading dimension", SetMatrix(d, 0, 2, host, 0, buf, 1)},
		{"short tile", GetMatrix(d, 2, 3, buf, 2, host, 2)},
		{"huge host stride", SetVector(d, 2, host, math.MaxInt64, buf, 1)},
		{"huge device stride", GetVector(d, 2, buf, math.MaxInt64, host, 1)},
		{"huge async stride", GetVectorAsync(d, 2, buf, 1, host, math.MaxInt64, d.DefaultStream())},
		{"huge leading dimension", SetMatrix(d, 1, 2, host, math.MaxInt64, buf, 1)},
		{"count past int32", SetVector(d, math.MaxInt32+1, host, 1, buf, 1)},
		{"stride past int32", SetVector(d, 1, host, math.MaxInt32+1, buf, 1)},
		{"columns past int32", SetMatrixAsync(d, 1, math.MaxInt32+1, host, 1, buf, 1, d.DefaultStream())},
		{"leading dimension past int32", GetMatrix(d, 1, 1, buf, math.MaxInt32+1, host, 1)},
	}
	for _, tc := range tests {
		assert.True(t, IsKind(tc.err, InvalidArgument), "%s: %v", tc.name, tc.err)
	}

	other, _ := newTestDevice(t)
	err := SetVectorAsync(d, 1, host, 1, buf, 1, other.DefaultStream())
	assert.True(t, IsKind(err, InvalidArgument), "foreign stream: %v", err)
}

func TestFootprint(t *testing.T) {
	n, ok := footprint(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	n, ok = tileFootprint(2, 3, 4)
	assert.True(t, ok)
	assert.Equal(t, 10, n)
	n, ok = footprint(1, math.MaxInt)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = footprint(2, math.MaxInt)
	assert.False(t, ok)
	_, ok = tileFootprint(2, 3, math.MaxInt/2)
	assert.False(t, ok)

	_, ok = spanBytes[complex128](math.MaxInt64 / 8)
	assert.False(t, ok)
	b, ok := spanBytes[complex128](4)
	assert.True(t, ok)
	assert.Equal(t, int64(64), b)
}

func TestTransferNativeFailure(t *testing.T) {
	d, rt := newTestDevice(t)
	buf := must.M1(Alloc[float32](d, 2))

	rt.FailNext(native.SymSetVector, native.StatusMappingError)
	err := SetVector(d, 2, []float32{1, 2}, 1, buf, 1)
	require.ErrorIs(t, err, ErrTransferFailure)
	st, _ := StatusOf(err)
	assert.Equal(t, native.StatusMappingError, st)

	// Transfers report their class whatever the native code.
	rt.FailNext(native.SymGetMatrix, native.StatusInvalidValue)
	err = GetMatrix(d, 1, 2, buf, 1, make([]float32, 2), 1)
	assert.ErrorIs(t, err, ErrTransferFailure)

	rt.FailNext(native.SymGetVectorAsync, native.Status(99))
	err = GetVectorAsync(d, 2, buf, 1, make([]float32, 2), 1, d.DefaultStream())
	assert.ErrorIs(t, err, ErrUnknownFailure)
}

func TestCopyDevice(t *testing.T) {
	d, _ := newTestDevice(t)
	src := upload(t, d, []int32{7, 8, 9})
	dst := upload(t, d, []int32{0, 0, 0, 0})

	require.NoError(t, CopyDevice(d, dst, src, 3, d.DefaultStream()))
	require.NoError(t, d.DefaultStream().Synchronize())
	assert.Equal(t, []int32{7, 8, 9, 0}, download(t, d, dst))

	err := CopyDevice(d, src, dst, 4, d.DefaultStream())
	assert.True(t, IsKind(err, InvalidArgument))
}

func TestDeviceBuffer(t *testing.T) {
	d, _ := newTestDevice(t)
	b := upload(t, d, []float64{1, 2, 3, 4})

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 8, b.ElemSize())
	assert.Equal(t, int64(32), b.Bytes())
	assert.Equal(t, b.Ptr().Add(16), b.At(2))
	assert.Contains(t, b.String(), "4 elems, 32 B")
	assert.Panics(t, func() { b.At(4) })

	view := b.Slice(1, 2)
	assert.Equal(t, []float64{2, 3}, download(t, d, view))
	require.NoError(t, view.Free())
	assert.False(t, b.Freed(), "freeing a view leaves the parent")

	require.NoError(t, b.Free())
	require.NoError(t, b.Free())
	assert.True(t, view.Freed())
	assert.True(t, IsKind(SetVector(d, 1, []float64{1}, 1, view, 1), InvalidArgument))

	empty := must.M1(Alloc[float32](d, 0))
	assert.Zero(t, empty.Ptr())
	require.NoError(t, empty.Free())

	_, err := Alloc[float32](d, -1)
	assert.True(t, IsKind(err, InvalidArgument))
}

package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutineSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		r    Routine
		want string
	}{
		{Routine{Scal, Float32, Index32}, "cublasSscal_v2"},
		{Routine{Scal, Complex128, Index64}, "cublasZscal_v2_64"},
		{Routine{Dot, Complex64, Index32}, "cublasCdotu_v2"},
		{Routine{Dotc, Complex128, Index32}, "cublasZdotc_v2"},
		{Routine{Iamax, Float64, Index32}, "cublasIdamax_v2"},
		{Routine{Iamin, Complex64, Index64}, "cublasIcamin_v2_64"},
		{Routine{Ger, Complex64, Index32}, "cublasCgeru_v2"},
		{Routine{Gemm, Float16, Index32}, "cublasHgemm"},
		{Routine{Gemm, Float16, Index64}, "cublasHgemm_64"},
		{Routine{Gemm, Float64, Index64}, "cublasDgemm_v2_64"},
		{Routine{GemmBatched, Float32, Index32}, "cublasSgemmBatched"},
		{Routine{GemmStridedBatched, Float32, Index64}, "cublasSgemmStridedBatched_64"},
		{Routine{GetrfBatched, Complex128, Index32}, "cublasZgetrfBatched"},
	}
	for _, tc := range tests {
		got, ok := tc.r.Symbol()
		require.True(t, ok, "%v should have a symbol", tc.want)
		assert.Equal(t, tc.want, got)
	}
}

func TestRoutineSymbolUnsupported(t *testing.T) {
	t.Parallel()

	for _, r := range []Routine{
		{Scal, Float16, Index32},
		{Nrm2, Complex64, Index32},
		{Dotc, Float32, Index32},
		{GetrfBatched, Float32, Index64},
		{Gemm, Float32, IndexWidth(16)},
		{Family(99), Float32, Index32},
	} {
		_, ok := r.Symbol()
		assert.False(t, ok, "%v", r)
	}
}

func TestParseModes(t *testing.T) {
	t.Parallel()

	pm, err := ParsePointerMode(" Device ")
	require.NoError(t, err)
	assert.Equal(t, PointerModeDevice, pm)
	_, err = ParsePointerMode("gpu")
	assert.Error(t, err)

	mm, err := ParseMathMode("tf32")
	require.NoError(t, err)
	assert.Equal(t, MathTF32TensorOp, mm)
	assert.True(t, (MathPedantic | MathDisallowReducedPrecisionReduction).Valid())
	assert.False(t, MathMode(7).Valid())
}

func TestDevicePtrAdd(t *testing.T) {
	t.Parallel()
	p := DevicePtr(0x1000)
	assert.Equal(t, DevicePtr(0x1100), p.Add(256))
	assert.Equal(t, "0x1100", p.Add(256).String())
}

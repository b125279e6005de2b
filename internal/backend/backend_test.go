package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	for in, want := range map[string]string{"": Auto, " CPU ": CPU, "cuda": CUDA, "Auto": Auto} {
		got, err := Normalize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := Normalize("metal")
	assert.ErrorContains(t, err, `unknown backend "metal"`)
}

func TestNewCPU(t *testing.T) {
	rt, name, err := New("cpu")
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, CPU, name)
	n, err := rt.DeviceCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAvailableListsCPU(t *testing.T) {
	assert.Contains(t, Available(), CPU)
	assert.True(t, Has(CPU))
	assert.False(t, Has("tpu"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
backend: cpu
pointer_mode: device
math_mode: tf32
sm_count_target: 8
atomics: true
log_level: debug
log_format: pretty
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)

	d, err := cfg.HandleDefaults()
	require.NoError(t, err)
	require.NotNil(t, d.PointerMode)
	assert.Equal(t, native.PointerModeDevice, *d.PointerMode)
	assert.Equal(t, native.MathTF32TensorOp, *d.MathMode)
	assert.Equal(t, 8, *d.SMCountTarget)
	assert.Equal(t, native.AtomicsAllowed, *d.AtomicsMode)
	assert.False(t, d.IsZero())
}

func TestLoadJSONRoundTrip(t *testing.T) {
	mode := "pedantic"
	src := Config{Backend: "auto", MathMode: &mode}
	data, err := src.JSON()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "pointer_mode")

	cfg, err := Load(writeFile(t, "config.json", string(data)))
	require.NoError(t, err)
	assert.Equal(t, src, cfg)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]struct {
		name, content, want string
	}{
		"unknown key":     {"c.yaml", "backnd: cpu\n", "field backnd not found"},
		"unknown backend": {"c.yaml", "backend: metal\n", `unknown backend "metal"`},
		"bad mode":        {"c.yaml", "pointer_mode: both\n", "pointer_mode"},
		"bad math":        {"c.json", `{"math_mode":"fast"}`, "math_mode"},
		"negative sm":     {"c.yaml", "sm_count_target: -1\n", "sm_count_target"},
		"bad log format":  {"c.yaml", "log_format: xml\n", "log_format"},
		"json unknown":    {"c.json", `{"extra":1}`, "extra"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.name, tc.content))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
	d, err := cfg.HandleDefaults()
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestLoadDefault(t *testing.T) {
	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	path := writeFile(t, "config.yaml", "backend: cpu\n")
	t.Setenv(EnvPath, path)
	assert.Equal(t, path, DefaultPath())
	cfg, err = LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "cpu", cfg.Backend)
}

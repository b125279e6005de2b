// Package config reads the optional blasgo configuration file, which selects
// a backend and the defaults applied to every new handle.
package config

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/blasgo/internal/backend"
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// EnvPath overrides DefaultPath when set.
const EnvPath = "BLASGO_CONFIG"

// Config represents the configuration file (~/.config/blasgo/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Backend string `yaml:"backend" json:"backend,omitempty"`

	// Handle defaults
	PointerMode   *string `yaml:"pointer_mode" json:"pointer_mode,omitempty"`
	MathMode      *string `yaml:"math_mode" json:"math_mode,omitempty"`
	SMCountTarget *int    `yaml:"sm_count_target" json:"sm_count_target,omitempty"`
	Atomics       *bool   `yaml:"atomics" json:"atomics,omitempty"`

	// Output
	LogLevel  string `yaml:"log_level" json:"log_level,omitempty"`
	LogFormat string `yaml:"log_format" json:"log_format,omitempty"`
}

// HandleDefaults are the typed handle settings of a Config. Nil fields leave
// the native default in place.
type HandleDefaults struct {
	PointerMode   *native.PointerMode
	MathMode      *native.MathMode
	SMCountTarget *int
	AtomicsMode   *native.AtomicsMode
}

// IsZero reports whether no default is set.
func (d HandleDefaults) IsZero() bool {
	return d.PointerMode == nil && d.MathMode == nil && d.SMCountTarget == nil && d.AtomicsMode == nil
}

func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blasgo", "config.yaml")
}

// Load reads a configuration file. Files ending in .json are decoded as JSON,
// anything else as YAML. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&cfg); errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// LoadDefault reads the file at DefaultPath. A missing file yields a zero Config.
func LoadDefault() (Config, error) {
	path := DefaultPath()
	if path == "" {
		return Config{}, nil
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// Validate checks every enum-valued field.
func (c Config) Validate() error {
	if c.Backend != "" {
		if _, err := backend.Normalize(c.Backend); err != nil {
			return err
		}
	}
	if c.LogFormat != "" {
		switch strings.ToLower(c.LogFormat) {
		case "text", "json", "pretty":
		default:
			return errors.Errorf("unknown log_format %q (expected text, json, or pretty)", c.LogFormat)
		}
	}
	_, err := c.HandleDefaults()
	return err
}

// HandleDefaults parses the handle settings.
func (c Config) HandleDefaults() (HandleDefaults, error) {
	var d HandleDefaults
	if c.PointerMode != nil {
		m, err := native.ParsePointerMode(*c.PointerMode)
		if err != nil {
			return HandleDefaults{}, errors.Wrap(err, "pointer_mode")
		}
		d.PointerMode = &m
	}
	if c.MathMode != nil {
		m, err := native.ParseMathMode(*c.MathMode)
		if err != nil {
			return HandleDefaults{}, errors.Wrap(err, "math_mode")
		}
		d.MathMode = &m
	}
	if c.SMCountTarget != nil {
		if *c.SMCountTarget < 0 {
			return HandleDefaults{}, errors.Errorf("sm_count_target must be >= 0, got %d", *c.SMCountTarget)
		}
		n := *c.SMCountTarget
		d.SMCountTarget = &n
	}
	if c.Atomics != nil {
		m := native.AtomicsNotAllowed
		if *c.Atomics {
			m = native.AtomicsAllowed
		}
		d.AtomicsMode = &m
	}
	return d, nil
}

// JSON returns the configuration in its JSON file form.
func (c Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

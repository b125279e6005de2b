// Package backend selects the native BLAS runtime the binding layer talks to.
package backend

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/samcharles93/blasgo/internal/backend/cpu"
	"github.com/samcharles93/blasgo/internal/backend/native"
)

const (
	CPU  = "cpu"
	CUDA = "cuda"
	Auto = "auto"
)

func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case CPU, CUDA, Auto:
		return backend, nil
	default:
		return "", errors.Errorf("unknown backend %q (expected auto, cpu, or cuda)", backend)
	}
}

// New opens the named runtime and returns it with its resolved name. Auto
// picks cuda when this build has it and a device is present, and cpu
// otherwise.
func New(name string) (native.Runtime, string, error) {
	backend, err := Normalize(name)
	if err != nil {
		return nil, "", err
	}
	switch backend {
	case CPU:
		return newCPU(), CPU, nil
	case CUDA:
		rt, err := newCUDA()
		if err != nil {
			return nil, "", errors.Wrap(err, "open cuda runtime")
		}
		return rt, CUDA, nil
	}

	if Has(CUDA) {
		if rt, err := newCUDA(); err == nil {
			if n, err := rt.DeviceCount(); err == nil && n > 0 {
				return rt, CUDA, nil
			}
			_ = rt.Close()
		}
	}
	return newCPU(), CPU, nil
}

// Has reports whether this build can open the named backend.
func Has(name string) bool {
	switch name {
	case CPU:
		return true
	case CUDA:
		return cudaBuilt
	default:
		return false
	}
}

// Available lists the backends this build can open, cpu first.
func Available() []string {
	if cudaBuilt {
		return []string{CPU, CUDA}
	}
	return []string{CPU}
}

func newCPU() native.Runtime {
	return cpu.New()
}

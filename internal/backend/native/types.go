package native

import (
	"fmt"
	"strings"
)

// DevicePtr is an address in device memory. It is never dereferenced on the host.
type DevicePtr uintptr

// Add returns p advanced by the given number of bytes.
func (p DevicePtr) Add(bytes int64) DevicePtr {
	return DevicePtr(int64(p) + bytes)
}

func (p DevicePtr) String() string {
	return fmt.Sprintf("0x%x", uintptr(p))
}

// Stream identifies an ordered queue of device work. The zero value is the default stream.
type Stream uintptr

// Handle is the opaque per-context BLAS library object.
type Handle uintptr

// PointerMode selects whether scalar arguments and results live in host or device memory.
type PointerMode int

const (
	PointerModeHost   PointerMode = 0 // CUBLAS_POINTER_MODE_HOST
	PointerModeDevice PointerMode = 1 // CUBLAS_POINTER_MODE_DEVICE
)

func (m PointerMode) Valid() bool {
	return m == PointerModeHost || m == PointerModeDevice
}

func (m PointerMode) String() string {
	switch m {
	case PointerModeHost:
		return "host"
	case PointerModeDevice:
		return "device"
	default:
		return fmt.Sprintf("PointerMode(%d)", int(m))
	}
}

func ParsePointerMode(s string) (PointerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "host":
		return PointerModeHost, nil
	case "device":
		return PointerModeDevice, nil
	default:
		return 0, fmt.Errorf("unknown pointer mode %q (expected host or device)", s)
	}
}

// MathMode is the numeric precision mode of a handle. Values match cublasMath_t.
type MathMode int

const (
	MathDefault                           MathMode = 0
	MathTensorOp                          MathMode = 1
	MathPedantic                          MathMode = 2
	MathTF32TensorOp                      MathMode = 3
	MathDisallowReducedPrecisionReduction MathMode = 16
)

var mathModeNames = map[MathMode]string{
	MathDefault:                           "default",
	MathTensorOp:                          "tensor_op",
	MathPedantic:                          "pedantic",
	MathTF32TensorOp:                      "tf32",
	MathDisallowReducedPrecisionReduction: "disallow_reduced_precision",
}

// Valid reports whether m is a base mode, optionally combined with the
// reduced-precision-reduction flag.
func (m MathMode) Valid() bool {
	base := m &^ MathDisallowReducedPrecisionReduction
	return base >= MathDefault && base <= MathTF32TensorOp
}

func (m MathMode) String() string {
	if name, ok := mathModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MathMode(%d)", int(m))
}

func ParseMathMode(s string) (MathMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for mode, name := range mathModeNames {
		if name == key {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown math mode %q", s)
}

// AtomicsMode controls whether routines may use atomics. Values match cublasAtomicsMode_t.
type AtomicsMode int

const (
	AtomicsNotAllowed AtomicsMode = 0
	AtomicsAllowed    AtomicsMode = 1
)

func (m AtomicsMode) Valid() bool {
	return m == AtomicsNotAllowed || m == AtomicsAllowed
}

// Operation selects op(A). Values match cublasOperation_t.
type Operation int

const (
	OpN Operation = 0
	OpT Operation = 1
	OpC Operation = 2
)

func (o Operation) Valid() bool { return o >= OpN && o <= OpC }

// FillMode selects the referenced triangle. Values match cublasFillMode_t.
type FillMode int

const (
	Lower FillMode = 0
	Upper FillMode = 1
)

func (f FillMode) Valid() bool { return f == Lower || f == Upper }

// DiagType marks a triangular matrix as unit or non-unit. Values match cublasDiagType_t.
type DiagType int

const (
	NonUnit DiagType = 0
	Unit    DiagType = 1
)

func (d DiagType) Valid() bool { return d == NonUnit || d == Unit }

// SideMode places the triangular matrix left or right of the unknown. Values match cublasSideMode_t.
type SideMode int

const (
	Left  SideMode = 0
	Right SideMode = 1
)

func (s SideMode) Valid() bool { return s == Left || s == Right }

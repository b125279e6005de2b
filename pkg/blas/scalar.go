package blas

import (
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Scalar is a coefficient passed either by value from the host or by
// reference to a single element in device memory. Which form a routine
// accepts is decided by the handle's pointer mode; the binding passes the
// form it was given and the native runtime rejects a mismatch.
type Scalar[T Element] struct {
	value T
	dev   *DeviceBuffer[T]
}

// HostScalar passes v by value. Use it with PointerModeHost.
func HostScalar[T Element](v T) Scalar[T] {
	return Scalar[T]{value: v}
}

// DeviceScalar passes the first element of buf. Use it with PointerModeDevice.
func DeviceScalar[T Element](buf *DeviceBuffer[T]) Scalar[T] {
	return Scalar[T]{dev: buf}
}

// OnDevice reports whether s refers to device memory.
func (s Scalar[T]) OnDevice() bool { return s.dev != nil }

func (s Scalar[T]) arg(op, name string) (native.Scalar, error) {
	if s.dev == nil {
		v := s.value
		return native.Scalar{Host: unsafe.Pointer(&v)}, nil
	}
	p, err := s.dev.arg(op, name)
	if err != nil {
		return native.Scalar{}, err
	}
	if s.dev.Len() < 1 {
		return native.Scalar{}, invalidArg(op, "%s: device scalar buffer is empty", name)
	}
	return native.Scalar{Device: p}, nil
}

// Result is where a reduction writes its answer: a host variable or the
// first element of a device buffer.
type Result[T Storable] struct {
	host *T
	dev  *DeviceBuffer[T]
}

// HostResult writes the answer to *p before the routine returns. Use it
// with PointerModeHost.
func HostResult[T Storable](p *T) Result[T] {
	return Result[T]{host: p}
}

// DeviceResult writes the answer to the first element of buf, ordered on the
// handle's stream. Use it with PointerModeDevice.
func DeviceResult[T Storable](buf *DeviceBuffer[T]) Result[T] {
	return Result[T]{dev: buf}
}

func (r Result[T]) arg(op string) (native.Scalar, error) {
	switch {
	case r.dev != nil:
		p, err := r.dev.arg(op, "result")
		if err != nil {
			return native.Scalar{}, err
		}
		if r.dev.Len() < 1 {
			return native.Scalar{}, invalidArg(op, "result buffer is empty")
		}
		return native.Scalar{Device: p}, nil
	case r.host != nil:
		return native.Scalar{Host: unsafe.Pointer(r.host)}, nil
	default:
		return native.Scalar{}, invalidArg(op, "result has no destination")
	}
}

package blas

import (
	"unsafe"

	"github.com/x448/float16"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Re-exported native enumerations. Their values are the native ABI values.
type (
	DevicePtr   = native.DevicePtr
	PointerMode = native.PointerMode
	MathMode    = native.MathMode
	AtomicsMode = native.AtomicsMode
	Operation   = native.Operation
	FillMode    = native.FillMode
	DiagType    = native.DiagType
	SideMode    = native.SideMode
	Status      = native.Status
)

const (
	PointerModeHost   = native.PointerModeHost
	PointerModeDevice = native.PointerModeDevice

	MathDefault                           = native.MathDefault
	MathTensorOp                          = native.MathTensorOp
	MathPedantic                          = native.MathPedantic
	MathTF32TensorOp                      = native.MathTF32TensorOp
	MathDisallowReducedPrecisionReduction = native.MathDisallowReducedPrecisionReduction

	AtomicsNotAllowed = native.AtomicsNotAllowed
	AtomicsAllowed    = native.AtomicsAllowed

	NoTrans   = native.OpN
	Trans     = native.OpT
	ConjTrans = native.OpC

	Lower = native.Lower
	Upper = native.Upper

	NonUnit = native.NonUnit
	Unit    = native.Unit

	Left  = native.Left
	Right = native.Right
)

// Half is the IEEE 754 binary16 element type.
type Half = float16.Float16

// Real is a real element type with a full routine set.
type Real interface {
	float32 | float64
}

// Complex is a complex element type with a full routine set.
type Complex interface {
	complex64 | complex128
}

// Standard is an element type every bound family accepts.
type Standard interface {
	Real | Complex
}

// Element is any element type a routine can be instantiated with. Half is
// accepted only by the gemm families.
type Element interface {
	Real | Complex | Half
}

// Index selects the native index width: int32 binds the classic entry
// points, int64 the _64 ones.
type Index interface {
	int32 | int64
}

// Storable is anything a DeviceBuffer can hold: elements, pivot and info
// arrays, and device addresses for pointer batches.
type Storable interface {
	Element | ~int32 | ~int64 | ~uintptr
}

// DataTypeOf returns the native data type of T.
func DataTypeOf[T Element]() native.DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return native.Float32
	case float64:
		return native.Float64
	case complex64:
		return native.Complex64
	case complex128:
		return native.Complex128
	default:
		return native.Float16
	}
}

// IndexWidthOf returns the native index width of I.
func IndexWidthOf[I Index]() native.IndexWidth {
	var zero I
	if unsafe.Sizeof(zero) == 8 {
		return native.Index64
	}
	return native.Index32
}

func routineOf[I Index, T Element](f native.Family) native.Routine {
	return native.Routine{Family: f, Type: DataTypeOf[T](), Index: IndexWidthOf[I]()}
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

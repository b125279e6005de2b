package native

import (
	"fmt"
	"strings"
)

// DataType is the element type of a routine. Values match cudaDataType.
type DataType int

const (
	Float32    DataType = 0 // CUDA_R_32F
	Float64    DataType = 1 // CUDA_R_64F
	Float16    DataType = 2 // CUDA_R_16F
	Complex64  DataType = 4 // CUDA_C_32F
	Complex128 DataType = 5 // CUDA_C_64F
)

// Size returns the element width in bytes.
func (t DataType) Size() int {
	switch t {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// Prefix is the letter the native naming scheme uses for t.
func (t DataType) Prefix() byte {
	switch t {
	case Float32:
		return 'S'
	case Float64:
		return 'D'
	case Float16:
		return 'H'
	case Complex64:
		return 'C'
	case Complex128:
		return 'Z'
	default:
		return '?'
	}
}

func (t DataType) IsComplex() bool {
	return t == Complex64 || t == Complex128
}

func (t DataType) String() string {
	switch t {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// IndexWidth selects between the int and the int64_t (_64 suffixed) entry points.
type IndexWidth int

const (
	Index32 IndexWidth = 32
	Index64 IndexWidth = 64
)

// Family is a group of entry points that differ only by element type and index width.
type Family int

const (
	Scal Family = iota
	Axpy
	Copy
	Swap
	Dot
	Dotc
	Nrm2
	Asum
	Iamax
	Iamin
	Rot
	Gemv
	Ger
	Trsv
	Gemm
	Syrk
	Trsm
	GemmBatched
	GemmStridedBatched
	TrsmBatched
	GetrfBatched
	GetriBatched
)

type typeSet uint8

func typesOf(ts ...DataType) typeSet {
	var s typeSet
	for _, t := range ts {
		s |= 1 << uint(t)
	}
	return s
}

func (s typeSet) has(t DataType) bool {
	return t >= 0 && t < 8 && s&(1<<uint(t)) != 0
}

var (
	realTypes     = typesOf(Float32, Float64)
	complexTypes  = typesOf(Complex64, Complex128)
	standardTypes = realTypes | complexTypes
	gemmTypes     = standardTypes | typesOf(Float16)
)

type familyInfo struct {
	name        string
	complexName string
	types       typeSet
	v2          bool
	has64       bool
	indexResult bool
}

var families = [...]familyInfo{
	Scal:               {name: "scal", types: standardTypes, v2: true, has64: true},
	Axpy:               {name: "axpy", types: standardTypes, v2: true, has64: true},
	Copy:               {name: "copy", types: standardTypes, v2: true, has64: true},
	Swap:               {name: "swap", types: standardTypes, v2: true, has64: true},
	Dot:                {name: "dot", complexName: "dotu", types: standardTypes, v2: true, has64: true},
	Dotc:               {name: "dotc", types: complexTypes, v2: true, has64: true},
	Nrm2:               {name: "nrm2", types: realTypes, v2: true, has64: true},
	Asum:               {name: "asum", types: realTypes, v2: true, has64: true},
	Iamax:              {name: "amax", types: standardTypes, v2: true, has64: true, indexResult: true},
	Iamin:              {name: "amin", types: standardTypes, v2: true, has64: true, indexResult: true},
	Rot:                {name: "rot", types: realTypes, v2: true, has64: true},
	Gemv:               {name: "gemv", types: standardTypes, v2: true, has64: true},
	Ger:                {name: "ger", complexName: "geru", types: standardTypes, v2: true, has64: true},
	Trsv:               {name: "trsv", types: standardTypes, v2: true, has64: true},
	Gemm:               {name: "gemm", types: gemmTypes, v2: true, has64: true},
	Syrk:               {name: "syrk", types: standardTypes, v2: true, has64: true},
	Trsm:               {name: "trsm", types: standardTypes, v2: true, has64: true},
	GemmBatched:        {name: "gemmBatched", types: gemmTypes, has64: true},
	GemmStridedBatched: {name: "gemmStridedBatched", types: gemmTypes, has64: true},
	TrsmBatched:        {name: "trsmBatched", types: standardTypes, has64: true},
	GetrfBatched:       {name: "getrfBatched", types: standardTypes},
	GetriBatched:       {name: "getriBatched", types: standardTypes},
}

func (f Family) String() string {
	if f < 0 || int(f) >= len(families) {
		return fmt.Sprintf("Family(%d)", int(f))
	}
	return families[f].name
}

// Routine names one concrete native entry point.
type Routine struct {
	Family Family
	Type   DataType
	Index  IndexWidth
}

// Symbol returns the exported native symbol for r, and false when the native
// library has no entry point for that combination of type and index width.
func (r Routine) Symbol() (string, bool) {
	if r.Family < 0 || int(r.Family) >= len(families) {
		return "", false
	}
	info := families[r.Family]
	if !info.types.has(r.Type) {
		return "", false
	}
	switch r.Index {
	case Index32:
	case Index64:
		if !info.has64 {
			return "", false
		}
	default:
		return "", false
	}

	name := info.name
	if r.Type.IsComplex() && info.complexName != "" {
		name = info.complexName
	}

	var sb strings.Builder
	sb.WriteString("cublas")
	if info.indexResult {
		sb.WriteByte('I')
		sb.WriteByte(r.Type.Prefix() + ('a' - 'A'))
	} else {
		sb.WriteByte(r.Type.Prefix())
	}
	sb.WriteString(name)
	// Half precision entry points predate the _v2 API and never carry the suffix.
	if info.v2 && r.Type != Float16 {
		sb.WriteString("_v2")
	}
	if r.Index == Index64 {
		sb.WriteString("_64")
	}
	return sb.String(), true
}

func (r Routine) String() string {
	if sym, ok := r.Symbol(); ok {
		return sym
	}
	return fmt.Sprintf("%s<%s,int%d>", r.Family, r.Type, int(r.Index))
}

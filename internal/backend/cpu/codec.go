package cpu

import (
	"encoding/binary"
	"math"
	"math/cmplx"

	"github.com/x448/float16"
	"golang.org/x/exp/constraints"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// codec reads and writes one element type in device byte order. Kernels
// compute in complex128 and round on store.
type codec struct {
	size  int64
	load  func(b []byte) complex128
	store func(b []byte, v complex128)
}

var le = binary.LittleEndian

var codecs = map[native.DataType]codec{
	native.Float16: {
		size: 2,
		load: func(b []byte) complex128 {
			return complex(float64(float16.Frombits(le.Uint16(b)).Float32()), 0)
		},
		store: func(b []byte, v complex128) {
			le.PutUint16(b, float16.Fromfloat32(float32(real(v))).Bits())
		},
	},
	native.Float32: {
		size: 4,
		load: func(b []byte) complex128 {
			return complex(float64(math.Float32frombits(le.Uint32(b))), 0)
		},
		store: func(b []byte, v complex128) {
			le.PutUint32(b, math.Float32bits(float32(real(v))))
		},
	},
	native.Float64: {
		size: 8,
		load: func(b []byte) complex128 {
			return complex(math.Float64frombits(le.Uint64(b)), 0)
		},
		store: func(b []byte, v complex128) {
			le.PutUint64(b, math.Float64bits(real(v)))
		},
	},
	native.Complex64: {
		size: 8,
		load: func(b []byte) complex128 {
			re := math.Float32frombits(le.Uint32(b))
			im := math.Float32frombits(le.Uint32(b[4:]))
			return complex(float64(re), float64(im))
		},
		store: func(b []byte, v complex128) {
			le.PutUint32(b, math.Float32bits(float32(real(v))))
			le.PutUint32(b[4:], math.Float32bits(float32(imag(v))))
		},
	},
	native.Complex128: {
		size: 16,
		load: func(b []byte) complex128 {
			return complex(math.Float64frombits(le.Uint64(b)), math.Float64frombits(le.Uint64(b[8:])))
		},
		store: func(b []byte, v complex128) {
			le.PutUint64(b, math.Float64bits(real(v)))
			le.PutUint64(b[8:], math.Float64bits(imag(v)))
		},
	},
}

// realCodec is the codec of the real part type of t, used for results such
// as norms.
func realCodec(t native.DataType) codec {
	switch t {
	case native.Complex64:
		return codecs[native.Float32]
	case native.Complex128:
		return codecs[native.Float64]
	default:
		return codecs[t]
	}
}

func indexCodec(w native.IndexWidth) codec {
	if w == native.Index64 {
		return codec{
			size:  8,
			load:  func(b []byte) complex128 { return complex(float64(int64(le.Uint64(b))), 0) },
			store: func(b []byte, v complex128) { le.PutUint64(b, uint64(int64(real(v)))) },
		}
	}
	return codec{
		size:  4,
		load:  func(b []byte) complex128 { return complex(float64(int32(le.Uint32(b))), 0) },
		store: func(b []byte, v complex128) { le.PutUint32(b, uint32(int32(real(v)))) },
	}
}

// abs1 is |re|+|im|, the magnitude used by index-of-max routines and pivoting.
func abs1(v complex128) float64 {
	return math.Abs(real(v)) + math.Abs(imag(v))
}

func conjIf(c bool, v complex128) complex128 {
	if c {
		return cmplx.Conj(v)
	}
	return v
}

func absOf[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// vec is a strided view of n elements. A negative increment walks the
// storage backwards, starting from the last stored element.
type vec struct {
	c   codec
	mem []byte
	n   int64
	inc int64
}

func (v vec) offset(i int64) int64 {
	if v.inc >= 0 {
		return i * v.inc * v.c.size
	}
	return (v.n - 1 - i) * (-v.inc) * v.c.size
}

func (v vec) at(i int64) complex128 {
	return v.c.load(v.mem[v.offset(i):])
}

func (v vec) set(i int64, x complex128) {
	v.c.store(v.mem[v.offset(i):], x)
}

// extent is the byte length of count runs of last elements placed step
// elements apart, or -1 when that length does not fit in an int64.
func extent(count, step, last, size int64) int64 {
	if count <= 0 || last <= 0 {
		return 0
	}
	if step < 0 || count > 1 && step > (math.MaxInt64-last)/(count-1) {
		return -1
	}
	elems := (count-1)*step + last
	if elems > math.MaxInt64/size {
		return -1
	}
	return elems * size
}

func vecBytes(c codec, n, inc int64) int64 {
	return extent(n, absOf(inc), 1, c.size)
}

func (r *Runtime) vector(c codec, p native.DevicePtr, n, inc int64) (vec, bool) {
	mem, ok := r.mem.resolve(p, vecBytes(c, n, inc))
	if n > 0 && !ok {
		return vec{}, false
	}
	return vec{c: c, mem: mem, n: n, inc: inc}, true
}

// mat is a column-major view with leading dimension ld.
type mat struct {
	c   codec
	mem []byte
	ld  int64
}

func (m mat) at(i, j int64) complex128 {
	return m.c.load(m.mem[(i+j*m.ld)*m.c.size:])
}

func (m mat) set(i, j int64, x complex128) {
	m.c.store(m.mem[(i+j*m.ld)*m.c.size:], x)
}

// op returns element (i, j) of op(m).
func (m mat) op(o native.Operation, i, j int64) complex128 {
	switch o {
	case native.OpT:
		return m.at(j, i)
	case native.OpC:
		return cmplx.Conj(m.at(j, i))
	default:
		return m.at(i, j)
	}
}

func matBytes(c codec, rows, cols, ld int64) int64 {
	return extent(cols, ld, rows, c.size)
}

func (r *Runtime) matrix(c codec, p native.DevicePtr, rows, cols, ld int64) (mat, bool) {
	mem, ok := r.mem.resolve(p, matBytes(c, rows, cols, ld))
	if rows > 0 && cols > 0 && !ok {
		return mat{}, false
	}
	return mat{c: c, mem: mem, ld: ld}, true
}

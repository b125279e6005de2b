package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// PointerBatch is a device-resident array of device addresses, one per
// problem of a batched routine.
type PointerBatch struct {
	buf   *DeviceBuffer[native.DevicePtr]
	count int
}

// BuildExplicitBatch uploads addrs as a device pointer array. The addresses
// are not checked; a bad address surfaces when the batched routine runs.
func BuildExplicitBatch(d *Device, addrs []native.DevicePtr) (*PointerBatch, error) {
	buf, err := Alloc[native.DevicePtr](d, len(addrs))
	if err != nil {
		return nil, err
	}
	if err := SetVector(d, len(addrs), addrs, 1, buf, 1); err != nil {
		_ = buf.Free()
		return nil, err
	}
	return &PointerBatch{buf: buf, count: len(addrs)}, nil
}

// BuildExplicitBatchOf is BuildExplicitBatch over the base addresses of bufs.
func BuildExplicitBatchOf[T Storable](d *Device, bufs []*DeviceBuffer[T]) (*PointerBatch, error) {
	addrs := make([]native.DevicePtr, len(bufs))
	for i, b := range bufs {
		p, err := b.arg("BuildExplicitBatch", "buffer")
		if err != nil {
			return nil, err
		}
		addrs[i] = p
	}
	return BuildExplicitBatch(d, addrs)
}

// Len is the number of addresses in the batch.
func (b *PointerBatch) Len() int { return b.count }

// Ptr is the device address of the pointer array.
func (b *PointerBatch) Ptr() native.DevicePtr { return b.buf.Ptr() }

// Free releases the pointer array. The matrices it points to are untouched.
func (b *PointerBatch) Free() error { return b.buf.Free() }

func (b *PointerBatch) arg(op, name string, count int) (native.DevicePtr, error) {
	if b == nil {
		return 0, invalidArg(op, "%s is nil", name)
	}
	if b.count != count {
		return 0, invalidArg(op, "%s holds %d addresses, batch count is %d", name, b.count, count)
	}
	return b.buf.arg(op, name)
}

// StridedBatch describes count problems laid out at a fixed stride from a
// base address. It involves no device memory of its own.
type StridedBatch struct {
	Base     native.DevicePtr
	Stride   int64 // in elements
	Count    int
	ElemSize int
}

// BuildStridedBatch describes count problems starting at base, stride
// elements of elemSize bytes apart.
func BuildStridedBatch(base native.DevicePtr, stride int64, count int, elemSize int) StridedBatch {
	return StridedBatch{Base: base, Stride: stride, Count: count, ElemSize: elemSize}
}

// BuildStridedBatchOf describes count problems stride elements apart in buf.
func BuildStridedBatchOf[T Storable](buf *DeviceBuffer[T], stride int64, count int) StridedBatch {
	return BuildStridedBatch(buf.Ptr(), stride, count, buf.ElemSize())
}

// StrideBytes is the distance between consecutive problems in bytes.
func (s StridedBatch) StrideBytes() int64 { return s.Stride * int64(s.ElemSize) }

func (s StridedBatch) Len() int { return s.Count }

// Addresses expands the batch into the explicit address list it denotes.
func (s StridedBatch) Addresses() []native.DevicePtr {
	out := make([]native.DevicePtr, s.Count)
	for i := range out {
		out[i] = s.Base.Add(int64(i) * s.StrideBytes())
	}
	return out
}

func (s StridedBatch) arg(op, name string, count, elemSize int) error {
	if s.Count != count {
		return invalidArg(op, "%s describes %d problems, batch count is %d", name, s.Count, count)
	}
	if s.ElemSize != elemSize {
		return invalidArg(op, "%s element size is %d, routine needs %d", name, s.ElemSize, elemSize)
	}
	if s.Stride < 0 {
		return invalidArg(op, "%s has negative stride %d", name, s.Stride)
	}
	return nil
}

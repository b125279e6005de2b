package blas

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// DeviceBuffer is a fixed-size array of T in device memory, column-major
// when it holds a matrix. Free it exactly once; views made with Slice share
// the parent's memory and are never freed themselves.
type DeviceBuffer[T Storable] struct {
	d     *Device
	ptr   native.DevicePtr
	n     int
	view  bool
	freed *atomic.Bool
}

// Alloc allocates room for n elements of T. A zero-length buffer performs no
// allocation and has a zero address.
func Alloc[T Storable](d *Device, n int) (*DeviceBuffer[T], error) {
	if err := d.live("cudaMalloc"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, invalidArg("cudaMalloc", "negative element count %d", n)
	}
	b := &DeviceBuffer[T]{d: d, n: n, freed: new(atomic.Bool)}
	if n == 0 {
		return b, nil
	}
	p, err := d.rt.Malloc(b.Bytes())
	if err != nil {
		return nil, &Error{Kind: InitializationFailure, Op: "cudaMalloc", Status: native.StatusAllocFailed, Err: err}
	}
	b.ptr = p
	d.log.Debug("device alloc", "buffer", b.String())
	return b, nil
}

// Free releases the allocation. It is safe to call more than once, and a
// no-op on views.
func (b *DeviceBuffer[T]) Free() error {
	if b == nil || b.view || !b.freed.CompareAndSwap(false, true) {
		return nil
	}
	if b.ptr == 0 {
		return nil
	}
	if err := b.d.rt.Free(b.ptr); err != nil {
		return &Error{Kind: InitializationFailure, Op: "cudaFree", Err: err}
	}
	return nil
}

// Ptr returns the device address of the first element.
func (b *DeviceBuffer[T]) Ptr() native.DevicePtr { return b.ptr }

// Len returns the element count.
func (b *DeviceBuffer[T]) Len() int { return b.n }

// ElemSize returns the width of one element in bytes.
func (b *DeviceBuffer[T]) ElemSize() int { return sizeOf[T]() }

// Bytes returns the size of the buffer in bytes.
func (b *DeviceBuffer[T]) Bytes() int64 { return int64(b.n) * int64(sizeOf[T]()) }

// At returns the device address of element i. It panics if i is out of range.
func (b *DeviceBuffer[T]) At(i int) native.DevicePtr {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("blas: index %d out of range [0:%d]", i, b.n))
	}
	return b.ptr.Add(int64(i) * int64(sizeOf[T]()))
}

// Slice returns a view of n elements starting at off. It panics if the
// range exceeds the buffer.
func (b *DeviceBuffer[T]) Slice(off, n int) *DeviceBuffer[T] {
	if off < 0 || n < 0 || off+n > b.n {
		panic(fmt.Sprintf("blas: slice [%d:%d] out of range [0:%d]", off, off+n, b.n))
	}
	return &DeviceBuffer[T]{
		d:     b.d,
		ptr:   b.ptr.Add(int64(off) * int64(sizeOf[T]())),
		n:     n,
		view:  true,
		freed: b.freed,
	}
}

// Freed reports whether the buffer, or the buffer a view was taken from,
// has been freed.
func (b *DeviceBuffer[T]) Freed() bool { return b.freed.Load() }

func (b *DeviceBuffer[T]) String() string {
	var zero T
	return fmt.Sprintf("DeviceBuffer[%T](%s, %d elems, %s)", zero, b.ptr, b.n, humanize.IBytes(uint64(b.Bytes())))
}

// arg resolves b as an operand of op.
func (b *DeviceBuffer[T]) arg(op, name string) (native.DevicePtr, error) {
	if b == nil {
		return 0, invalidArg(op, "%s is nil", name)
	}
	if b.freed.Load() {
		return 0, invalidArg(op, "%s has been freed", name)
	}
	return b.ptr, nil
}

// PinnedHost is page-locked host memory allocated by the runtime. Async
// transfers from and to it overlap with device work.
type PinnedHost[T Storable] struct {
	d     *Device
	p     unsafe.Pointer
	data  []T
	freed atomic.Bool
}

// AllocPinned allocates n page-locked elements of T.
func AllocPinned[T Storable](d *Device, n int) (*PinnedHost[T], error) {
	if err := d.live("cudaMallocHost"); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, invalidArg("cudaMallocHost", "negative element count %d", n)
	}
	h := &PinnedHost[T]{d: d}
	if n == 0 {
		return h, nil
	}
	bytes := int64(n) * int64(sizeOf[T]())
	p, err := d.rt.MallocHost(bytes)
	if err != nil {
		return nil, &Error{Kind: InitializationFailure, Op: "cudaMallocHost", Status: native.StatusAllocFailed, Err: err}
	}
	h.p = p
	h.data = unsafe.Slice((*T)(p), n)
	d.log.Debug("pinned alloc", "bytes", humanize.IBytes(uint64(bytes)))
	return h, nil
}

// Data returns the host view of the allocation. It must not be used after Free.
func (h *PinnedHost[T]) Data() []T { return h.data }

func (h *PinnedHost[T]) Len() int { return len(h.data) }

// Free releases the allocation. It is safe to call more than once.
func (h *PinnedHost[T]) Free() error {
	if h == nil || !h.freed.CompareAndSwap(false, true) || h.p == nil {
		return nil
	}
	h.data = nil
	if err := h.d.rt.FreeHost(h.p); err != nil {
		return &Error{Kind: InitializationFailure, Op: "cudaFreeHost", Err: err}
	}
	return nil
}

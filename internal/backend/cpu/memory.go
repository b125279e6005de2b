package cpu

import (
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

const (
	baseAddress = native.DevicePtr(0x10000000)
	allocAlign  = 256
)

type allocation struct {
	base native.DevicePtr
	data []byte
}

func (a *allocation) end() native.DevicePtr {
	return a.base + native.DevicePtr(len(a.data))
}

// addressSpace hands out device addresses that are never valid host
// pointers and maps them back to their backing slices.
type addressSpace struct {
	mu     sync.RWMutex
	next   native.DevicePtr
	allocs []*allocation // sorted by base
}

func newAddressSpace() *addressSpace {
	return &addressSpace{next: baseAddress}
}

func (a *addressSpace) alloc(bytes int64) native.DevicePtr {
	a.mu.Lock()
	defer a.mu.Unlock()
	base := a.next
	span := (bytes + allocAlign - 1) / allocAlign * allocAlign
	// one alignment unit of unmapped gap between allocations
	a.next += native.DevicePtr(span + allocAlign)
	a.allocs = append(a.allocs, &allocation{base: base, data: make([]byte, bytes)})
	return base
}

func (a *addressSpace) free(p native.DevicePtr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.find(p)
	if i < 0 || a.allocs[i].base != p {
		return false
	}
	a.allocs = append(a.allocs[:i], a.allocs[i+1:]...)
	return true
}

// find returns the index of the allocation containing p, or -1.
func (a *addressSpace) find(p native.DevicePtr) int {
	i := sort.Search(len(a.allocs), func(i int) bool { return a.allocs[i].base > p }) - 1
	if i < 0 || p >= a.allocs[i].end() {
		return -1
	}
	return i
}

// resolve returns the backing bytes of [p, p+bytes).
func (a *addressSpace) resolve(p native.DevicePtr, bytes int64) ([]byte, bool) {
	if bytes < 0 {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	i := a.find(p)
	if i < 0 {
		return nil, false
	}
	al := a.allocs[i]
	off := int64(p - al.base)
	if off+bytes > int64(len(al.data)) {
		return nil, false
	}
	return al.data[off : off+bytes : off+bytes], true
}

func (a *addressSpace) live() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.allocs)
}

// hostRange is a page-locked host region.
type hostRange struct {
	base   uintptr
	size   int64
	locked bool
	owned  []uint64 // backing store for MallocHost allocations
}

type hostRegistry struct {
	mu     sync.Mutex
	ranges map[uintptr]*hostRange
}

func newHostRegistry() *hostRegistry {
	return &hostRegistry{ranges: make(map[uintptr]*hostRange)}
}

func (h *hostRegistry) overlaps(base uintptr, size int64) bool {
	for _, r := range h.ranges {
		if base < r.base+uintptr(r.size) && r.base < base+uintptr(size) {
			return true
		}
	}
	return false
}

func (r *Runtime) Malloc(bytes int64) (native.DevicePtr, error) {
	if bytes <= 0 {
		return 0, fmt.Errorf("device alloc size must be > 0")
	}
	return r.mem.alloc(bytes), nil
}

func (r *Runtime) Free(p native.DevicePtr) error {
	if p == 0 {
		return nil
	}
	if !r.mem.free(p) {
		return fmt.Errorf("free of unallocated device pointer %s", p)
	}
	return nil
}

// LiveAllocations reports the number of device allocations not yet freed.
func (r *Runtime) LiveAllocations() int {
	return r.mem.live()
}

func (r *Runtime) MallocHost(bytes int64) (unsafe.Pointer, error) {
	if bytes <= 0 {
		return nil, fmt.Errorf("host alloc size must be > 0")
	}
	buf := make([]uint64, (bytes+7)/8)
	p := unsafe.Pointer(&buf[0])
	hr := &hostRange{base: uintptr(p), size: bytes, owned: buf}
	hr.locked = lockMemory(unsafe.Slice((*byte)(p), bytes))

	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	r.host.ranges[hr.base] = hr
	return p, nil
}

func (r *Runtime) FreeHost(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	hr, ok := r.host.ranges[uintptr(p)]
	if !ok || hr.owned == nil {
		return fmt.Errorf("free of unallocated host pointer %p", p)
	}
	if hr.locked {
		unlockMemory(unsafe.Slice((*byte)(p), hr.size))
	}
	delete(r.host.ranges, hr.base)
	return nil
}

func (r *Runtime) HostRegister(p unsafe.Pointer, bytes int64) (bool, error) {
	if p == nil || bytes <= 0 {
		return false, fmt.Errorf("invalid host range %p+%d", p, bytes)
	}
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	base := uintptr(p)
	if r.host.overlaps(base, bytes) {
		return false, nil
	}
	hr := &hostRange{base: base, size: bytes}
	hr.locked = lockMemory(unsafe.Slice((*byte)(p), bytes))
	r.host.ranges[base] = hr
	return true, nil
}

func (r *Runtime) HostUnregister(p unsafe.Pointer) error {
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	hr, ok := r.host.ranges[uintptr(p)]
	if !ok || hr.owned != nil {
		return fmt.Errorf("host memory %p is not registered", p)
	}
	if hr.locked {
		unlockMemory(unsafe.Slice((*byte)(p), hr.size))
	}
	delete(r.host.ranges, hr.base)
	return nil
}

// RegisteredHostRanges reports the number of page-locked host ranges.
func (r *Runtime) RegisteredHostRanges() int {
	r.host.mu.Lock()
	defer r.host.mu.Unlock()
	return len(r.host.ranges)
}

func (r *Runtime) MemcpyDeviceToDevice(dst, src native.DevicePtr, bytes int64, s native.Stream) error {
	if bytes <= 0 {
		return nil
	}
	d, ok := r.mem.resolve(dst, bytes)
	if !ok {
		return fmt.Errorf("memcpy destination %s+%d is not mapped", dst, bytes)
	}
	sr, ok := r.mem.resolve(src, bytes)
	if !ok {
		return fmt.Errorf("memcpy source %s+%d is not mapped", src, bytes)
	}
	st, ok := r.stream(s)
	if !ok {
		return fmt.Errorf("unknown stream %d", uintptr(s))
	}
	return st.enqueue(func() error {
		copy(d, sr)
		return nil
	})
}

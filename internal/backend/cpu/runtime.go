// Package cpu is a host-memory implementation of the native BLAS runtime
// contract. Device memory is a private address space backed by Go slices,
// streams are ordered worker goroutines, and every routine family bound by
// the binding layer has a reference kernel. Argument checks and status codes
// follow the native library so that the binding layer behaves the same on
// either backend.
package cpu

import (
	"fmt"
	"sync"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Version is the library version reported through Version, in the native
// major*10000 + minor*100 + patch encoding.
const Version = 120400

type handleState struct {
	stream      native.Stream
	pointerMode native.PointerMode
	mathMode    native.MathMode
	smTarget    int
	atomics     native.AtomicsMode
}

// Runtime implements native.Runtime on the host.
type Runtime struct {
	mem  *addressSpace
	host *hostRegistry

	mu         sync.Mutex
	streams    map[native.Stream]*stream
	nextStream native.Stream
	handles    map[native.Handle]*handleState
	nextHandle native.Handle
	faults     map[string]native.Status
	closed     bool
}

var _ native.Runtime = (*Runtime)(nil)

func New() *Runtime {
	r := &Runtime{
		mem:     newAddressSpace(),
		host:    newHostRegistry(),
		streams: make(map[native.Stream]*stream),
		handles: make(map[native.Handle]*handleState),
		faults:  make(map[string]native.Status),
	}
	r.streams[0] = newStream(0)
	return r
}

// FailNext makes the next call to the named native symbol return st without
// doing any work.
func (r *Runtime) FailNext(symbol string, st native.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[symbol] = st
}

func (r *Runtime) fault(symbol string) (native.Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.faults[symbol]
	if ok {
		delete(r.faults, symbol)
	}
	return st, ok
}

// Close drains and stops every stream.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	streams := make([]*stream, 0, len(r.streams))
	for _, s := range r.streams {
		streams = append(streams, s)
	}
	r.streams = make(map[native.Stream]*stream)
	r.mu.Unlock()

	var err error
	for _, s := range streams {
		if e := s.stop(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func (r *Runtime) DeviceCount() (int, error) {
	return 1, nil
}

// Handle lifecycle and configuration.

func (r *Runtime) Create() (native.Handle, native.Status) {
	if st, ok := r.fault(native.SymCreate); ok {
		return 0, st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, native.StatusNotInitialized
	}
	r.nextHandle++
	h := r.nextHandle
	r.handles[h] = &handleState{}
	return h, native.StatusSuccess
}

func (r *Runtime) Destroy(h native.Handle) native.Status {
	if st, ok := r.fault(native.SymDestroy); ok {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handles[h]; !ok {
		return native.StatusNotInitialized
	}
	delete(r.handles, h)
	return native.StatusSuccess
}

// update runs fn on the state of h under the runtime lock.
func (r *Runtime) update(symbol string, h native.Handle, fn func(hs *handleState) native.Status) native.Status {
	if st, ok := r.fault(symbol); ok {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	hs, ok := r.handles[h]
	if !ok {
		return native.StatusNotInitialized
	}
	return fn(hs)
}

// snapshot returns a copy of the state of h and the stream its work runs on.
func (r *Runtime) snapshot(h native.Handle) (handleState, *stream, native.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hs, ok := r.handles[h]
	if !ok {
		return handleState{}, nil, native.StatusNotInitialized
	}
	s, ok := r.streams[hs.stream]
	if !ok {
		return handleState{}, nil, native.StatusExecutionFailed
	}
	return *hs, s, native.StatusSuccess
}

func (r *Runtime) Version(h native.Handle) (int, native.Status) {
	var v int
	st := r.update(native.SymGetVersion, h, func(*handleState) native.Status {
		v = Version
		return native.StatusSuccess
	})
	return v, st
}

func (r *Runtime) SetStream(h native.Handle, s native.Stream) native.Status {
	return r.update(native.SymSetStream, h, func(hs *handleState) native.Status {
		if _, ok := r.streams[s]; !ok {
			return native.StatusInvalidValue
		}
		hs.stream = s
		return native.StatusSuccess
	})
}

func (r *Runtime) GetStream(h native.Handle) (native.Stream, native.Status) {
	var s native.Stream
	st := r.update(native.SymGetStream, h, func(hs *handleState) native.Status {
		s = hs.stream
		return native.StatusSuccess
	})
	return s, st
}

func (r *Runtime) SetPointerMode(h native.Handle, m native.PointerMode) native.Status {
	return r.update(native.SymSetPointerMode, h, func(hs *handleState) native.Status {
		if !m.Valid() {
			return native.StatusInvalidValue
		}
		hs.pointerMode = m
		return native.StatusSuccess
	})
}

func (r *Runtime) GetPointerMode(h native.Handle) (native.PointerMode, native.Status) {
	var m native.PointerMode
	st := r.update(native.SymGetPointerMode, h, func(hs *handleState) native.Status {
		m = hs.pointerMode
		return native.StatusSuccess
	})
	return m, st
}

func (r *Runtime) SetMathMode(h native.Handle, m native.MathMode) native.Status {
	return r.update(native.SymSetMathMode, h, func(hs *handleState) native.Status {
		if !m.Valid() {
			return native.StatusInvalidValue
		}
		hs.mathMode = m
		return native.StatusSuccess
	})
}

func (r *Runtime) GetMathMode(h native.Handle) (native.MathMode, native.Status) {
	var m native.MathMode
	st := r.update(native.SymGetMathMode, h, func(hs *handleState) native.Status {
		m = hs.mathMode
		return native.StatusSuccess
	})
	return m, st
}

func (r *Runtime) SetSmCountTarget(h native.Handle, n int) native.Status {
	return r.update(native.SymSetSmCountTarget, h, func(hs *handleState) native.Status {
		if n < 0 {
			return native.StatusInvalidValue
		}
		hs.smTarget = n
		return native.StatusSuccess
	})
}

func (r *Runtime) GetSmCountTarget(h native.Handle) (int, native.Status) {
	var n int
	st := r.update(native.SymGetSmCountTarget, h, func(hs *handleState) native.Status {
		n = hs.smTarget
		return native.StatusSuccess
	})
	return n, st
}

func (r *Runtime) SetAtomicsMode(h native.Handle, m native.AtomicsMode) native.Status {
	return r.update(native.SymSetAtomicsMode, h, func(hs *handleState) native.Status {
		if !m.Valid() {
			return native.StatusInvalidValue
		}
		hs.atomics = m
		return native.StatusSuccess
	})
}

func (r *Runtime) GetAtomicsMode(h native.Handle) (native.AtomicsMode, native.Status) {
	var m native.AtomicsMode
	st := r.update(native.SymGetAtomicsMode, h, func(hs *handleState) native.Status {
		m = hs.atomics
		return native.StatusSuccess
	})
	return m, st
}

// Streams.

func (r *Runtime) NewStream() (native.Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("cpu runtime is closed")
	}
	r.nextStream++
	id := r.nextStream
	r.streams[id] = newStream(id)
	return id, nil
}

func (r *Runtime) DestroyStream(s native.Stream) error {
	if s == 0 {
		return fmt.Errorf("cannot destroy the default stream")
	}
	r.mu.Lock()
	st, ok := r.streams[s]
	if ok {
		delete(r.streams, s)
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown stream %d", uintptr(s))
	}
	return st.stop()
}

func (r *Runtime) SyncStream(s native.Stream) error {
	st, ok := r.stream(s)
	if !ok {
		return fmt.Errorf("unknown stream %d", uintptr(s))
	}
	if err := st.sync(); err != nil {
		return fmt.Errorf("stream %d: %w", uintptr(s), err)
	}
	return nil
}

func (r *Runtime) stream(s native.Stream) (*stream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.streams[s]
	return st, ok
}

// drainAll waits for all queued work on every stream, the way a blocking
// transfer orders itself after outstanding device work.
func (r *Runtime) drainAll() {
	r.mu.Lock()
	streams := make([]*stream, 0, len(r.streams))
	for _, s := range r.streams {
		streams = append(streams, s)
	}
	r.mu.Unlock()
	for _, s := range streams {
		s.drain()
	}
}

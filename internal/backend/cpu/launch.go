package cpu

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// slot is one scalar in host or device memory.
type slot struct {
	c   codec
	mem []byte
}

func (s slot) load() complex128   { return s.c.load(s.mem) }
func (s slot) store(v complex128) { s.c.store(s.mem, v) }

// scalarMem resolves a scalar under the pointer mode of the handle. A slot
// that does not match the mode is rejected rather than misread.
func (r *Runtime) scalarMem(hs handleState, s native.Scalar, size int64) ([]byte, native.Status) {
	if hs.pointerMode == native.PointerModeHost {
		if s.Host == nil {
			return nil, native.StatusInvalidValue
		}
		return hostSpan(s.Host, size), native.StatusSuccess
	}
	if s.Host != nil || s.Device == 0 {
		return nil, native.StatusInvalidValue
	}
	mem, ok := r.mem.resolve(s.Device, size)
	if !ok {
		return nil, native.StatusExecutionFailed
	}
	return mem, native.StatusSuccess
}

// coefficient resolves an input scalar. Host values are captured at issue
// time; device values are read when the work runs.
func (r *Runtime) coefficient(hs handleState, c codec, s native.Scalar) (slot, native.Status) {
	mem, st := r.scalarMem(hs, s, c.size)
	if st != native.StatusSuccess {
		return slot{}, st
	}
	if hs.pointerMode == native.PointerModeHost {
		mem = append([]byte(nil), mem...)
	}
	return slot{c: c, mem: mem}, native.StatusSuccess
}

func (r *Runtime) result(hs handleState, c codec, s native.Scalar) (slot, native.Status) {
	mem, st := r.scalarMem(hs, s, c.size)
	if st != native.StatusSuccess {
		return slot{}, st
	}
	return slot{c: c, mem: mem}, native.StatusSuccess
}

// work is the deferred body of a routine. blocking work runs before launch
// returns, as routines with host results do.
type work struct {
	run      func() error
	blocking bool
}

// launch checks that r names an entry point of family f, then validates
// arguments through prep and queues the resulting work on the stream bound
// to h.
func (rt *Runtime) launch(h native.Handle, r native.Routine, f native.Family, prep func(hs handleState) (work, native.Status)) native.Status {
	symbol, ok := r.Symbol()
	if !ok || r.Family != f {
		return native.StatusNotSupported
	}
	if st, ok := rt.fault(symbol); ok {
		return st
	}
	hs, s, st := rt.snapshot(h)
	if st != native.StatusSuccess {
		return st
	}
	w, st := prep(hs)
	if st != native.StatusSuccess || w.run == nil {
		return st
	}
	if w.blocking {
		if err := s.run(w.run); err != nil {
			return native.StatusExecutionFailed
		}
		return native.StatusSuccess
	}
	if err := s.enqueue(w.run); err != nil {
		return native.StatusExecutionFailed
	}
	return native.StatusSuccess
}

// resultWork wraps a routine that writes one scalar result. Host results are
// written before the call returns.
func resultWork(hs handleState, fn func() error) work {
	return work{run: fn, blocking: hs.pointerMode == native.PointerModeHost}
}

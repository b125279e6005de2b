package blas

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/samcharles93/blasgo/internal/backend/native"
	"github.com/samcharles93/blasgo/internal/logger"
	"github.com/samcharles93/blasgo/pkg/config"
)

// noCopy is flagged by go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle owns one native BLAS context. It is not safe for concurrent use;
// give each goroutine its own handle.
//
// Release it exactly once, typically with defer. A handle collected without
// Release logs a warning and is destroyed by the runtime cleanup.
type Handle struct {
	noCopy noCopy

	d        *Device
	native   native.Handle
	id       uuid.UUID
	log      logger.Logger
	released atomic.Bool
	cleanup  runtime.Cleanup
}

type handleOptions struct {
	defaults config.HandleDefaults
	stream   *Stream
}

// HandleOption overrides a configured handle default.
type HandleOption func(*handleOptions)

func WithStream(s Stream) HandleOption {
	return func(o *handleOptions) { o.stream = &s }
}

func WithPointerMode(m PointerMode) HandleOption {
	return func(o *handleOptions) { o.defaults.PointerMode = &m }
}

func WithMathMode(m MathMode) HandleOption {
	return func(o *handleOptions) { o.defaults.MathMode = &m }
}

func WithSMCountTarget(n int) HandleOption {
	return func(o *handleOptions) { o.defaults.SMCountTarget = &n }
}

func WithAtomicsMode(m AtomicsMode) HandleOption {
	return func(o *handleOptions) { o.defaults.AtomicsMode = &m }
}

type leakedHandle struct {
	rt  native.Runtime
	raw native.Handle
	id  uuid.UUID
	log logger.Logger
}

// reclaim runs when a handle is collected without Release. The warning is
// written to stderr when the device logger drops warnings.
func reclaim(l leakedHandle) {
	log := l.log
	if !log.Enabled(slog.LevelWarn) {
		log = logger.Default()
	}
	log.Warn("handle collected without Release", "handle", l.id.String())
	if st := l.rt.Destroy(l.raw); st != native.StatusSuccess {
		log.Warn("destroying leaked handle failed", "handle", l.id.String(), logger.StatusKey, st.String())
	}
}

// NewHandle creates a handle and applies the device's configured defaults,
// then opts. If a default cannot be applied the native handle is destroyed
// and the error returned.
func (d *Device) NewHandle(opts ...HandleOption) (*Handle, error) {
	if err := d.live(native.SymCreate); err != nil {
		return nil, err
	}
	o := handleOptions{defaults: d.defaults}
	for _, opt := range opts {
		opt(&o)
	}

	raw, st := d.rt.Create()
	if err := d.check(crossInit, native.SymCreate, "", st); err != nil {
		return nil, err
	}
	id := uuid.New()
	h := &Handle{
		d:      d,
		native: raw,
		id:     id,
		log:    d.log.With("handle", id.String()),
	}
	if err := h.apply(o); err != nil {
		h.released.Store(true)
		if st := d.rt.Destroy(raw); st != native.StatusSuccess {
			h.log.Debug("destroy after failed setup", logger.StatusKey, st.String())
		}
		return nil, err
	}
	h.cleanup = runtime.AddCleanup(h, reclaim, leakedHandle{rt: d.rt, raw: raw, id: id, log: d.log})
	h.log.Debug("handle created")
	return h, nil
}

func (h *Handle) apply(o handleOptions) error {
	if o.stream != nil {
		if err := h.SetStream(*o.stream); err != nil {
			return err
		}
	}
	if m := o.defaults.PointerMode; m != nil {
		if err := h.SetPointerMode(*m); err != nil {
			return err
		}
	}
	if m := o.defaults.MathMode; m != nil {
		if err := h.SetMathMode(*m); err != nil {
			return err
		}
	}
	if n := o.defaults.SMCountTarget; n != nil {
		if err := h.SetSMCountTarget(*n); err != nil {
			return err
		}
	}
	if m := o.defaults.AtomicsMode; m != nil {
		if err := h.SetAtomicsMode(*m); err != nil {
			return err
		}
	}
	return nil
}

// Release destroys the native context. Calling it again is a no-op.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		h.log.Debug("handle already released")
		return nil
	}
	h.cleanup.Stop()
	err := h.d.check(crossInit, native.SymDestroy, h.id.String(), h.d.rt.Destroy(h.native))
	h.log.Debug("handle released")
	return err
}

// Close is Release, for use as an io.Closer.
func (h *Handle) Close() error { return h.Release() }

// Released reports whether Release has been called.
func (h *Handle) Released() bool { return h.released.Load() }

// ID identifies the handle in diagnostics.
func (h *Handle) ID() uuid.UUID { return h.id }

func (h *Handle) Device() *Device { return h.d }

// Native returns the native handle token.
func (h *Handle) Native() native.Handle { return h.native }

func (h *Handle) live(op string) error {
	if h == nil {
		return invalidArg(op, "nil handle")
	}
	if h.released.Load() {
		return invalidArg(op, "handle %s is released", h.id)
	}
	return h.d.live(op)
}

func (h *Handle) config(op string, st native.Status) error {
	return h.d.check(crossConfig, op, h.id.String(), st)
}

// SetStream binds subsequent work on h to s.
func (h *Handle) SetStream(s Stream) error {
	if err := h.live(native.SymSetStream); err != nil {
		return err
	}
	if s.d != nil && s.d != h.d {
		return invalidArg(native.SymSetStream, "stream belongs to another device")
	}
	return h.config(native.SymSetStream, h.d.rt.SetStream(h.native, s.id))
}

func (h *Handle) Stream() (Stream, error) {
	if err := h.live(native.SymGetStream); err != nil {
		return Stream{}, err
	}
	id, st := h.d.rt.GetStream(h.native)
	if err := h.config(native.SymGetStream, st); err != nil {
		return Stream{}, err
	}
	return Stream{d: h.d, id: id}, nil
}

// SetPointerMode selects where scalar coefficients and results live.
func (h *Handle) SetPointerMode(m PointerMode) error {
	if err := h.live(native.SymSetPointerMode); err != nil {
		return err
	}
	return h.config(native.SymSetPointerMode, h.d.rt.SetPointerMode(h.native, m))
}

func (h *Handle) PointerMode() (PointerMode, error) {
	if err := h.live(native.SymGetPointerMode); err != nil {
		return 0, err
	}
	m, st := h.d.rt.GetPointerMode(h.native)
	return m, h.config(native.SymGetPointerMode, st)
}

func (h *Handle) SetMathMode(m MathMode) error {
	if err := h.live(native.SymSetMathMode); err != nil {
		return err
	}
	return h.config(native.SymSetMathMode, h.d.rt.SetMathMode(h.native, m))
}

func (h *Handle) MathMode() (MathMode, error) {
	if err := h.live(native.SymGetMathMode); err != nil {
		return 0, err
	}
	m, st := h.d.rt.GetMathMode(h.native)
	return m, h.config(native.SymGetMathMode, st)
}

// SetSMCountTarget limits the number of multiprocessors kernels may use.
// Zero restores the library default.
func (h *Handle) SetSMCountTarget(n int) error {
	if err := h.live(native.SymSetSmCountTarget); err != nil {
		return err
	}
	return h.config(native.SymSetSmCountTarget, h.d.rt.SetSmCountTarget(h.native, n))
}

func (h *Handle) SMCountTarget() (int, error) {
	if err := h.live(native.SymGetSmCountTarget); err != nil {
		return 0, err
	}
	n, st := h.d.rt.GetSmCountTarget(h.native)
	return n, h.config(native.SymGetSmCountTarget, st)
}

func (h *Handle) SetAtomicsMode(m AtomicsMode) error {
	if err := h.live(native.SymSetAtomicsMode); err != nil {
		return err
	}
	return h.config(native.SymSetAtomicsMode, h.d.rt.SetAtomicsMode(h.native, m))
}

func (h *Handle) AtomicsMode() (AtomicsMode, error) {
	if err := h.live(native.SymGetAtomicsMode); err != nil {
		return 0, err
	}
	m, st := h.d.rt.GetAtomicsMode(h.native)
	return m, h.config(native.SymGetAtomicsMode, st)
}

// Version reports the native library version, encoded as
// major*10000 + minor*100 + patch.
func (h *Handle) Version() (int, error) {
	if err := h.live(native.SymGetVersion); err != nil {
		return 0, err
	}
	v, st := h.d.rt.Version(h.native)
	return v, h.config(native.SymGetVersion, st)
}

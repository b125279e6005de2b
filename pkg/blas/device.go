package blas

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/samcharles93/blasgo/internal/backend"
	"github.com/samcharles93/blasgo/internal/backend/native"
	"github.com/samcharles93/blasgo/internal/logger"
	"github.com/samcharles93/blasgo/internal/version"
	"github.com/samcharles93/blasgo/pkg/config"
)

// Options configure Open.
type Options struct {
	// Backend is "auto", "cpu" or "cuda". Empty falls back to Config.Backend
	// and then to "auto".
	Backend string

	// Config supplies the handle defaults and, when LogHandler is nil, the
	// log format and level.
	Config config.Config

	// LogHandler receives the binding's diagnostics. When nil and Config
	// names no log format or level, diagnostics are discarded.
	LogHandler slog.Handler
}

// Device is an opened native runtime. It owns device memory, streams and
// handles created through it.
type Device struct {
	rt       native.Runtime
	backend  string
	log      logger.Logger
	defaults config.HandleDefaults
	closed   atomic.Bool
}

// Open opens the runtime selected by opts.
func Open(opts Options) (*Device, error) {
	return OpenContext(context.Background(), opts)
}

// OpenContext is Open with a logger taken from ctx when opts carries none.
func OpenContext(ctx context.Context, opts Options) (*Device, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, &Error{Kind: ConfigurationFailure, Op: "Open", Message: "invalid configuration", Err: err}
	}
	log, err := deviceLogger(ctx, opts)
	if err != nil {
		return nil, &Error{Kind: ConfigurationFailure, Op: "Open", Message: "invalid log format", Err: err}
	}

	name := opts.Backend
	if name == "" {
		name = opts.Config.Backend
	}
	if _, err := backend.Normalize(name); err != nil {
		return nil, &Error{Kind: ConfigurationFailure, Op: "Open", Err: err}
	}
	rt, resolved, err := backend.New(name)
	if err != nil {
		return nil, &Error{Kind: InitializationFailure, Op: "Open", Err: errors.Wrapf(err, "open backend %q", name)}
	}
	d, err := newDevice(rt, resolved, opts.Config, log)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return d, nil
}

func deviceLogger(ctx context.Context, opts Options) (logger.Logger, error) {
	if opts.LogHandler != nil {
		return logger.New(opts.LogHandler), nil
	}
	if l, ok := logger.Lookup(ctx); ok {
		return l, nil
	}
	if opts.Config.LogFormat == "" && opts.Config.LogLevel == "" {
		return logger.Discard(), nil
	}
	h, err := logger.NewHandler(opts.Config.LogFormat, os.Stderr, logger.ParseLevel(opts.Config.LogLevel))
	if err != nil {
		return nil, err
	}
	return logger.New(h), nil
}

func newDevice(rt native.Runtime, name string, cfg config.Config, log logger.Logger) (*Device, error) {
	defaults, err := cfg.HandleDefaults()
	if err != nil {
		return nil, &Error{Kind: ConfigurationFailure, Op: "Open", Err: err}
	}
	d := &Device{
		rt:       rt,
		backend:  name,
		log:      log.With("backend", name),
		defaults: defaults,
	}
	d.log.Debug("device opened", "version", version.String())
	return d, nil
}

// Backend reports the resolved backend name.
func (d *Device) Backend() string { return d.backend }

// Count reports the number of devices visible to the runtime.
func (d *Device) Count() (int, error) {
	n, err := d.rt.DeviceCount()
	if err != nil {
		return 0, &Error{Kind: InitializationFailure, Op: "cudaGetDeviceCount", Err: err}
	}
	return n, nil
}

// Close shuts the runtime down. Handles and buffers must be released first.
// Close is idempotent.
func (d *Device) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	d.log.Debug("device closed")
	if err := d.rt.Close(); err != nil {
		return &Error{Kind: ComputeFailure, Op: "Close", Err: err}
	}
	return nil
}

func (d *Device) live(op string) error {
	if d == nil {
		return invalidArg(op, "nil device")
	}
	if d.closed.Load() {
		return invalidArg(op, "device is closed")
	}
	return nil
}

// Stream is an ordered execution queue on a device. The zero Stream of a
// device is its default stream.
type Stream struct {
	d  *Device
	id native.Stream
}

// DefaultStream returns the device's default stream.
func (d *Device) DefaultStream() Stream {
	return Stream{d: d}
}

// NewStream creates a stream. Work on different streams may run concurrently.
func (d *Device) NewStream() (Stream, error) {
	if err := d.live("NewStream"); err != nil {
		return Stream{}, err
	}
	id, err := d.rt.NewStream()
	if err != nil {
		return Stream{}, &Error{Kind: InitializationFailure, Op: "cudaStreamCreate", Err: err}
	}
	d.log.Debug("stream created", "stream", uint64(id))
	return Stream{d: d, id: id}, nil
}

// Native returns the native stream token.
func (s Stream) Native() native.Stream { return s.id }

// IsDefault reports whether s is the default stream.
func (s Stream) IsDefault() bool { return s.id == 0 }

// Synchronize blocks until all work issued to s has finished and reports
// the first failure of that work.
func (s Stream) Synchronize() error {
	if err := s.d.live("Synchronize"); err != nil {
		return err
	}
	if err := s.d.rt.SyncStream(s.id); err != nil {
		return &Error{Kind: ComputeFailure, Op: "cudaStreamSynchronize", Err: err}
	}
	return nil
}

// Destroy releases s after its pending work drains. Destroying the default
// stream is a no-op.
func (s Stream) Destroy() error {
	if s.IsDefault() {
		return nil
	}
	if err := s.d.live("DestroyStream"); err != nil {
		return err
	}
	if err := s.d.rt.DestroyStream(s.id); err != nil {
		return &Error{Kind: ConfigurationFailure, Op: "cudaStreamDestroy", Err: err}
	}
	s.d.log.Debug("stream destroyed", "stream", uint64(s.id))
	return nil
}

// Backends lists the backends this build can open.
func Backends() []string {
	return backend.Available()
}

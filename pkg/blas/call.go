package blas

import (
	"github.com/samcharles93/blasgo/internal/backend/native"
)

// call collects the operands of one forwarded routine. The first rejected
// operand is kept and the native routine is never reached.
type call struct {
	h   *Handle
	r   native.Routine
	op  string
	err error
}

func (h *Handle) begin(r native.Routine) *call {
	c := &call{h: h, r: r, op: r.String()}
	if err := h.live(c.op); err != nil {
		c.err = err
		return c
	}
	if _, ok := r.Symbol(); !ok {
		c.err = invalidArg(c.op, "no native %s routine for %s with int%d indices", r.Family, r.Type, int(r.Index))
	}
	return c
}

func (c *call) fail(format string, args ...any) {
	if c.err == nil {
		c.err = invalidArg(c.op, format, args...)
	}
}

func bufArg[T Storable](c *call, name string, b *DeviceBuffer[T]) native.DevicePtr {
	if c.err != nil {
		return 0
	}
	p, err := b.arg(c.op, name)
	c.err = err
	return p
}

// optBufArg is bufArg for operands the native routine accepts as null.
func optBufArg[T Storable](c *call, name string, b *DeviceBuffer[T]) native.DevicePtr {
	if b == nil {
		return 0
	}
	return bufArg(c, name, b)
}

func scalarArg[T Element](c *call, name string, s Scalar[T]) native.Scalar {
	if c.err != nil {
		return native.Scalar{}
	}
	a, err := s.arg(c.op, name)
	c.err = err
	return a
}

func resultArg[T Storable](c *call, r Result[T]) native.Scalar {
	if c.err != nil {
		return native.Scalar{}
	}
	a, err := r.arg(c.op)
	c.err = err
	return a
}

func (c *call) batch(name string, b *PointerBatch, count int64) native.DevicePtr {
	if c.err != nil {
		return 0
	}
	p, err := b.arg(c.op, name, int(count))
	c.err = err
	return p
}

func (c *call) strided(name string, s StridedBatch, count int64) {
	if c.err != nil {
		return
	}
	c.err = s.arg(c.op, name, int(count), c.r.Type.Size())
}

// finish issues the native routine unless an operand was rejected.
func (c *call) finish(invoke func() native.Status) error {
	if c.err != nil {
		return c.err
	}
	return c.h.d.check(crossCompute, c.op, c.h.id.String(), invoke())
}

package cpu

import (
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// strided is a host or device span of n elements of size bytes, inc elements apart.
type strided struct {
	mem  []byte
	size int64
	inc  int64
}

func (s strided) elem(i int64) []byte {
	off := i * s.inc * s.size
	return s.mem[off : off+s.size]
}

func hostSpan(p unsafe.Pointer, bytes int64) []byte {
	if bytes == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), bytes)
}

func copyStrided(dst, src strided, n int64) {
	if dst.inc == 1 && src.inc == 1 {
		copy(dst.mem, src.mem[:n*src.size])
		return
	}
	for i := int64(0); i < n; i++ {
		copy(dst.elem(i), src.elem(i))
	}
}

func copyTile(dst []byte, ldd int64, src []byte, lds int64, rows, cols, size int64) {
	for j := int64(0); j < cols; j++ {
		copy(dst[j*ldd*size:(j*ldd+rows)*size], src[j*lds*size:(j*lds+rows)*size])
	}
}

type vectorCopy struct {
	dst, src strided
	n        int64
}

func (r *Runtime) planVector(n int64, elemSize int, host unsafe.Pointer, hinc int64, dev native.DevicePtr, dinc int64, toDevice bool) (vectorCopy, native.Status) {
	size := int64(elemSize)
	if n < 0 || size <= 0 || hinc <= 0 || dinc <= 0 {
		return vectorCopy{}, native.StatusInvalidValue
	}
	if n == 0 {
		return vectorCopy{}, native.StatusSuccess
	}
	hbytes, dbytes := extent(n, hinc, 1, size), extent(n, dinc, 1, size)
	if host == nil || hbytes < 0 || dbytes < 0 {
		return vectorCopy{}, native.StatusInvalidValue
	}
	d, ok := r.mem.resolve(dev, dbytes)
	if !ok {
		return vectorCopy{}, native.StatusMappingError
	}
	h := strided{mem: hostSpan(host, hbytes), size: size, inc: hinc}
	ds := strided{mem: d, size: size, inc: dinc}
	if toDevice {
		return vectorCopy{dst: ds, src: h, n: n}, native.StatusSuccess
	}
	return vectorCopy{dst: h, src: ds, n: n}, native.StatusSuccess
}

type tileCopy struct {
	dst, src   []byte
	ldd, lds   int64
	rows, cols int64
	size       int64
}

func (t tileCopy) run() {
	if t.rows > 0 && t.cols > 0 {
		copyTile(t.dst, t.ldd, t.src, t.lds, t.rows, t.cols, t.size)
	}
}

func (r *Runtime) planMatrix(rows, cols int64, elemSize int, host unsafe.Pointer, ldh int64, dev native.DevicePtr, ldd int64, toDevice bool) (tileCopy, native.Status) {
	size := int64(elemSize)
	if rows < 0 || cols < 0 || size <= 0 || ldh < max(1, rows) || ldd < max(1, rows) {
		return tileCopy{}, native.StatusInvalidValue
	}
	if rows == 0 || cols == 0 {
		return tileCopy{}, native.StatusSuccess
	}
	hbytes, dbytes := extent(cols, ldh, rows, size), extent(cols, ldd, rows, size)
	if host == nil || hbytes < 0 || dbytes < 0 {
		return tileCopy{}, native.StatusInvalidValue
	}
	d, ok := r.mem.resolve(dev, dbytes)
	if !ok {
		return tileCopy{}, native.StatusMappingError
	}
	h := hostSpan(host, hbytes)
	if toDevice {
		return tileCopy{dst: d, ldd: ldd, src: h, lds: ldh, rows: rows, cols: cols, size: size}, native.StatusSuccess
	}
	return tileCopy{dst: h, ldd: ldh, src: d, lds: ldd, rows: rows, cols: cols, size: size}, native.StatusSuccess
}

// Blocking transfers order themselves after all outstanding device work.

func (r *Runtime) SetVector(n int64, elemSize int, x unsafe.Pointer, incx int64, y native.DevicePtr, incy int64) native.Status {
	return r.vectorSync(native.SymSetVector, n, elemSize, x, incx, y, incy, true)
}

func (r *Runtime) GetVector(n int64, elemSize int, x native.DevicePtr, incx int64, y unsafe.Pointer, incy int64) native.Status {
	return r.vectorSync(native.SymGetVector, n, elemSize, y, incy, x, incx, false)
}

func (r *Runtime) vectorSync(symbol string, n int64, elemSize int, host unsafe.Pointer, hinc int64, dev native.DevicePtr, dinc int64, toDevice bool) native.Status {
	if st, ok := r.fault(symbol); ok {
		return st
	}
	plan, st := r.planVector(n, elemSize, host, hinc, dev, dinc, toDevice)
	if st != native.StatusSuccess || plan.n == 0 {
		return st
	}
	r.drainAll()
	copyStrided(plan.dst, plan.src, plan.n)
	return native.StatusSuccess
}

func (r *Runtime) SetMatrix(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b native.DevicePtr, ldb int64) native.Status {
	return r.matrixSync(native.SymSetMatrix, rows, cols, elemSize, a, lda, b, ldb, true)
}

func (r *Runtime) GetMatrix(rows, cols int64, elemSize int, a native.DevicePtr, lda int64, b unsafe.Pointer, ldb int64) native.Status {
	return r.matrixSync(native.SymGetMatrix, rows, cols, elemSize, b, ldb, a, lda, false)
}

func (r *Runtime) matrixSync(symbol string, rows, cols int64, elemSize int, host unsafe.Pointer, ldh int64, dev native.DevicePtr, ldd int64, toDevice bool) native.Status {
	if st, ok := r.fault(symbol); ok {
		return st
	}
	plan, st := r.planMatrix(rows, cols, elemSize, host, ldh, dev, ldd, toDevice)
	if st != native.StatusSuccess {
		return st
	}
	r.drainAll()
	plan.run()
	return native.StatusSuccess
}

// Async transfers are queued on s and touch host memory only when they run.

func (r *Runtime) SetVectorAsync(n int64, elemSize int, x unsafe.Pointer, incx int64, y native.DevicePtr, incy int64, s native.Stream) native.Status {
	return r.vectorAsync(native.SymSetVectorAsync, n, elemSize, x, incx, y, incy, true, s)
}

func (r *Runtime) GetVectorAsync(n int64, elemSize int, x native.DevicePtr, incx int64, y unsafe.Pointer, incy int64, s native.Stream) native.Status {
	return r.vectorAsync(native.SymGetVectorAsync, n, elemSize, y, incy, x, incx, false, s)
}

func (r *Runtime) vectorAsync(symbol string, n int64, elemSize int, host unsafe.Pointer, hinc int64, dev native.DevicePtr, dinc int64, toDevice bool, s native.Stream) native.Status {
	if st, ok := r.fault(symbol); ok {
		return st
	}
	plan, st := r.planVector(n, elemSize, host, hinc, dev, dinc, toDevice)
	if st != native.StatusSuccess {
		return st
	}
	str, ok := r.stream(s)
	if !ok {
		return native.StatusMappingError
	}
	if plan.n == 0 {
		return native.StatusSuccess
	}
	if err := str.enqueue(func() error {
		copyStrided(plan.dst, plan.src, plan.n)
		return nil
	}); err != nil {
		return native.StatusMappingError
	}
	return native.StatusSuccess
}

func (r *Runtime) SetMatrixAsync(rows, cols int64, elemSize int, a unsafe.Pointer, lda int64, b native.DevicePtr, ldb int64, s native.Stream) native.Status {
	return r.matrixAsync(native.SymSetMatrixAsync, rows, cols, elemSize, a, lda, b, ldb, true, s)
}

func (r *Runtime) GetMatrixAsync(rows, cols int64, elemSize int, a native.DevicePtr, lda int64, b unsafe.Pointer, ldb int64, s native.Stream) native.Status {
	return r.matrixAsync(native.SymGetMatrixAsync, rows, cols, elemSize, b, ldb, a, lda, false, s)
}

func (r *Runtime) matrixAsync(symbol string, rows, cols int64, elemSize int, host unsafe.Pointer, ldh int64, dev native.DevicePtr, ldd int64, toDevice bool, s native.Stream) native.Status {
	if st, ok := r.fault(symbol); ok {
		return st
	}
	plan, st := r.planMatrix(rows, cols, elemSize, host, ldh, dev, ldd, toDevice)
	if st != native.StatusSuccess {
		return st
	}
	str, ok := r.stream(s)
	if !ok {
		return native.StatusMappingError
	}
	if err := str.enqueue(func() error {
		plan.run()
		return nil
	}); err != nil {
		return native.StatusMappingError
	}
	return native.StatusSuccess
}

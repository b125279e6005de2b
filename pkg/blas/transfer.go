package blas

import (
	"math"
	"runtime"
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// Transfers copy strided vectors and column-major tiles between Go slices
// and device buffers. Arguments are checked before any native call; a
// rejected transfer has no effect. Native failures report TransferFailure.
//
// Blocking transfers return after the copy completes. Async transfers are
// ordered on their stream and return once issued: the host slice must stay
// alive and unmodified until the stream is synchronized.

// maxTransferDim bounds counts, strides and leading dimensions: the native
// transfer entry points take 32-bit ints.
const maxTransferDim = math.MaxInt32

// footprint is the number of elements a strided vector spans, false when
// that number does not fit in an int.
func footprint(n, inc int) (int, bool) {
	return tileFootprint(1, n, inc)
}

// tileFootprint is the number of elements a column-major tile spans, false
// when that number does not fit in an int.
func tileFootprint(rows, cols, ld int) (int, bool) {
	if rows == 0 || cols == 0 {
		return 0, true
	}
	if cols > 1 && ld > (math.MaxInt-rows)/(cols-1) {
		return 0, false
	}
	return (cols-1)*ld + rows, true
}

// spanBytes is the byte length of elems elements of T, false on int64 overflow.
func spanBytes[T Storable](elems int) (int64, bool) {
	size := int64(sizeOf[T]())
	if int64(elems) > math.MaxInt64/size {
		return 0, false
	}
	return int64(elems) * size, true
}

// fitSpans checks both sides of a transfer against their lengths and returns
// the byte length of the host side.
func fitSpans[T Storable](op string, host []T, hostNeed int, hostOK bool, dev *DeviceBuffer[T], devNeed int, devOK bool) (int64, error) {
	hostBytes, ok := spanBytes[T](hostNeed)
	if !hostOK || !ok {
		return 0, invalidArg(op, "host extent overflows the address space")
	}
	if _, ok := spanBytes[T](devNeed); !devOK || !ok {
		return 0, invalidArg(op, "device extent overflows the address space")
	}
	if len(host) < hostNeed {
		return 0, invalidArg(op, "host slice holds %d elements, need %d", len(host), hostNeed)
	}
	if dev.Len() < devNeed {
		return 0, invalidArg(op, "device buffer holds %d elements, need %d", dev.Len(), devNeed)
	}
	return hostBytes, nil
}

func hostPtr[T Storable](s []T) unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(s))
}

// pinned holds host memory in place for the duration of a native crossing.
type pinned struct {
	d          *Device
	pinner     runtime.Pinner
	p          unsafe.Pointer
	registered bool
}

// pin pins p for the Go runtime and page-locks it for the native one. A range
// the native runtime reports as already registered belongs to its owner and is
// left registered.
func (d *Device) pin(p unsafe.Pointer, bytes int64) *pinned {
	pn := &pinned{d: d, p: p}
	pn.pinner.Pin(p)
	ok, err := d.rt.HostRegister(p, bytes)
	if err != nil {
		d.log.Debug("host register failed, using pageable memory", "error", err)
	}
	pn.registered = ok
	return pn
}

func (pn *pinned) release() {
	if pn.registered {
		if err := pn.d.rt.HostUnregister(pn.p); err != nil {
			pn.d.log.Debug("host unregister failed", "error", err)
		}
	}
	pn.pinner.Unpin()
}

// checkVector validates a vector transfer and returns the device address
// and the byte length of the host span.
func checkVector[T Storable](op string, d *Device, n int, host []T, hostInc int, dev *DeviceBuffer[T], devInc int) (native.DevicePtr, int64, error) {
	if err := d.live(op); err != nil {
		return 0, 0, err
	}
	if n < 0 {
		return 0, 0, invalidArg(op, "negative element count %d", n)
	}
	if hostInc <= 0 || devInc <= 0 {
		return 0, 0, invalidArg(op, "strides must be positive, got host %d device %d", hostInc, devInc)
	}
	if n > maxTransferDim || hostInc > maxTransferDim || devInc > maxTransferDim {
		return 0, 0, invalidArg(op, "count %d or strides host %d device %d exceed %d", n, hostInc, devInc, maxTransferDim)
	}
	p, err := dev.arg(op, "device buffer")
	if err != nil {
		return 0, 0, err
	}
	hostNeed, hostOK := footprint(n, hostInc)
	devNeed, devOK := footprint(n, devInc)
	hostBytes, err := fitSpans(op, host, hostNeed, hostOK, dev, devNeed, devOK)
	if err != nil {
		return 0, 0, err
	}
	return p, hostBytes, nil
}

// checkTile is checkVector for column-major tiles.
func checkTile[T Storable](op string, d *Device, rows, cols int, host []T, hostLd int, dev *DeviceBuffer[T], devLd int) (native.DevicePtr, int64, error) {
	if err := d.live(op); err != nil {
		return 0, 0, err
	}
	if rows < 0 || cols < 0 {
		return 0, 0, invalidArg(op, "negative shape %dx%d", rows, cols)
	}
	if minLd := max(1, rows); hostLd < minLd || devLd < minLd {
		return 0, 0, invalidArg(op, "leading dimensions must be >= %d, got host %d device %d", minLd, hostLd, devLd)
	}
	if cols > maxTransferDim || hostLd > maxTransferDim || devLd > maxTransferDim {
		return 0, 0, invalidArg(op, "shape %dx%d or leading dimensions host %d device %d exceed %d", rows, cols, hostLd, devLd, maxTransferDim)
	}
	p, err := dev.arg(op, "device buffer")
	if err != nil {
		return 0, 0, err
	}
	hostNeed, hostOK := tileFootprint(rows, cols, hostLd)
	devNeed, devOK := tileFootprint(rows, cols, devLd)
	hostBytes, err := fitSpans(op, host, hostNeed, hostOK, dev, devNeed, devOK)
	if err != nil {
		return 0, 0, err
	}
	return p, hostBytes, nil
}

func checkStream(op string, d *Device, s Stream) error {
	if s.d != nil && s.d != d {
		return invalidArg(op, "stream belongs to another device")
	}
	return nil
}

// SetVector copies n elements from src (stride incx) to dst (stride incy).
func SetVector[T Storable](d *Device, n int, src []T, incx int, dst *DeviceBuffer[T], incy int) error {
	const op = native.SymSetVector
	y, span, err := checkVector(op, d, n, src, incx, dst, incy)
	if err != nil || n == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(src), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.SetVector(int64(n), size, hostPtr(src), int64(incx), y, int64(incy)))
}

// GetVector copies n elements from src (stride incx) to dst (stride incy).
func GetVector[T Storable](d *Device, n int, src *DeviceBuffer[T], incx int, dst []T, incy int) error {
	const op = native.SymGetVector
	x, span, err := checkVector(op, d, n, dst, incy, src, incx)
	if err != nil || n == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(dst), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.GetVector(int64(n), size, x, int64(incx), hostPtr(dst), int64(incy)))
}

// SetMatrix copies a rows x cols column-major tile from src (leading
// dimension lda) to dst (leading dimension ldb).
func SetMatrix[T Storable](d *Device, rows, cols int, src []T, lda int, dst *DeviceBuffer[T], ldb int) error {
	const op = native.SymSetMatrix
	b, span, err := checkTile(op, d, rows, cols, src, lda, dst, ldb)
	if err != nil || rows == 0 || cols == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(src), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.SetMatrix(int64(rows), int64(cols), size, hostPtr(src), int64(lda), b, int64(ldb)))
}

// GetMatrix copies a rows x cols column-major tile from src (leading
// dimension lda) to dst (leading dimension ldb).
func GetMatrix[T Storable](d *Device, rows, cols int, src *DeviceBuffer[T], lda int, dst []T, ldb int) error {
	const op = native.SymGetMatrix
	a, span, err := checkTile(op, d, rows, cols, dst, ldb, src, lda)
	if err != nil || rows == 0 || cols == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(dst), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.GetMatrix(int64(rows), int64(cols), size, a, int64(lda), hostPtr(dst), int64(ldb)))
}

// SetVectorAsync is SetVector ordered on s.
func SetVectorAsync[T Storable](d *Device, n int, src []T, incx int, dst *DeviceBuffer[T], incy int, s Stream) error {
	const op = native.SymSetVectorAsync
	y, span, err := checkVector(op, d, n, src, incx, dst, incy)
	if err == nil {
		err = checkStream(op, d, s)
	}
	if err != nil || n == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(src), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.SetVectorAsync(int64(n), size, hostPtr(src), int64(incx), y, int64(incy), s.id))
}

// GetVectorAsync is GetVector ordered on s. dst is filled once s is synchronized.
func GetVectorAsync[T Storable](d *Device, n int, src *DeviceBuffer[T], incx int, dst []T, incy int, s Stream) error {
	const op = native.SymGetVectorAsync
	x, span, err := checkVector(op, d, n, dst, incy, src, incx)
	if err == nil {
		err = checkStream(op, d, s)
	}
	if err != nil || n == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(dst), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.GetVectorAsync(int64(n), size, x, int64(incx), hostPtr(dst), int64(incy), s.id))
}

// SetMatrixAsync is SetMatrix ordered on s.
func SetMatrixAsync[T Storable](d *Device, rows, cols int, src []T, lda int, dst *DeviceBuffer[T], ldb int, s Stream) error {
	const op = native.SymSetMatrixAsync
	b, span, err := checkTile(op, d, rows, cols, src, lda, dst, ldb)
	if err == nil {
		err = checkStream(op, d, s)
	}
	if err != nil || rows == 0 || cols == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(src), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.SetMatrixAsync(int64(rows), int64(cols), size, hostPtr(src), int64(lda), b, int64(ldb), s.id))
}

// GetMatrixAsync is GetMatrix ordered on s. dst is filled once s is synchronized.
func GetMatrixAsync[T Storable](d *Device, rows, cols int, src *DeviceBuffer[T], lda int, dst []T, ldb int, s Stream) error {
	const op = native.SymGetMatrixAsync
	a, span, err := checkTile(op, d, rows, cols, dst, ldb, src, lda)
	if err == nil {
		err = checkStream(op, d, s)
	}
	if err != nil || rows == 0 || cols == 0 {
		return err
	}
	size := sizeOf[T]()
	pn := d.pin(hostPtr(dst), span)
	defer pn.release()
	return d.check(crossTransfer, op, "", d.rt.GetMatrixAsync(int64(rows), int64(cols), size, a, int64(lda), hostPtr(dst), int64(ldb), s.id))
}

// CopyDevice copies the first n elements of src to dst, ordered on s.
func CopyDevice[T Storable](d *Device, dst, src *DeviceBuffer[T], n int, s Stream) error {
	const op = "cudaMemcpyAsync"
	if err := d.live(op); err != nil {
		return err
	}
	if err := checkStream(op, d, s); err != nil {
		return err
	}
	if n < 0 {
		return invalidArg(op, "negative element count %d", n)
	}
	dp, err := dst.arg(op, "dst")
	if err != nil {
		return err
	}
	sp, err := src.arg(op, "src")
	if err != nil {
		return err
	}
	if n > dst.Len() || n > src.Len() {
		return invalidArg(op, "copy of %d elements exceeds dst %d or src %d", n, dst.Len(), src.Len())
	}
	if n == 0 {
		return nil
	}
	if err := d.rt.MemcpyDeviceToDevice(dp, sp, int64(n)*int64(sizeOf[T]()), s.id); err != nil {
		return &Error{Kind: TransferFailure, Op: op, Err: err}
	}
	return nil
}

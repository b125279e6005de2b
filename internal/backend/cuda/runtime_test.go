//go:build cuda

package cuda

import (
	"testing"
	"unsafe"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

const f32Size = int64(unsafe.Sizeof(float32(0)))

func newTestRuntime(t *testing.T) (*Runtime, native.Handle) {
	t.Helper()
	count, err := deviceCount()
	if err != nil || count < 1 {
		t.Skip("no cuda device available")
	}
	rt, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, st := rt.Create()
	if st != native.StatusSuccess {
		t.Fatalf("Create: %v", st)
	}
	t.Cleanup(func() {
		if st := rt.Destroy(h); st != native.StatusSuccess {
			t.Fatalf("Destroy: %v", st)
		}
	})
	return rt, h
}

func allocPinnedF32(t *testing.T, rt *Runtime, n int) []float32 {
	t.Helper()
	p, err := rt.MallocHost(int64(n) * f32Size)
	if err != nil {
		t.Fatalf("MallocHost: %v", err)
	}
	t.Cleanup(func() {
		if err := rt.FreeHost(p); err != nil {
			t.Fatalf("FreeHost: %v", err)
		}
	})
	return unsafe.Slice((*float32)(p), n)
}

func allocDevice(t *testing.T, rt *Runtime, bytes int64) native.DevicePtr {
	t.Helper()
	p, err := rt.Malloc(bytes)
	if err != nil {
		t.Fatalf("Malloc: %v", err)
	}
	t.Cleanup(func() {
		if err := rt.Free(p); err != nil {
			t.Fatalf("Free: %v", err)
		}
	})
	return p
}

func TestPinnedAsyncVectorRoundTrip(t *testing.T) {
	rt, _ := newTestRuntime(t)
	stream, err := rt.NewStream()
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer func() {
		if err := rt.DestroyStream(stream); err != nil {
			t.Fatalf("stream destroy: %v", err)
		}
	}()

	const n = 256
	in := allocPinnedF32(t, rt, n)
	out := allocPinnedF32(t, rt, n)
	for i := range in {
		in[i] = float32(i) * 1.25
		out[i] = 0
	}
	dev := allocDevice(t, rt, n*f32Size)

	if st := rt.SetVectorAsync(n, int(f32Size), unsafe.Pointer(&in[0]), 1, dev, 1, stream); st != native.StatusSuccess {
		t.Fatalf("SetVectorAsync: %v", st)
	}
	if st := rt.GetVectorAsync(n, int(f32Size), dev, 1, unsafe.Pointer(&out[0]), 1, stream); st != native.StatusSuccess {
		t.Fatalf("GetVectorAsync: %v", st)
	}
	if err := rt.SyncStream(stream); err != nil {
		t.Fatalf("stream synchronize: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("mismatch at %d: got %v want %v", i, out[i], in[i])
		}
	}
}

func TestHostRegisterTwice(t *testing.T) {
	rt, _ := newTestRuntime(t)
	buf := make([]float32, 1024)
	p := unsafe.Pointer(&buf[0])
	ok, err := rt.HostRegister(p, int64(len(buf))*f32Size)
	if err != nil || !ok {
		t.Fatalf("HostRegister: ok=%v err=%v", ok, err)
	}
	ok, err = rt.HostRegister(p, int64(len(buf))*f32Size)
	if err != nil || ok {
		t.Fatalf("second HostRegister: ok=%v err=%v", ok, err)
	}
	if err := rt.HostUnregister(p); err != nil {
		t.Fatalf("HostUnregister: %v", err)
	}
}

func TestGemmF32(t *testing.T) {
	rt, h := newTestRuntime(t)

	const (
		m = 2
		n = 3
		k = 4
	)
	a := make([]float32, m*k)
	b := make([]float32, k*n)
	c := make([]float32, m*n)
	ref := make([]float32, m*n)
	fillColMajor(a, m, k, 0.5)
	fillColMajor(b, k, n, -0.25)
	refGemmColMajor(ref, a, b, m, n, k)

	aDev := allocDevice(t, rt, int64(len(a))*f32Size)
	bDev := allocDevice(t, rt, int64(len(b))*f32Size)
	cDev := allocDevice(t, rt, int64(len(c))*f32Size)
	if st := rt.SetMatrix(m, k, int(f32Size), unsafe.Pointer(&a[0]), m, aDev, m); st != native.StatusSuccess {
		t.Fatalf("SetMatrix A: %v", st)
	}
	if st := rt.SetMatrix(k, n, int(f32Size), unsafe.Pointer(&b[0]), k, bDev, k); st != native.StatusSuccess {
		t.Fatalf("SetMatrix B: %v", st)
	}

	alpha, beta := float32(1), float32(0)
	r := native.Routine{Family: native.Gemm, Type: native.Float32, Index: native.Index32}
	st := rt.Gemm(h, r, native.OpN, native.OpN, m, n, k, native.Scalar{Host: unsafe.Pointer(&alpha)}, aDev, m, bDev, k, native.Scalar{Host: unsafe.Pointer(&beta)}, cDev, m)
	if st != native.StatusSuccess {
		t.Fatalf("Gemm: %v", st)
	}
	if st := rt.GetMatrix(m, n, int(f32Size), cDev, m, unsafe.Pointer(&c[0]), m); st != native.StatusSuccess {
		t.Fatalf("GetMatrix C: %v", st)
	}
	for i := range ref {
		if !approxEqual(ref[i], c[i], 1e-4) {
			t.Fatalf("gemm mismatch at %d: got %v want %v", i, c[i], ref[i])
		}
	}
}

func TestGemvF32(t *testing.T) {
	rt, h := newTestRuntime(t)

	const (
		m = 4
		n = 3
	)
	a := make([]float32, m*n)
	x := make([]float32, n)
	y := make([]float32, m)
	ref := make([]float32, m)
	fillColMajor(a, m, n, 1.0)
	for i := range x {
		x[i] = float32(i) * -0.5
	}
	refGemvColMajor(ref, a, x, m, n)

	aDev := allocDevice(t, rt, int64(len(a))*f32Size)
	xDev := allocDevice(t, rt, int64(len(x))*f32Size)
	yDev := allocDevice(t, rt, int64(len(y))*f32Size)
	if st := rt.SetVector(m*n, int(f32Size), unsafe.Pointer(&a[0]), 1, aDev, 1); st != native.StatusSuccess {
		t.Fatalf("SetVector A: %v", st)
	}
	if st := rt.SetVector(n, int(f32Size), unsafe.Pointer(&x[0]), 1, xDev, 1); st != native.StatusSuccess {
		t.Fatalf("SetVector X: %v", st)
	}

	alpha, beta := float32(1), float32(0)
	r := native.Routine{Family: native.Gemv, Type: native.Float32, Index: native.Index32}
	st := rt.Gemv(h, r, native.OpN, m, n, native.Scalar{Host: unsafe.Pointer(&alpha)}, aDev, m, xDev, 1, native.Scalar{Host: unsafe.Pointer(&beta)}, yDev, 1)
	if st != native.StatusSuccess {
		t.Fatalf("Gemv: %v", st)
	}
	if st := rt.GetVector(m, int(f32Size), yDev, 1, unsafe.Pointer(&y[0]), 1); st != native.StatusSuccess {
		t.Fatalf("GetVector Y: %v", st)
	}
	for i := range ref {
		if !approxEqual(ref[i], y[i], 1e-4) {
			t.Fatalf("gemv mismatch at %d: got %v want %v", i, y[i], ref[i])
		}
	}
}

func TestEntryRejectsMissingCombination(t *testing.T) {
	rt, _ := newTestRuntime(t)
	r := native.Routine{Family: native.GetrfBatched, Type: native.Float32, Index: native.Index64}
	if _, st := rt.entry(r, native.GetrfBatched); st != native.StatusNotSupported {
		t.Fatalf("entry: got %v want %v", st, native.StatusNotSupported)
	}
	r.Index = native.Index32
	if _, st := rt.entry(r, native.GetrfBatched); st != native.StatusSuccess {
		t.Fatalf("entry %s: %v", r, st)
	}
}

func fillColMajor(dst []float32, rows, cols int, scale float32) {
	idx := 0
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			dst[idx] = (float32(r+1) + float32(c+1)) * scale
			idx++
		}
	}
}

func refGemmColMajor(dst, a, b []float32, m, n, k int) {
	for col := 0; col < n; col++ {
		for row := 0; row < m; row++ {
			var sum float32
			for i := 0; i < k; i++ {
				sum += a[row+i*m] * b[i+col*k]
			}
			dst[row+col*m] = sum
		}
	}
}

func refGemvColMajor(dst, a, x []float32, m, n int) {
	for row := 0; row < m; row++ {
		var sum float32
		for col := 0; col < n; col++ {
			sum += a[row+col*m] * x[col]
		}
		dst[row] = sum
	}
}

func approxEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= eps
}

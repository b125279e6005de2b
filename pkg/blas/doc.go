// Package blas is a resource-safe binding to a device BLAS runtime.
//
// A Device is an opened runtime. Handles created from it carry the per-context
// settings (stream, pointer mode, math mode) and are passed to every routine.
// Data lives in DeviceBuffers and moves through SetVector, GetMatrix and
// their async variants. Routines are generic over the element type T and the
// index width I; int64 indices select the 64-bit native entry points:
//
//	dev, err := blas.Open(blas.Options{})
//	h, err := dev.NewHandle()
//	defer h.Release()
//	err = blas.Gemm[int32](h, blas.NoTrans, blas.NoTrans, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
//
// Every failure is an *Error whose Kind classifies it; use errors.Is with
// the Err* sentinels or IsKind.
package blas

package blas

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code native.Status
		want ErrorKind
	}{
		{native.StatusSuccess, Success},
		{native.StatusNotInitialized, InitializationFailure},
		{native.StatusAllocFailed, InitializationFailure},
		{native.StatusLicenseError, InitializationFailure},
		{native.StatusInvalidValue, InvalidArgument},
		{native.StatusArchMismatch, ConfigurationFailure},
		{native.StatusNotSupported, ConfigurationFailure},
		{native.StatusMappingError, TransferFailure},
		{native.StatusExecutionFailed, ComputeFailure},
		{native.StatusInternalError, ComputeFailure},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Translate(tc.code), "%s", tc.code)
	}
}

func TestTranslateIsTotal(t *testing.T) {
	t.Parallel()

	known := make(map[native.Status]bool)
	for _, st := range native.KnownStatuses {
		known[st] = true
		assert.NotEqual(t, UnknownFailure, Translate(st), "%s", st)
	}
	for code := native.Status(-4); code < 64; code++ {
		if known[code] {
			continue
		}
		assert.Equal(t, UnknownFailure, Translate(code), "code %d", int(code))
	}
}

func TestCrossingKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Success, crossInit.kind(native.StatusSuccess))
	assert.Equal(t, InitializationFailure, crossInit.kind(native.StatusInvalidValue))
	assert.Equal(t, ConfigurationFailure, crossConfig.kind(native.StatusInvalidValue))
	assert.Equal(t, TransferFailure, crossTransfer.kind(native.StatusInvalidValue))
	assert.Equal(t, InvalidArgument, crossCompute.kind(native.StatusInvalidValue))
	assert.Equal(t, ComputeFailure, crossCompute.kind(native.StatusExecutionFailed))
	for _, c := range []crossing{crossInit, crossConfig, crossTransfer, crossCompute} {
		assert.Equal(t, UnknownFailure, c.kind(native.Status(42)))
	}
}

func TestErrorMatching(t *testing.T) {
	t.Parallel()

	var err error = &Error{Kind: TransferFailure, Op: native.SymSetVector, Status: native.StatusMappingError}
	wrapped := fmt.Errorf("upload weights: %w", err)

	assert.ErrorIs(t, wrapped, ErrTransferFailure)
	assert.NotErrorIs(t, wrapped, ErrComputeFailure)
	assert.True(t, IsKind(wrapped, TransferFailure))
	assert.Equal(t, TransferFailure, KindOf(wrapped))
	st, ok := StatusOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, native.StatusMappingError, st)
	assert.Equal(t, "blas: cublasSetVector: transfer failure (CUBLAS_STATUS_MAPPING_ERROR)", err.Error())

	assert.Equal(t, Success, KindOf(nil))
	assert.Equal(t, UnknownFailure, KindOf(errors.New("elsewhere")))
	_, ok = StatusOf(invalidArg("Alloc", "bad"))
	assert.False(t, ok)

	cause := errors.New("driver gone")
	e := &Error{Kind: ComputeFailure, Op: "cudaStreamSynchronize", Err: cause}
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "blas: cudaStreamSynchronize: compute failure: driver gone", e.Error())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
}

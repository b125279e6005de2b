package blas

import (
	"log/slog"

	"github.com/samcharles93/blasgo/internal/backend/native"
	"github.com/samcharles93/blasgo/internal/logger"
)

// Translate maps a native status to its error kind. It is total: codes the
// native library does not define map to UnknownFailure.
//
// A routine the native library rejects with INVALID_VALUE reports
// InvalidArgument, as do arguments rejected before any native call. The two
// are told apart by StatusOf: only the former carries a native status.
func Translate(code native.Status) ErrorKind {
	switch code {
	case native.StatusSuccess:
		return Success
	case native.StatusNotInitialized, native.StatusAllocFailed, native.StatusLicenseError:
		return InitializationFailure
	case native.StatusInvalidValue:
		return InvalidArgument
	case native.StatusArchMismatch, native.StatusNotSupported:
		return ConfigurationFailure
	case native.StatusMappingError:
		return TransferFailure
	case native.StatusExecutionFailed, native.StatusInternalError:
		return ComputeFailure
	default:
		return UnknownFailure
	}
}

// crossing is the class of a native call site.
type crossing int

const (
	crossInit crossing = iota
	crossConfig
	crossTransfer
	crossCompute
)

// kind reports the error kind of a failed call of class c. Lifecycle, setter
// and transfer sites report their own class; compute sites report the
// translated kind. An unmapped code is always UnknownFailure.
func (c crossing) kind(code native.Status) ErrorKind {
	k := Translate(code)
	if k == Success || k == UnknownFailure {
		return k
	}
	switch c {
	case crossInit:
		return InitializationFailure
	case crossConfig:
		return ConfigurationFailure
	case crossTransfer:
		return TransferFailure
	default:
		return k
	}
}

// check records one native call and converts its status into an error.
func (d *Device) check(c crossing, op string, handle string, code native.Status) error {
	if d.log.Enabled(slog.LevelDebug) {
		args := []any{"op", op, logger.StatusKey, code.String()}
		if handle != "" {
			args = append(args, "handle", handle)
		}
		d.log.Debug("native call", args...)
	}
	kind := c.kind(code)
	if kind == Success {
		return nil
	}
	return &Error{Kind: kind, Op: op, Status: code}
}

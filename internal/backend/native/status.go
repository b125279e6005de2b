package native

import "fmt"

// Status is the integer status code returned by every BLAS entry point.
// Values match cublasStatus_t.
type Status int

const (
	StatusSuccess         Status = 0
	StatusNotInitialized  Status = 1
	StatusAllocFailed     Status = 3
	StatusInvalidValue    Status = 7
	StatusArchMismatch    Status = 8
	StatusMappingError    Status = 11
	StatusExecutionFailed Status = 13
	StatusInternalError   Status = 14
	StatusNotSupported    Status = 15
	StatusLicenseError    Status = 16
)

// KnownStatuses lists every status constant defined by the native runtime.
var KnownStatuses = []Status{
	StatusSuccess,
	StatusNotInitialized,
	StatusAllocFailed,
	StatusInvalidValue,
	StatusArchMismatch,
	StatusMappingError,
	StatusExecutionFailed,
	StatusInternalError,
	StatusNotSupported,
	StatusLicenseError,
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "CUBLAS_STATUS_SUCCESS"
	case StatusNotInitialized:
		return "CUBLAS_STATUS_NOT_INITIALIZED"
	case StatusAllocFailed:
		return "CUBLAS_STATUS_ALLOC_FAILED"
	case StatusInvalidValue:
		return "CUBLAS_STATUS_INVALID_VALUE"
	case StatusArchMismatch:
		return "CUBLAS_STATUS_ARCH_MISMATCH"
	case StatusMappingError:
		return "CUBLAS_STATUS_MAPPING_ERROR"
	case StatusExecutionFailed:
		return "CUBLAS_STATUS_EXECUTION_FAILED"
	case StatusInternalError:
		return "CUBLAS_STATUS_INTERNAL_ERROR"
	case StatusNotSupported:
		return "CUBLAS_STATUS_NOT_SUPPORTED"
	case StatusLicenseError:
		return "CUBLAS_STATUS_LICENSE_ERROR"
	default:
		return fmt.Sprintf("CUBLAS_STATUS_UNKNOWN(%d)", int(s))
	}
}

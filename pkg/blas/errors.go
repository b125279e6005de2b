package blas

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/samcharles93/blasgo/internal/backend/native"
)

// ErrorKind classifies a failure.
type ErrorKind int

const (
	Success ErrorKind = iota
	InitializationFailure
	ConfigurationFailure
	InvalidArgument
	TransferFailure
	ComputeFailure
	UnknownFailure
)

var kindNames = [...]string{
	Success:               "success",
	InitializationFailure: "initialization failure",
	ConfigurationFailure:  "configuration failure",
	InvalidArgument:       "invalid argument",
	TransferFailure:       "transfer failure",
	ComputeFailure:        "compute failure",
	UnknownFailure:        "unknown failure",
}

func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return kindNames[k]
}

// kindSentinel matches any *Error of the same kind under errors.Is.
type kindSentinel ErrorKind

func (k kindSentinel) Error() string { return "blas: " + ErrorKind(k).String() }

// Sentinels for errors.Is.
var (
	ErrInitializationFailure error = kindSentinel(InitializationFailure)
	ErrConfigurationFailure  error = kindSentinel(ConfigurationFailure)
	ErrInvalidArgument       error = kindSentinel(InvalidArgument)
	ErrTransferFailure       error = kindSentinel(TransferFailure)
	ErrComputeFailure        error = kindSentinel(ComputeFailure)
	ErrUnknownFailure        error = kindSentinel(UnknownFailure)
)

// Error is returned by every failing operation. Op names the native entry
// point, or the operation that rejected its arguments before reaching it.
// Status is the raw native code and is StatusSuccess for local failures.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  native.Status
	Message string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("blas: ")
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Status != native.StatusSuccess {
		fmt.Fprintf(&sb, " (%s)", e.Status)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && ErrorKind(k) == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, Success for a
// nil error and UnknownFailure for errors from outside this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownFailure
}

// IsKind reports whether err carries kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the native status carried by err.
func StatusOf(err error) (native.Status, bool) {
	var e *Error
	if errors.As(err, &e) && e.Status != native.StatusSuccess {
		return e.Status, true
	}
	return native.StatusSuccess, false
}

func invalidArg(op, format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Op: op, Message: fmt.Sprintf(format, args...)}
}

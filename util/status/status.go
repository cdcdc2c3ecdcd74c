package status

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"runtime"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LogErrorStackTraces controls whether newly created errors capture a stack
// trace. It is bound to a command line flag by the binary.
var LogErrorStackTraces bool

const stackDepth = 10

type wrappedError struct {
	error
	*stack
}

func (w *wrappedError) GRPCStatus() *status.Status {
	if se, ok := w.error.(interface {
		GRPCStatus() *status.Status
	}); ok {
		return se.GRPCStatus()
	}
	return status.New(codes.Unknown, "")
}

func (w *wrappedError) Unwrap() error {
	return w.error
}

type StackTrace = errors.StackTrace
type stack []uintptr

func (s *stack) StackTrace() StackTrace {
	f := make([]errors.Frame, len(*s))
	for i := 0; i < len(f); i++ {
		f[i] = errors.Frame((*s)[i])
	}
	return f
}

func callers() *stack {
	var pcs [stackDepth]uintptr
	n := runtime.Callers(3, pcs[:])
	var st stack = pcs[0:n]
	return &st
}

// statusError pairs an error with a gRPC status code while preserving the
// underlying error for errors.Is() checks.
type statusError struct {
	code codes.Code
	err  error
}

func (e *statusError) Error() string {
	return e.GRPCStatus().String()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) GRPCStatus() *status.Status {
	return status.New(e.code, e.err.Error())
}

func makeStatusError(code codes.Code, err error) error {
	statusErr := &statusError{
		code: code,
		err:  err,
	}
	if !LogErrorStackTraces {
		return statusErr
	}
	return &wrappedError{
		statusErr,
		callers(),
	}
}

// Errorf formats an error carrying the given code. Unlike the per-code
// helpers it honors %w, so the cause stays reachable through errors.Is.
func Errorf(code codes.Code, format string, a ...interface{}) error {
	return makeStatusError(code, fmt.Errorf(format, a...))
}

func IsInvalidArgumentError(err error) bool {
	return status.Code(err) == codes.InvalidArgument
}
func InvalidArgumentErrorf(format string, a ...interface{}) error {
	return Errorf(codes.InvalidArgument, format, a...)
}
func IsNotFoundError(err error) bool {
	return status.Code(err) == codes.NotFound
}
func NotFoundErrorf(format string, a ...interface{}) error {
	return Errorf(codes.NotFound, format, a...)
}
func IsPermissionDeniedError(err error) bool {
	return status.Code(err) == codes.PermissionDenied
}
func FailedPreconditionError(msg string) error {
	return makeStatusError(codes.FailedPrecondition, stderrors.New(msg))
}
func IsFailedPreconditionError(err error) bool {
	return status.Code(err) == codes.FailedPrecondition
}
func FailedPreconditionErrorf(format string, a ...interface{}) error {
	return Errorf(codes.FailedPrecondition, format, a...)
}
func AbortedError(msg string) error {
	return makeStatusError(codes.Aborted, stderrors.New(msg))
}
func IsAbortedError(err error) bool {
	return status.Code(err) == codes.Aborted
}
func AbortedErrorf(format string, a ...interface{}) error {
	return Errorf(codes.Aborted, format, a...)
}
func IsInternalError(err error) bool {
	return status.Code(err) == codes.Internal
}
func InternalErrorf(format string, a ...interface{}) error {
	return Errorf(codes.Internal, format, a...)
}
func UnavailableErrorf(format string, a ...interface{}) error {
	return Errorf(codes.Unavailable, format, a...)
}
func IsUnavailableError(err error) bool {
	return status.Code(err) == codes.Unavailable
}

// FromOSError converts a filesystem error into a status error, choosing the
// code from the underlying cause.
func FromOSError(err error, format string, a ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, a...)
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return Errorf(codes.NotFound, "%s: %w", msg, err)
	case stderrors.Is(err, fs.ErrPermission):
		return Errorf(codes.PermissionDenied, "%s: %w", msg, err)
	default:
		return Errorf(codes.Unavailable, "%s: %w", msg, err)
	}
}

// WrapError prepends additional context to an error description, preserving
// the underlying status code.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	var statusErr *statusError
	if stderrors.As(err, &statusErr) {
		statusErr.err = fmt.Errorf("%s: %w", msg, statusErr.err)
		return err
	}
	if s, ok := status.FromError(err); ok {
		return makeStatusError(s.Code(), fmt.Errorf("%s: %s", msg, s.Message()))
	}
	return makeStatusError(status.Code(err), fmt.Errorf("%s: %w", msg, err))
}

// WrapErrorf is the "Printf" version of `WrapError`.
func WrapErrorf(err error, format string, a ...interface{}) error {
	return WrapError(err, fmt.Sprintf(format, a...))
}

// Code returns the status code of err, codes.OK for nil and codes.Unknown
// for errors that carry no code.
func Code(err error) codes.Code {
	return status.Code(err)
}

// Message extracts the error message from a given error, which for status
// errors is just the "desc" part of the error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *statusError
	if stderrors.As(err, &statusErr) {
		return statusErr.err.Error()
	}
	if s, ok := status.FromError(err); ok {
		return s.Message()
	}
	return err.Error()
}

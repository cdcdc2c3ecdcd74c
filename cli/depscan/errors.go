package depscan

import (
	"github.com/buildbuddy-io/nixscan/util/status"
	"google.golang.org/grpc/codes"
)

// Diagnostic kinds reported when a scan fails.
const (
	ConfigurationError  = "ConfigurationError"
	PathResolutionError = "PathResolutionError"
	FilesystemError     = "FilesystemError"
	EvaluationError     = "EvaluationError"
	SerializationError  = "SerializationError"
	UnknownError        = "UnknownError"
)

// ErrorKind classifies err by its status code.
func ErrorKind(err error) string {
	switch status.Code(err) {
	case codes.FailedPrecondition:
		return ConfigurationError
	case codes.InvalidArgument:
		return PathResolutionError
	case codes.NotFound, codes.PermissionDenied, codes.Unavailable:
		return FilesystemError
	case codes.Aborted:
		return EvaluationError
	case codes.Internal:
		return SerializationError
	default:
		return UnknownError
	}
}

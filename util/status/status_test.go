package status_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/buildbuddy-io/nixscan/util/status"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestStatusIs(t *testing.T) {
	innerErr := errors.New("inner error")
	err := status.InvalidArgumentErrorf("InvalidArgument: %w", innerErr)
	assert.True(t, status.IsInvalidArgumentError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.NotFoundErrorf("NotFound: %w", innerErr)
	assert.True(t, status.IsNotFoundError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.Errorf(codes.PermissionDenied, "PermissionDenied: %w", innerErr)
	assert.True(t, status.IsPermissionDeniedError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.FailedPreconditionErrorf("FailedPrecondition: %w", innerErr)
	assert.True(t, status.IsFailedPreconditionError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.AbortedErrorf("Aborted: %w", innerErr)
	assert.True(t, status.IsAbortedError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.InternalErrorf("Internal: %w", innerErr)
	assert.True(t, status.IsInternalError(err))
	assert.True(t, errors.Is(err, innerErr))
	err = status.UnavailableErrorf("Unavailable: %w", innerErr)
	assert.True(t, status.IsUnavailableError(err))
	assert.True(t, errors.Is(err, innerErr))
}

func TestHasStacktrace(t *testing.T) {
	status.LogErrorStackTraces = true
	t.Cleanup(func() { status.LogErrorStackTraces = false })

	err := status.FailedPreconditionError("FailedPrecondition")
	se, ok := err.(interface {
		StackTrace() pkgerrors.StackTrace
	})
	require.True(t, ok)
	assert.NotNil(t, se.StackTrace())
	assert.True(t, status.IsFailedPreconditionError(err))
}

func TestNoStacktrace(t *testing.T) {
	err := status.FailedPreconditionError("FailedPrecondition")
	_, ok := err.(interface {
		StackTrace() pkgerrors.StackTrace
	})
	assert.False(t, ok)
}

func TestFromOSError(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, statErr)

	err := status.FromOSError(statErr, "stat %q", "missing")
	assert.True(t, status.IsNotFoundError(err))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, status.Message(err), `stat "missing"`)

	err = status.FromOSError(fs.ErrPermission, "open")
	assert.True(t, status.IsPermissionDeniedError(err))

	err = status.FromOSError(errors.New("i/o timeout"), "read")
	assert.True(t, status.IsUnavailableError(err))

	assert.NoError(t, status.FromOSError(nil, "noop"))
}

func TestWrapError(t *testing.T) {
	err := status.AbortedError("nix-instantiate exited with 1")
	err = status.WrapError(err, "evaluate default.nix")
	assert.True(t, status.IsAbortedError(err))
	assert.Equal(t, "evaluate default.nix: nix-instantiate exited with 1", status.Message(err))

	plain := fmt.Errorf("plain")
	err = status.WrapErrorf(plain, "step %d", 2)
	assert.Equal(t, codes.Unknown, status.Code(err))
	assert.True(t, errors.Is(err, plain))
	assert.Equal(t, "step 2: plain", status.Message(err))

	assert.NoError(t, status.WrapError(nil, "nothing"))
}

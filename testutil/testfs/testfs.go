package testfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// MakeTempDir returns a fresh directory that is removed when the test ends.
// Symlinks in the returned path are resolved so that callers can compare it
// against paths reported by subprocesses.
func MakeTempDir(t testing.TB) string {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// MakeDirAll creates rootDir/path (and any missing parents) and returns it.
func MakeDirAll(t testing.TB, rootDir, path string) string {
	fullPath := filepath.Join(rootDir, path)
	err := os.MkdirAll(fullPath, 0755)
	require.NoError(t, err)
	return fullPath
}

// WriteAllFileContents writes each file in contents, keyed by its path
// relative to rootDir, creating parent directories as needed.
func WriteAllFileContents(t testing.TB, rootDir string, contents map[string]string) {
	for path, content := range contents {
		fullPath := filepath.Join(rootDir, path)
		err := os.MkdirAll(filepath.Dir(fullPath), 0755)
		require.NoError(t, err)
		err = os.WriteFile(fullPath, []byte(content), 0644)
		require.NoError(t, err)
	}
}

// WriteExecutable writes an executable script at rootDir/path and returns its
// absolute path.
func WriteExecutable(t testing.TB, rootDir, path, content string) string {
	fullPath := filepath.Join(rootDir, path)
	err := os.MkdirAll(filepath.Dir(fullPath), 0755)
	require.NoError(t, err)
	err = os.WriteFile(fullPath, []byte(content), 0755)
	require.NoError(t, err)
	return fullPath
}

// ReadFileAsString reads rootDir/path and fails the test on error.
func ReadFileAsString(t testing.TB, rootDir, path string) string {
	b, err := os.ReadFile(filepath.Join(rootDir, path))
	require.NoError(t, err)
	return string(b)
}

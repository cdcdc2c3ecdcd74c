package disk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/buildbuddy-io/nixscan/util/status"
)

// FileExists returns whether anything exists at fullPath. Errors other than
// "does not exist" are returned to the caller.
func FileExists(fullPath string) (bool, error) {
	_, err := os.Stat(fullPath)
	if err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	} else {
		return false, status.FromOSError(err, "stat %q", fullPath)
	}
}

// IsRegularFile returns true if fullPath exists and is a regular file.
func IsRegularFile(fullPath string) (bool, error) {
	info, err := os.Stat(fullPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, status.FromOSError(err, "stat %q", fullPath)
	}
	return info.Mode().IsRegular(), nil
}

// IsDirectory returns true if fullPath exists and is a directory.
func IsDirectory(fullPath string) (bool, error) {
	info, err := os.Stat(fullPath)
	if err != nil {
		return false, status.FromOSError(err, "stat %q", fullPath)
	}
	return info.IsDir(), nil
}

// WalkRegularFiles calls fn for every regular file under root, in lexical
// order. Directories, symlinks and other special files below root are
// skipped. If root is itself a regular file, fn is called once with root.
// A symlinked root is followed; reported paths stay under root as given.
//
// Any error while reading the tree aborts the walk.
func WalkRegularFiles(ctx context.Context, root string, fn func(path string) error) error {
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return status.FromOSError(err, "resolve %q", root)
	}
	return filepath.WalkDir(walkRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return status.FromOSError(err, "walk %q", path)
		}
		if err := ctx.Err(); err != nil {
			return status.UnavailableErrorf("walk %q: %w", root, err)
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if walkRoot == root {
			return fn(path)
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return status.InternalErrorf("walk %q: %s", root, err)
		}
		return fn(filepath.Join(root, rel))
	})
}

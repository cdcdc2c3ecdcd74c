package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/util/disk"
	"github.com/buildbuddy-io/nixscan/util/status"
)

const (
	// RootEnvVar is set by `bazel run` to the directory the command was
	// invoked from.
	RootEnvVar = "BUILD_WORKSPACE_DIRECTORY"
)

// Root returns the absolute workspace root. The explicit value wins, then
// $BUILD_WORKSPACE_DIRECTORY, then the current working directory. The
// result must be an existing directory.
//
// This is the only place that consults process state; everything downstream
// receives the root as a parameter.
func Root(explicit string) (string, error) {
	dir := explicit
	source := "--workspace_root"
	if dir == "" {
		dir = os.Getenv(RootEnvVar)
		source = "$" + RootEnvVar
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", status.FailedPreconditionErrorf("determine workspace root: %s", err)
		}
		dir = wd
		source = "working directory"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", status.FailedPreconditionErrorf("resolve workspace root %q: %s", dir, err)
	}
	isDir, err := disk.IsDirectory(abs)
	if err != nil || !isDir {
		return "", status.FailedPreconditionErrorf("workspace root %q (from %s) is not a directory", abs, source)
	}
	log.Debugf("Using workspace root %s (from %s)", abs, source)
	return abs, nil
}

// Relativize rewrites the absolute path p relative to root, using forward
// slashes and no leading separator. ok is false when p is not under root;
// that is a filter, not an error. The root itself maps to "".
func Relativize(root, p string) (rel string, ok bool, err error) {
	if !filepath.IsAbs(root) || !filepath.IsAbs(p) {
		return "", false, status.InvalidArgumentErrorf("relativize %q against %q: both paths must be absolute", p, root)
	}
	r, err := filepath.Rel(root, p)
	if err != nil {
		return "", false, status.InvalidArgumentErrorf("relativize %q against %q: %s", p, root, err)
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false, nil
	}
	if r == "." {
		return "", true, nil
	}
	return filepath.ToSlash(r), true, nil
}

// BuildUnit is the nix file under evaluation.
type BuildUnit struct {
	// Path is the absolute path passed to the evaluator. It may name a
	// directory, in which case nix evaluates its default.nix.
	Path string

	// Dir is the absolute directory that owns the unit: Path itself if it is
	// a directory, otherwise its parent.
	Dir string

	// Package is Dir relative to the workspace root ("" for the root).
	Package string
}

// NewBuildUnit resolves path (relative paths are taken relative to root) and
// derives its owning directory. The unit must exist and live inside the
// workspace.
func NewBuildUnit(root, path string) (*BuildUnit, error) {
	if path == "" {
		return nil, status.FailedPreconditionError("no nix file given")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	isDir, err := disk.IsDirectory(path)
	if err != nil {
		return nil, status.WrapError(err, "build unit")
	}
	dir := path
	if !isDir {
		dir = filepath.Dir(path)
	}
	pkg, ok, err := Relativize(root, dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, status.InvalidArgumentErrorf("build unit %q is outside of workspace %q", path, root)
	}
	return &BuildUnit{Path: path, Dir: dir, Package: pkg}, nil
}

// RelFile returns the unit's file relative to its package directory, or ""
// when the unit was given as a directory.
func (u *BuildUnit) RelFile() string {
	if u.Path == u.Dir {
		return ""
	}
	return filepath.Base(u.Path)
}

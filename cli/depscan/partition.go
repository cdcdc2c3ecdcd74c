package depscan

import (
	"path/filepath"

	"github.com/bazelbuild/bazel-gazelle/pathtools"
)

// Partition splits absolute paths into those inside dir (children) and the
// rest (external), preserving order. Containment respects path component
// boundaries: /a/b contains /a/b/c but not /a/bc.
func Partition(paths []string, dir string) (children, external []string) {
	dir = filepath.ToSlash(filepath.Clean(dir))
	for _, p := range paths {
		if contains(dir, filepath.ToSlash(filepath.Clean(p))) {
			children = append(children, p)
		} else {
			external = append(external, p)
		}
	}
	return children, external
}

func contains(dir, p string) bool {
	if dir == "/" {
		return len(p) > 0 && p[0] == '/'
	}
	return pathtools.HasPrefix(p, dir)
}

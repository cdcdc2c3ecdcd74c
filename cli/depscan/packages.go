package depscan

import (
	"path"
	"slices"
)

// DefaultMarkerFile is the file whose presence makes a directory a package.
const DefaultMarkerFile = "default.nix"

// PackageSet holds workspace-relative package directories. "" is the
// workspace root package.
type PackageSet map[string]struct{}

func NewPackageSet(dirs ...string) PackageSet {
	s := make(PackageSet, len(dirs))
	for _, d := range dirs {
		s[d] = struct{}{}
	}
	return s
}

func (s PackageSet) Contains(dir string) bool {
	_, ok := s[dir]
	return ok
}

// Sorted returns the package directories in lexical order.
func (s PackageSet) Sorted() []string {
	dirs := make([]string, 0, len(s))
	for d := range s {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)
	return dirs
}

// DiscoverPackages registers the parent directory of every path whose last
// component is exactly marker.
func DiscoverPackages(relPaths []string, marker string) PackageSet {
	pkgs := make(PackageSet)
	for _, p := range relPaths {
		if path.Base(p) != marker {
			continue
		}
		dir := path.Dir(p)
		if dir == "." {
			dir = ""
		}
		pkgs[dir] = struct{}{}
	}
	return pkgs
}

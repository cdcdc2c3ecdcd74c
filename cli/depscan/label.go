package depscan

import (
	"path"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/pathtools"
)

// Resolve maps a workspace-relative file path to the label of the file in
// its owning package: the deepest ancestor directory of relPath present in
// pkgs, or the root package if there is none.
func Resolve(relPath string, pkgs PackageSet) label.Label {
	dir := path.Dir(relPath)
	if dir == "." {
		dir = ""
	}
	pkg := ""
	// Ancestors from the root down; the last hit is the longest match.
	for i := 0; i <= len(dir); i++ {
		if i < len(dir) && dir[i] != '/' {
			continue
		}
		if candidate := dir[:i]; pkgs.Contains(candidate) {
			pkg = candidate
		}
	}
	return label.New("", pkg, pathtools.TrimPrefix(relPath, pkg))
}

// FormatLabel renders l as //pkg:name (@repo//pkg:name for external
// repositories). The name is always spelled out, even when it matches the
// last package component.
func FormatLabel(l label.Label) string {
	var sb strings.Builder
	if l.Repo != "" {
		sb.WriteString("@")
		sb.WriteString(l.Repo)
	}
	sb.WriteString("//")
	sb.WriteString(l.Pkg)
	sb.WriteString(":")
	sb.WriteString(l.Name)
	return sb.String()
}

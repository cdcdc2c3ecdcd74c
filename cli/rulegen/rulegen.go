// Package rulegen renders scan results as an export_nix rule for a BUILD
// file.
package rulegen

import (
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/buildbuddy-io/nixscan/cli/depscan"
	"github.com/buildbuddy-io/nixscan/cli/workspace"
	"github.com/buildbuddy-io/nixscan/util/disk"
)

const (
	ExportRuleKind = "export_nix"
	DefsFile       = "@io_tweag_gazelle_nix//nix:defs.bzl"

	// BuildTemplate, when present next to the unit, becomes the rule's
	// build_file.
	BuildTemplate = "BUILD.bazel.tpl"

	rootRuleName = "root"
)

type Options struct {
	// Prelude is the workspace-relative nix file that wraps the unit.
	Prelude string

	// MarkerFile names the unit's nix file when the unit is a directory.
	MarkerFile string
}

// ExportRule builds the export_nix rule for unit from its scan results.
func ExportRule(unit *workspace.BuildUnit, ds *depscan.DepSets, opts Options) (*rule.Rule, error) {
	nixFile := unit.RelFile()
	if nixFile == "" {
		nixFile = opts.MarkerFile
	}
	if nixFile == "" {
		nixFile = depscan.DefaultMarkerFile
	}

	name := strings.ReplaceAll(unit.Package, "/", ".")
	if name == "" {
		name = rootRuleName
	}
	r := rule.NewRule(ExportRuleKind, name)
	r.AddComment("# autogenerated")

	nixopts := []string{}
	if opts.Prelude != "" {
		r.SetAttr("nix_file", "//:"+opts.Prelude)
		nixopts = []string{"--argstr", "nix_file", path.Join(unit.Package, nixFile)}
	} else {
		r.SetAttr("nix_file", "//"+unit.Package+":"+nixFile)
	}

	files := slices.Clone(ds.Files(depscan.DirectKind))
	hasTemplate, err := disk.IsRegularFile(filepath.Join(unit.Dir, BuildTemplate))
	if err != nil {
		return nil, err
	}
	if hasTemplate {
		r.SetAttr("build_file", "//"+unit.Package+":"+BuildTemplate)
		files = append(files, BuildTemplate)
	}
	slices.Sort(files)
	files = slices.Compact(files)
	if files == nil {
		files = []string{}
	}

	deps := ds.Files(depscan.RecursiveKind)
	if deps == nil {
		deps = []string{}
	}

	r.SetAttr("files", files)
	r.SetAttr("deps", deps)
	r.SetAttr("nixopts", nixopts)
	return r, nil
}

// Format renders rules into the contents of a BUILD file for pkg, including
// the load statement for export_nix.
func Format(pkg string, rules ...*rule.Rule) []byte {
	f := rule.EmptyFile(path.Join(pkg, "BUILD.bazel"), pkg)
	load := rule.NewLoad(DefsFile)
	load.Add(ExportRuleKind)
	load.Insert(f, 0)
	for _, r := range rules {
		r.Insert(f)
	}
	return f.Format()
}

// Package depscan classifies the files a nix evaluation read into the
// direct and recursive dependency sets of a build unit.
//
// The pipeline is: expand directory entries into files, drop files outside
// the workspace, split the rest into files owned by the unit's directory and
// external files, discover packages from marker files, and resolve every
// file to the label of its owning package.
package depscan

import (
	"context"

	"github.com/buildbuddy-io/nixscan/cli/evaluate"
	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/cli/workspace"
	"github.com/buildbuddy-io/nixscan/util/status"
	"google.golang.org/grpc/codes"
)

type Options struct {
	// WorkspaceRoot is the absolute directory labels are relative to.
	WorkspaceRoot string

	// MarkerFile names the file that makes a directory a package.
	// Defaults to DefaultMarkerFile.
	MarkerFile string

	// Exclude holds globs over workspace-relative paths to leave out.
	Exclude []string
}

type Scanner struct {
	evaluator evaluate.Evaluator
	opts      Options
	excluder  *Excluder
}

func NewScanner(evaluator evaluate.Evaluator, opts Options) (*Scanner, error) {
	if opts.WorkspaceRoot == "" {
		return nil, status.FailedPreconditionError("workspace root is not set")
	}
	if opts.MarkerFile == "" {
		opts.MarkerFile = DefaultMarkerFile
	}
	excluder, err := NewExcluder(opts.Exclude)
	if err != nil {
		return nil, err
	}
	return &Scanner{evaluator: evaluator, opts: opts, excluder: excluder}, nil
}

// Scan evaluates unit and returns its dependency sets. Any failure aborts the
// scan; there are no partial results.
func (s *Scanner) Scan(ctx context.Context, unit *workspace.BuildUnit) (*DepSets, error) {
	reported, err := s.evaluator.Evaluate(ctx, unit.Path)
	if err != nil {
		if status.Code(err) == codes.Unknown {
			return nil, status.AbortedErrorf("evaluate %s: %w", unit.Path, err)
		}
		return nil, err
	}
	log.Debugf("Evaluator reported %d paths", len(reported))

	expanded, err := Expand(ctx, reported)
	if err != nil {
		return nil, err
	}

	// Keep absolute and workspace-relative forms side by side.
	var files, rels []string
	for _, f := range expanded {
		rel, ok, err := workspace.Relativize(s.opts.WorkspaceRoot, f)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debugf("Dropping %s: outside of workspace", f)
			continue
		}
		if pattern := s.excluder.Excluded(rel); pattern != "" {
			log.Debugf("Dropping %s: matches exclude pattern %q", rel, pattern)
			continue
		}
		files = append(files, f)
		rels = append(rels, rel)
	}
	relOf := make(map[string]string, len(files))
	for i, f := range files {
		relOf[f] = rels[i]
	}

	children, external := Partition(files, unit.Dir)
	log.Debugf("%d files in %s, %d external", len(children), unit.Dir, len(external))

	pkgs := DiscoverPackages(rels, s.opts.MarkerFile)
	log.Debugf("Discovered packages: %q", pkgs.Sorted())

	recursive := make([]string, 0, len(files))
	for _, f := range append(children, external...) {
		recursive = append(recursive, FormatLabel(Resolve(relOf[f], pkgs)))
	}
	direct := make([]string, 0, len(children))
	for _, f := range children {
		rel, _, err := workspace.Relativize(unit.Dir, f)
		if err != nil {
			return nil, err
		}
		direct = append(direct, rel)
	}
	return Assemble(recursive, direct), nil
}

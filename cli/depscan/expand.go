package depscan

import (
	"context"
	"path/filepath"

	"github.com/buildbuddy-io/nixscan/cli/evaluate"
	"github.com/buildbuddy-io/nixscan/util/disk"
	"github.com/buildbuddy-io/nixscan/util/status"
)

// Expand flattens evaluator output into absolute file paths. Directory
// entries contribute every regular file beneath them. Each file appears once,
// at its first discovery; directories are never emitted.
//
// A path that does not exist fails the whole expansion.
func Expand(ctx context.Context, paths []evaluate.Path) ([]string, error) {
	seen := make(map[string]struct{}, len(paths))
	var files []string
	add := func(p string) error {
		if _, ok := seen[p]; ok {
			return nil
		}
		seen[p] = struct{}{}
		files = append(files, p)
		return nil
	}
	for _, p := range paths {
		if !filepath.IsAbs(p.Path) {
			return nil, status.InvalidArgumentErrorf("dependency %s is not absolute", p)
		}
		clean := filepath.Clean(p.Path)
		switch p.Kind {
		case evaluate.File:
			exists, err := disk.FileExists(clean)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, status.NotFoundErrorf("dependency %s does not exist", clean)
			}
			add(clean)
		case evaluate.Directory:
			if err := disk.WalkRegularFiles(ctx, clean, add); err != nil {
				return nil, status.WrapErrorf(err, "expand %s", clean)
			}
		default:
			return nil, status.InvalidArgumentErrorf("dependency %s has unknown kind", p)
		}
	}
	return files, nil
}

package depscan

import (
	"github.com/buildbuddy-io/nixscan/util/status"
	"github.com/gobwas/glob"
)

// Excluder drops workspace-relative paths matching any of a set of globs.
// `*` stays within one path component, `**` crosses components.
type Excluder struct {
	patterns []string
	globs    []glob.Glob
}

func NewExcluder(patterns []string) (*Excluder, error) {
	e := &Excluder{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, status.FailedPreconditionErrorf("invalid exclude pattern %q: %s", p, err)
		}
		e.patterns = append(e.patterns, p)
		e.globs = append(e.globs, g)
	}
	return e, nil
}

// Excluded returns the first pattern matching rel, or "" if none does.
func (e *Excluder) Excluded(rel string) string {
	if e == nil {
		return ""
	}
	for i, g := range e.globs {
		if g.Match(rel) {
			return e.patterns[i]
		}
	}
	return ""
}

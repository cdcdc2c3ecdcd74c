// Package shlex splits and quotes shell-style argument strings.
package shlex

import (
	"regexp"
	"strings"

	"github.com/buildbuddy-io/nixscan/util/status"

	gshlex "github.com/google/shlex"
)

var (
	safeArgRegexp        = regexp.MustCompile(`^[A-Za-z0-9/_.,:=@+\-]+$`)
	flagAssignmentRegexp = regexp.MustCompile(`^--[A-Za-z_-]+=`)
)

// Split tokenizes s the way a POSIX shell would, without expansions.
//
//	shlex.Split(`--arg pkgs 'import ./nixpkgs {}'`)
//	// []string{"--arg", "pkgs", "import ./nixpkgs {}"}
func Split(s string) ([]string, error) {
	tokens, err := gshlex.Split(s)
	if err != nil {
		return nil, status.InvalidArgumentErrorf("split %q: %s", s, err)
	}
	return tokens, nil
}

// Quote renders tokens as a single command line that Split turns back into
// the same tokens. Only tokens that need it are quoted; flag assignments keep
// the flag name outside the quotes.
func Quote(tokens ...string) string {
	var sb strings.Builder
	for i, token := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if token != "" && safeArgRegexp.MatchString(token) {
			sb.WriteString(token)
			continue
		}
		name := flagAssignmentRegexp.FindString(token)
		sb.WriteString(name)
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(strings.TrimPrefix(token, name), `'`, `'\''`))
		sb.WriteByte('\'')
	}
	return sb.String()
}

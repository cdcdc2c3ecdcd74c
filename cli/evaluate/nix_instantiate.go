package evaluate

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/util/shlex"
	"github.com/buildbuddy-io/nixscan/util/status"
)

const (
	// Lines of evaluator stderr included in error messages.
	stderrTailLines = 20

	maxLogLineBytes = 1024 * 1024
)

// Verbose nix-instantiate log lines that name a dependency.
var logPatterns = []struct {
	re   *regexp.Regexp
	kind Kind
}{
	{regexp.MustCompile(`^evaluating file '(.+)'$`), File},
	{regexp.MustCompile(`^copied source '(.+)' -> '.*'$`), Directory},
	{regexp.MustCompile(`^trace: lorri read: '(.+)'$`), File},
}

// NixInstantiate runs nix-instantiate at -vv and recovers dependencies from
// its log.
type NixInstantiate struct {
	opts Options
}

func NewNixInstantiate(opts Options) *NixInstantiate {
	return &NixInstantiate{opts: opts.withDefaults()}
}

func (n *NixInstantiate) Evaluate(ctx context.Context, file string) ([]Path, error) {
	args := n.opts.instantiateArgs(file)
	log.Debugf("Running %s", shlex.Quote(append([]string{n.opts.NixInstantiate}, args...)...))

	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, n.opts.NixInstantiate, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return nil, status.AbortedErrorf("evaluate %s: %s%s", file, err, tail(stderr.String()))
	}
	paths, err := ParseInstantiateLog(stderr, n.opts.StoreDir)
	if err != nil {
		return nil, status.WrapErrorf(err, "evaluate %s", file)
	}
	log.Debugf("nix-instantiate reported %d paths outside of %s", len(paths), n.opts.StoreDir)
	return paths, nil
}

// ParseInstantiateLog extracts dependency paths from a nix-instantiate -vv
// log. Paths under storeDir and relative paths are skipped.
func ParseInstantiateLog(r io.Reader, storeDir string) ([]Path, error) {
	opts := Options{StoreDir: storeDir}.withDefaults()
	var paths []Path
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLogLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		for _, p := range logPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if !filepath.IsAbs(m[1]) || opts.inStore(m[1]) {
				break
			}
			paths = append(paths, Path{Kind: p.kind, Path: filepath.Clean(m[1])})
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, status.AbortedErrorf("read evaluator log: %s", err)
	}
	return paths, nil
}

func tail(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}
	out := strings.Join(lines, "\n")
	if out == "" {
		return ""
	}
	return "\n" + out
}

package evaluate

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/armon/circbuf"
	"github.com/bazelbuild/rules_go/go/runfiles"
	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/util/disk"
	"github.com/buildbuddy-io/nixscan/util/shlex"
	"github.com/buildbuddy-io/nixscan/util/status"
)

// DefaultFPTracePath is the runfiles location of the tracer when nixscan is
// run through Bazel.
const DefaultFPTracePath = "fptrace/bin/fptrace"

const tracerOutputBytes = 64 * 1024

// TraceOut is one traced process in an fptrace dump.
type TraceOut struct {
	Cmd struct {
		Parent int
		ID     int
		Dir    string
		Path   string
		Args   []string
	}
	Inputs  []string
	Outputs []string
}

// FPTrace runs nix-instantiate under fptrace and reports every file any
// process in the evaluation opened for reading.
type FPTrace struct {
	tracer string
	opts   Options
}

// NewFPTrace locates the tracer binary. Absolute paths are used as is;
// anything else is looked up in the Bazel runfiles and then in $PATH.
func NewFPTrace(tracerPath string, opts Options) (*FPTrace, error) {
	if tracerPath == "" {
		tracerPath = DefaultFPTracePath
	}
	tracer, err := locateTracer(tracerPath)
	if err != nil {
		return nil, err
	}
	return &FPTrace{tracer: tracer, opts: opts.withDefaults()}, nil
}

func locateTracer(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	if loc, err := runfiles.Rlocation(p); err == nil {
		if ok, _ := disk.IsRegularFile(loc); ok {
			return loc, nil
		}
	}
	if loc, err := exec.LookPath(p); err == nil {
		return loc, nil
	}
	return "", status.FailedPreconditionErrorf("fptrace binary %q not found in runfiles or $PATH", p)
}

func (f *FPTrace) Evaluate(ctx context.Context, file string) ([]Path, error) {
	tmp, err := os.CreateTemp("", "nixscan-*.json")
	if err != nil {
		return nil, status.FromOSError(err, "create trace file")
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Close(); err != nil {
		return nil, status.FromOSError(err, "close trace file %s", tmp.Name())
	}

	args := append([]string{"-d", tmp.Name(), f.opts.NixInstantiate}, f.opts.instantiateArgs(file)...)
	log.Debugf("Running %s", shlex.Quote(append([]string{f.tracer}, args...)...))

	// Only the end of the output is kept for error messages.
	out, err := circbuf.NewBuffer(tracerOutputBytes)
	if err != nil {
		return nil, status.InternalErrorf("allocate output buffer: %s", err)
	}
	cmd := exec.CommandContext(ctx, f.tracer, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return nil, status.AbortedErrorf("evaluate %s under fptrace: %s%s", file, err, tail(out.String()))
	}
	b, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, status.AbortedErrorf("read trace %s: %s", tmp.Name(), err)
	}
	paths, err := ParseTrace(b, f.opts.StoreDir)
	if err != nil {
		return nil, status.WrapErrorf(err, "evaluate %s", file)
	}
	log.Debugf("fptrace reported %d input files outside of %s", len(paths), f.opts.StoreDir)
	return paths, nil
}

// ParseTrace decodes an fptrace dump and returns every input that is a
// regular file outside of storeDir, in trace order. Directories that were
// only listed are skipped, and so are inputs that no longer exist.
func ParseTrace(b []byte, storeDir string) ([]Path, error) {
	opts := Options{StoreDir: storeDir}.withDefaults()
	var traceOuts []TraceOut
	if err := json.Unmarshal(b, &traceOuts); err != nil {
		return nil, status.AbortedErrorf("unmarshal trace: %s", err)
	}
	var paths []Path
	for _, t := range traceOuts {
		for _, input := range t.Inputs {
			if !filepath.IsAbs(input) || opts.inStore(input) {
				continue
			}
			ok, err := disk.IsRegularFile(input)
			if err != nil {
				return nil, err
			}
			if !ok {
				log.Debugf("Skipping traced input %s: not a regular file", input)
				continue
			}
			paths = append(paths, Path{Kind: File, Path: filepath.Clean(input)})
		}
	}
	return paths, nil
}

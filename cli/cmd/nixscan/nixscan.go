// nixscan evaluates a nix file and prints the files it depends on, split into
// the files owned by the file's directory and Bazel labels for the whole
// closure.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/buildbuddy-io/nixscan/cli/arg"
	"github.com/buildbuddy-io/nixscan/cli/config"
	"github.com/buildbuddy-io/nixscan/cli/depscan"
	"github.com/buildbuddy-io/nixscan/cli/evaluate"
	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/cli/rulegen"
	"github.com/buildbuddy-io/nixscan/cli/workspace"
	"github.com/buildbuddy-io/nixscan/util/disk"
	"github.com/buildbuddy-io/nixscan/util/shlex"
	"github.com/buildbuddy-io/nixscan/util/status"
)

const (
	usage = `
usage: nixscan [flags] <nix file or directory> [-- <nix-instantiate args>]

Evaluates the given nix file and prints the files the evaluation read as
{"depsets":[{"kind":"recursive",...},{"kind":"direct",...}]}.

Relative paths are resolved against the workspace root, which defaults to
$BUILD_WORKSPACE_DIRECTORY and then the current directory. Settings can also
be given in nixscan.yaml at the workspace root; flags take precedence.
`

	jsonOutput  = "json"
	buildOutput = "build"
)

// Swapped out in tests.
var newEvaluator = evaluate.New

type options struct {
	workspaceRoot  string
	markerFile     string
	storeDir       string
	evaluator      string
	nixInstantiate string
	fptracePath    string
	nixPrelude     string
	nixOptions     string
	output         string
	verbose        bool
	stackTraces    bool
}

func newFlagSet() (*flag.FlagSet, *options) {
	opts := &options{}
	flags := flag.NewFlagSet("nixscan", flag.ContinueOnError)
	flags.StringVar(&opts.workspaceRoot, "workspace_root", "", "Workspace root that labels are relative to.")
	flags.StringVar(&opts.markerFile, "marker_file", depscan.DefaultMarkerFile, "File name that makes a directory a package.")
	flags.StringVar(&opts.storeDir, "store_dir", evaluate.DefaultStoreDir, "Nix store directory. Paths under it are ignored.")
	flags.StringVar(&opts.evaluator, "evaluator", evaluate.NixKind, "How to collect dependencies: nix or fptrace.")
	flags.StringVar(&opts.nixInstantiate, "nix_instantiate", evaluate.DefaultNixInstantiate, "nix-instantiate binary.")
	flags.StringVar(&opts.fptracePath, "fptrace_path", evaluate.DefaultFPTracePath, "fptrace binary, absolute or a runfiles path.")
	flags.StringVar(&opts.nixPrelude, "nix_prelude", "", "Workspace-relative nix file to evaluate instead, receiving the unit as nix_file.")
	flags.StringVar(&opts.nixOptions, "nix_options", "", "Extra nix-instantiate arguments, shell-quoted.")
	flags.StringVar(&opts.output, "output", jsonOutput, "Output format: json or build.")
	flags.BoolVar(&opts.verbose, "verbose", false, "Print debug logs to stderr.")
	flags.BoolVar(&opts.stackTraces, "log_error_stack_traces", false, "Attach stack traces to logged errors.")
	return flags, opts
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitCode := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// run executes one scan and returns the process exit code. stdout receives
// the document only when the whole scan succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.SetOutput(stderr)
	out, err := scan(ctx, args)
	if err == flag.ErrHelp {
		fmt.Fprint(stderr, usage)
		return 1
	}
	if err != nil {
		log.Diagnostic(err, depscan.ErrorKind(err), "nixscan failed")
		return 1
	}
	if _, err := stdout.Write(out); err != nil {
		log.Diagnostic(err, depscan.SerializationError, "write output")
		return 1
	}
	return 0
}

func scan(ctx context.Context, args []string) ([]byte, error) {
	nixscanArgs, passthroughArgs := arg.SplitPassthroughArgs(args)
	flags, opts := newFlagSet()
	if err := arg.ParseFlagSet(flags, nixscanArgs); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, status.FailedPreconditionErrorf("parse flags: %s", err)
	}
	log.Configure(opts.verbose)
	status.LogErrorStackTraces = opts.stackTraces

	if flags.NArg() != 1 {
		return nil, status.FailedPreconditionErrorf("expected exactly one nix file or directory, got %d arguments", flags.NArg())
	}

	root, err := workspace.Root(opts.workspaceRoot)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadWorkspaceConfig(root)
	if err != nil {
		return nil, err
	}
	var exclude []string
	if cfg != nil {
		applyConfig(flags, opts, cfg.RootConfig)
		exclude = cfg.Exclude
	}
	if opts.output != jsonOutput && opts.output != buildOutput {
		return nil, status.FailedPreconditionErrorf("unknown output format %q (want %q or %q)", opts.output, jsonOutput, buildOutput)
	}

	extraArgs, err := shlex.Split(opts.nixOptions)
	if err != nil {
		return nil, status.FailedPreconditionErrorf("parse --nix_options: %s", status.Message(err))
	}
	extraArgs = append(extraArgs, passthroughArgs...)

	prelude, err := resolvePrelude(root, opts.nixPrelude)
	if err != nil {
		return nil, err
	}

	unit, err := workspace.NewBuildUnit(root, flags.Arg(0))
	if err != nil {
		return nil, err
	}

	ev, err := newEvaluator(opts.evaluator, evaluate.Options{
		NixInstantiate: opts.nixInstantiate,
		Prelude:        prelude,
		ExtraArgs:      extraArgs,
		StoreDir:       opts.storeDir,
	}, opts.fptracePath)
	if err != nil {
		return nil, err
	}
	scanner, err := depscan.NewScanner(ev, depscan.Options{
		WorkspaceRoot: root,
		MarkerFile:    opts.markerFile,
		Exclude:       exclude,
	})
	if err != nil {
		return nil, err
	}
	ds, err := scanner.Scan(ctx, unit)
	if err != nil {
		return nil, err
	}

	if opts.output == buildOutput {
		r, err := rulegen.ExportRule(unit, ds, rulegen.Options{
			Prelude:    opts.nixPrelude,
			MarkerFile: opts.markerFile,
		})
		if err != nil {
			return nil, err
		}
		return rulegen.Format(unit.Package, r), nil
	}
	return ds.JSON()
}

// applyConfig fills in every option that was not set on the command line
// from the workspace config.
func applyConfig(flags *flag.FlagSet, opts *options, cfg *config.RootConfig) {
	set := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, v := range []struct {
		name string
		dst  *string
		src  string
	}{
		{"marker_file", &opts.markerFile, cfg.MarkerFile},
		{"store_dir", &opts.storeDir, cfg.StoreDir},
		{"nix_prelude", &opts.nixPrelude, cfg.NixPrelude},
		{"nix_options", &opts.nixOptions, cfg.NixOptions},
		{"evaluator", &opts.evaluator, cfg.Evaluator},
	} {
		if set[v.name] || v.src == "" {
			continue
		}
		log.Debugf("Using %s=%q from %s", v.name, v.src, config.WorkspaceRelativeConfigPath)
		*v.dst = v.src
	}
}

// resolvePrelude returns the absolute path of the workspace-relative prelude,
// or "" if none is configured.
func resolvePrelude(root, prelude string) (string, error) {
	if prelude == "" {
		return "", nil
	}
	if filepath.IsAbs(prelude) {
		return "", status.FailedPreconditionErrorf("nix prelude %q must be relative to the workspace root", prelude)
	}
	abs := filepath.Join(root, prelude)
	ok, err := disk.IsRegularFile(abs)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", status.FailedPreconditionErrorf("nix prelude %q is not a file", abs)
	}
	return abs, nil
}

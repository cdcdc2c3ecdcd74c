// Package evaluate runs the nix evaluator on a build unit and reports every
// filesystem path the evaluation depended on.
package evaluate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/buildbuddy-io/nixscan/util/status"
)

const (
	DefaultStoreDir       = "/nix/store"
	DefaultNixInstantiate = "nix-instantiate"

	// Evaluator kinds accepted by New.
	NixKind     = "nix"
	FPTraceKind = "fptrace"
)

// Kind says how a reported path is to be consumed.
type Kind int

const (
	// File is a single dependency file.
	File Kind = iota
	// Directory is a tree whose every file is a dependency.
	Directory
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Path is a dependency reported by an Evaluator. Path is always absolute.
type Path struct {
	Kind Kind
	Path string
}

func (p Path) String() string {
	return p.Kind.String() + ":" + p.Path
}

// Evaluator evaluates a nix file and returns the paths it read. Paths inside
// the nix store are never returned.
type Evaluator interface {
	Evaluate(ctx context.Context, file string) ([]Path, error)
}

// Options configure how nix-instantiate is invoked.
type Options struct {
	// NixInstantiate is the nix-instantiate binary to run.
	NixInstantiate string

	// Prelude, if set, is an absolute path to a nix file that is evaluated
	// instead of the unit, receiving the unit's path as `nix_file`.
	Prelude string

	// ExtraArgs are appended to the nix-instantiate arguments.
	ExtraArgs []string

	// StoreDir is the nix store location; paths under it are dropped.
	StoreDir string
}

func (o Options) withDefaults() Options {
	if o.NixInstantiate == "" {
		o.NixInstantiate = DefaultNixInstantiate
	}
	if o.StoreDir == "" {
		o.StoreDir = DefaultStoreDir
	}
	return o
}

// instantiateArgs returns the nix-instantiate arguments (without the binary)
// for evaluating file.
func (o Options) instantiateArgs(file string) []string {
	args := []string{"-vv"}
	args = append(args, o.ExtraArgs...)
	if o.Prelude != "" {
		return append(args, o.Prelude, "--argstr", "nix_file", file)
	}
	return append(args, file)
}

// inStore reports whether p lives in the nix store.
func (o Options) inStore(p string) bool {
	store := filepath.Clean(o.StoreDir)
	p = filepath.Clean(p)
	return p == store || strings.HasPrefix(p, store+string(filepath.Separator))
}

// New returns the evaluator registered under kind.
func New(kind string, opts Options, tracerPath string) (Evaluator, error) {
	switch kind {
	case "", NixKind:
		return NewNixInstantiate(opts), nil
	case FPTraceKind:
		return NewFPTrace(tracerPath, opts)
	default:
		return nil, status.FailedPreconditionErrorf("unknown evaluator %q (want %q or %q)", kind, NixKind, FPTraceKind)
	}
}

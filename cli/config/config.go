package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildbuddy-io/nixscan/cli/log"
	"github.com/buildbuddy-io/nixscan/util/status"

	yaml "gopkg.in/yaml.v2"
)

const (
	// Path where we expect to find the nixscan configuration, relative to
	// the root of the workspace being scanned.
	WorkspaceRelativeConfigPath = "nixscan.yaml"
)

// File represents a decoded config file along with its metadata.
type File struct {
	Path string
	*RootConfig
}

// RootConfig is the top-level config object in nixscan.yaml. Every field is
// optional; command line flags take precedence.
type RootConfig struct {
	// MarkerFile is the file name that makes a directory a package.
	MarkerFile string `yaml:"marker_file,omitempty"`

	// StoreDir is the nix store location. Paths under it are not
	// dependencies.
	StoreDir string `yaml:"store_dir,omitempty"`

	// NixPrelude is a workspace-relative nix file evaluated in place of the
	// unit, receiving the unit's path as the `nix_file` argument.
	NixPrelude string `yaml:"nix_prelude,omitempty"`

	// NixOptions are extra nix-instantiate arguments, shell-quoted.
	NixOptions string `yaml:"nix_options,omitempty"`

	// Exclude lists globs over workspace-relative paths that are never
	// reported.
	Exclude []string `yaml:"exclude,omitempty"`

	// Evaluator selects how dependencies are collected: "nix" or "fptrace".
	Evaluator string `yaml:"evaluator,omitempty"`
}

// LoadWorkspaceConfig loads nixscan.yaml from the workspace root. It returns
// nil if the workspace has no config file.
func LoadWorkspaceConfig(workspaceDir string) (*File, error) {
	return LoadFile(filepath.Join(workspaceDir, WorkspaceRelativeConfigPath))
}

// LoadFile loads a single nixscan.yaml from the given path. Environment
// variables like ${HOME} are expanded before decoding.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debugf("%s not found", path)
			return nil, nil
		}
		return nil, status.FromOSError(err, "read %q", path)
	}
	log.Debugf("Reading %s", path)

	cfg := &RootConfig{}
	s := os.ExpandEnv(string(b))
	d := yaml.NewDecoder(strings.NewReader(s))
	d.SetStrict(true)
	// Decode YAML but ignore EOF errors, which happen when the file is empty.
	if err := d.Decode(cfg); err != nil && err != io.EOF {
		return nil, status.FailedPreconditionErrorf("failed to parse %s: %s", path, err)
	}
	return &File{Path: path, RootConfig: cfg}, nil
}

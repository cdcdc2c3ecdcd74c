package depscan_test

import (
	"testing"

	"github.com/buildbuddy-io/nixscan/cli/depscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcluder(t *testing.T) {
	e, err := depscan.NewExcluder([]string{"*.md", "third_party/**", "{docs,examples}/*.nix"})
	require.NoError(t, err)

	assert.Equal(t, "*.md", e.Excluded("README.md"))
	assert.Equal(t, "", e.Excluded("docs/README.md"))
	assert.Equal(t, "third_party/**", e.Excluded("third_party/zlib/default.nix"))
	assert.Equal(t, "{docs,examples}/*.nix", e.Excluded("examples/shell.nix"))
	assert.Equal(t, "", e.Excluded("examples/nested/shell.nix"))
	assert.Equal(t, "", e.Excluded("src/main.c"))
}

func TestNilExcluder(t *testing.T) {
	var e *depscan.Excluder
	assert.Equal(t, "", e.Excluded("anything"))
}

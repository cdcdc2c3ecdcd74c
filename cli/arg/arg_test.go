package arg

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPassthroughArgs(t *testing.T) {
	args := []string{"--verbose", "pkgs/hello/default.nix", "--", "--arg", "system", "x86_64-linux", "--"}
	nixscan, passthrough := SplitPassthroughArgs(args)
	assert.Equal(t, []string{"--verbose", "pkgs/hello/default.nix"}, nixscan)
	assert.Equal(t, []string{"--arg", "system", "x86_64-linux", "--"}, passthrough)

	nixscan, passthrough = SplitPassthroughArgs([]string{"default.nix"})
	assert.Equal(t, []string{"default.nix"}, nixscan)
	assert.Nil(t, passthrough)
}

func TestParseFlagSet_AnyOrder(t *testing.T) {
	for _, args := range [][]string{
		{"--output=build", "--marker_file", "package.nix", "a/default.nix"},
		{"a/default.nix", "--output=build", "--marker_file", "package.nix"},
		{"--output=build", "a/default.nix", "--marker_file=package.nix"},
	} {
		fs := flag.NewFlagSet("nixscan", flag.ContinueOnError)
		output := fs.String("output", "json", "")
		marker := fs.String("marker_file", "default.nix", "")

		err := ParseFlagSet(fs, args)
		require.NoError(t, err, "args: %v", args)
		assert.Equal(t, "build", *output)
		assert.Equal(t, "package.nix", *marker)
		assert.Equal(t, []string{"a/default.nix"}, fs.Args())
	}
}

func TestParseFlagSet_UnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("nixscan", flag.ContinueOnError)
	err := ParseFlagSet(fs, []string{"--nope", "a/default.nix"})
	require.Error(t, err)
}

func TestSplitPassthroughArgs_Empty(t *testing.T) {
	nixscan, passthrough := SplitPassthroughArgs([]string{"--"})
	assert.Empty(t, nixscan)
	assert.Empty(t, passthrough)
	assert.NotNil(t, passthrough)
}

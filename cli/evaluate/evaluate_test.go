package evaluate_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildbuddy-io/nixscan/cli/evaluate"
	"github.com/buildbuddy-io/nixscan/testutil/testfs"
	"github.com/buildbuddy-io/nixscan/util/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instantiateLog = `evaluating file '/nix/store/0c2xw-nix-2.18/share/nix/corepkgs/derivation.nix'
evaluating file '/ws/pkgs/hello/default.nix'
copied source '/ws/pkgs/hello/src' -> '/nix/store/kq1r-src'
trace: lorri read: '/ws/lib/version.txt'
trace: lorri readdir: '/ws/lib'
evaluating file 'relative/ignored.nix'
copied source '/nix/store/abc-already-there' -> '/nix/store/abc-already-there'
instantiated 'hello-1.0' -> '/nix/store/r9vx-hello-1.0.drv'
`

func TestParseInstantiateLog(t *testing.T) {
	paths, err := evaluate.ParseInstantiateLog(strings.NewReader(instantiateLog), "")
	require.NoError(t, err)
	assert.Equal(t, []evaluate.Path{
		{Kind: evaluate.File, Path: "/ws/pkgs/hello/default.nix"},
		{Kind: evaluate.Directory, Path: "/ws/pkgs/hello/src"},
		{Kind: evaluate.File, Path: "/ws/lib/version.txt"},
	}, paths)
}

func TestParseInstantiateLog_CustomStore(t *testing.T) {
	log := "evaluating file '/opt/store/x/default.nix'\nevaluating file '/nix/store/y/default.nix'\n"
	paths, err := evaluate.ParseInstantiateLog(strings.NewReader(log), "/opt/store")
	require.NoError(t, err)
	assert.Equal(t, []evaluate.Path{{Kind: evaluate.File, Path: "/nix/store/y/default.nix"}}, paths)
}

func TestNixInstantiate(t *testing.T) {
	ws := testfs.MakeTempDir(t)
	bin := testfs.MakeTempDir(t)
	argsFile := filepath.Join(bin, "args")
	fake := testfs.WriteExecutable(t, bin, "nix-instantiate", fmt.Sprintf(`#!/bin/sh
echo "$@" > %s
echo "evaluating file '%s/default.nix'" >&2
echo "copied source '%s/src' -> '/nix/store/aaaa-src'" >&2
echo "/nix/store/bbbb-unit.drv"
`, argsFile, ws, ws))

	e := evaluate.NewNixInstantiate(evaluate.Options{
		NixInstantiate: fake,
		ExtraArgs:      []string{"--arg", "system", `"x86_64-linux"`},
	})
	paths, err := e.Evaluate(context.Background(), filepath.Join(ws, "default.nix"))
	require.NoError(t, err)
	assert.Equal(t, []evaluate.Path{
		{Kind: evaluate.File, Path: filepath.Join(ws, "default.nix")},
		{Kind: evaluate.Directory, Path: filepath.Join(ws, "src")},
	}, paths)
	assert.Equal(t,
		fmt.Sprintf(`-vv --arg system "x86_64-linux" %s/default.nix`, ws),
		strings.TrimSpace(testfs.ReadFileAsString(t, bin, "args")))
}

func TestNixInstantiate_Prelude(t *testing.T) {
	bin := testfs.MakeTempDir(t)
	argsFile := filepath.Join(bin, "args")
	fake := testfs.WriteExecutable(t, bin, "nix-instantiate", fmt.Sprintf("#!/bin/sh\necho \"$@\" > %s\n", argsFile))

	e := evaluate.NewNixInstantiate(evaluate.Options{NixInstantiate: fake, Prelude: "/ws/prelude.nix"})
	paths, err := e.Evaluate(context.Background(), "/ws/a/default.nix")
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Equal(t, "-vv /ws/prelude.nix --argstr nix_file /ws/a/default.nix", strings.TrimSpace(testfs.ReadFileAsString(t, bin, "args")))
}

func TestNixInstantiate_Failure(t *testing.T) {
	bin := testfs.MakeTempDir(t)
	fake := testfs.WriteExecutable(t, bin, "nix-instantiate", `#!/bin/sh
echo "error: undefined variable 'hello'" >&2
exit 1
`)
	e := evaluate.NewNixInstantiate(evaluate.Options{NixInstantiate: fake})
	_, err := e.Evaluate(context.Background(), "/ws/default.nix")
	require.Error(t, err)
	assert.True(t, status.IsAbortedError(err))
	assert.Contains(t, err.Error(), "undefined variable 'hello'")
}

func TestNixInstantiate_MissingBinary(t *testing.T) {
	e := evaluate.NewNixInstantiate(evaluate.Options{NixInstantiate: filepath.Join(testfs.MakeTempDir(t), "nope")})
	_, err := e.Evaluate(context.Background(), "/ws/default.nix")
	require.Error(t, err)
	assert.True(t, status.IsAbortedError(err))
}

func TestNew(t *testing.T) {
	e, err := evaluate.New("", evaluate.Options{}, "")
	require.NoError(t, err)
	assert.IsType(t, &evaluate.NixInstantiate{}, e)

	e, err = evaluate.New(evaluate.NixKind, evaluate.Options{}, "")
	require.NoError(t, err)
	assert.IsType(t, &evaluate.NixInstantiate{}, e)

	_, err = evaluate.New("bazel", evaluate.Options{}, "")
	require.Error(t, err)
	assert.True(t, status.IsFailedPreconditionError(err))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file:/ws/a", evaluate.Path{Kind: evaluate.File, Path: "/ws/a"}.String())
	assert.Equal(t, "directory:/ws/b", evaluate.Path{Kind: evaluate.Directory, Path: "/ws/b"}.String())
	assert.Equal(t, "Kind(7)", evaluate.Kind(7).String())
}

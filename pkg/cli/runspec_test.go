package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasronge/ptclisp/pkg/cli"
	"github.com/andreasronge/ptclisp/pkg/ptclisp"
)

const specYAML = `
context:
  user: {name: Alice}
signature: "(user :map) -> :any"
tools:
  fetch:
    result: {ok: true}
    description: fetches a thing
  broken:
    error: backend down
  hidden:
    skip: true
timeout_ms: 500
float_precision: 2
journal: {}
`

func loadSpec(t *testing.T) *cli.RunSpec {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(specYAML), 0o644))
	spec, err := cli.LoadRunSpec(path)
	require.NoError(t, err)
	return spec
}

func TestLoadRunSpec(t *testing.T) {
	spec := loadSpec(t)
	assert.Equal(t, "(user :map) -> :any", spec.Signature)
	assert.Contains(t, spec.Tools, "fetch")
	require.NotNil(t, spec.FloatPrecision)
	assert.Equal(t, 2, *spec.FloatPrecision)
	assert.NotNil(t, spec.Journal)
}

func TestRunSpecDrivesRun(t *testing.T) {
	opts := loadSpec(t).Options()

	step := ptclisp.Run(`(get (tool/fetch {}) :ok)`, opts)
	require.Nil(t, step.Fail)
	assert.Equal(t, true, step.Return)

	step = ptclisp.Run(`(tool/broken {})`, opts)
	require.NotNil(t, step.Fail)
	assert.Equal(t, "tool_error", step.Fail.Reason)

	step = ptclisp.Run(`(tool/hidden {})`, opts)
	require.NotNil(t, step.Fail)
	assert.Equal(t, "tool_not_found", step.Fail.Reason)
}

func TestRenderStepJSON(t *testing.T) {
	step := ptclisp.Run("(+ 1 2)", ptclisp.Options{})
	var buf bytes.Buffer
	require.NoError(t, cli.RenderStep(&buf, step, cli.FormatJSON))
	assert.Contains(t, buf.String(), "\"return\": 3")
}

func TestRenderStepText(t *testing.T) {
	step := ptclisp.Run(`(do (println "hi") 7)`, ptclisp.Options{})
	var buf bytes.Buffer
	require.NoError(t, cli.RenderStep(&buf, step, cli.FormatText))
	out := buf.String()
	assert.Contains(t, out, "OK 7")
	assert.Contains(t, out, "hi")
}

func TestRenderStepTextFailure(t *testing.T) {
	step := ptclisp.Run(`(fail "nope")`, ptclisp.Options{})
	var buf bytes.Buffer
	require.NoError(t, cli.RenderStep(&buf, step, cli.FormatText))
	assert.Contains(t, buf.String(), "FAIL fail: nope")
}

package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/qweave/qweave/backend"
)

const testQASM = "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[1];\ncreg c[1];\nh q[0];\n"

func forestWorkflow(t *testing.T, circuits []string, operators [][]string, res *Resources) *Workflow {
	t.Helper()

	family, err := backend.Lookup("qe-forest")
	require.NoError(t, err)

	specs, err := family.CreateSpecs("wavefunction-simulator", 0, "")
	require.NoError(t, err)
	specJSON, err := specs.JSON()
	require.NoError(t, err)

	wf, err := Generate(family, specJSON, circuits, operators, res)
	require.NoError(t, err)
	return wf
}

func TestGenerateStructure(t *testing.T) {
	wf := forestWorkflow(t,
		[]string{testQASM, testQASM},
		[][]string{{"1 [Z0]"}, {"1 [X0]", "1 [Z0]"}},
		nil)

	assert.Equal(t, APIVersion, wf.APIVersion)
	assert.Equal(t, WorkflowName, wf.Name)
	require.Len(t, wf.Imports, 3)
	assert.Equal(t, "qweave", wf.Imports[0].Name)
	assert.Equal(t, "z-quantum-core", wf.Imports[1].Name)
	assert.Equal(t, "qe-forest", wf.Imports[2].Name)
	assert.Equal(t, "dev", wf.Imports[2].Parameters.Branch)
	assert.Equal(t, []string{"circuit-run-results"}, wf.Types)

	require.Len(t, wf.Steps, 2)
	for i, step := range wf.Steps {
		assert.Equal(t, fmt.Sprintf("run-circuit-%d", i), step.Name)
		assert.Equal(t, "python3", step.Config.Runtime.Language)
		assert.Equal(t, []string{"qweave", "z-quantum-core", "qe-forest"}, step.Config.Runtime.Imports)
		assert.Nil(t, step.Config.Resources)
		require.Len(t, step.Inputs, 3)
		assert.Equal(t, []Output{{Name: "results", Type: "circuit-run-results"}}, step.Outputs)
	}
}

func TestGenerateValidation(t *testing.T) {
	family, err := backend.Lookup("qe-forest")
	require.NoError(t, err)

	_, err = Generate(family, "{}", nil, nil, nil)
	assert.Error(t, err)

	_, err = Generate(family, "{}", []string{testQASM}, nil, nil)
	assert.Error(t, err)

	_, err = Generate(nil, "{}", []string{testQASM}, [][]string{{"1 [Z0]"}}, nil)
	assert.Error(t, err)
}

func TestGenerateGolden(t *testing.T) {
	wf := forestWorkflow(t,
		[]string{testQASM},
		[][]string{{"1 [Z0]"}},
		&Resources{CPU: "1000m", Memory: "1Gi"})

	raw, err := json.MarshalIndent(wf, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "workflow", append(raw, '\n'))
}

func TestMarshalYAMLKeyOrder(t *testing.T) {
	wf := forestWorkflow(t, []string{testQASM}, [][]string{{"1 [Z0]"}}, nil)

	raw, err := Marshal(wf)
	require.NoError(t, err)
	text := string(raw)

	assert.True(t, strings.HasPrefix(text, "apiVersion: io.orquestra.workflow/1.0.0\nname: circuit-run\nimports:\n"))

	order := []string{"apiVersion:", "name:", "imports:", "steps:", "types:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		require.GreaterOrEqual(t, idx, 0, "missing %q", key)
		assert.Greater(t, idx, last, "%q out of order", key)
		last = idx
	}

	assert.NotContains(t, text, "resources:")
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	wf := forestWorkflow(t, []string{testQASM}, [][]string{{"1 [Z0]"}}, nil)

	raw, err := Marshal(wf)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &doc))

	assert.Equal(t, "io.orquestra.workflow/1.0.0", doc["apiVersion"])
	assert.Equal(t, "circuit-run", doc["name"])
	assert.Equal(t, []any{"circuit-run-results"}, doc["types"])

	steps, ok := doc["steps"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 1)

	step, ok := steps[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-circuit-0", step["name"])

	inputs, ok := step["inputs"].([]any)
	require.True(t, ok)
	require.Len(t, inputs, 3)

	operators, ok := inputs[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `["1 [Z0]"]`, operators["operators"])
	assert.Equal(t, "string", operators["type"])

	circ, ok := inputs[2].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testQASM, circ["circuit"])
}

func TestStepIndex(t *testing.T) {
	idx, err := StepIndex("run-circuit-0")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = StepIndex("run-circuit-17")
	require.NoError(t, err)
	assert.Equal(t, 17, idx)

	for _, name := range []string{"", "run-circuit-", "run-circuit-x", "other-0", "run-circuit--1"} {
		_, err := StepIndex(name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "circuit-run-abc-0.yaml", Filename("abc", 0))
	assert.Equal(t, "circuit-run-abc-10.yaml", Filename("abc", 10))
}

func TestWriteFile(t *testing.T) {
	wf := forestWorkflow(t, []string{testQASM}, [][]string{{"1 [Z0]"}}, nil)

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := WriteFile(dir, Filename("abc", 0), wf)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "circuit-run-abc-0.yaml"), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	expected, err := Marshal(wf)
	require.NoError(t, err)
	assert.Equal(t, expected, written)
}

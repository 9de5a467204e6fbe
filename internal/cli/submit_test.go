package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qweave/qweave/backend"
	"github.com/qweave/qweave/internal/testutil"
	"github.com/qweave/qweave/internal/workflow"
)

// writeWorkflowFile builds a small but complete workflow on disk, the
// way the device would before submitting.
func writeWorkflowFile(t *testing.T, circuits int) string {
	t.Helper()

	family, err := backend.Lookup("qe-qulacs")
	require.NoError(t, err)

	qasms := make([]string, circuits)
	operators := make([][]string, circuits)
	for i := range qasms {
		qasms[i] = fmt.Sprintf("OPENQASM 2.0;\nqreg q[1];\n// circuit %d\n", i)
		operators[i] = []string{"1 [Z0]"}
	}

	wf, err := workflow.Generate(family, `{"module_name":"qequlacs.simulator"}`, qasms, operators, nil)
	require.NoError(t, err)

	path, err := workflow.WriteFile(t.TempDir(), "circuit-run-cli-0.yaml", wf)
	require.NoError(t, err)
	return path
}

func TestSubmitText(t *testing.T) {
	engine := testutil.NewFakeEngine(nil)
	path := writeWorkflowFile(t, 2)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newSubmitCommand(&SubmitOptions{RootOptions: rootOpts, Client: engine})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ Submitted")
	assert.Contains(t, output, "Workflow ID: fake-wf-1")
	assert.Equal(t, 1, engine.Submissions())
}

func TestSubmitJSON(t *testing.T) {
	engine := testutil.NewFakeEngine(nil)
	path := writeWorkflowFile(t, 1)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := newSubmitCommand(&SubmitOptions{RootOptions: rootOpts, Client: engine})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   submitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "fake-wf-1", resp.Data.WorkflowID)
	assert.Equal(t, path, resp.Data.Path)
}

func TestSubmitMissingFile(t *testing.T) {
	engine := testutil.NewFakeEngine(nil)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newSubmitCommand(&SubmitOptions{RootOptions: rootOpts, Client: engine})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E002]")
	assert.Equal(t, 0, engine.Submissions())
}

func TestSubmitDirectory(t *testing.T) {
	engine := testutil.NewFakeEngine(nil)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newSubmitCommand(&SubmitOptions{RootOptions: rootOpts, Client: engine})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "not a workflow file")
}

func TestSubmitEngineRejects(t *testing.T) {
	engine := testutil.NewFakeEngine(nil)
	engine.RejectSubmissions(errors.New("engine unavailable"))
	path := writeWorkflowFile(t, 1)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := newSubmitCommand(&SubmitOptions{RootOptions: rootOpts, Client: engine})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E003]")
	assert.Contains(t, buf.String(), "engine unavailable")
}

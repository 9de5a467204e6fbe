package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendsText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewBackendsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ 4 backend family(s)")
	for _, name := range []string{"qe-forest", "qe-ibmq", "qe-qiskit", "qe-qulacs"} {
		assert.Contains(t, output, name+":")
	}
	assert.Contains(t, output, "qeforest.simulator.ForestSimulator")
	assert.Contains(t, output, "wavefunction-simulator")
	assert.Contains(t, output, "IBMQX_TOKEN")
	assert.Contains(t, output, "all devices")
}

func TestBackendsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewBackendsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []backendInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 4)

	// Families() sorts by name.
	assert.Equal(t, "qe-forest", resp.Data[0].Name)
	assert.Equal(t, "qe-ibmq", resp.Data[1].Name)
	assert.Equal(t, "qe-qiskit", resp.Data[2].Name)
	assert.Equal(t, "qe-qulacs", resp.Data[3].Name)

	ibmq := resp.Data[1]
	assert.Equal(t, "qeqiskit.backend.QiskitBackend", ibmq.Entrypoint)
	assert.Equal(t, 8192, ibmq.DefaultShots)
	assert.True(t, ibmq.TokenRequired)
	assert.True(t, ibmq.ReversedBits)
	assert.False(t, ibmq.AllAnalytic)
	assert.Empty(t, ibmq.AnalyticDevices)

	qulacs := resp.Data[3]
	assert.True(t, qulacs.AllAnalytic)
	assert.False(t, qulacs.DeviceRequired)
}

func TestBackendsRejectsArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewBackendsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"qe-forest"})

	err := cmd.Execute()
	require.Error(t, err)
}

package workflow

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestJobFingerprintDeterministic(t *testing.T) {
	a, err := JobFingerprint("qasm", []string{"1 [Z0]"}, "specs")
	require.NoError(t, err)
	b, err := JobFingerprint("qasm", []string{"1 [Z0]"}, "specs")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Regexp(t, hexID, a)
}

func TestJobFingerprintSensitivity(t *testing.T) {
	variants := []struct {
		qasm      string
		operators []string
		specs     string
	}{
		{"qasm", []string{"1 [Z0]", "1 [X0]"}, "specs"},
		{"qasm2", []string{"1 [Z0]", "1 [X0]"}, "specs"},
		{"qasm", []string{"1 [X0]", "1 [Z0]"}, "specs"},
		{"qasm", []string{"1 [Z0]"}, "specs"},
		{"qasm", []string{"1 [Z0]", "1 [X0]"}, "specs2"},
	}

	seen := make(map[string]int)
	for i, v := range variants {
		fp, err := JobFingerprint(v.qasm, v.operators, v.specs)
		require.NoError(t, err)
		if prev, ok := seen[fp]; ok {
			t.Fatalf("variant %d collides with variant %d", i, prev)
		}
		seen[fp] = i
	}
}

func TestJobFingerprintEmptyOperators(t *testing.T) {
	fp, err := JobFingerprint("qasm", nil, "specs")
	require.NoError(t, err)
	assert.Regexp(t, hexID, fp)

	withOps, err := JobFingerprint("qasm", []string{"1 [Z0]"}, "specs")
	require.NoError(t, err)
	assert.NotEqual(t, fp, withOps)
}

func TestMustJobFingerprint(t *testing.T) {
	fp, err := JobFingerprint("qasm", []string{"1 [Z0]"}, "specs")
	require.NoError(t, err)
	assert.Equal(t, fp, MustJobFingerprint("qasm", []string{"1 [Z0]"}, "specs"))
}

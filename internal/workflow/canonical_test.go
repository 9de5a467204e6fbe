package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalSortsKeys(t *testing.T) {
	raw, err := MarshalCanonical(map[string]any{
		"b": 1,
		"a": 2,
		"c": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(raw))
}

func TestMarshalCanonicalSortsKeysUTF16(t *testing.T) {
	// U+1F600 encodes as a surrogate pair whose first code unit 0xD83D
	// sorts before U+FFFD in UTF-16, while its UTF-8 bytes sort after.
	raw, err := MarshalCanonical(map[string]any{
		"�":     1,
		"\U0001F600": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"�\":1}", string(raw))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	raw, err := MarshalCanonical(map[string]any{"k": "<a>&b</a>"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"<a>&b</a>"}`, string(raw))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	precomposed, err := MarshalCanonical(map[string]any{"k": "é"})
	require.NoError(t, err)

	decomposed, err := MarshalCanonical(map[string]any{"k": "é"})
	require.NoError(t, err)

	assert.Equal(t, string(precomposed), string(decomposed))
	assert.Equal(t, "{\"k\":\"é\"}", string(precomposed))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	// A real U+2028 stays a literal character.
	raw, err := MarshalCanonical(map[string]any{"k": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "{\"k\":\"a b\"}", string(raw))

	// A literal backslash followed by the text u2028 stays escaped.
	raw, err = MarshalCanonical(map[string]any{"k": `a\u2028`})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"a\\u2028"}`, string(raw))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)

	_, err = MarshalCanonical([]any{nil})
	assert.Error(t, err)
}

func TestMarshalCanonicalNested(t *testing.T) {
	raw, err := MarshalCanonical(map[string]any{
		"outer": map[string]any{"z": true, "a": []any{1, "two"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"outer":{"a":[1,"two"],"z":true}}`, string(raw))
}

func TestMarshalCanonicalFingerprintShape(t *testing.T) {
	// The exact object JobFingerprint hashes.
	raw, err := MarshalCanonical(map[string]any{
		"circuit":       "QASM",
		"operators":     []any{"OP1", "OP2"},
		"backend_specs": "SPECS",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`{"backend_specs":"SPECS","circuit":"QASM","operators":["OP1","OP2"]}`,
		string(raw))
}

package workflow

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Filename names the workflow file for one batch. offset is the index of
// the batch's first circuit within the full submission, so a split
// submission yields circuit-run-<id>-0.yaml, circuit-run-<id>-10.yaml
// and so on.
func Filename(id string, offset int) string {
	return fmt.Sprintf("circuit-run-%s-%d.yaml", id, offset)
}

// Marshal renders the workflow as YAML with two-space indentation.
func Marshal(wf *Workflow) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(wf); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode workflow: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile persists the workflow under dir, creating the directory if
// needed, and returns the full path.
func WriteFile(dir, filename string, wf *Workflow) (string, error) {
	raw, err := Marshal(wf)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workflow dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write workflow: %w", err)
	}
	return path, nil
}

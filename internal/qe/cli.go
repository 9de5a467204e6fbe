package qe

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultBinary      = "qe"
	defaultHTTPTimeout = 60 * time.Second

	submittedPhrase = "Successfully submitted workflow"
	resultFilename  = "workflow_result.json"
)

// runner abstracts subprocess execution for tests.
type runner interface {
	run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("run %s %s: %w", name, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// CLIClient drives the external qe binary and fetches result archives
// over HTTP.
type CLIClient struct {
	binary string
	http   *http.Client
	runner runner
}

// CLIOption configures a CLIClient.
type CLIOption func(*CLIClient)

// WithBinary overrides the qe binary path.
func WithBinary(path string) CLIOption {
	return func(c *CLIClient) {
		c.binary = path
	}
}

// WithHTTPClient overrides the HTTP client used for result archives.
func WithHTTPClient(hc *http.Client) CLIOption {
	return func(c *CLIClient) {
		c.http = hc
	}
}

// NewCLIClient builds a client that expects the qe binary on PATH
// unless WithBinary says otherwise.
func NewCLIClient(opts ...CLIOption) *CLIClient {
	c := &CLIClient{
		binary: defaultBinary,
		http:   &http.Client{Timeout: defaultHTTPTimeout},
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends the workflow file and parses the engine-assigned id out
// of the confirmation message. The id is the last whitespace-separated
// token of the response.
func (c *CLIClient) Submit(ctx context.Context, workflowPath string) (string, error) {
	out, err := c.runner.run(ctx, c.binary, "submit", "workflow", workflowPath)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(out)
	if !strings.Contains(out, submittedPhrase) || len(fields) == 0 {
		return "", &UnexpectedResponseError{Op: "submit", Response: out}
	}

	id := fields[len(fields)-1]
	slog.Debug("workflow submitted", "workflow_id", id, "path", workflowPath)
	return id, nil
}

// Details returns the engine's raw workflow description.
func (c *CLIClient) Details(ctx context.Context, id string) (string, error) {
	return c.runner.run(ctx, c.binary, "get", "workflow", id)
}

// Status classifies the workflow details into a phase. Succeeded is
// checked before the failure phrases, matching the engine's own summary
// line.
func (c *CLIClient) Status(ctx context.Context, id string) (Status, error) {
	details, err := c.Details(ctx, id)
	if err != nil {
		return "", err
	}
	switch {
	case strings.Contains(details, "Succeeded"):
		return StatusSucceeded, nil
	case strings.Contains(details, "Failed"), strings.Contains(details, "Error"):
		return StatusFailed, nil
	default:
		return StatusRunning, nil
	}
}

// Results asks the engine where the result archive lives, downloads it,
// and unpacks the per-step payloads. While the workflow is still
// running the engine's response carries no download URL; that surfaces
// as ErrResultsNotReady.
func (c *CLIClient) Results(ctx context.Context, id string) (map[string]StepResult, error) {
	out, err := c.runner.run(ctx, c.binary, "get", "workflowresult", id)
	if err != nil {
		return nil, err
	}

	url := ""
	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			url = field
			break
		}
	}
	if url == "" {
		return nil, fmt.Errorf("workflow %s: %w", id, ErrResultsNotReady)
	}

	slog.Debug("fetching workflow results", "workflow_id", id, "url", url)

	raw, err := c.fetchResultJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("workflow %s: %w", id, err)
	}

	return parseResults(id, raw)
}

// fetchResultJSON downloads the tar.gz archive and extracts the result
// document from it.
func (c *CLIClient) fetchResultJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch result archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch result archive: status %s", resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read result archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read result archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, resultFilename) {
			continue
		}
		raw, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		return raw, nil
	}

	return nil, fmt.Errorf("result archive has no %s", resultFilename)
}

// parseResults splits the result document into per-step payloads. Every
// artifact carries its stepName; steps finish out of order, so callers
// match payloads to circuits by the step name's numeric suffix.
func parseResults(id string, raw []byte) (map[string]StepResult, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &UnexpectedResponseError{Op: "results", WorkflowID: id, Response: string(raw)}
	}

	results := make(map[string]StepResult, len(doc))
	for key, rawStep := range doc {
		var meta struct {
			StepName string `json:"stepName"`
		}
		if err := json.Unmarshal(rawStep, &meta); err != nil || meta.StepName == "" {
			return nil, &UnexpectedResponseError{
				Op:         "results",
				WorkflowID: id,
				Response:   fmt.Sprintf("artifact %s has no stepName", key),
			}
		}
		if _, dup := results[meta.StepName]; dup {
			return nil, &UnexpectedResponseError{
				Op:         "results",
				WorkflowID: id,
				Response:   fmt.Sprintf("duplicate artifact for step %s", meta.StepName),
			}
		}
		results[meta.StepName] = StepResult{StepName: meta.StepName, Payload: rawStep}
	}

	return results, nil
}

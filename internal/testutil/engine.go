// Package testutil provides deterministic in-process stand-ins for the
// remote engine, plus builders for the raw payloads its steps emit.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/qweave/qweave/internal/qe"
	"github.com/qweave/qweave/internal/workflow"
)

// RespondFunc produces the raw payload for one step of a submitted
// workflow. stepIndex is the step's position within its workflow, and
// step carries the parsed step document, inputs included.
type RespondFunc func(workflowID string, stepIndex int, step workflow.Step) ([]byte, error)

// SubmittedWorkflow is one workflow the fake engine accepted.
type SubmittedWorkflow struct {
	ID       string
	Path     string
	Workflow *workflow.Workflow
}

// FakeEngine implements qe.Client against in-memory state. Submitted
// workflow files are read back and parsed, so tests can assert on the
// exact document the device produced. Workflow ids are assigned in
// submission order: fake-wf-1, fake-wf-2, and so on.
//
// By default every submitted workflow succeeds on the first results
// poll, answering each step through the configured RespondFunc.
// Individual workflows can be held pending or failed by id before the
// test submits them.
//
// Thread-safety: all methods are safe for concurrent use; the device
// polls workflows from separate goroutines.
type FakeEngine struct {
	mu         sync.Mutex
	respond    RespondFunc
	submitted  []*SubmittedWorkflow
	byID       map[string]*SubmittedWorkflow
	pending    map[string]bool
	failures   map[string]string
	submitErr  error
	resultWait map[string]int
}

// NewFakeEngine creates a fake engine. respond may be nil when the test
// never lets a workflow reach the results stage.
func NewFakeEngine(respond RespondFunc) *FakeEngine {
	return &FakeEngine{
		respond:    respond,
		byID:       make(map[string]*SubmittedWorkflow),
		pending:    make(map[string]bool),
		failures:   make(map[string]string),
		resultWait: make(map[string]int),
	}
}

// NeverReady holds a workflow id pending forever: results polls keep
// returning qe.ErrResultsNotReady and the status stays Running.
func (e *FakeEngine) NeverReady(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[id] = true
}

// ReadyAfter publishes a workflow's results only on the n-th poll;
// earlier polls return qe.ErrResultsNotReady.
func (e *FakeEngine) ReadyAfter(id string, polls int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resultWait[id] = polls
}

// FailWorkflow marks a workflow id as failed on the engine. Its results
// never publish, and the workflow details carry the diagnostic.
func (e *FakeEngine) FailWorkflow(id, diagnostic string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[id] = diagnostic
}

// RejectSubmissions makes every subsequent Submit call fail with err.
func (e *FakeEngine) RejectSubmissions(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitErr = err
}

// Submissions returns how many workflows were accepted.
func (e *FakeEngine) Submissions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.submitted)
}

// Submitted returns the accepted workflows in submission order.
func (e *FakeEngine) Submitted() []*SubmittedWorkflow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*SubmittedWorkflow, len(e.submitted))
	copy(out, e.submitted)
	return out
}

// Submit reads and parses the workflow file, records it, and returns
// the next sequential workflow id.
func (e *FakeEngine) Submit(ctx context.Context, workflowPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.submitErr != nil {
		return "", e.submitErr
	}

	raw, err := os.ReadFile(workflowPath)
	if err != nil {
		return "", fmt.Errorf("fake engine: read workflow: %w", err)
	}
	var wf workflow.Workflow
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return "", fmt.Errorf("fake engine: parse workflow: %w", err)
	}

	sub := &SubmittedWorkflow{
		ID:       fmt.Sprintf("fake-wf-%d", len(e.submitted)+1),
		Path:     workflowPath,
		Workflow: &wf,
	}
	e.submitted = append(e.submitted, sub)
	e.byID[sub.ID] = sub
	return sub.ID, nil
}

// Details reports the workflow's phase the way the engine's summary
// does, with the failure diagnostic appended for failed workflows.
func (e *FakeEngine) Details(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byID[id]; !ok {
		return "", &qe.UnexpectedResponseError{Op: "details", WorkflowID: id, Response: "unknown workflow"}
	}
	if diag, ok := e.failures[id]; ok {
		return fmt.Sprintf("Name: %s\nStatus: Failed\n%s\n", id, diag), nil
	}
	if e.pending[id] || e.resultWait[id] > 0 {
		return fmt.Sprintf("Name: %s\nStatus: Running\n", id), nil
	}
	return fmt.Sprintf("Name: %s\nStatus: Succeeded\n", id), nil
}

// Status classifies the workflow's phase.
func (e *FakeEngine) Status(ctx context.Context, id string) (qe.Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byID[id]; !ok {
		return "", &qe.UnexpectedResponseError{Op: "status", WorkflowID: id, Response: "unknown workflow"}
	}
	if _, ok := e.failures[id]; ok {
		return qe.StatusFailed, nil
	}
	if e.pending[id] || e.resultWait[id] > 0 {
		return qe.StatusRunning, nil
	}
	return qe.StatusSucceeded, nil
}

// Results answers every step of a finished workflow through the
// RespondFunc. Pending and failed workflows report not-ready, exactly
// like the real engine, which never publishes artifacts for them.
func (e *FakeEngine) Results(ctx context.Context, id string) (map[string]qe.StepResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	sub, ok := e.byID[id]
	if !ok {
		e.mu.Unlock()
		return nil, &qe.UnexpectedResponseError{Op: "results", WorkflowID: id, Response: "unknown workflow"}
	}
	if _, failed := e.failures[id]; failed || e.pending[id] {
		e.mu.Unlock()
		return nil, qe.ErrResultsNotReady
	}
	if e.resultWait[id] > 0 {
		e.resultWait[id]--
		e.mu.Unlock()
		return nil, qe.ErrResultsNotReady
	}
	respond := e.respond
	e.mu.Unlock()

	if respond == nil {
		return nil, fmt.Errorf("fake engine: no responder configured for %s", id)
	}

	results := make(map[string]qe.StepResult, len(sub.Workflow.Steps))
	for i, step := range sub.Workflow.Steps {
		payload, err := respond(id, i, step)
		if err != nil {
			return nil, err
		}
		results[step.Name] = qe.StepResult{StepName: step.Name, Payload: payload}
	}
	return results, nil
}

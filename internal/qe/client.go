// Package qe talks to the remote quantum engine through its CLI and the
// HTTP endpoint that serves result archives.
package qe

import (
	"context"
	"errors"
	"fmt"
)

// Status is the engine-side phase of a submitted workflow.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Client is the engine surface the device needs. Implementations must be
// safe for concurrent use: batch polling runs one goroutine per
// outstanding workflow.
type Client interface {
	// Submit sends a workflow file to the engine and returns the
	// engine-assigned workflow id.
	Submit(ctx context.Context, workflowPath string) (string, error)

	// Details returns the engine's raw description of a workflow,
	// suitable for diagnostics.
	Details(ctx context.Context, id string) (string, error)

	// Status classifies the workflow's current phase.
	Status(ctx context.Context, id string) (Status, error)

	// Results fetches and unpacks the result artifact, keyed by step
	// name. Returns ErrResultsNotReady while the engine has not
	// published the artifact yet.
	Results(ctx context.Context, id string) (map[string]StepResult, error)
}

// StepResult is one step's raw result payload. The payload stays an
// opaque JSON blob at this layer; it is exactly what the result cache
// stores.
type StepResult struct {
	StepName string
	Payload  []byte
}

// ErrResultsNotReady reports that the engine has not published the
// result artifact yet. Callers poll and retry.
var ErrResultsNotReady = errors.New("workflow results not ready")

// UnexpectedResponseError reports engine output that does not match any
// known response shape.
type UnexpectedResponseError struct {
	Op         string
	WorkflowID string
	Response   string
}

func (e *UnexpectedResponseError) Error() string {
	resp := e.Response
	if len(resp) > 200 {
		resp = resp[:200] + "..."
	}
	if e.WorkflowID != "" {
		return fmt.Sprintf("qe %s: unexpected response for workflow %s: %q", e.Op, e.WorkflowID, resp)
	}
	return fmt.Sprintf("qe %s: unexpected response: %q", e.Op, resp)
}

// IsUnexpectedResponse returns true if the error is an
// UnexpectedResponseError. Uses errors.As to handle wrapped errors.
func IsUnexpectedResponse(err error) bool {
	var ue *UnexpectedResponseError
	return errors.As(err, &ue)
}

package qweave

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a malformed execution request: an empty
// circuit list, a measurement without an observable, a sample
// measurement on an analytic device. Validation failures surface before
// anything is submitted and leave the device state untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation returns true if the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WorkflowTimeoutError reports workflows whose results did not arrive
// before the polling deadline. The listed workflows may still be
// running on the engine; their fingerprints are not cached, so a later
// execution submits them again.
type WorkflowTimeoutError struct {
	WorkflowIDs []string
	Timeout     time.Duration
}

func (e *WorkflowTimeoutError) Error() string {
	return fmt.Sprintf("results for workflow %s were not obtained after %s",
		strings.Join(e.WorkflowIDs, ", "), e.Timeout)
}

// IsWorkflowTimeout returns true if the error is a WorkflowTimeoutError.
// Uses errors.As to handle wrapped errors.
func IsWorkflowTimeout(err error) bool {
	var te *WorkflowTimeoutError
	return errors.As(err, &te)
}

// RemoteExecutionError reports a workflow the engine marked failed. The
// diagnostic is the engine's own workflow description; the device never
// retries, the caller decides what to do with the ids.
type RemoteExecutionError struct {
	WorkflowID string
	Diagnostic string
}

func (e *RemoteExecutionError) Error() string {
	diag := strings.TrimSpace(e.Diagnostic)
	if len(diag) > 200 {
		diag = diag[:200] + "..."
	}
	if diag == "" {
		return fmt.Sprintf("workflow %s failed on the remote engine", e.WorkflowID)
	}
	return fmt.Sprintf("workflow %s failed on the remote engine: %s", e.WorkflowID, diag)
}

// IsRemoteExecution returns true if the error is a RemoteExecutionError.
// Uses errors.As to handle wrapped errors.
func IsRemoteExecution(err error) bool {
	var re *RemoteExecutionError
	return errors.As(err, &re)
}

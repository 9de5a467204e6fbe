package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qweave/qweave/internal/qe"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions

	// Client allows overriding the engine client (for testing).
	// If nil, defaults to the qe CLI client.
	Client qe.Client
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return newStatusCommand(&StatusOptions{RootOptions: rootOpts})
}

func newStatusCommand(opts *StatusOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <workflow-id>",
		Short: "Show a submitted workflow's engine status",
		Long: `Show the engine-side phase of a submitted workflow together with
the engine's raw workflow description.

Example:
  qweave status fake-wf-1
  qweave status --format json fake-wf-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, args[0], cmd)
		},
	}

	return cmd
}

func runStatus(opts *StatusOptions, workflowID string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := newFormatter(opts.RootOptions, cmd)

	client := opts.Client
	if client == nil {
		client = qe.NewCLIClient()
	}

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	status, err := client.Status(ctx, workflowID)
	if err != nil {
		_ = formatter.Error(ErrCodeStatusFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "workflow status lookup failed", err)
	}

	details, err := client.Details(ctx, workflowID)
	if err != nil {
		_ = formatter.Error(ErrCodeStatusFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "workflow details lookup failed", err)
	}

	return outputStatus(formatter, workflowID, status, details)
}

// statusResult is the JSON payload for a status lookup.
type statusResult struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Details    string `json:"details,omitempty"`
}

func outputStatus(formatter *OutputFormatter, id string, status qe.Status, details string) error {
	if formatter.Format == "json" {
		return formatter.Success(statusResult{
			WorkflowID: id,
			Status:     string(status),
			Details:    details,
		})
	}

	fmt.Fprintf(formatter.Writer, "Workflow %s: %s\n", id, status)
	if trimmed := strings.TrimRight(details, "\n"); trimmed != "" {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintln(formatter.Writer, trimmed)
	}
	return nil
}

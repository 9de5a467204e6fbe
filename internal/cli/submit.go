package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/qweave/qweave/internal/qe"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions

	// Client allows overriding the engine client (for testing).
	// If nil, defaults to the qe CLI client.
	Client qe.Client
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	return newSubmitCommand(&SubmitOptions{RootOptions: rootOpts})
}

func newSubmitCommand(opts *SubmitOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <workflow.yaml>",
		Short: "Submit a workflow file to the engine",
		Long: `Submit a prepared workflow file to the quantum engine.

The file must already be a complete workflow; the device writes one per
batch into its data directory. On success the engine-assigned workflow
id is printed. Follow it with 'qweave status' and 'qweave results'.

Example:
  qweave submit ./circuit-run-1234-0.yaml
  qweave submit --format json ./circuit-run-1234-0.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, args[0], cmd)
		},
	}

	return cmd
}

func runSubmit(opts *SubmitOptions, workflowPath string, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)
	formatter := newFormatter(opts.RootOptions, cmd)

	info, err := os.Stat(workflowPath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("workflow file not found: %s", workflowPath), nil)
		return WrapExitError(ExitCommandError, "workflow file not found", err)
	}
	if info.IsDir() {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("not a workflow file: %s", workflowPath), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("not a workflow file: %s", workflowPath))
	}

	client := opts.Client
	if client == nil {
		client = qe.NewCLIClient()
	}

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("submitting workflow", "path", workflowPath)
	id, err := client.Submit(ctx, workflowPath)
	if err != nil {
		_ = formatter.Error(ErrCodeSubmitFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "workflow submission failed", err)
	}

	return outputSubmit(formatter, workflowPath, id)
}

// submitResult is the JSON payload for a successful submission.
type submitResult struct {
	WorkflowID string `json:"workflow_id"`
	Path       string `json:"path"`
}

func outputSubmit(formatter *OutputFormatter, path, id string) error {
	if formatter.Format == "json" {
		return formatter.Success(submitResult{WorkflowID: id, Path: path})
	}

	fmt.Fprintf(formatter.Writer, "✓ Submitted %s\n", path)
	fmt.Fprintf(formatter.Writer, "Workflow ID: %s\n", id)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/qweave/qweave/decode"
	"github.com/qweave/qweave/internal/qe"
	"github.com/qweave/qweave/internal/workflow"
)

// ResultsOptions holds flags for the results command.
type ResultsOptions struct {
	*RootOptions

	// Client allows overriding the engine client (for testing).
	// If nil, defaults to the qe CLI client.
	Client qe.Client
}

// NewResultsCommand creates the results command.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	return newResultsCommand(&ResultsOptions{RootOptions: rootOpts})
}

func newResultsCommand(opts *ResultsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results <workflow-id>",
		Short: "Fetch and summarize a workflow's step results",
		Long: `Fetch the result artifact of a finished workflow and summarize each
step's payload: statevector amplitudes, sample rows, or bitstring
counts. Use --format json for the raw payloads.

Example:
  qweave results fake-wf-1
  qweave results --format json fake-wf-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(opts, args[0], cmd)
		},
	}

	return cmd
}

func runResults(opts *ResultsOptions, workflowID string, cmd *cobra.Command) error {
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

	steps, err := client.Results(ctx, workflowID)
	if err != nil {
		if errors.Is(err, qe.ErrResultsNotReady) {
			_ = formatter.Error(ErrCodeNotReady, fmt.Sprintf("results for workflow %s are not ready yet", workflowID), nil)
			return WrapExitError(ExitFailure, "results not ready", err)
		}
		_ = formatter.Error(ErrCodeResultsFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "result retrieval failed", err)
	}

	summaries, err := summarizeSteps(steps)
	if err != nil {
		_ = formatter.Error(ErrCodeBadPayload, err.Error(), nil)
		return WrapExitError(ExitFailure, "result payload did not parse", err)
	}

	return outputResults(formatter, workflowID, summaries)
}

// stepSummary describes one step's parsed payload.
type stepSummary struct {
	StepName string          `json:"step_name"`
	Kind     string          `json:"kind"` // "statevector" | "samples" | "counts" | "empty"
	Size     int             `json:"size"` // amplitudes, rows, or distinct bitstrings
	Shots    int             `json:"shots,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// resultsReport is the JSON payload for a results fetch.
type resultsReport struct {
	WorkflowID string        `json:"workflow_id"`
	Steps      []stepSummary `json:"steps"`
}

// summarizeSteps parses every step payload and orders the summaries by
// the step name's numeric suffix. Steps finish out of order on the
// engine; the suffix is the submission order.
func summarizeSteps(steps map[string]qe.StepResult) ([]stepSummary, error) {
	names := make([]string, 0, len(steps))
	for name := range steps {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, errA := workflow.StepIndex(names[i])
		b, errB := workflow.StepIndex(names[j])
		if errA != nil || errB != nil {
			return names[i] < names[j]
		}
		return a < b
	})

	summaries := make([]stepSummary, 0, len(names))
	for _, name := range names {
		step := steps[name]
		p, err := decode.ParsePayload(step.Payload)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", name, err)
		}

		s := stepSummary{
			StepName: name,
			Shots:    p.Shots,
			Payload:  json.RawMessage(step.Payload),
		}
		switch {
		case p.Statevector != nil:
			s.Kind = "statevector"
			s.Size = len(p.Statevector)
		case p.Samples != nil:
			s.Kind = "samples"
			s.Size = len(p.Samples)
			if s.Shots == 0 {
				s.Shots = len(p.Samples)
			}
		case p.Counts != nil:
			s.Kind = "counts"
			s.Size = len(p.Counts)
			if s.Shots == 0 {
				for _, n := range p.Counts {
					s.Shots += int(n)
				}
			}
		default:
			s.Kind = "empty"
		}
		summaries = append(summaries, s)
	}

	return summaries, nil
}

func outputResults(formatter *OutputFormatter, id string, summaries []stepSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(resultsReport{WorkflowID: id, Steps: summaries})
	}

	fmt.Fprintf(formatter.Writer, "✓ Workflow %s: %d step result(s)\n\n", id, len(summaries))
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", s.StepName, describeSummary(s))
	}
	return nil
}

func describeSummary(s stepSummary) string {
	switch s.Kind {
	case "statevector":
		return fmt.Sprintf("statevector (%d amplitudes)", s.Size)
	case "samples":
		return fmt.Sprintf("samples (%d rows)", s.Size)
	case "counts":
		return fmt.Sprintf("counts (%d bitstrings, %d shots)", s.Size, s.Shots)
	default:
		return "empty payload"
	}
}

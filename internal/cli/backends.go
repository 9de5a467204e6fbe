package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qweave/qweave/backend"
)

// backendInfo is one catalog family flattened for output.
type backendInfo struct {
	Name            string   `json:"name"`
	Component       string   `json:"component"`
	Entrypoint      string   `json:"entrypoint"` // module.function the step calls
	DefaultShots    int      `json:"default_shots"`
	DeviceRequired  bool     `json:"device_required"`
	TokenRequired   bool     `json:"token_required"`
	AllAnalytic     bool     `json:"all_analytic"`
	AnalyticDevices []string `json:"analytic_devices,omitempty"`
	ReversedBits    bool     `json:"reversed_bits"`
}

// NewBackendsCommand creates the backends command.
func NewBackendsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the backend families in the catalog",
		Long: `List every backend family the embedded catalog declares.

Each family names the remote component a workflow imports, the python
entrypoint its steps call, and the device/shots rules the device
enforces before submitting anything.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackends(rootOpts, cmd)
		},
	}

	return cmd
}

func runBackends(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	families, err := backend.Families()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading backend catalog", err)
	}

	infos := make([]backendInfo, 0, len(families))
	for _, f := range families {
		infos = append(infos, backendInfo{
			Name:            f.Name,
			Component:       f.Component,
			Entrypoint:      f.Module + "." + f.Function,
			DefaultShots:    f.DefaultShots,
			DeviceRequired:  f.DeviceRequired,
			TokenRequired:   f.TokenRequired,
			AllAnalytic:     f.AllAnalytic,
			AnalyticDevices: f.AnalyticDevices,
			ReversedBits:    f.ReversedBits,
		})
	}

	return outputBackends(formatter, infos)
}

// outputBackends renders the catalog listing.
func outputBackends(formatter *OutputFormatter, infos []backendInfo) error {
	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d backend family(s)\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s:\n", info.Name)
		fmt.Fprintf(formatter.Writer, "  entrypoint:    %s (%s)\n", info.Entrypoint, info.Component)
		fmt.Fprintf(formatter.Writer, "  default shots: %d\n", info.DefaultShots)
		if info.DeviceRequired {
			fmt.Fprintf(formatter.Writer, "  device:        required\n")
		} else {
			fmt.Fprintf(formatter.Writer, "  device:        optional\n")
		}
		if info.TokenRequired {
			fmt.Fprintf(formatter.Writer, "  token:         required (%s)\n", backend.TokenEnv)
		}
		fmt.Fprintf(formatter.Writer, "  analytic:      %s\n", analyticSummary(info))
		if info.ReversedBits {
			fmt.Fprintf(formatter.Writer, "  bit order:     reversed\n")
		}
		fmt.Fprintln(formatter.Writer)
	}

	return nil
}

// analyticSummary names which devices accept shots == 0.
func analyticSummary(info backendInfo) string {
	switch {
	case info.AllAnalytic:
		return "all devices"
	case len(info.AnalyticDevices) > 0:
		return strings.Join(info.AnalyticDevices, ", ")
	default:
		return "unsupported (shots required)"
	}
}

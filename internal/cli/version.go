package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI version, overridden at build time:
//
//	go build -ldflags "-X github.com/qweave/qweave/internal/cli.Version=v0.2.0"
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "version",
		Short:         "Print the qweave version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"version": Version})
			}
			fmt.Fprintf(formatter.Writer, "qweave %s\n", Version)
			return nil
		},
	}

	return cmd
}

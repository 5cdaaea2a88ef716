package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "opsconsole",
		Short:         "Ops Console is a terminal console for a remote command backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newConsoleCommand(logger))
	root.AddCommand(newExecCommand(logger))
	root.AddCommand(newSignCommand())
	root.AddCommand(newRosterCommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}

// Package cli wires configuration, storage and transport into the cobra
// commands shipped by the server binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

func NewRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:   "meetings",
		Short: "Meeting reservation API with conflict checking and e-mail confirmations",
		// running the binary without a subcommand starts the API
		RunE:          serve.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(serve)
	root.AddCommand(newNotifierCmd())
	root.AddCommand(newMigrateCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

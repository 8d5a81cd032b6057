package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "cluster-manager",
	Short:        "Workspace cluster manager",
	SilenceUsage: true,
}

// Execute runs the command line
func Execute(ctx context.Context) error {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd.ExecuteContext(ctx)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("cluster-manager version %s\n", Version)
		},
	}
}

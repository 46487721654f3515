// cmd/sentinel/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "devel"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "PostgreSQL failover orchestrator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newFailoverCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sentinel version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("sentinel %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

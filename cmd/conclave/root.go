package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conclave",
	Short: "Multi-agent coordination and feedback triage",
	Long: `Conclave coordinates a fleet of in-process agents: it routes messages
between roles, versions deliverables, runs approval and checkpoint
workflows, and triages free-text human feedback onto the right agent.

With no arguments, starts the coordination service with the pending-
decisions inbox TUI. Use 'conclave run --headless' for a TUI-less
service, or the subcommands for one-shot operations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runService(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the inbox TUI")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(checkpointsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Package main provides the entry point for the scapegoat workbench CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scapegoat/cmd/scapegoat/commands"
	"github.com/Sumatoshi-tech/scapegoat/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scapegoat",
		Short: "Scapegoat Workbench - stress, benchmark and inspect scapegoat trees",
		Long: `Scapegoat is a workbench around the scapegoat tree library.

Commands:
  stress    Randomized oracle stress over a sharded set
  bench     Point-op and lifecycle throughput measurements
  plot      Balance behavior charts across alpha values
  dump      Render the structure of a small tree`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	// Add commands.
	rootCmd.AddCommand(commands.NewStressCommand())
	rootCmd.AddCommand(commands.NewBenchCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(commands.NewDumpCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "scapegoat %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

// Package cmd provides the CLI commands for filesentry.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/filesentry/filesentry/internal/logging"
	"github.com/filesentry/filesentry/pkg/version"
)

var (
	debugMode      bool
	logFile        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the filesentry CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filesentry",
		Short: "Notify once per settled change of a watched file",
		Long: `filesentry watches files and reports each change exactly once, after the
file has settled: multi-step saves (truncate-then-write, temp-file renames,
rapid successive writes) are coalesced by a grace period instead of being
reported step by step.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("filesentry version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (size-rotated)")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = teardownLogging

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg.Level = "debug"
	}
	cfg.FilePath = logFile

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

func teardownLogging(cmd *cobra.Command, args []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pulsar-engine/installer/internal/logger"
)

// Command-line flags shared by all subcommands
var (
	logLevel string = "" // Empty means the default (info)
	logFile  string = "" // Empty means console only
)

func main() {
	_, cleanup := logger.Init()
	defer cleanup()

	rootCmd := createRootCommand()

	// Handle log level and log file overrides after flag parsing
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if logLevel != "" {
			logger.SetLogLevel(logLevel)
		}
		if logFile != "" {
			if _, fileCleanup, err := logger.InitWithConfig(logger.Config{Level: logLevel, FilePath: logFile}); err == nil {
				cobra.OnFinalize(fileCleanup)
			} else {
				logger.Logger().Warnf("could not open log file %s: %v", logFile, err)
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createRootCommand creates and configures the root cobra command with all subcommands
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pulsar-installer",
		Short: "Installer for the Pulsar game engine",
		Long: `pulsar-installer downloads, verifies and installs the Pulsar game
engine, registering it with the operating system and recording everything it
creates so the installation can be removed symmetrically.

Use 'pulsar-installer --help' to see available commands.
Use 'pulsar-installer <command> --help' for more information about a command.`,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Log file path to tee logs")

	rootCmd.AddCommand(createInstallCommand())
	rootCmd.AddCommand(createUninstallCommand())
	rootCmd.AddCommand(createVersionCommand())

	return rootCmd
}

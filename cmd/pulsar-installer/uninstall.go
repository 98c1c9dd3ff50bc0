package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulsar-engine/installer/internal/logger"
	"github.com/pulsar-engine/installer/internal/platform"
)

// Uninstall command flags
var (
	metadataPath string = "" // Empty means the platform's conventional location
)

// createUninstallCommand creates the uninstall subcommand
func createUninstallCommand() *cobra.Command {
	uninstallCmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove an installed Pulsar engine",
		Long: `Remove a Pulsar installation using the metadata recorded at install
time: platform integration first, then every recorded artifact, then the
install directory itself.`,
		Args: cobra.NoArgs,
		RunE: executeUninstall,
	}

	uninstallCmd.Flags().StringVar(&metadataPath, "metadata", "",
		"Path to the uninstall metadata file")

	return uninstallCmd
}

// executeUninstall handles the uninstall command execution logic
func executeUninstall(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	registrar := platform.NewHostRegistrar()
	metaPath := metadataPath
	if metaPath == "" {
		metaPath = registrar.MetadataPath()
	}

	uninstaller, err := platform.UninstallerFromMetadata(metaPath, registrar)
	if err != nil {
		return fmt.Errorf("no installation found (metadata at %s): %w", metaPath, err)
	}

	meta := uninstaller.Metadata()
	log.Infof("removing %s %s from %s", meta.AppName, meta.Version, meta.InstallPath)

	bar, sink := consoleSink()
	if err := uninstaller.Uninstall(sink); err != nil {
		_ = bar.Clear()
		return err
	}
	_ = bar.Finish()

	log.Info("uninstall completed successfully")
	return nil
}

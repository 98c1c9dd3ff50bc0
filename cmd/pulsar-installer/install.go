package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pulsar-engine/installer/internal/component"
	"github.com/pulsar-engine/installer/internal/download"
	"github.com/pulsar-engine/installer/internal/logger"
	"github.com/pulsar-engine/installer/internal/platform"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/steps"
	"github.com/pulsar-engine/installer/internal/sysinfo"
	"github.com/pulsar-engine/installer/internal/utils/convert"
)

// Install command flags
var (
	configFile    string   = ""
	installPath   string   = "" // Empty means the platform default
	assetURL      string   = "" // Empty means resolve via the releases API
	assetChecksum string   = "" // Empty skips verification
	assetVersion  string   = "" // Only meaningful together with --asset-url
	releaseOwner  string   = "pulsar-engine"
	releaseRepo   string   = "pulsar"
	components    []string = nil // Empty means every catalog component
	minDiskSpace  string   = "" // Size string, e.g. "2GiB"; empty keeps the config value
)

// componentPayloads maps catalog ids to the payload paths each component owns
// inside the extracted release archive.
var componentPayloads = map[string][]string{
	"engine": {"bin", "lib"},
	"tools":  {"plugins"},
	"docs":   {"docs"},
}

// createInstallCommand creates the install subcommand
func createInstallCommand() *cobra.Command {
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Download and install the Pulsar engine",
		Long: `Download the Pulsar release for this platform, verify it, and install
the selected components. Every change is recorded and rolled back if any part
of the installation fails.`,
		Args: cobra.NoArgs,
		RunE: executeInstall,
	}

	installCmd.Flags().StringVar(&configFile, "config", "",
		"Path to an installer configuration file (YAML)")
	installCmd.Flags().StringVar(&installPath, "install-path", "",
		"Installation directory (defaults to the platform convention)")
	installCmd.Flags().StringVar(&assetURL, "asset-url", "",
		"Direct URL of the release archive, bypassing the releases API")
	installCmd.Flags().StringVar(&assetChecksum, "checksum", "",
		"Expected hex SHA-256 of the release archive")
	installCmd.Flags().StringVar(&assetVersion, "asset-version", "",
		"Version label when installing from --asset-url")
	installCmd.Flags().StringVar(&releaseOwner, "release-owner", "pulsar-engine",
		"GitHub owner of the release repository")
	installCmd.Flags().StringVar(&releaseRepo, "release-repo", "pulsar",
		"GitHub release repository")
	installCmd.Flags().StringSliceVar(&components, "components", nil,
		"Components to install (defaults to all)")
	installCmd.Flags().StringVar(&minDiskSpace, "min-disk-space", "",
		"Required free disk space, e.g. 2GiB (overrides the config value)")

	return installCmd
}

// executeInstall handles the install command execution logic
func executeInstall(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector := sysinfo.NewHostDetector()

	cfg, err := loadInstallConfig(detector)
	if err != nil {
		return err
	}

	catalog, err := defaultCatalog()
	if err != nil {
		return err
	}
	selection := buildSelection(catalog, cfg.SelectedComponents)
	cfg.SelectedComponents = selection.IDs()
	if err := cfg.Validate(); err != nil {
		return err
	}

	url, version, err := resolveAsset(ctx, detector)
	if err != nil {
		return err
	}
	log.Infof("installing Pulsar %s to %s (components: %s, ~%s)",
		version, cfg.InstallPath, strings.Join(selection.IDs(), ", "),
		convert.HumanSize(selection.TotalSize()))

	staging, err := os.MkdirTemp("", "pulsar-install-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	archivePath := filepath.Join(staging, path.Base(url))
	payloadDir := filepath.Join(staging, "payload")

	installers := make([]component.Installer, 0, len(catalog.Components()))
	for _, comp := range catalog.Components() {
		installers = append(installers,
			component.NewStagedInstaller(comp, payloadDir, componentPayloads[comp.ID]))
	}

	registrar := platform.NewHostRegistrar()
	registerEnabled := cfg.CreateDesktopShortcut || cfg.CreateStartMenuShortcut

	pipeline := steps.New(
		steps.NewCheckRequirementsStep(detector, cfg.SysRequirements(), cfg.InstallPath),
		steps.NewCreateDirectoriesStep(cfg.InstallPath),
		steps.NewDownloadAssetStep(download.NewManager(), download.Task{
			URL:              url,
			DestinationPath:  archivePath,
			ExpectedChecksum: assetChecksum,
		}),
		steps.NewExtractArchiveStep(archivePath, payloadDir),
		steps.NewInstallComponentsStep(installers, selection, cfg.InstallPath),
		steps.NewRegisterStep(registrar, cfg.InstallPath, version, registerEnabled),
		steps.NewFinalizeStep(cfg.InstallPath, version, selection.IDs(), cfg.AddToPath),
	)

	bar, sink := consoleSink()
	if err := pipeline.Run(ctx, sink); err != nil {
		_ = bar.Clear()
		log.Errorf("installation failed: %v", err)
		return err
	}
	_ = bar.Finish()

	log.Infof("Pulsar %s installed successfully", version)
	return nil
}

// loadInstallConfig merges the config file (or defaults) with flag overrides.
func loadInstallConfig(detector sysinfo.Detector) (component.Config, error) {
	cfg := component.DefaultConfig(detector.DefaultInstallPath())
	if configFile != "" {
		loaded, err := component.LoadConfig(configFile)
		if err != nil {
			return component.Config{}, err
		}
		cfg = loaded
	}
	if installPath != "" {
		cfg.InstallPath = installPath
	}
	if len(components) > 0 {
		cfg.SelectedComponents = components
	}
	if minDiskSpace != "" {
		bytes, err := convert.NormalizeSizeToBytes(minDiskSpace)
		if err != nil {
			return component.Config{}, fmt.Errorf("invalid --min-disk-space: %w", err)
		}
		cfg.Requirements.MinDiskSpaceBytes = bytes
	}
	return cfg, nil
}

// buildSelection seeds a selection from the configured ids. An empty list
// selects the whole catalog.
func buildSelection(catalog *component.Catalog, ids []string) *component.Selection {
	selection := component.NewSelection(catalog)
	if len(ids) == 0 {
		for _, comp := range catalog.Components() {
			selection.Select(comp.ID)
		}
		return selection
	}
	for _, id := range ids {
		selection.Select(id)
	}
	return selection
}

// resolveAsset determines the archive URL and version, either from flags or
// from the latest stable GitHub release.
func resolveAsset(ctx context.Context, detector sysinfo.Detector) (url, version string, err error) {
	if assetURL != "" {
		version = assetVersion
		if version == "" {
			version = "custom"
		}
		return assetURL, version, nil
	}

	client := download.NewReleaseClient(releaseOwner, releaseRepo)
	release, err := client.LatestRelease(ctx)
	if err != nil {
		return "", "", err
	}
	asset, err := download.FindAsset(release, runtime.GOOS, detector.Architecture())
	if err != nil {
		return "", "", err
	}
	return asset.BrowserDownloadURL, strings.TrimPrefix(release.TagName, "v"), nil
}

// defaultCatalog is the built-in component set of a Pulsar release.
func defaultCatalog() (*component.Catalog, error) {
	return component.NewCatalog([]component.Component{
		{
			ID:          "engine",
			DisplayName: "Pulsar Engine",
			Description: "Core engine runtime and editor",
			SizeBytes:   500 * convert.MiB,
			Required:    true,
		},
		{
			ID:          "tools",
			DisplayName: "Development Tools",
			Description: "Plugins and asset pipeline tooling",
			SizeBytes:   120 * convert.MiB,
		},
		{
			ID:          "docs",
			DisplayName: "Documentation",
			Description: "Offline manual and API reference",
			SizeBytes:   30 * convert.MiB,
		},
	})
}

// consoleSink renders pipeline progress on a single progress bar.
func consoleSink() (*progressbar.ProgressBar, progress.Sink) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(10),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	sink := func(p progress.Progress) {
		if p.Message != "" {
			bar.Describe(p.Message)
		}
		_ = bar.Set(int(p.Percent))
	}
	return bar, sink
}

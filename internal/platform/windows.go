package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

const uninstallKeyPath = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Pulsar`

// WindowsRegistrar registers the install in Add/Remove Programs and creates
// a Start Menu folder. Construction works on any platform (so the pipeline
// can be assembled in tests); Register fails with UnsupportedPlatform off
// Windows.
type WindowsRegistrar struct {
	startMenuDir string
	dataDir      string
}

// NewWindowsRegistrar resolves the per-user Start Menu and AppData layout.
func NewWindowsRegistrar() *WindowsRegistrar {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = `C:\Users\Default`
		}
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return &WindowsRegistrar{
		startMenuDir: filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", AppName),
		dataDir:      filepath.Join(appData, AppName),
	}
}

// Register writes the registry uninstall entry, the Start Menu folder, and
// the uninstall metadata.
func (r *WindowsRegistrar) Register(installPath, version string, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	sink(progress.New(0).WithMessage("Registering with Windows"))

	if err := writeUninstallKey(installPath, version); err != nil {
		return err
	}
	sink(progress.New(40))

	if err := file.EnsureDir(r.startMenuDir, 0o755); err != nil {
		return &errdefs.IoError{Path: r.startMenuDir, Err: err}
	}
	// A .lnk shell link needs COM; a .bat launcher keeps the step
	// dependency-free and still lands in Start Menu search.
	launcher := filepath.Join(r.startMenuDir, AppName+".bat")
	content := fmt.Sprintf("@echo off\r\nstart \"\" \"%s\"\r\n", filepath.Join(installPath, "pulsar.exe"))
	if err := os.WriteFile(launcher, []byte(content), 0o755); err != nil {
		return &errdefs.IoError{Path: launcher, Err: err}
	}
	sink(progress.New(70).WithMessage("Writing uninstall metadata"))

	if err := file.EnsureDir(r.dataDir, 0o755); err != nil {
		return &errdefs.IoError{Path: r.dataDir, Err: err}
	}
	meta := NewMetadata(version, installPath, r.ArtifactPaths())
	if err := WriteMetadata(r.MetadataPath(), meta); err != nil {
		return err
	}

	sink(progress.New(100).WithMessage("Windows registration complete"))
	return nil
}

// Unregister removes the registry key, Start Menu folder, and metadata.
func (r *WindowsRegistrar) Unregister(string) error {
	if err := deleteUninstallKey(); err != nil {
		return err
	}
	if err := os.RemoveAll(r.startMenuDir); err != nil && !os.IsNotExist(err) {
		return &errdefs.IoError{Path: r.startMenuDir, Err: err}
	}
	return removeIfExists(r.MetadataPath())
}

// ArtifactPaths lists the locations Register touches.
func (r *WindowsRegistrar) ArtifactPaths() map[string]string {
	return map[string]string{
		"start_menu_dir": r.startMenuDir,
		"registry_key":   `HKLM\` + uninstallKeyPath,
		"metadata":       r.MetadataPath(),
	}
}

// MetadataPath is where the uninstall record lives.
func (r *WindowsRegistrar) MetadataPath() string {
	return filepath.Join(r.dataDir, MetadataFileName)
}

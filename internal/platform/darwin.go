package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

// DarwinRegistrar completes a macOS .app bundle: it writes Info.plist into
// the bundle and persists the uninstall metadata under Application Support.
// Launch Services indexes the bundle on its own; no registration call is
// needed.
type DarwinRegistrar struct {
	dataDir    string
	binaryName string
}

// NewDarwinRegistrar uses the conventional Application Support location.
func NewDarwinRegistrar() *DarwinRegistrar {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/Users/Shared"
	}
	return &DarwinRegistrar{
		dataDir:    filepath.Join(home, "Library", "Application Support", AppName),
		binaryName: "pulsar",
	}
}

// Register writes the bundle's Info.plist and the uninstall metadata.
// installPath is the .app bundle root.
func (r *DarwinRegistrar) Register(installPath, version string, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	sink(progress.New(0).WithMessage("Creating app bundle metadata"))

	contentsDir := filepath.Join(installPath, "Contents")
	if err := file.EnsureDir(filepath.Join(contentsDir, "MacOS"), 0o755); err != nil {
		return &errdefs.IoError{Path: contentsDir, Err: err}
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>%s</string>
	<key>CFBundleIdentifier</key>
	<string>com.pulsar-engine.pulsar</string>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>CFBundlePackageType</key>
	<string>APPL</string>
	<key>CFBundleShortVersionString</key>
	<string>%s</string>
	<key>LSMinimumSystemVersion</key>
	<string>11.0</string>
</dict>
</plist>
`, r.binaryName, AppName, version)

	plistPath := filepath.Join(contentsDir, "Info.plist")
	if err := os.WriteFile(plistPath, []byte(plist), 0o644); err != nil {
		return &errdefs.IoError{Path: plistPath, Err: err}
	}
	sink(progress.New(60).WithMessage("Writing uninstall metadata"))

	if err := file.EnsureDir(r.dataDir, 0o755); err != nil {
		return &errdefs.IoError{Path: r.dataDir, Err: err}
	}
	meta := NewMetadata(version, installPath, r.ArtifactPaths())
	if err := WriteMetadata(r.MetadataPath(), meta); err != nil {
		return err
	}

	sink(progress.New(100).WithMessage("App bundle registered"))
	return nil
}

// Unregister removes the metadata record. The bundle itself is removed by
// the uninstaller.
func (r *DarwinRegistrar) Unregister(string) error {
	return removeIfExists(r.MetadataPath())
}

// ArtifactPaths lists the locations Register touches.
func (r *DarwinRegistrar) ArtifactPaths() map[string]string {
	return map[string]string{
		"metadata": r.MetadataPath(),
	}
}

// MetadataPath is where the uninstall record lives.
func (r *DarwinRegistrar) MetadataPath() string {
	return filepath.Join(r.dataDir, MetadataFileName)
}

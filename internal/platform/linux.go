package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

const desktopEntryName = "pulsar.desktop"

// LinuxRegistrar creates freedesktop.org integration: a desktop entry, icon
// directories, an executable bit on the installed binary, and the uninstall
// metadata. User installs go under ~/.local, system installs under /usr.
type LinuxRegistrar struct {
	applicationsDir string
	iconBaseDir     string
	dataDir         string
}

// NewLinuxRegistrar resolves the freedesktop directory layout.
func NewLinuxRegistrar(useSystemDirs bool) *LinuxRegistrar {
	if useSystemDirs {
		return &LinuxRegistrar{
			applicationsDir: "/usr/share/applications",
			iconBaseDir:     "/usr/share/icons/hicolor",
			dataDir:         "/usr/share/pulsar",
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "/home/default"
	}
	share := filepath.Join(home, ".local", "share")
	return &LinuxRegistrar{
		applicationsDir: filepath.Join(share, "applications"),
		iconBaseDir:     filepath.Join(share, "icons", "hicolor"),
		dataDir:         filepath.Join(share, "pulsar"),
	}
}

// Register writes the desktop entry, marks the binary executable, and
// persists the uninstall metadata.
func (r *LinuxRegistrar) Register(installPath, version string, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	sink(progress.New(0).WithMessage("Registering with the desktop environment"))

	if info, err := os.Stat(installPath); err == nil && info.Mode().IsRegular() {
		if err := os.Chmod(installPath, info.Mode().Perm()|0o755); err != nil {
			return &errdefs.IoError{Path: installPath, Err: err}
		}
	}
	sink(progress.New(30))

	if err := r.writeDesktopEntry(installPath, version); err != nil {
		return err
	}
	sink(progress.New(70).WithMessage("Writing uninstall metadata"))

	if err := file.EnsureDir(r.dataDir, 0o755); err != nil {
		return &errdefs.IoError{Path: r.dataDir, Err: err}
	}
	meta := NewMetadata(version, installPath, r.ArtifactPaths())
	if err := WriteMetadata(r.MetadataPath(), meta); err != nil {
		return err
	}

	sink(progress.New(100).WithMessage("Desktop integration complete"))
	return nil
}

// Unregister removes the desktop entry and metadata with remove-if-exists
// semantics; it must tolerate a partially applied Register.
func (r *LinuxRegistrar) Unregister(string) error {
	if err := removeIfExists(filepath.Join(r.applicationsDir, desktopEntryName)); err != nil {
		return err
	}
	return removeIfExists(r.MetadataPath())
}

// ArtifactPaths lists the locations Register touches.
func (r *LinuxRegistrar) ArtifactPaths() map[string]string {
	return map[string]string{
		"desktop_entry": filepath.Join(r.applicationsDir, desktopEntryName),
		"icon_dir":      r.iconBaseDir,
		"metadata":      r.MetadataPath(),
	}
}

// MetadataPath is where the uninstall record lives.
func (r *LinuxRegistrar) MetadataPath() string {
	return filepath.Join(r.dataDir, MetadataFileName)
}

func (r *LinuxRegistrar) writeDesktopEntry(installPath, version string) error {
	if err := file.EnsureDir(r.applicationsDir, 0o755); err != nil {
		return &errdefs.IoError{Path: r.applicationsDir, Err: err}
	}

	entry := fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Comment=Pulsar game engine
Exec=%s
Icon=pulsar
Terminal=false
Categories=Development;IDE;
X-AppVersion=%s
`, AppName, installPath, version)

	path := filepath.Join(r.applicationsDir, desktopEntryName)
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return &errdefs.IoError{Path: path, Err: err}
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &errdefs.IoError{Path: path, Err: err}
	}
	return nil
}

// Package platform integrates a completed installation with the host OS:
// shortcuts, desktop entries, app bundles, registry keys, and the uninstall
// metadata that drives symmetric removal. The pipeline consumes this package
// only through the Registrar interface.
package platform

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

// AppName is the product name used for shortcuts and metadata.
const AppName = "Pulsar"

// MetadataFileName is the uninstall record written next to the platform's
// data directory.
const MetadataFileName = "uninstall_metadata.json"

// Registrar performs OS-specific integration for a completed install
// location. Implementations are chosen at pipeline construction time.
type Registrar interface {
	// Register creates the platform artifacts for the installed version and
	// writes the uninstall metadata.
	Register(installPath, version string, sink progress.Sink) error

	// Unregister removes the artifacts created by Register, tolerating
	// partially applied state.
	Unregister(installPath string) error

	// ArtifactPaths maps artifact kinds (e.g. "desktop_entry", "icon_dir",
	// "registry_key") to the locations Register uses.
	ArtifactPaths() map[string]string

	// MetadataPath is where Register writes the uninstall record.
	MetadataPath() string
}

// NewHostRegistrar returns the registrar for the running platform.
func NewHostRegistrar() Registrar {
	switch runtime.GOOS {
	case "windows":
		return NewWindowsRegistrar()
	case "darwin":
		return NewDarwinRegistrar()
	default:
		return NewLinuxRegistrar(false)
	}
}

// UninstallMetadata is the persisted record written at the end of a
// successful install and read back to drive removal.
type UninstallMetadata struct {
	AppName     string            `json:"app_name"`
	Version     string            `json:"version"`
	InstallPath string            `json:"install_path"`
	InstallDate string            `json:"install_date"`
	InstallID   string            `json:"install_id"`
	Artifacts   map[string]string `json:"artifacts,omitempty"`
}

// NewMetadata stamps a metadata record with the current UTC time and a fresh
// install id.
func NewMetadata(version, installPath string, artifacts map[string]string) UninstallMetadata {
	return UninstallMetadata{
		AppName:     AppName,
		Version:     version,
		InstallPath: installPath,
		InstallDate: time.Now().UTC().Format(time.RFC3339),
		InstallID:   uuid.NewString(),
		Artifacts:   artifacts,
	}
}

// WriteMetadata persists the record as JSON at path.
func WriteMetadata(path string, meta UninstallMetadata) error {
	if err := file.WriteJSON(path, meta); err != nil {
		return &errdefs.IoError{Path: path, Err: err}
	}
	return nil
}

// LoadMetadata reads a record back. A missing install_path is a
// configuration error since removal cannot proceed without it.
func LoadMetadata(path string) (UninstallMetadata, error) {
	var meta UninstallMetadata
	if err := file.ReadJSON(path, &meta); err != nil {
		return UninstallMetadata{}, &errdefs.IoError{Path: path, Err: err}
	}
	if meta.InstallPath == "" {
		return UninstallMetadata{}, &errdefs.ConfigError{Reason: "missing install_path in metadata"}
	}
	return meta, nil
}

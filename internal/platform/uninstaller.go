package platform

import (
	"os"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/logger"
	"github.com/pulsar-engine/installer/internal/progress"
)

// Uninstaller drives a symmetric removal from a persisted metadata record.
type Uninstaller struct {
	meta      UninstallMetadata
	registrar Registrar
}

// NewUninstaller builds an uninstaller for an in-memory record.
func NewUninstaller(meta UninstallMetadata, registrar Registrar) *Uninstaller {
	return &Uninstaller{meta: meta, registrar: registrar}
}

// UninstallerFromMetadata loads the record from disk first.
func UninstallerFromMetadata(metadataPath string, registrar Registrar) (*Uninstaller, error) {
	meta, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, err
	}
	return NewUninstaller(meta, registrar), nil
}

// Metadata returns the record driving this removal.
func (u *Uninstaller) Metadata() UninstallMetadata {
	return u.meta
}

// Uninstall removes platform artifacts, then the install path itself. Every
// removal uses remove-if-exists semantics so a partially removed install can
// be cleaned again.
func (u *Uninstaller) Uninstall(sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	log := logger.Logger()

	sink(progress.New(0).WithMessage("Removing platform integration"))
	if err := u.registrar.Unregister(u.meta.InstallPath); err != nil {
		return err
	}
	sink(progress.New(40).WithMessage("Removing installed files"))

	// Artifact paths recorded at install time may include locations the
	// current registrar no longer computes (e.g. after a layout change);
	// sweep them too.
	for kind, path := range u.meta.Artifacts {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
			log.Warnf("failed to remove %s artifact %s: %v", kind, path, err)
		}
	}
	sink(progress.New(70))

	if err := os.RemoveAll(u.meta.InstallPath); err != nil && !os.IsNotExist(err) {
		return &errdefs.IoError{Path: u.meta.InstallPath, Err: err}
	}

	sink(progress.New(100).WithMessage("Uninstall complete"))
	log.Infof("uninstalled %s %s from %s", u.meta.AppName, u.meta.Version, u.meta.InstallPath)
	return nil
}

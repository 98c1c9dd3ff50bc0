package steps

import (
	"context"

	"github.com/pulsar-engine/installer/internal/platform"
	"github.com/pulsar-engine/installer/internal/progress"
)

// RegisterStep wires the install into the operating system: desktop entries,
// launchers and uninstall metadata. Disabled when the user declined shortcut
// creation; the pipeline skips it via CanExecute.
type RegisterStep struct {
	registrar   platform.Registrar
	installPath string
	version     string
	enabled     bool
}

// NewRegisterStep binds the platform registrar. enabled reflects the user's
// shortcut preference.
func NewRegisterStep(registrar platform.Registrar, installPath, version string, enabled bool) *RegisterStep {
	return &RegisterStep{
		registrar:   registrar,
		installPath: installPath,
		version:     version,
		enabled:     enabled,
	}
}

func (s *RegisterStep) Name() string        { return "register-platform" }
func (s *RegisterStep) Description() string { return "Registering with the system" }

func (s *RegisterStep) CanExecute() (bool, error) { return s.enabled, nil }

func (s *RegisterStep) Execute(ctx context.Context, sink progress.Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.registrar.Register(s.installPath, s.version, sink)
}

// Rollback unregisters. Registrars use remove-if-exists semantics, so a
// rollback after a skipped or partial Register is safe.
func (s *RegisterStep) Rollback() error {
	return s.registrar.Unregister(s.installPath)
}

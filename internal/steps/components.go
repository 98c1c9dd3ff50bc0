package steps

import (
	"context"

	"github.com/pulsar-engine/installer/internal/component"
	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/logger"
	"github.com/pulsar-engine/installer/internal/progress"
)

// InstallComponentsStep runs the installers for every selected component,
// weighting progress by declared component size. Rollback uninstalls the
// components that completed, in reverse install order.
type InstallComponentsStep struct {
	installers  []component.Installer
	selection   *component.Selection
	installPath string

	installed []component.Installer
}

// NewInstallComponentsStep binds the installer set, the user's selection and
// the install target.
func NewInstallComponentsStep(installers []component.Installer, selection *component.Selection, installPath string) *InstallComponentsStep {
	return &InstallComponentsStep{
		installers:  installers,
		selection:   selection,
		installPath: installPath,
	}
}

func (s *InstallComponentsStep) Name() string        { return "install-components" }
func (s *InstallComponentsStep) Description() string { return "Installing components" }

func (s *InstallComponentsStep) CanExecute() (bool, error) { return true, nil }

func (s *InstallComponentsStep) Execute(ctx context.Context, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	log := logger.Logger()

	selected := s.selectedInstallers()
	var totalSize uint64
	for _, inst := range selected {
		totalSize += inst.SizeBytes()
	}

	var done uint64
	for i, inst := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}

		lo, hi := weightRange(done, inst.SizeBytes(), totalSize, i, len(selected))
		compSink := progress.Scaled(sink, lo, hi)
		compSink(progress.New(0).WithMessage("Installing " + inst.Name()))

		log.Infof("installing component %s", inst.ID())
		if err := inst.Install(ctx, s.installPath, compSink); err != nil {
			return &errdefs.ComponentFailed{Component: inst.ID(), Reason: err.Error()}
		}
		if !inst.Verify(s.installPath) {
			return &errdefs.ComponentFailed{Component: inst.ID(), Reason: "verification failed after install"}
		}

		s.installed = append(s.installed, inst)
		done += inst.SizeBytes()
	}

	sink(progress.New(100).WithMessage("Components installed"))
	return nil
}

// Rollback uninstalls completed components in reverse order, continuing past
// individual failures.
func (s *InstallComponentsStep) Rollback() error {
	log := logger.Logger()
	var firstErr error
	for i := len(s.installed) - 1; i >= 0; i-- {
		inst := s.installed[i]
		if err := inst.Uninstall(s.installPath); err != nil {
			log.Warnf("failed to uninstall component %s: %v", inst.ID(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	s.installed = nil
	return firstErr
}

func (s *InstallComponentsStep) selectedInstallers() []component.Installer {
	var out []component.Installer
	for _, inst := range s.installers {
		if s.selection == nil || s.selection.IsSelected(inst.ID()) {
			out = append(out, inst)
		}
	}
	return out
}

// weightRange maps one component's share of the total size onto a progress
// sub-range. Zero-size catalogs fall back to equal weighting.
func weightRange(done, size, total uint64, index, count int) (lo, hi float64) {
	if total == 0 {
		step := 100 / float64(count)
		return float64(index) * step, float64(index+1) * step
	}
	lo = float64(done) / float64(total) * 100
	hi = float64(done+size) / float64(total) * 100
	return lo, hi
}

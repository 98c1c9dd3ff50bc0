package steps

import (
	"context"

	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/sysinfo"
)

// CheckRequirementsStep gates the pipeline on the host meeting the minimum
// system requirements. It has no side effects, so Rollback is a no-op.
type CheckRequirementsStep struct {
	detector    sysinfo.Detector
	req         sysinfo.Requirements
	installPath string
}

// NewCheckRequirementsStep binds the host detector and the install target.
func NewCheckRequirementsStep(detector sysinfo.Detector, req sysinfo.Requirements, installPath string) *CheckRequirementsStep {
	return &CheckRequirementsStep{detector: detector, req: req, installPath: installPath}
}

func (s *CheckRequirementsStep) Name() string        { return "check-requirements" }
func (s *CheckRequirementsStep) Description() string { return "Checking system requirements" }

func (s *CheckRequirementsStep) CanExecute() (bool, error) { return true, nil }

func (s *CheckRequirementsStep) Execute(ctx context.Context, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sink(progress.New(10).WithMessage("Validating install path"))
	if err := s.detector.ValidateInstallPath(s.installPath); err != nil {
		return err
	}

	sink(progress.New(50).WithMessage("Checking disk space and architecture"))
	if err := s.detector.CheckRequirements(s.req, s.installPath); err != nil {
		return err
	}

	sink(progress.New(100).WithMessage("System requirements satisfied"))
	return nil
}

func (s *CheckRequirementsStep) Rollback() error { return nil }

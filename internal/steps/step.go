// Package steps defines the reversible units of installation work and the
// pipeline that sequences them.
package steps

import (
	"context"

	"github.com/pulsar-engine/installer/internal/progress"
)

// Step is one reversible unit of installation work. Implementations must
// derive everything Rollback needs from construction parameters, never from
// execution-time state: Rollback can run after a partial Execute and must
// tolerate whatever it finds (remove-if-exists, not remove-or-error).
type Step interface {
	// Name is a short human-readable identifier.
	Name() string

	// Description says what the step does, for status display.
	Description() string

	// CanExecute lets a step opt out based on configuration. It must be
	// side-effect free: calling it twice without Execute in between returns
	// the same result.
	CanExecute() (bool, error)

	// Execute performs the work, reporting progress on its own 0-100 scale.
	// It is called at most once per pipeline run, and only after CanExecute
	// returned true.
	Execute(ctx context.Context, sink progress.Sink) error

	// Rollback undoes the step's side effects, best effort. Failures are
	// logged by the pipeline, never propagated over the original error.
	Rollback() error
}
